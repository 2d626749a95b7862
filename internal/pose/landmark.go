package pose

// Landmark is a single body keypoint as reported by the MediaPipe pose
// model: normalized [0,1] image-space coordinates plus a visibility
// confidence in [0,1].
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// MediaPipe pose landmark indices. The model always reports 33 points;
// only the ones used for shooting-form angles are named here.
const (
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftIndex      = 19
	RightIndex     = 20
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftFootIndex  = 31
	RightFootIndex = 32
)

// LandmarkCount is the size of a complete MediaPipe pose result.
const LandmarkCount = 33

// MinVisibility is the confidence threshold below which a landmark is
// treated as absent for angle computations.
const MinVisibility = 0.5

// Detection is an object-detector box for a tracked object (notably the
// ball), with corner coordinates in normalized image space.
type Detection struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Center returns the midpoint of the box.
func (b Box) Center() (float64, float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// BallPosition is the detected ball location for one frame. Z is zero for
// 2D detectors.
type BallPosition [3]float64

// FindBall scans detections for a ball box and returns its center, or nil
// when no ball was detected in the frame.
func FindBall(detections []Detection) *BallPosition {
	for _, det := range detections {
		if det.Name != "sports ball" && det.Name != "basketball" {
			continue
		}
		cx, cy := det.Box.Center()
		return &BallPosition{cx, cy, 0}
	}
	return nil
}
