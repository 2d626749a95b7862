package pose

import "math"

// JointAngles holds the named joint angles derived from one frame of pose
// landmarks, in degrees. A value of exactly 0 means "could not be computed"
// (landmark missing or below the visibility threshold), not a true zero
// angle; callers that care must check landmark visibility themselves.
type JointAngles struct {
	RightElbowAngle    float64 `json:"rightElbowAngle"`
	RightShoulderAngle float64 `json:"rightShoulderAngle"`
	RightWristAngle    float64 `json:"rightWristAngle"`
	LeftElbowAngle     float64 `json:"leftElbowAngle"`
	LeftShoulderAngle  float64 `json:"leftShoulderAngle"`
	LeftWristAngle     float64 `json:"leftWristAngle"`
	KneeAngle          float64 `json:"kneeAngle"`
	HipAngle           float64 `json:"hipAngle"`
	AnkleAngle         float64 `json:"ankleAngle"`
	TrunkAngle         float64 `json:"trunkAngle"`
}

// ComputeAngle returns the angle at vertex b formed by the segments b->a and
// b->c, in degrees [0,180]. It returns the 0 sentinel when any landmark is
// below the visibility threshold or the geometry is degenerate (zero-length
// vector); it never returns NaN.
func ComputeAngle(a, b, c Landmark) float64 {
	if a.Visibility < MinVisibility || b.Visibility < MinVisibility || c.Visibility < MinVisibility {
		return 0
	}

	bax := a.X - b.X
	bay := a.Y - b.Y
	baz := a.Z - b.Z
	bcx := c.X - b.X
	bcy := c.Y - b.Y
	bcz := c.Z - b.Z

	magBA := math.Sqrt(bax*bax + bay*bay + baz*baz)
	magBC := math.Sqrt(bcx*bcx + bcy*bcy + bcz*bcz)
	if magBA == 0 || magBC == 0 {
		return 0
	}

	cos := (bax*bcx + bay*bcy + baz*bcz) / (magBA * magBC)
	// Clamp against floating point drift so acos stays defined.
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}

	return math.Acos(cos) * 180 / math.Pi
}

// ComputeShootingAngles derives the joint angles relevant to shooting form
// from a full MediaPipe landmark set. Fewer than 33 landmarks yields the
// all-zero record rather than an error.
func ComputeShootingAngles(landmarks []Landmark) JointAngles {
	if len(landmarks) < LandmarkCount {
		return JointAngles{}
	}

	leftShoulder := landmarks[LeftShoulder]
	rightShoulder := landmarks[RightShoulder]
	leftElbow := landmarks[LeftElbow]
	rightElbow := landmarks[RightElbow]
	leftWrist := landmarks[LeftWrist]
	rightWrist := landmarks[RightWrist]
	leftIndex := landmarks[LeftIndex]
	rightIndex := landmarks[RightIndex]
	leftHip := landmarks[LeftHip]
	rightHip := landmarks[RightHip]
	leftKnee := landmarks[LeftKnee]
	rightKnee := landmarks[RightKnee]
	leftAnkle := landmarks[LeftAnkle]
	rightAnkle := landmarks[RightAnkle]
	rightFoot := landmarks[RightFootIndex]

	angles := JointAngles{
		RightElbowAngle:    ComputeAngle(rightShoulder, rightElbow, rightWrist),
		LeftElbowAngle:     ComputeAngle(leftShoulder, leftElbow, leftWrist),
		RightShoulderAngle: ComputeAngle(rightHip, rightShoulder, rightElbow),
		LeftShoulderAngle:  ComputeAngle(leftHip, leftShoulder, leftElbow),
		RightWristAngle:    ComputeAngle(rightElbow, rightWrist, rightIndex),
		LeftWristAngle:     ComputeAngle(leftElbow, leftWrist, leftIndex),
		HipAngle:           ComputeAngle(rightShoulder, rightHip, rightKnee),
		AnkleAngle:         ComputeAngle(rightKnee, rightAnkle, rightFoot),
	}

	// Knee bend is averaged over both legs.
	rightKneeAngle := ComputeAngle(rightHip, rightKnee, rightAnkle)
	leftKneeAngle := ComputeAngle(leftHip, leftKnee, leftAnkle)
	angles.KneeAngle = (rightKneeAngle + leftKneeAngle) / 2

	// Trunk lean is measured between the shoulder midpoint and a vertical
	// reference above the hip midpoint (image y grows downward).
	midShoulder := midpoint(leftShoulder, rightShoulder)
	midHip := midpoint(leftHip, rightHip)
	vertical := Landmark{X: midHip.X, Y: midHip.Y - 1, Z: midHip.Z, Visibility: 1}
	angles.TrunkAngle = ComputeAngle(midShoulder, midHip, vertical)

	return angles
}

func midpoint(a, b Landmark) Landmark {
	return Landmark{
		X:          (a.X + b.X) / 2,
		Y:          (a.Y + b.Y) / 2,
		Z:          (a.Z + b.Z) / 2,
		Visibility: math.Min(a.Visibility, b.Visibility),
	}
}
