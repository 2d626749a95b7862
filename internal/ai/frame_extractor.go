package ai

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// TargetFramesPerSecond is the sampling rate for full-video analysis.
// Two frames per second captures the motion of a jump shot without
// inflating the model payload.
const TargetFramesPerSecond = 2.0

// FrameExtractor pulls JPEG stills out of an uploaded video with ffmpeg.
type FrameExtractor struct {
	ffmpegPath string
	tempDir    string
}

func NewFrameExtractor() (*FrameExtractor, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	tempDir := filepath.Join(os.TempDir(), "shotcoach-frames")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &FrameExtractor{
		ffmpegPath: ffmpegPath,
		tempDir:    tempDir,
	}, nil
}

// Duration returns the video length in seconds.
func (fe *FrameExtractor) Duration(videoPath string) (float64, error) {
	return fe.probeDuration(videoPath)
}

// ExtractAtRate samples frames at fps frames per second across the whole
// video, scaled so neither dimension exceeds size pixels. Frames that fail
// to extract are skipped; at least one frame must succeed.
func (fe *FrameExtractor) ExtractAtRate(videoPath string, fps float64, size int) ([][]byte, float64, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, 0, fmt.Errorf("video file not accessible: %w", err)
	}

	duration, err := fe.probeDuration(videoPath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get video duration: %w", err)
	}
	if duration <= 0 {
		return nil, 0, fmt.Errorf("invalid video duration: %f", duration)
	}

	count := int(math.Ceil(duration * fps))
	if count < 1 {
		count = 1
	}

	frames, err := fe.ExtractFrames(videoPath, count, size)
	if err != nil {
		return nil, 0, err
	}
	return frames, duration, nil
}

// ExtractFrames samples count frames evenly spaced across the video.
func (fe *FrameExtractor) ExtractFrames(videoPath string, count int, size int) ([][]byte, error) {
	duration, err := fe.probeDuration(videoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get video duration: %w", err)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("invalid video duration: %f", duration)
	}

	frames := make([][]byte, 0, count)
	interval := duration / float64(count+1)

	for i := 1; i <= count; i++ {
		timestamp := interval * float64(i)
		frameData, err := fe.extractSingleFrame(videoPath, timestamp, size)
		if err != nil {
			log.Printf("[EXTRACT] Failed to extract frame at %.2fs: %v", timestamp, err)
			continue
		}
		frames = append(frames, frameData)
	}

	if len(frames) == 0 {
		return nil, fmt.Errorf("failed to extract any frames from video (attempted %d frames)", count)
	}

	return frames, nil
}

// EncodeFrames converts raw JPEG frames to the base64 strings the model
// request carries.
func EncodeFrames(frames [][]byte) []string {
	encoded := make([]string, len(frames))
	for i, frame := range frames {
		encoded[i] = base64.StdEncoding.EncodeToString(frame)
	}
	return encoded
}

func (fe *FrameExtractor) probeDuration(videoPath string) (float64, error) {
	// ffprobe gives the duration directly; fall back to scraping ffmpeg's
	// stderr banner when it is not installed.
	if ffprobePath, err := exec.LookPath("ffprobe"); err == nil {
		cmd := exec.Command(ffprobePath,
			"-v", "error",
			"-show_entries", "format=duration",
			"-of", "default=noprint_wrappers=1:nokey=1",
			videoPath)

		var stdout bytes.Buffer
		cmd.Stdout = &stdout

		if err := cmd.Run(); err == nil {
			durationStr := strings.TrimSpace(stdout.String())
			if duration, err := strconv.ParseFloat(durationStr, 64); err == nil && duration > 0 {
				return duration, nil
			}
		}
	}

	cmd := exec.Command(fe.ffmpegPath, "-i", videoPath, "-f", "null", "-")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	_ = cmd.Run()

	output := stderr.String()
	const durationPrefix = "Duration: "
	startIndex := strings.Index(output, durationPrefix)
	if startIndex == -1 {
		return 0, fmt.Errorf("duration not found in ffmpeg output")
	}

	startIndex += len(durationPrefix)
	endIndex := strings.Index(output[startIndex:], ",")
	if endIndex == -1 {
		return 0, fmt.Errorf("invalid duration format")
	}

	durationStr := output[startIndex : startIndex+endIndex]
	parts := strings.Split(durationStr, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid duration format: %s", durationStr)
	}

	hours, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, err
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, err
	}

	return hours*3600 + minutes*60 + seconds, nil
}

func (fe *FrameExtractor) extractSingleFrame(videoPath string, timestamp float64, size int) ([]byte, error) {
	tempFile := filepath.Join(fe.tempDir, fmt.Sprintf("frame_%f.jpg", timestamp))
	defer os.Remove(tempFile)

	args := []string{
		"-ss", fmt.Sprintf("%.2f", timestamp),
		"-i", videoPath,
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease", size, size),
		"-q:v", "2",
		"-f", "mjpeg",
		tempFile,
	}

	cmd := exec.Command(fe.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to extract frame at %f: %w (%s)", timestamp, err, stderr.String())
	}

	file, err := os.Open(tempFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open extracted frame: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	return buf.Bytes(), nil
}

func (fe *FrameExtractor) Cleanup() error {
	return os.RemoveAll(fe.tempDir)
}
