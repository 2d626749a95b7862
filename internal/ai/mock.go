package ai

// Rule-based fallbacks used when no API key is configured. The thresholds
// follow common shooting-form coaching guidance: ~90 degree shooting elbow,
// visible knee bend, upright trunk.

func mockRealtimeFeedback(frame FramePayload) string {
	angles := frame.Angles

	if angles.RightElbowAngle > 0 && angles.RightElbowAngle < 70 {
		return "Your shooting elbow is too bent. Try to form closer to a 90-degree angle with your elbow."
	}
	if angles.RightElbowAngle > 110 {
		return "Your shooting elbow is too straight. Bend it closer to a 90-degree angle for better control."
	}
	if angles.KneeAngle > 160 {
		return "Bend your knees more to generate proper shooting power from your legs."
	}
	if angles.TrunkAngle > 20 {
		return "Keep your upper body more upright. You're leaning too far forward."
	}
	return "Good form. Maintain your balance and follow through completely."
}

func mockFormAnalysis(req FormAnalysisRequest) *FormAnalysisResponse {
	frames := req.Frames

	resp := &FormAnalysisResponse{
		Feedback:   "Your shooting form shows good potential. Focus on maintaining proper elbow alignment and follow-through.",
		Confidence: 0.85,
		KeyPoints:  []string{"Elbow alignment", "Follow-through", "Balance"},
	}
	if req.RequestSummary {
		resp.Summary = "Overall, your shot mechanics are solid but need refinement in arm positioning and power generation. Keep your elbow aligned and focus on a smooth, continuous motion from start to finish."
	}

	selected := []FramePayload{frames[0]}
	if len(frames) > 2 {
		selected = append(selected, frames[len(frames)/2], frames[len(frames)-1])
	} else if len(frames) == 2 {
		selected = append(selected, frames[1])
	}

	feedbacks := []struct {
		feedback  string
		keyPoints []string
	}{
		{"Good starting position with balanced stance.", []string{"Balanced stance", "Good knee bend"}},
		{"Keep your shooting elbow more aligned with your shoulder for better accuracy.", []string{"Elbow alignment needs adjustment"}},
		{"Extend fully through your follow-through to add more power and accuracy.", []string{"Complete your follow-through"}},
	}

	for i, frame := range selected {
		resp.FrameAnalysis = append(resp.FrameAnalysis, FrameFeedback{
			FrameNumber: frame.FrameNumber,
			Feedback:    feedbacks[i].feedback,
			Confidence:  0.8 + float64(i)*0.05,
			KeyPoints:   feedbacks[i].keyPoints,
		})
	}

	return resp
}
