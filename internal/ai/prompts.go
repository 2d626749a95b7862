package ai

import (
	"fmt"
	"strings"
)

// modelTemperature keeps feedback wording stable between runs over the
// same motion.
const modelTemperature = 0.3

func writeFrameVitals(sb *strings.Builder, f FramePayload) {
	fmt.Fprintf(sb, "Frame #%d (%.2fs):\n", f.FrameNumber, f.Timestamp)
	fmt.Fprintf(sb, "- Right Elbow Angle: %.1f°\n", f.Angles.RightElbowAngle)
	fmt.Fprintf(sb, "- Right Shoulder Angle: %.1f°\n", f.Angles.RightShoulderAngle)
	fmt.Fprintf(sb, "- Right Wrist Angle: %.1f°\n", f.Angles.RightWristAngle)
	fmt.Fprintf(sb, "- Left Elbow Angle: %.1f°\n", f.Angles.LeftElbowAngle)
	fmt.Fprintf(sb, "- Left Shoulder Angle: %.1f°\n", f.Angles.LeftShoulderAngle)
	fmt.Fprintf(sb, "- Left Wrist Angle: %.1f°\n", f.Angles.LeftWristAngle)
	fmt.Fprintf(sb, "- Knee Angle: %.1f°\n", f.Angles.KneeAngle)
	fmt.Fprintf(sb, "- Hip Angle: %.1f°\n", f.Angles.HipAngle)
	fmt.Fprintf(sb, "- Ankle Angle: %.1f°\n", f.Angles.AnkleAngle)
	fmt.Fprintf(sb, "- Trunk Angle: %.1f°\n", f.Angles.TrunkAngle)
	if f.BallPosition != nil {
		fmt.Fprintf(sb, "- Ball Position: X: %.2f, Y: %.2f, Z: %.2f\n",
			f.BallPosition[0], f.BallPosition[1], f.BallPosition[2])
	} else {
		sb.WriteString("- Ball not visible\n")
	}
}

// RealtimePrompt builds the single-frame coaching prompt used by the
// buffered pre-compute path.
func RealtimePrompt(f FramePayload) string {
	var sb strings.Builder

	sb.WriteString("You are an expert basketball shooting coach AI named 'Shot Doctor'. ")
	sb.WriteString("You're analyzing a player's basketball shooting form in real-time.\n\n")
	fmt.Fprintf(&sb, "You're currently viewing frame #%d at timestamp %.2f seconds.\n\n", f.FrameNumber, f.Timestamp)
	sb.WriteString("The player's joint angles are as follows:\n")
	writeFrameVitals(&sb, f)
	sb.WriteString("\nBased on this data, provide concise, professional feedback on the player's ")
	sb.WriteString("shooting form at this exact moment. Focus on proper basketball shooting ")
	sb.WriteString("mechanics and give actionable advice.\n\n")
	sb.WriteString("Keep your response concise (1-2 sentences max) and focused on the most ")
	sb.WriteString("important issue to correct at this moment.\n")

	return sb.String()
}

// maxPromptFrames caps how many frames of a batch are spelled out in the
// prompt; the remainder is summarized by count.
const maxPromptFrames = 10

// BatchPrompt builds the multi-frame coaching prompt. The response contract
// (JSON schema) is embedded so the reply can be demultiplexed by frame
// number.
func BatchPrompt(req FormAnalysisRequest) string {
	var sb strings.Builder

	sb.WriteString("You are an expert basketball shooting coach AI named 'Shot Doctor'. ")
	sb.WriteString("You're analyzing a sequence of frames from a player's basketball shot.\n\n")

	if ctx := req.Context; ctx != nil {
		sb.WriteString("Context:\n")
		fmt.Fprintf(&sb, "- Analyzing frames %d to %d\n", ctx.StartFrame, ctx.EndFrame)
		fmt.Fprintf(&sb, "- Total frames in this batch: %d\n", ctx.BatchSize)
		if ctx.IsSummaryRequest {
			sb.WriteString("- This is a request for an overall summary of the shot\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("The following data represents key frames from the shot sequence with the player's joint angles:\n\n")

	shown := len(req.Frames)
	if shown > maxPromptFrames {
		shown = maxPromptFrames
	}
	for _, f := range req.Frames[:shown] {
		writeFrameVitals(&sb, f)
		sb.WriteString("\n")
	}
	if rest := len(req.Frames) - shown; rest > 0 {
		fmt.Fprintf(&sb, "... and %d more frames\n\n", rest)
	}

	sb.WriteString("Analyze the player's shooting form and provide:\n")
	sb.WriteString("1. Specific feedback for 2-3 key moments in the sequence\n")
	if req.RequestSummary {
		sb.WriteString("2. A summary of the overall shot form and main improvement areas\n")
	}

	sb.WriteString("\nRespond in the following JSON format:\n{\n")
	sb.WriteString(`  "feedback": "Overall feedback on the shot sequence (1-2 sentences)",` + "\n")
	sb.WriteString(`  "confidence": 0.85,` + "\n")
	sb.WriteString(`  "keyPoints": ["Key point 1", "Key point 2"],` + "\n")
	if req.RequestSummary {
		sb.WriteString(`  "summary": "A 2-3 sentence summary of the overall shot form",` + "\n")
	}
	sb.WriteString(`  "frameAnalysis": [` + "\n")
	sb.WriteString("    {\n")
	sb.WriteString(`      "frameNumber": 123,` + "\n")
	sb.WriteString(`      "feedback": "Specific feedback for this frame",` + "\n")
	sb.WriteString(`      "confidence": 0.9,` + "\n")
	sb.WriteString(`      "keyPoints": ["Specific point 1", "Specific point 2"]` + "\n")
	sb.WriteString("    }\n  ]\n}\n\n")
	sb.WriteString("frameNumber must match one of the provided frame numbers. Focus on the most ")
	sb.WriteString("important aspects of shooting mechanics that need improvement. Be specific, ")
	sb.WriteString("actionable, and concise.\n")

	return sb.String()
}

// FullVideoPrompt builds the one-shot whole-video analysis prompt. The
// vitals for every sampled frame are appended as JSON lines; the matching
// JPEG frames travel alongside as image parts.
func FullVideoPrompt(duration float64, vitalsJSON []string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `You are an expert basketball shooting coach AI named 'Shot Doctor'. You are a world-class analyst, known for your hyper-specific, data-driven feedback. You will be given a sequence of data objects from a video of a user's jump shot. Each object contains a 'vitals' JSON object and a corresponding 'frame' as an image. The total duration of the video clip is %.1f seconds.

Your goal is to provide a detailed, constructive critique by identifying specific moments in time where the user can improve. You MUST use the provided 'vitals' data to make your feedback precise and quantitative.

Guidelines:
- BE HYPER-SPECIFIC: tie every piece of feedback to a data point (e.g. "At 1.3s, your right elbow angle is 125°, which is too wide for a stable shot").
- USE TIMESTAMPS: every feedback event must carry the timestamp of the moment it applies to.
- REFERENCE VITALS DATA: mention the angle or speed from the vitals directly.
- PROVIDE ACTIONABLE DRILLS: suggest a simple drill for each point of criticism.

Analyze stance and balance, shot pocket, elbow alignment (typically 90-110 degrees at set point), release point, and follow-through.

You MUST respond with a JSON object and nothing else, following this schema:
{
  "summary": "A 2-3 sentence summary identifying the single most impactful area for improvement and one thing the user did well.",
  "events": [
    {"timestamp": 1.2, "category": "Elbow Alignment", "feedback": "Detailed, actionable, data-driven feedback. Include a suggested drill."}
  ]
}
events must contain at least 3 entries, sorted by timestamp from earliest to latest.

Here are the vitals for each frame:
`, duration)

	for _, v := range vitalsJSON {
		sb.WriteString(v)
		sb.WriteString("\n")
	}

	return sb.String()
}

// RelevancePrompt asks the model whether the sampled frames show a
// basketball shot at all.
func RelevancePrompt() string {
	return `You are a video content moderator for a basketball coaching app.
You will be given a series of frames from a video.
Your task is to determine if the video shows a person attempting a basketball shot.
Look for a person, a basketball, and a shooting motion.
Respond with a single word: "Yes" if a shot is being attempted, or "No" if it is not.
`
}
