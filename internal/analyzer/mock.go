package analyzer

import (
	"context"
	"fmt"
	"os"

	"github.com/zhengcoach/zhengcoach/internal/report"
)

func timeRange(start, end float64) (s, e *float64) {
	return &start, &end
}

// MockAudioAnalyzer returns the reference scoring payload for every
// recording. It still validates that the file exists so upload plumbing
// bugs surface here rather than disappearing into canned data.
type MockAudioAnalyzer struct{}

func (MockAudioAnalyzer) AnalyzeAudio(ctx context.Context, audioPath, songID string) (*AudioResult, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("audio file not readable: %w", err)
	}

	pitchStart, pitchEnd := timeRange(8.2, 15.5)
	rhythmStart, rhythmEnd := timeRange(22.0, 30.0)

	return &AudioResult{
		PitchAccuracy:  85,
		RhythmAccuracy: 80,
		Dynamics:       68,
		OverallScore:   78,
		PitchCurve:     []float64{},
		BeatAlignment:  []float64{},
		Issues: []report.Issue{
			{
				Severity:    report.SeverityWarning,
				Title:       "第3-5小节音准偏低",
				Description: "按音段落音高整体偏低约20音分，可能是按弦力度不足。",
				Suggestion:  "加强左手按弦力度，搭配调音器进行校准练习。",
				StartTime:   pitchStart,
				EndTime:     pitchEnd,
			},
			{
				Severity:    report.SeverityInfo,
				Title:       "节奏整体稳定",
				Description: "节奏准确度较高，快速段落有轻微赶拍现象。",
				Suggestion:  "快速段落搭配节拍器从慢速开始练习，逐步加速。",
				StartTime:   rhythmStart,
				EndTime:     rhythmEnd,
			},
		},
	}, nil
}

// MockHandAnalyzer returns the reference hand-posture payload.
type MockHandAnalyzer struct{}

func (MockHandAnalyzer) AnalyzeHands(ctx context.Context, videoPath string) (*HandResult, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("video file not readable: %w", err)
	}

	thumbTs := 12.4

	return &HandResult{
		OverallScore:   72,
		HandDetected:   true,
		FrameCount:     24,
		DetectedFrames: 21,
		Issues: []report.Issue{
			{
				Severity:    report.SeverityWarning,
				Title:       "右手大指角度偏大",
				Description: "录像分析显示右手大指在托弦时角度偏大约15°，可能导致音色偏硬。",
				Suggestion:  "练习时注意大指自然弯曲，指尖触弦，保持约45°角。",
				Timestamp:   &thumbTs,
			},
			{
				Severity:    report.SeverityInfo,
				Title:       "左手按弦位置可优化",
				Description: "部分按音时左手位置略偏向琴码方向，影响按音的音准稳定性。",
				Suggestion:  "左手按弦点应在琴码左侧约15cm处，用指肚按压并保持手腕放松。",
			},
		},
	}, nil
}
