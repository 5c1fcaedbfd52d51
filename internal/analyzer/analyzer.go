// Package analyzer hosts the analysis services behind the /api/analyze
// endpoints. Real pitch detection, onset detection and hand-pose estimation
// run in external ML services; the implementations here return the canned
// results those services are contracted to produce, so the rest of the
// pipeline can be built and exercised against the final payload shape.
package analyzer

import (
	"context"

	"github.com/zhengcoach/zhengcoach/internal/report"
)

// AudioResult is the audio service's portion of an analysis: pitch, rhythm
// and dynamics scoring plus the issues it flagged.
type AudioResult struct {
	PitchAccuracy  float64
	RhythmAccuracy float64
	Dynamics       float64
	OverallScore   float64
	PitchCurve     []float64
	BeatAlignment  []float64
	Issues         []report.Issue
}

// HandResult is the hand-pose service's portion: posture scoring over the
// sampled video frames.
type HandResult struct {
	OverallScore   float64
	HandDetected   bool
	FrameCount     int
	DetectedFrames int
	Issues         []report.Issue
}

// AudioAnalyzer scores a recorded audio file against an optional reference
// song.
type AudioAnalyzer interface {
	AnalyzeAudio(ctx context.Context, audioPath, songID string) (*AudioResult, error)
}

// HandAnalyzer scores hand posture from a recorded video file.
type HandAnalyzer interface {
	AnalyzeHands(ctx context.Context, videoPath string) (*HandResult, error)
}

// Audio and hand scores are weighted 60/40 in the combined overall score.
const (
	audioWeight = 0.6
	handWeight  = 0.4
)

// CombineResults merges the two services' outputs into one raw result:
// weighted overall score, both dimension sets, and the concatenation of all
// issues. No issue is dropped or rewritten here.
func CombineResults(audio *AudioResult, hand *HandResult) *report.RawAnalysisResult {
	overall := float64(int(audio.OverallScore*audioWeight + hand.OverallScore*handWeight))

	issues := make([]report.Issue, 0, len(audio.Issues)+len(hand.Issues))
	issues = append(issues, audio.Issues...)
	issues = append(issues, hand.Issues...)

	return &report.RawAnalysisResult{
		OverallScore:   overall,
		PitchAccuracy:  report.Score(audio.PitchAccuracy),
		RhythmAccuracy: report.Score(audio.RhythmAccuracy),
		Dynamics:       report.Score(audio.Dynamics),
		HandScore:      report.Score(hand.OverallScore),
		HandDetected:   hand.HandDetected,
		PitchCurve:     audio.PitchCurve,
		BeatAlignment:  audio.BeatAlignment,
		Issues:         issues,
	}
}

// AudioOnlyResult shapes a standalone audio analysis into the raw result
// contract. The hand dimension stays absent, not zero.
func AudioOnlyResult(audio *AudioResult) *report.RawAnalysisResult {
	return &report.RawAnalysisResult{
		OverallScore:   audio.OverallScore,
		PitchAccuracy:  report.Score(audio.PitchAccuracy),
		RhythmAccuracy: report.Score(audio.RhythmAccuracy),
		Dynamics:       report.Score(audio.Dynamics),
		PitchCurve:     audio.PitchCurve,
		BeatAlignment:  audio.BeatAlignment,
		Issues:         audio.Issues,
	}
}
