package report

import "time"

// Severity of a flagged issue as reported by the analysis boundary.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Issue is a single flagged problem inside a recording. StartTime/EndTime
// locate a range, Timestamp a single point; all are optional and fractional
// seconds.
type Issue struct {
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Suggestion  string   `json:"suggestion"`
	StartTime   *float64 `json:"startTime,omitempty"`
	EndTime     *float64 `json:"endTime,omitempty"`
	Timestamp   *float64 `json:"timestamp,omitempty"`
}

// RawAnalysisResult is the payload returned by the remote analysis service.
// Dimension scores are pointers: a nil score means the service did not
// compute that dimension, which is distinct from a score of zero.
type RawAnalysisResult struct {
	TaskID         string    `json:"taskId,omitempty"`
	Duration       float64   `json:"duration,omitempty"`
	OverallScore   float64   `json:"overallScore"`
	PitchAccuracy  *float64  `json:"pitchAccuracy,omitempty"`
	RhythmAccuracy *float64  `json:"rhythmAccuracy,omitempty"`
	Dynamics       *float64  `json:"dynamics,omitempty"`
	HandScore      *float64  `json:"handScore,omitempty"`
	HandDetected   bool      `json:"handDetected,omitempty"`
	PitchCurve     []float64 `json:"pitchCurve,omitempty"`
	BeatAlignment  []float64 `json:"beatAlignment,omitempty"`
	Issues         []Issue   `json:"issues"`
}

// DimensionScore is one named score line in the canonical report.
type DimensionScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// CanonicalReport is the normalized, display-ready report. It is produced
// once per analysis and never mutated afterwards.
type CanonicalReport struct {
	OverallScore float64          `json:"overallScore"`
	Level        string           `json:"level"`
	Dimensions   []DimensionScore `json:"dimensions"`
	HandIssues   []Issue          `json:"handIssues"`
	AudioIssues  []Issue          `json:"audioIssues"`
	Advice       []string         `json:"advice"`
	GeneratedAt  time.Time        `json:"generatedAt"`
}

// Score pointer helper for building raw results.
func Score(v float64) *float64 {
	return &v
}
