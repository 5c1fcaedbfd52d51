package report

import (
	"time"
)

// Level labels and their inclusive lower bounds. 90 and above is Excellent,
// 80 and above Good, 60 and above Fair, everything below Needs Improvement.
const (
	LevelExcellent        = "Excellent"
	LevelGood             = "Good"
	LevelFair             = "Fair"
	LevelNeedsImprovement = "Needs Improvement"
)

// Dimension display names as shown on the report page.
const (
	dimensionHand     = "手型姿势"
	dimensionPitch    = "音准"
	dimensionRhythm   = "节奏"
	dimensionDynamics = "力度控制"
)

// Weak-dimension thresholds for advice generation.
const (
	weakPitchBelow    = 80
	weakRhythmBelow   = 80
	weakDynamicsBelow = 70
	weakHandBelow     = 70
)

var (
	advicePitch    = "建议搭配调音器进行按音练习，每个按音保持3秒确认音准后再进行下一个。"
	adviceRhythm   = "快速段落用节拍器从60BPM开始，每次提速5BPM，直到达到目标速度。"
	adviceDynamics = "加强力度控制练习，托、勾、抹交替时注意触弦深度一致，保持音量均匀。"
	adviceHand     = "重点练习右手基本指法（托、勾、抹），对着镜子慢速练习，注意手型保持。"
	adviceGeneric  = "各项表现均衡良好，保持当前的练习节奏，可以尝试挑战更高难度的曲目。"
)

// Normalizer converts raw analysis payloads into canonical reports. It is a
// pure mapping: the same raw result always normalizes to the same report
// apart from the generation timestamp.
type Normalizer struct {
	classifier *IssueClassifier
	now        func() time.Time
}

func NewNormalizer(classifier *IssueClassifier) *Normalizer {
	if classifier == nil {
		classifier = DefaultClassifier()
	}
	return &Normalizer{
		classifier: classifier,
		now:        time.Now,
	}
}

// Normalize builds the canonical report for a raw result. Dimensions absent
// from the raw payload are omitted rather than zero-filled; every raw issue
// ends up in exactly one bucket.
func (n *Normalizer) Normalize(raw *RawAnalysisResult) *CanonicalReport {
	r := &CanonicalReport{
		OverallScore: clampScore(raw.OverallScore),
		Level:        LevelForScore(raw.OverallScore),
		Dimensions:   n.buildDimensions(raw),
		HandIssues:   []Issue{},
		AudioIssues:  []Issue{},
		GeneratedAt:  n.now(),
	}

	for _, issue := range raw.Issues {
		if n.classifier.IsHandIssue(issue) {
			r.HandIssues = append(r.HandIssues, issue)
		} else {
			r.AudioIssues = append(r.AudioIssues, issue)
		}
	}

	r.Advice = n.buildAdvice(raw)

	return r
}

// LevelForScore maps an overall score to its level label. Boundary values
// belong to the higher bucket.
func LevelForScore(score float64) string {
	switch {
	case score >= 90:
		return LevelExcellent
	case score >= 80:
		return LevelGood
	case score >= 60:
		return LevelFair
	default:
		return LevelNeedsImprovement
	}
}

func (n *Normalizer) buildDimensions(raw *RawAnalysisResult) []DimensionScore {
	dims := []DimensionScore{}
	if raw.HandScore != nil {
		dims = append(dims, DimensionScore{Name: dimensionHand, Score: clampScore(*raw.HandScore)})
	}
	if raw.PitchAccuracy != nil {
		dims = append(dims, DimensionScore{Name: dimensionPitch, Score: clampScore(*raw.PitchAccuracy)})
	}
	if raw.RhythmAccuracy != nil {
		dims = append(dims, DimensionScore{Name: dimensionRhythm, Score: clampScore(*raw.RhythmAccuracy)})
	}
	if raw.Dynamics != nil {
		dims = append(dims, DimensionScore{Name: dimensionDynamics, Score: clampScore(*raw.Dynamics)})
	}
	return dims
}

// buildAdvice emits one advice line per weak dimension in fixed priority
// order: pitch, rhythm, dynamics, hand. A dimension with no score is never
// weak. When nothing is weak a single encouragement line is emitted, so the
// advice list is never empty.
func (n *Normalizer) buildAdvice(raw *RawAnalysisResult) []string {
	advice := []string{}

	if raw.PitchAccuracy != nil && *raw.PitchAccuracy < weakPitchBelow {
		advice = append(advice, advicePitch)
	}
	if raw.RhythmAccuracy != nil && *raw.RhythmAccuracy < weakRhythmBelow {
		advice = append(advice, adviceRhythm)
	}
	if raw.Dynamics != nil && *raw.Dynamics < weakDynamicsBelow {
		advice = append(advice, adviceDynamics)
	}
	if raw.HandScore != nil && *raw.HandScore < weakHandBelow {
		advice = append(advice, adviceHand)
	}

	if len(advice) == 0 {
		advice = append(advice, adviceGeneric)
	}

	return advice
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
