package report

import (
	"reflect"
	"strings"
	"testing"
)

func TestLevelForScore(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		level string
	}{
		{"zero", 0, LevelNeedsImprovement},
		{"just below fair", 59.9, LevelNeedsImprovement},
		{"fair boundary", 60, LevelFair},
		{"mid fair", 75, LevelFair},
		{"just below good", 79.9, LevelFair},
		{"good boundary", 80, LevelGood},
		{"mid good", 85, LevelGood},
		{"just below excellent", 89.9, LevelGood},
		{"excellent boundary", 90, LevelExcellent},
		{"perfect", 100, LevelExcellent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LevelForScore(tt.score); got != tt.level {
				t.Errorf("LevelForScore(%v) = %q, want %q", tt.score, got, tt.level)
			}
		})
	}
}

func TestNormalizeDimensions(t *testing.T) {
	n := NewNormalizer(nil)

	t.Run("absent dimensions are omitted", func(t *testing.T) {
		raw := &RawAnalysisResult{
			OverallScore:   78,
			PitchAccuracy:  Score(85),
			RhythmAccuracy: Score(80),
		}

		rep := n.Normalize(raw)
		if len(rep.Dimensions) != 2 {
			t.Fatalf("expected 2 dimensions, got %d: %+v", len(rep.Dimensions), rep.Dimensions)
		}
		for _, dim := range rep.Dimensions {
			if dim.Name == dimensionHand || dim.Name == dimensionDynamics {
				t.Errorf("dimension %q should be omitted, not zero-filled", dim.Name)
			}
		}
	})

	t.Run("explicit zero is kept", func(t *testing.T) {
		raw := &RawAnalysisResult{
			OverallScore:  10,
			PitchAccuracy: Score(0),
		}

		rep := n.Normalize(raw)
		if len(rep.Dimensions) != 1 {
			t.Fatalf("expected 1 dimension, got %d", len(rep.Dimensions))
		}
		if rep.Dimensions[0].Score != 0 {
			t.Errorf("expected explicit zero score, got %v", rep.Dimensions[0].Score)
		}
	})

	t.Run("scores are clamped to 0..100", func(t *testing.T) {
		raw := &RawAnalysisResult{
			OverallScore:  130,
			PitchAccuracy: Score(-5),
		}

		rep := n.Normalize(raw)
		if rep.OverallScore != 100 {
			t.Errorf("expected overall clamped to 100, got %v", rep.OverallScore)
		}
		if rep.Dimensions[0].Score != 0 {
			t.Errorf("expected dimension clamped to 0, got %v", rep.Dimensions[0].Score)
		}
	})
}

func TestNormalizeAdvice(t *testing.T) {
	n := NewNormalizer(nil)

	t.Run("never empty", func(t *testing.T) {
		rep := n.Normalize(&RawAnalysisResult{OverallScore: 95})
		if len(rep.Advice) != 1 {
			t.Fatalf("expected exactly one generic advice line, got %d", len(rep.Advice))
		}
		if rep.Advice[0] != adviceGeneric {
			t.Errorf("expected generic encouragement, got %q", rep.Advice[0])
		}
	})

	t.Run("strong dimensions produce no advice lines", func(t *testing.T) {
		raw := &RawAnalysisResult{
			OverallScore:   92,
			PitchAccuracy:  Score(95),
			RhythmAccuracy: Score(80),
			Dynamics:       Score(70),
			HandScore:      Score(70),
		}

		rep := n.Normalize(raw)
		if len(rep.Advice) != 1 || rep.Advice[0] != adviceGeneric {
			t.Errorf("boundary scores are not weak; expected generic advice, got %v", rep.Advice)
		}
	})

	t.Run("weak dimensions in priority order", func(t *testing.T) {
		raw := &RawAnalysisResult{
			OverallScore:   55,
			PitchAccuracy:  Score(60),
			RhythmAccuracy: Score(65),
			Dynamics:       Score(50),
			HandScore:      Score(40),
		}

		rep := n.Normalize(raw)
		want := []string{advicePitch, adviceRhythm, adviceDynamics, adviceHand}
		if !reflect.DeepEqual(rep.Advice, want) {
			t.Errorf("advice order mismatch:\n got %v\nwant %v", rep.Advice, want)
		}
	})

	t.Run("unscored dimensions are never weak", func(t *testing.T) {
		raw := &RawAnalysisResult{
			OverallScore:  40,
			PitchAccuracy: Score(60),
		}

		rep := n.Normalize(raw)
		if len(rep.Advice) != 1 || rep.Advice[0] != advicePitch {
			t.Errorf("expected only pitch advice, got %v", rep.Advice)
		}
	})
}

// Reference scenario: combined analysis with one hand issue and one pitch
// issue, dynamics the only weak dimension.
func TestNormalizeScenario(t *testing.T) {
	n := NewNormalizer(nil)

	raw := &RawAnalysisResult{
		OverallScore:   78,
		PitchAccuracy:  Score(85),
		RhythmAccuracy: Score(80),
		Dynamics:       Score(68),
		HandScore:      Score(72),
		Issues: []Issue{
			{Severity: SeverityWarning, Title: "右手大指角度偏大"},
			{Severity: SeverityWarning, Title: "第3-5小节音准偏低"},
		},
	}

	rep := n.Normalize(raw)

	if rep.Level != LevelFair {
		t.Errorf("overall 78 should be %q, got %q", LevelFair, rep.Level)
	}
	if len(rep.HandIssues) != 1 || rep.HandIssues[0].Title != "右手大指角度偏大" {
		t.Errorf("expected thumb-angle issue in hand bucket, got %+v", rep.HandIssues)
	}
	if len(rep.AudioIssues) != 1 || rep.AudioIssues[0].Title != "第3-5小节音准偏低" {
		t.Errorf("expected pitch issue in audio bucket, got %+v", rep.AudioIssues)
	}
	if len(rep.Dimensions) != 4 {
		t.Errorf("expected all four dimensions, got %d", len(rep.Dimensions))
	}

	joined := strings.Join(rep.Advice, "\n")
	if !strings.Contains(joined, adviceDynamics) {
		t.Errorf("dynamics 68 is weak; advice should include the dynamics line: %v", rep.Advice)
	}
	if strings.Contains(joined, advicePitch) || strings.Contains(joined, adviceRhythm) {
		t.Errorf("pitch 85 and rhythm 80 are not weak; advice = %v", rep.Advice)
	}
}

func TestNormalizePreservesIssues(t *testing.T) {
	n := NewNormalizer(nil)

	ts := 3.5
	raw := &RawAnalysisResult{
		OverallScore: 70,
		Issues: []Issue{
			{Severity: SeverityError, Title: "手型检出率过低", Timestamp: &ts},
			{Severity: SeverityInfo, Title: "节奏整体稳定"},
			{Severity: SeverityWarning},
		},
	}

	rep := n.Normalize(raw)

	total := len(rep.HandIssues) + len(rep.AudioIssues)
	if total != len(raw.Issues) {
		t.Fatalf("normalization must keep every issue: got %d of %d", total, len(raw.Issues))
	}

	if len(rep.HandIssues) != 1 {
		t.Errorf("detection-rate issue should be hand-bucketed, got %+v", rep.HandIssues)
	}
	if rep.HandIssues[0].Severity != SeverityError {
		t.Errorf("severity must survive normalization, got %q", rep.HandIssues[0].Severity)
	}
	if rep.HandIssues[0].Timestamp == nil || *rep.HandIssues[0].Timestamp != ts {
		t.Errorf("time location must survive normalization, got %+v", rep.HandIssues[0].Timestamp)
	}

	// The untitled issue stays visible in the audio bucket.
	if len(rep.AudioIssues) != 2 {
		t.Errorf("untitled issue must land in the default bucket, got %+v", rep.AudioIssues)
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	n := NewNormalizer(nil)

	raw := &RawAnalysisResult{
		OverallScore:  82,
		PitchAccuracy: Score(85),
		HandScore:     Score(65),
		Issues: []Issue{
			{Severity: SeverityWarning, Title: "右手大指角度偏大"},
			{Severity: SeverityInfo, Title: "节奏整体稳定"},
		},
	}

	first := n.Normalize(raw)
	for i := 0; i < 5; i++ {
		again := n.Normalize(raw)
		if !reflect.DeepEqual(first.HandIssues, again.HandIssues) ||
			!reflect.DeepEqual(first.AudioIssues, again.AudioIssues) {
			t.Fatal("bucket assignment must be deterministic across runs")
		}
		if !reflect.DeepEqual(first.Advice, again.Advice) {
			t.Fatal("advice must be deterministic across runs")
		}
	}
}
