package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PracticeRecord is one analyzed practice session as persisted by the
// analysis service. Result holds the raw analysis payload as JSON.
type PracticeRecord struct {
	ID           string
	Mode         string
	SongID       string
	Duration     float64
	OverallScore float64
	Result       json.RawMessage
	CreatedAt    time.Time
}

func NewPracticeRecord(mode, songID string, duration, overallScore float64, result json.RawMessage) *PracticeRecord {
	return &PracticeRecord{
		ID:           uuid.New().String(),
		Mode:         mode,
		SongID:       songID,
		Duration:     duration,
		OverallScore: overallScore,
		Result:       result,
		CreatedAt:    time.Now(),
	}
}
