package database

import (
	"database/sql"
	"fmt"

	"github.com/zhengcoach/zhengcoach/internal/models"
)

// PracticeRecordRepository persists analyzed practice sessions.
type PracticeRecordRepository struct {
	db *DB
}

func NewPracticeRecordRepository(db *DB) *PracticeRecordRepository {
	return &PracticeRecordRepository{db: db}
}

func (r *PracticeRecordRepository) Insert(record *models.PracticeRecord) error {
	query := `
	INSERT INTO practice_records (id, mode, song_id, duration, overall_score, result, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.conn.Exec(query,
		record.ID, record.Mode, record.SongID, record.Duration,
		record.OverallScore, string(record.Result), record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert practice record: %w", err)
	}
	return nil
}

func (r *PracticeRecordRepository) GetByID(id string) (*models.PracticeRecord, error) {
	query := `
	SELECT id, mode, song_id, duration, overall_score, result, created_at
	FROM practice_records WHERE id = ?`

	record, err := scanRecord(r.db.conn.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("practice record not found")
		}
		return nil, fmt.Errorf("failed to get practice record: %w", err)
	}
	return record, nil
}

// ListRecent returns the newest records first, capped at limit.
func (r *PracticeRecordRepository) ListRecent(limit int) ([]models.PracticeRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
	SELECT id, mode, song_id, duration, overall_score, result, created_at
	FROM practice_records ORDER BY created_at DESC LIMIT ?`

	rows, err := r.db.conn.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list practice records: %w", err)
	}
	defer rows.Close()

	var records []models.PracticeRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan practice record: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate practice records: %w", err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.PracticeRecord, error) {
	var record models.PracticeRecord
	var result string

	err := row.Scan(&record.ID, &record.Mode, &record.SongID, &record.Duration,
		&record.OverallScore, &result, &record.CreatedAt)
	if err != nil {
		return nil, err
	}

	record.Result = []byte(result)
	return &record, nil
}
