package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Analysis is one saved summary. Summary holds the summary document as JSON.
type Analysis struct {
	ID           string          `json:"id"`
	CreatedAt    time.Time       `json:"date"`
	FileName     string          `json:"fileName"`
	Type         string          `json:"type"`
	OverallScore int             `json:"overallScore"`
	FrameCount   int             `json:"frameCount"`
	Summary      json.RawMessage `json:"summary"`
}

// ListOptions filters and pages List results. Zero values mean no filter and
// no limit.
type ListOptions struct {
	Type   string
	Limit  int
	Offset int
}

// AnalysisRepository provides CRUD operations for saved analyses.
type AnalysisRepository struct {
	db *sql.DB
}

// Analyses returns the analysis repository for this store.
func (s *Store) Analyses() *AnalysisRepository {
	return &AnalysisRepository{db: s.db}
}

// Create inserts a. Empty ID and CreatedAt are filled in.
func (r *AnalysisRepository) Create(a *Analysis) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if len(a.Summary) == 0 {
		a.Summary = json.RawMessage("{}")
	}

	_, err := r.db.Exec(
		`INSERT INTO analyses (id, created_at, file_name, type, overall_score, frame_count, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.CreatedAt, a.FileName, a.Type, a.OverallScore, a.FrameCount, string(a.Summary),
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// GetByID retrieves an analysis by its ID.
func (r *AnalysisRepository) GetByID(id string) (*Analysis, error) {
	row := r.db.QueryRow(
		`SELECT id, created_at, file_name, type, overall_score, frame_count, summary
		 FROM analyses WHERE id = ?`,
		id,
	)

	a, err := scanAnalysis(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// List returns analyses newest first.
func (r *AnalysisRepository) List(opts ListOptions) ([]*Analysis, error) {
	var (
		query strings.Builder
		args  []any
	)
	query.WriteString(`SELECT id, created_at, file_name, type, overall_score, frame_count, summary FROM analyses`)
	if opts.Type != "" {
		query.WriteString(` WHERE type = ?`)
		args = append(args, opts.Type)
	}
	query.WriteString(` ORDER BY created_at DESC, id`)
	if opts.Limit > 0 {
		query.WriteString(` LIMIT ? OFFSET ?`)
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := r.db.Query(query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	analyses := []*Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

// Delete removes an analysis by its ID.
func (r *AnalysisRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM analyses WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of saved analyses.
func (r *AnalysisRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM analyses`).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(s scanner) (*Analysis, error) {
	a := &Analysis{}
	var summary string
	if err := s.Scan(&a.ID, &a.CreatedAt, &a.FileName, &a.Type, &a.OverallScore, &a.FrameCount, &summary); err != nil {
		return nil, err
	}
	a.Summary = json.RawMessage(summary)
	return a, nil
}
