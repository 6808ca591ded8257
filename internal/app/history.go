package app

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ayusman/crease/internal/metrics"
	"github.com/ayusman/crease/internal/store"
	"github.com/ayusman/crease/internal/technique"
)

// ErrEmptySummary is returned when asked to save a summary of zero frames.
var ErrEmptySummary = errors.New("summary has no frames")

// HistoryStore receives each finished summary.
type HistoryStore interface {
	SaveSummary(fileName string, summary *technique.Summary) (id string, err error)
}

// StoreHistory writes summaries to the sqlite analyses table.
type StoreHistory struct {
	repo *store.AnalysisRepository
}

// NewStoreHistory wraps the analyses repository of s.
func NewStoreHistory(s *store.Store) *StoreHistory {
	return &StoreHistory{repo: s.Analyses()}
}

// SaveSummary stores summary under fileName. Summaries without frames are
// refused with ErrEmptySummary.
func (h *StoreHistory) SaveSummary(fileName string, summary *technique.Summary) (string, error) {
	if summary == nil || summary.FrameCount == 0 {
		return "", ErrEmptySummary
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("encode summary: %w", err)
	}

	a := &store.Analysis{
		FileName:     fileName,
		Type:         string(summary.Type),
		OverallScore: summary.OverallScore,
		FrameCount:   summary.FrameCount,
		Summary:      data,
	}
	err = h.repo.Create(a)
	metrics.RecordSave(string(summary.Type), err)
	if err != nil {
		return "", err
	}
	return a.ID, nil
}
