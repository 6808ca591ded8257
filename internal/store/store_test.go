package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file should exist after creating store")
	}
	if s.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", s.Path(), dbPath)
	}
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	for _, table := range []string{"analyses", "settings"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s should exist: %v", table, err)
		}
	}
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.Analyses().Create(&Analysis{Type: "batting", OverallScore: 80}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	n, err := s.Analyses().Count()
	if err != nil || n != 1 {
		t.Errorf("Count() = %d, %v; want 1", n, err)
	}
}

func TestAnalysisRepository_CRUD(t *testing.T) {
	repo := newTestStore(t).Analyses()

	a := &Analysis{
		FileName:     "nets.mp4",
		Type:         "bowling",
		OverallScore: 71,
		FrameCount:   42,
		Summary:      json.RawMessage(`{"type":"bowling","overallScore":71}`),
	}
	if err := repo.Create(a); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if a.ID == "" {
		t.Fatal("Create() should assign an ID")
	}
	if a.CreatedAt.IsZero() {
		t.Fatal("Create() should set CreatedAt")
	}

	got, err := repo.GetByID(a.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.FileName != "nets.mp4" || got.Type != "bowling" || got.OverallScore != 71 || got.FrameCount != 42 {
		t.Errorf("GetByID() = %+v", got)
	}
	if string(got.Summary) != string(a.Summary) {
		t.Errorf("Summary = %s, want %s", got.Summary, a.Summary)
	}

	if err := repo.Delete(a.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestAnalysisRepository_List(t *testing.T) {
	repo := newTestStore(t).Analyses()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, skill := range []string{"batting", "bowling", "batting", "fielding"} {
		err := repo.Create(&Analysis{
			Type:         skill,
			OverallScore: 60 + i,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	tests := []struct {
		name       string
		opts       ListOptions
		wantScores []int
	}{
		{"all newest first", ListOptions{}, []int{63, 62, 61, 60}},
		{"by type", ListOptions{Type: "batting"}, []int{62, 60}},
		{"paged", ListOptions{Limit: 2, Offset: 1}, []int{62, 61}},
		{"no match", ListOptions{Type: "bowling", Offset: 5, Limit: 1}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := repo.List(tt.opts)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(list) != len(tt.wantScores) {
				t.Fatalf("List() returned %d rows, want %d", len(list), len(tt.wantScores))
			}
			for i, a := range list {
				if a.OverallScore != tt.wantScores[i] {
					t.Errorf("row %d score = %d, want %d", i, a.OverallScore, tt.wantScores[i])
				}
			}
		})
	}
}

func TestAnalysisRepository_RejectsUnknownType(t *testing.T) {
	repo := newTestStore(t).Analyses()
	if err := repo.Create(&Analysis{Type: "wicketkeeping"}); err == nil {
		t.Error("Create() with unknown type should fail")
	}
}

func TestSettingsRepository(t *testing.T) {
	settings := newTestStore(t).Settings()

	if _, err := settings.Get(SettingBowlingHand); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() on empty store error = %v, want ErrNotFound", err)
	}
	if v, err := settings.GetOr(SettingBowlingHand, "auto"); err != nil || v != "auto" {
		t.Errorf("GetOr() = %q, %v; want auto", v, err)
	}

	if err := settings.Set(SettingBowlingHand, "left"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := settings.Set(SettingBowlingHand, "right"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	if v, err := settings.Get(SettingBowlingHand); err != nil || v != "right" {
		t.Errorf("Get() = %q, %v; want right", v, err)
	}

	if err := settings.Delete(SettingBowlingHand); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := settings.Get(SettingBowlingHand); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}
