package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/crease/internal/detector"
	"github.com/ayusman/crease/internal/technique"
)

func sequence(n int, pose func(i int) detector.Landmarks) []Sample {
	out := make([]Sample, n)
	for i := range out {
		out[i] = Sample{Timestamp: float64(i) / 10, Landmarks: pose(i)}
	}
	return out
}

func newBatch() *BatchAnalyzer {
	return NewBatchAnalyzer(technique.NewAnalyzer(technique.NewSeededScorer(11)), detector.NewMockDetector())
}

func TestAnalyzeSequence_Batting(t *testing.T) {
	samples := sequence(12, func(int) detector.Landmarks { return detector.BattingStanceLandmarks() })

	s, err := newBatch().AnalyzeSequence(context.Background(), samples, BatchOptions{Skill: technique.Batting})
	require.NoError(t, err)

	assert.Equal(t, technique.Batting, s.Type)
	assert.Equal(t, 12, s.FrameCount)
	require.Len(t, s.Categories, 5)
	for _, c := range s.Categories {
		assert.GreaterOrEqual(t, c.Score, 95, c.Category)
	}
	assert.Len(t, s.KeyFrames, technique.MaxKeyFrames)
	assert.Len(t, s.Drills, 1)
	assert.Empty(t, s.BowlingHand)
}

func TestAnalyzeSequence_KeyFramesKeepClipTime(t *testing.T) {
	samples := sequence(6, func(i int) detector.Landmarks {
		if i == 4 {
			l := detector.BattingStanceLandmarks()
			l[detector.Nose].X += 0.15
			return l
		}
		return detector.BattingStanceLandmarks()
	})

	s, err := newBatch().AnalyzeSequence(context.Background(), samples, BatchOptions{Skill: technique.Batting})
	require.NoError(t, err)

	require.NotEmpty(t, s.KeyFrames)
	assert.InDelta(t, 0.4, s.KeyFrames[0].Timestamp, 1e-9)
	assert.Contains(t, s.KeyFrames[0].Issue, technique.CatHead)
}

func TestAnalyzeSequence_DetectsBowlingHand(t *testing.T) {
	samples := sequence(20, func(i int) detector.Landmarks {
		l := detector.BowlingDeliveryLandmarks(false)
		shift := 0.04
		if i%2 == 1 {
			shift = -0.04
		}
		l[detector.LeftWrist].X += shift
		l[detector.LeftElbow].Y += shift
		return l
	})

	s, err := newBatch().AnalyzeSequence(context.Background(), samples, BatchOptions{Skill: technique.Bowling})
	require.NoError(t, err)
	assert.Equal(t, technique.Left, s.BowlingHand)

	s, err = newBatch().AnalyzeSequence(context.Background(), samples, BatchOptions{Skill: technique.Bowling, Hand: technique.Right})
	require.NoError(t, err)
	assert.Equal(t, technique.Right, s.BowlingHand)
}

func TestAnalyzeSequence_Errors(t *testing.T) {
	good := detector.FieldingCrouchLandmarks()

	tests := []struct {
		name    string
		samples []Sample
		opts    BatchOptions
		wantErr error
	}{
		{
			name:    "repeated timestamp",
			samples: []Sample{{0, good}, {0.1, good}, {0.1, good}},
			opts:    BatchOptions{Skill: technique.Fielding},
			wantErr: ErrNonMonotonicTimestamps,
		},
		{
			name:    "going backwards",
			samples: []Sample{{1, good}, {0.5, good}},
			opts:    BatchOptions{Skill: technique.Fielding},
			wantErr: ErrNonMonotonicTimestamps,
		},
		{
			name:    "short landmark set",
			samples: []Sample{{0, good}, {0.1, good[:12]}},
			opts:    BatchOptions{Skill: technique.Fielding},
			wantErr: detector.ErrInvalidLandmarkSet,
		},
		{
			name:    "unknown skill",
			samples: []Sample{{0, good}},
			opts:    BatchOptions{Skill: "keeping"},
			wantErr: technique.ErrUnknownSkill,
		},
		{
			name:    "unknown hand",
			samples: []Sample{{0, good}},
			opts:    BatchOptions{Skill: technique.Fielding, Hand: "both"},
			wantErr: technique.ErrUnknownHand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newBatch().AnalyzeSequence(context.Background(), tt.samples, tt.opts)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAnalyzeSequence_Empty(t *testing.T) {
	s, err := newBatch().AnalyzeSequence(context.Background(), nil, BatchOptions{Skill: technique.Bowling})
	require.NoError(t, err)
	assert.Equal(t, 0, s.OverallScore)
	assert.Empty(t, s.Categories)
	assert.Empty(t, s.Drills)
}

func TestAnalyzeSequence_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	samples := sequence(50, func(int) detector.Landmarks { return detector.BattingStanceLandmarks() })
	_, err := newBatch().AnalyzeSequence(ctx, samples, BatchOptions{Skill: technique.Batting})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeVideo_MissingFile(t *testing.T) {
	_, err := newBatch().AnalyzeVideo(context.Background(), filepath.Join(t.TempDir(), "nope.mp4"), BatchOptions{Skill: technique.Batting})
	assert.Error(t, err)
}
