package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/crease/internal/capture"
	"github.com/ayusman/crease/internal/detector"
	"github.com/ayusman/crease/internal/metrics"
	"github.com/ayusman/crease/internal/technique"
)

// DefaultStride samples every third decoded frame.
const DefaultStride = 3

// ErrNonMonotonicTimestamps is returned when a sequence's timestamps do not
// strictly increase.
var ErrNonMonotonicTimestamps = errors.New("timestamps must strictly increase")

// Sample is one pre-extracted pose with its clip time in seconds.
type Sample struct {
	Timestamp float64            `json:"timestamp" validate:"gte=0"`
	Landmarks detector.Landmarks `json:"landmarks" validate:"required"`
}

// FrameReader yields decoded frames in order and returns io.EOF after the
// last one. *capture.VideoFile implements it.
type FrameReader interface {
	ReadFrame() (*gocv.Mat, error)
	FPS() float64
}

// BatchOptions controls a batch run.
type BatchOptions struct {
	Skill technique.SkillType
	// Hand pins the bowling or throwing arm. Empty auto-detects the bowling
	// arm across the clip and uses the right arm for fielding.
	Hand technique.Hand
	// Stride samples every Nth decoded frame; values below 1 use DefaultStride.
	Stride int
}

// BatchAnalyzer scores a whole clip and aggregates it once.
type BatchAnalyzer struct {
	analyzer *technique.Analyzer
	detector detector.Detector
	workers  int
}

// NewBatchAnalyzer creates a BatchAnalyzer. d may be nil when only
// AnalyzeSequence is used.
func NewBatchAnalyzer(a *technique.Analyzer, d detector.Detector) *BatchAnalyzer {
	return &BatchAnalyzer{
		analyzer: a,
		detector: d,
		workers:  runtime.GOMAXPROCS(0),
	}
}

// AnalyzeVideo decodes the file at path, detects a pose on every sampled
// frame and returns the clip summary.
func (b *BatchAnalyzer) AnalyzeVideo(ctx context.Context, path string, opts BatchOptions) (*technique.Summary, error) {
	if b.detector == nil {
		return nil, errors.New("batch analyzer has no detector")
	}
	defer metrics.ObserveBatch("video")()

	video, err := capture.OpenVideoFile(path)
	if err != nil {
		return nil, err
	}
	defer video.Close()

	samples, err := b.extract(ctx, video, opts.Stride)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"file":    filepath.Base(path),
		"fps":     video.FPS(),
		"frames":  video.Index(),
		"samples": len(samples),
	}).Info("Decoded video")

	return b.analyze(ctx, samples, opts)
}

// extract detects a pose on every stride-th frame of r. Frames without a pose
// are dropped; samples keep their clip time index/fps.
func (b *BatchAnalyzer) extract(ctx context.Context, r FrameReader, stride int) ([]Sample, error) {
	if stride < 1 {
		stride = DefaultStride
	}

	var samples []Sample
	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frame, err := r.ReadFrame()
		if errors.Is(err, io.EOF) {
			return samples, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode frame %d: %w", index, err)
		}
		if index%stride != 0 {
			frame.Close()
			continue
		}

		landmarks, err := b.detector.Detect(frame)
		frame.Close()
		if err != nil {
			return nil, fmt.Errorf("detect pose at frame %d: %w", index, err)
		}
		if landmarks == nil {
			continue
		}

		samples = append(samples, Sample{
			Timestamp: float64(index) / r.FPS(),
			Landmarks: landmarks,
		})
	}
}

// AnalyzeSequence scores pre-extracted poses. Timestamps must strictly
// increase.
func (b *BatchAnalyzer) AnalyzeSequence(ctx context.Context, samples []Sample, opts BatchOptions) (*technique.Summary, error) {
	defer metrics.ObserveBatch("sequence")()
	return b.analyze(ctx, samples, opts)
}

func (b *BatchAnalyzer) analyze(ctx context.Context, samples []Sample, opts BatchOptions) (*technique.Summary, error) {
	if _, err := technique.ParseSkillType(string(opts.Skill)); err != nil {
		return nil, err
	}
	if _, err := technique.ParseHand(string(opts.Hand)); err != nil {
		return nil, err
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].Timestamp <= samples[i-1].Timestamp {
			return nil, fmt.Errorf("%w: sample %d at %.3fs follows %.3fs",
				ErrNonMonotonicTimestamps, i, samples[i].Timestamp, samples[i-1].Timestamp)
		}
	}

	hand := resolveHand(opts, samples)

	frames := make([]*technique.FrameAnalysis, len(samples))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i := range samples {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := b.analyzer.AnalyzeFrame(samples[i].Timestamp, samples[i].Landmarks, opts.Skill, hand)
			if err != nil {
				metrics.RecordFrameError("batch", "invalid")
				return fmt.Errorf("frame at %.3fs: %w", samples[i].Timestamp, err)
			}
			metrics.RecordFrame(string(opts.Skill), "batch", f.OverallScore)
			frames[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := technique.Summarize(opts.Skill, frames)
	if opts.Skill == technique.Bowling {
		summary.BowlingHand = hand
	}
	return summary, nil
}

// resolveHand picks the arm for the whole clip. Bowling without a pinned hand
// runs the rolling-window detector over the clip in order and uses its final
// answer.
func resolveHand(opts BatchOptions, samples []Sample) technique.Hand {
	if opts.Hand != "" {
		return opts.Hand
	}
	if opts.Skill != technique.Bowling {
		return technique.Right
	}

	hd := technique.NewHandDetector(technique.Right)
	for _, s := range samples {
		hd.Observe(s.Landmarks)
	}
	return hd.Current()
}
