package technique

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// MaxKeyFrames caps the number of key frames in a summary.
const MaxKeyFrames = 5

type categoryTally struct {
	sum, count int
	worst      Check
}

// Summarize aggregates frames into one Summary. Category scores are means
// across frames, while each category's text and angles come from the frame
// where it scored lowest. Zero frames give an empty summary.
func Summarize(skill SkillType, frames []*FrameAnalysis) *Summary {
	frames = lo.Filter(frames, func(f *FrameAnalysis, _ int) bool { return f != nil })
	if len(frames) == 0 {
		return &Summary{
			Type:       skill,
			Categories: []Check{},
			KeyFrames:  []KeyFrame{},
			Drills:     []string{},
		}
	}

	var order []string
	tallies := make(map[string]*categoryTally)
	for _, f := range frames {
		for _, c := range f.Checks {
			t, ok := tallies[c.Category]
			if !ok {
				t = &categoryTally{worst: c}
				tallies[c.Category] = t
				order = append(order, c.Category)
			}
			t.sum += c.Score
			t.count++
			if c.Score < t.worst.Score {
				t.worst = c
			}
		}
	}

	categories := lo.Map(order, func(name string, _ int) Check {
		t := tallies[name]
		c := t.worst
		c.Score = roundInt(float64(t.sum) / float64(t.count))
		return c
	})

	return &Summary{
		Type:         skill,
		OverallScore: mean(lo.Map(categories, func(c Check, _ int) int { return c.Score })...),
		Categories:   categories,
		KeyFrames:    keyFrames(frames),
		Drills:       Drills(skill, categories),
		FrameCount:   len(frames),
	}
}

func keyFrames(frames []*FrameAnalysis) []KeyFrame {
	sorted := slices.Clone(frames)
	slices.SortStableFunc(sorted, func(a, b *FrameAnalysis) int {
		return a.OverallScore - b.OverallScore
	})
	if len(sorted) > MaxKeyFrames {
		sorted = sorted[:MaxKeyFrames]
	}

	return lo.Map(sorted, func(f *FrameAnalysis, _ int) KeyFrame {
		kf := KeyFrame{Timestamp: f.Timestamp, Score: f.OverallScore}
		if len(f.Checks) > 0 {
			worst := lo.MinBy(f.Checks, func(a, b Check) bool { return a.Score < b.Score })
			kf.Issue = fmt.Sprintf("%s: %s", worst.Category, worst.Comment)
		}
		return kf
	})
}
