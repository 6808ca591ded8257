package technique

import (
	"math"
	"math/rand/v2"
	"sync"
)

// Scorer maps a measurement onto a 30-100 score using four tolerance bands.
//
// The bands are deliberately discontinuous: crossing a band edge by any
// amount drops the score to the top of the next band's range.
type Scorer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewScorer returns a Scorer drawing its top-band jitter from src. A nil
// source uses the runtime's global generator.
func NewScorer(src rand.Source) *Scorer {
	s := &Scorer{}
	if src != nil {
		s.rng = rand.New(src)
	}
	return s
}

// NewSeededScorer returns a Scorer whose output is reproducible for a seed.
func NewSeededScorer(seed uint64) *Scorer {
	return NewScorer(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Score rates actual against ideal. tolerance must be positive.
func (s *Scorer) Score(actual, ideal, tolerance float64) int {
	diff := math.Abs(actual - ideal)

	switch {
	case diff <= tolerance:
		return 95 + roundInt(s.jitter()*5)
	case diff <= 2*tolerance:
		return 75 + roundInt(((2*tolerance-diff)/tolerance)*15)
	case diff <= 3*tolerance:
		return 55 + roundInt(((3*tolerance-diff)/tolerance)*15)
	default:
		return max(30, 55-roundInt((diff-3*tolerance)*2))
	}
}

func (s *Scorer) jitter() float64 {
	if s.rng == nil {
		return rand.Float64()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}
