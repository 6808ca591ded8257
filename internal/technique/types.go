// Package technique turns pose landmarks into cricket coaching feedback:
// per-category scores, joint-angle measurements, comments, key frames and
// drill recommendations for batting, bowling and fielding.
package technique

import (
	"errors"
	"fmt"

	"github.com/ayusman/crease/internal/detector"
)

// GoodScore is the threshold at or above which a check counts as good.
// Categories below it are weak and trigger drills.
const GoodScore = 75

var (
	// ErrUnknownSkill is returned for a skill type outside the closed set.
	ErrUnknownSkill = errors.New("unknown skill type")
	// ErrUnknownHand is returned for a hand other than left or right.
	ErrUnknownHand = errors.New("unknown hand")
)

// SkillType selects which analyzer scores a frame.
type SkillType string

const (
	Batting  SkillType = "batting"
	Bowling  SkillType = "bowling"
	Fielding SkillType = "fielding"
)

// ParseSkillType validates s against the known skill types.
func ParseSkillType(s string) (SkillType, error) {
	switch t := SkillType(s); t {
	case Batting, Bowling, Fielding:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSkill, s)
}

// Hand is the dominant bowling or throwing arm.
type Hand string

const (
	Left  Hand = "left"
	Right Hand = "right"
)

// ParseHand validates s. An empty string yields an empty Hand, meaning
// "not specified".
func ParseHand(s string) (Hand, error) {
	switch h := Hand(s); h {
	case "", Left, Right:
		return h, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownHand, s)
}

// JointAngle is one measurement backing a check.
type JointAngle struct {
	Name      string  `json:"name"`
	Angle     float64 `json:"angle"`
	Ideal     float64 `json:"ideal"`
	Tolerance float64 `json:"tolerance"`
}

// Check is one scored aspect of technique.
type Check struct {
	Category   string       `json:"category"`
	Score      int          `json:"score"`
	Comment    string       `json:"comment"`
	Suggestion string       `json:"suggestion"`
	Angles     []JointAngle `json:"angles"`
}

// FrameAnalysis holds the checks for a single processed frame.
type FrameAnalysis struct {
	Timestamp    float64            `json:"timestamp"`
	Landmarks    detector.Landmarks `json:"landmarks"`
	Checks       []Check            `json:"checks"`
	OverallScore int                `json:"overallScore"`
}

// KeyFrame points at one of the worst moments in a clip.
type KeyFrame struct {
	Timestamp float64 `json:"timestamp"`
	Issue     string  `json:"issue"`
	Score     int     `json:"score"`
}

// Summary is the aggregated result of a clip or capture window.
type Summary struct {
	Type         SkillType  `json:"type"`
	OverallScore int        `json:"overallScore"`
	Categories   []Check    `json:"categories"`
	KeyFrames    []KeyFrame `json:"keyFrames"`
	Drills       []string   `json:"drills"`
	FrameCount   int        `json:"frameCount"`
	BowlingHand  Hand       `json:"bowlingHand,omitempty"`
}
