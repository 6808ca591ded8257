package technique

import (
	"fmt"

	"github.com/ayusman/crease/internal/detector"
)

// NeutralScore stands in for a measurement that cannot be taken because its
// normalizing distance collapsed (for example a side-on pose with zero
// apparent shoulder width).
const NeutralScore = 60

// Categories lists the fixed, ordered category names each analyzer emits.
var Categories = map[SkillType][]string{
	Batting: {
		CatStance,
		CatBacklift,
		CatHead,
		CatBalance,
		CatFootwork,
	},
	Bowling: {
		CatArmAction,
		CatFrontArm,
		CatHipShoulder,
		CatFrontKnee,
		CatTrunk,
	},
	Fielding: {
		CatGroundPosition,
		CatHandPosition,
		CatThrowing,
		CatAgility,
	},
}

// Category names.
const (
	CatStance   = "Stance & Setup"
	CatBacklift = "Backlift & Grip"
	CatHead     = "Head Position"
	CatBalance  = "Balance & Weight Transfer"
	CatFootwork = "Footwork"

	CatArmAction   = "Bowling Arm Action"
	CatFrontArm    = "Front Arm Drive"
	CatHipShoulder = "Hip-Shoulder Separation"
	CatFrontKnee   = "Front Knee Brace"
	CatTrunk       = "Trunk & Follow-Through"

	CatGroundPosition = "Ground Fielding Position"
	CatHandPosition   = "Hand Position"
	CatThrowing       = "Throwing Technique"
	CatAgility        = "Agility & Readiness"
)

type analyzeFunc func(a *Analyzer, p pose, hand Hand) []Check

var analyzers = map[SkillType]analyzeFunc{
	Batting:  (*Analyzer).batting,
	Bowling:  (*Analyzer).bowling,
	Fielding: (*Analyzer).fielding,
}

// Analyzer scores single frames. It holds no per-frame state and is safe
// for concurrent use.
type Analyzer struct {
	scorer *Scorer
}

// NewAnalyzer creates an Analyzer. A nil scorer uses an unseeded Scorer.
func NewAnalyzer(scorer *Scorer) *Analyzer {
	if scorer == nil {
		scorer = NewScorer(nil)
	}
	return &Analyzer{scorer: scorer}
}

// Checks runs the analyzer for skill over one frame's landmarks. hand selects
// the bowling arm for bowling and the throwing arm for fielding; it defaults
// to right when empty and is ignored for batting.
func (a *Analyzer) Checks(skill SkillType, landmarks detector.Landmarks, hand Hand) ([]Check, error) {
	fn, ok := analyzers[skill]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSkill, skill)
	}
	if err := landmarks.Validate(); err != nil {
		return nil, err
	}
	switch hand {
	case "":
		hand = Right
	case Left, Right:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHand, hand)
	}
	return fn(a, pose(landmarks), hand), nil
}

// AnalyzeFrame builds a FrameAnalysis for one frame.
func (a *Analyzer) AnalyzeFrame(timestamp float64, landmarks detector.Landmarks, skill SkillType, hand Hand) (*FrameAnalysis, error) {
	checks, err := a.Checks(skill, landmarks, hand)
	if err != nil {
		return nil, err
	}

	scores := make([]int, len(checks))
	for i, c := range checks {
		scores[i] = c.Score
	}

	return &FrameAnalysis{
		Timestamp:    timestamp,
		Landmarks:    landmarks,
		Checks:       checks,
		OverallScore: mean(scores...),
	}, nil
}

// pose gives the analyzers named access to a validated landmark set.
type pose detector.Landmarks

func (p pose) shoulderWidth() float64 {
	return Distance(p[detector.LeftShoulder], p[detector.RightShoulder])
}

func (p pose) shoulderMid() detector.Landmark {
	return Midpoint(p[detector.LeftShoulder], p[detector.RightShoulder])
}

func (p pose) hipMid() detector.Landmark {
	return Midpoint(p[detector.LeftHip], p[detector.RightHip])
}

func (p pose) elbowAngle(side Hand) float64 {
	if side == Left {
		return AngleBetween(p[detector.LeftShoulder], p[detector.LeftElbow], p[detector.LeftWrist])
	}
	return AngleBetween(p[detector.RightShoulder], p[detector.RightElbow], p[detector.RightWrist])
}

func (p pose) kneeAngle(side Hand) float64 {
	if side == Left {
		return AngleBetween(p[detector.LeftHip], p[detector.LeftKnee], p[detector.LeftAnkle])
	}
	return AngleBetween(p[detector.RightHip], p[detector.RightKnee], p[detector.RightAnkle])
}

func other(h Hand) Hand {
	if h == Left {
		return Right
	}
	return Left
}

// angle scores a measurement already expressed in degrees.
func (a *Analyzer) angle(name string, value, ideal, tolerance float64) (int, JointAngle) {
	return a.scorer.Score(value, ideal, tolerance), JointAngle{
		Name:      name,
		Angle:     value,
		Ideal:     ideal,
		Tolerance: tolerance,
	}
}

// ratio scores num/den. A degenerate denominator yields NeutralScore and no
// measurement.
func (a *Analyzer) ratio(name string, num, den, ideal, tolerance float64) (int, []JointAngle) {
	r, ok := safeRatio(num, den)
	if !ok {
		return NeutralScore, nil
	}
	return a.scorer.Score(r, ideal, tolerance), []JointAngle{{
		Name:      name,
		Angle:     roundTo(r, 2),
		Ideal:     ideal,
		Tolerance: tolerance,
	}}
}

// check picks the comment and suggestion for category from its score.
func check(category string, score int, angles ...JointAngle) Check {
	fb := feedbackText[category]
	c := Check{
		Category:   category,
		Score:      score,
		Comment:    fb.poor,
		Suggestion: fb.poorTip,
		Angles:     angles,
	}
	if score >= GoodScore {
		c.Comment, c.Suggestion = fb.good, fb.goodTip
	}
	if c.Angles == nil {
		c.Angles = []JointAngle{}
	}
	return c
}
