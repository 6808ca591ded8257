package technique

import (
	"math"

	"github.com/ayusman/crease/internal/detector"
)

// Hand Position is a yes/no check and does not go through the scorer.
const (
	handsLowScore  = 90
	handsHighScore = 55
)

func (a *Analyzer) fielding(p pose, hand Hand) []Check {
	sw := p.shoulderWidth()
	sMid, hMid := p.shoulderMid(), p.hipMid()

	knee := roundTo((p.kneeAngle(Left)+p.kneeAngle(Right))/2, 1)
	kneeScore, kneeJA := a.angle("Knee Bend", knee, 110, 20)
	leanScore, leanJA := a.ratio("Body Lean Ratio", math.Abs(sMid.Y-hMid.Y), sw, 0.8, 0.3)
	groundScore := mean(kneeScore, leanScore)

	lowestKnee := math.Max(p[detector.LeftKnee].Y, p[detector.RightKnee].Y)
	handsLow := p[detector.LeftWrist].Y > lowestKnee && p[detector.RightWrist].Y > lowestKnee
	handScore := handsHighScore
	if handsLow {
		handScore = handsLowScore
	}

	throwScore, throwJA := a.angle("Throwing Elbow", p.elbowAngle(hand), 90, 15)

	agilityScore := mean(groundScore, handScore)

	return []Check{
		check(CatGroundPosition, groundScore, append([]JointAngle{kneeJA}, leanJA...)...),
		check(CatHandPosition, handScore),
		check(CatThrowing, throwScore, throwJA),
		check(CatAgility, agilityScore),
	}
}
