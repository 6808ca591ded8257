package technique

import (
	"math"

	"github.com/ayusman/crease/internal/detector"
)

func (a *Analyzer) batting(p pose, _ Hand) []Check {
	sw := p.shoulderWidth()
	sMid, hMid := p.shoulderMid(), p.hipMid()

	knee := roundTo((p.kneeAngle(Left)+p.kneeAngle(Right))/2, 1)
	kneeScore, kneeJA := a.angle("Knee Bend", knee, 150, 15)
	widthScore, widthJA := a.ratio("Stance Width Ratio",
		Distance(p[detector.LeftAnkle], p[detector.RightAnkle]), sw, 1.3, 0.3)
	stanceScore := mean(widthScore, kneeScore)

	elbows := roundTo((p.elbowAngle(Left)+p.elbowAngle(Right))/2, 1)
	backliftScore, backliftJA := a.angle("Elbow Angle", elbows, 135, 20)

	headScore, headJA := a.ratio("Head Offset",
		math.Abs(p[detector.Nose].X-sMid.X), sw, 0, 0.1)

	balanceScore, balanceJA := a.ratio("Weight Offset",
		math.Abs(sMid.X-hMid.X), sw, 0.05, 0.1)

	footworkScore := mean(kneeScore, stanceScore, balanceScore)

	return []Check{
		check(CatStance, stanceScore, append(widthJA, kneeJA)...),
		check(CatBacklift, backliftScore, backliftJA),
		check(CatHead, headScore, headJA...),
		check(CatBalance, balanceScore, balanceJA...),
		check(CatFootwork, footworkScore),
	}
}
