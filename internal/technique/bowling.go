package technique

import (
	"math"

	"github.com/ayusman/crease/internal/detector"
)

// IllegalElbowAngle is the bowling-arm angle below which the action is
// flagged as a possible throw. It is a coaching heuristic only.
const IllegalElbowAngle = 165

const illegalActionWarning = "Warning: possible illegal action, the bowling elbow is visibly bent at release."

func (a *Analyzer) bowling(p pose, hand Hand) []Check {
	front := other(hand)
	sw := p.shoulderWidth()
	sMid, hMid := p.shoulderMid(), p.hipMid()

	armAngle := p.elbowAngle(hand)
	armScore, armJA := a.angle("Bowling Elbow", armAngle, 175, 15)
	armCheck := check(CatArmAction, armScore, armJA)
	if armAngle < IllegalElbowAngle {
		armCheck.Comment = illegalActionWarning + " " + armCheck.Comment
	}

	frontScore, frontJA := a.angle("Front Elbow", p.elbowAngle(front), 160, 20)

	sepScore, sepJA := a.ratio("Hip Offset",
		math.Abs(p[detector.LeftHip].X-p[detector.RightHip].X), sw, 0.6, 0.2)

	braceScore, braceJA := a.angle("Front Knee", p.kneeAngle(front), 170, 15)

	above := detector.Landmark{X: sMid.X, Y: sMid.Y - 0.1, Visibility: sMid.Visibility}
	trunkScore, trunkJA := a.angle("Trunk Angle", AngleBetween(above, sMid, hMid), 30, 15)

	return []Check{
		armCheck,
		check(CatFrontArm, frontScore, frontJA),
		check(CatHipShoulder, sepScore, sepJA...),
		check(CatFrontKnee, braceScore, braceJA),
		check(CatTrunk, trunkScore, trunkJA),
	}
}
