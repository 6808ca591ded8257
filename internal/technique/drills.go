package technique

import (
	"strings"

	"github.com/samber/lo"
)

// MaxDrills caps the number of drills in a summary.
const MaxDrills = 4

type drillRule struct {
	match string
	drill string
}

var drillRules = map[SkillType][]drillRule{
	Batting: {
		{"Stance", "Shadow batting: 20 reps in front of a mirror holding your stance for 3 seconds before each shot."},
		{"Backlift", "Top-hand only drives: 3 sets of 10 throw-downs using just the top hand."},
		{"Head", "Mirror head-still drill: play forward defence in front of a mirror keeping your eyes level over the front knee."},
		{"Balance", "Hold-the-finish drill: freeze for 3 seconds after every shot in a net session."},
		{"Footwork", "Cone footwork ladder: step to front and back cones on a feeder's call, 3 sets of 12."},
	},
	Bowling: {
		{"Arm Action", "Wall bowling: bowl against a wall from 5 metres focusing on a straight, high arm."},
		{"Front Arm", "Front arm pull-down: 3 sets of 10 standing deliveries pulling the front arm to the hip."},
		{"Separation", "Hip-lead rotations: 3 sets of 12 medicine ball throws leading with the hips."},
		{"Knee", "Front leg brace drill: step and land on a firm front leg, 3 sets of 10."},
		{"Trunk", "Follow-through walk-throughs: 20 slow deliveries finishing with the chest over the front knee."},
	},
	Fielding: {
		{"Ground", "Crouch holds: 4 sets of 30 seconds in a low ready position."},
		{"Hand", "Rolling ball pick-ups: 3 sets of 15 collecting with hands below the knees."},
		{"Throwing", "Target throws: 20 throws at a single stump from 15 metres with a high elbow."},
		{"Agility", "Reaction ball drill: 3 sets of 2 minutes reacting to random bounces."},
	},
}

var maintenanceDrills = map[SkillType]string{
	Batting:  "Maintenance: 30 minutes of throw-downs mixing front and back foot shots.",
	Bowling:  "Maintenance: bowl 4 overs at a single target to keep your action grooved.",
	Fielding: "Maintenance: 15 minutes of mixed catching and ground fielding.",
}

// Drills recommends practice for the weak categories, in rule order and at
// most MaxDrills. With no weak categories it returns one maintenance drill.
func Drills(skill SkillType, categories []Check) []string {
	weak := lo.FilterMap(categories, func(c Check, _ int) (string, bool) {
		return c.Category, c.Score < GoodScore
	})

	drills := make([]string, 0, MaxDrills)
	for _, rule := range drillRules[skill] {
		if len(drills) == MaxDrills {
			break
		}
		if lo.ContainsBy(weak, func(name string) bool { return strings.Contains(name, rule.match) }) {
			drills = append(drills, rule.drill)
		}
	}

	if len(drills) == 0 {
		if d, ok := maintenanceDrills[skill]; ok {
			drills = append(drills, d)
		}
	}
	return drills
}
