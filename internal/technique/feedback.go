package technique

// feedbackText holds the two fixed comment/suggestion pairs per category.
var feedbackText = map[string]struct {
	good, goodTip string
	poor, poorTip string
}{
	CatStance: {
		good:    "Balanced, athletic stance with feet about shoulder width apart.",
		goodTip: "Keep this setup consistent for every ball.",
		poor:    "Stance is too narrow or too wide and the knees are not flexed enough.",
		poorTip: "Set your feet slightly wider than your shoulders and soften the knees.",
	},
	CatBacklift: {
		good:    "Hands and elbows are in a strong backlift position.",
		goodTip: "Maintain a relaxed grip as the bat comes down.",
		poor:    "Elbows are too straight or too cramped in the backlift.",
		poorTip: "Lift the bat with the top hand and keep the front elbow pointing down the pitch.",
	},
	CatHead: {
		good:    "Head is still and level over the base.",
		goodTip: "Keep your eyes level and watch the ball onto the bat.",
		poor:    "Head is falling away from the line of the ball.",
		poorTip: "Lead with your head and keep it over your front knee.",
	},
	CatBalance: {
		good:    "Weight is centred and ready to move forward or back.",
		goodTip: "Transfer weight smoothly into the shot.",
		poor:    "Weight is leaning too far to one side.",
		poorTip: "Stack your shoulders over your hips and stay on the balls of your feet.",
	},
	CatFootwork: {
		good:    "Good base for decisive foot movement.",
		goodTip: "Keep moving your feet early to the pitch of the ball.",
		poor:    "Base limits your ability to move your feet.",
		poorTip: "Work on a decisive forward press or back-and-across trigger.",
	},

	CatArmAction: {
		good:    "Bowling arm is straight and high through the delivery.",
		goodTip: "Keep the arm brushing past the ear at release.",
		poor:    "Bowling arm is bent or low at the point of delivery.",
		poorTip: "Rotate the arm from the shoulder and keep the elbow locked.",
	},
	CatFrontArm: {
		good:    "Front arm is extended and pulling the action through.",
		goodTip: "Keep pulling the front arm down towards the hip.",
		poor:    "Front arm collapses early and the action loses direction.",
		poorTip: "Point the front arm at the target and drive it down past the hip.",
	},
	CatHipShoulder: {
		good:    "Good separation between hips and shoulders in the load.",
		goodTip: "Use the separation to generate pace from the trunk.",
		poor:    "Hips and shoulders are rotating together.",
		poorTip: "Open the hips slightly before the shoulders come through.",
	},
	CatFrontKnee: {
		good:    "Front leg is braced firmly at landing.",
		goodTip: "Keep bracing against a firm front leg.",
		poor:    "Front knee is collapsing at landing and leaking energy.",
		poorTip: "Land on a firm front leg and stand tall over it.",
	},
	CatTrunk: {
		good:    "Trunk flexes forward strongly into the follow-through.",
		goodTip: "Finish the follow-through fully towards the target.",
		poor:    "Trunk stays too upright through delivery.",
		poorTip: "Bend forward over the front leg and let the bowling arm finish across the body.",
	},

	CatGroundPosition: {
		good:    "Low, athletic position ready to field the ball.",
		goodTip: "Stay low as the ball arrives.",
		poor:    "Body is too upright to get down to the ball quickly.",
		poorTip: "Bend the knees and lower your centre of gravity.",
	},
	CatHandPosition: {
		good:    "Hands are low and ready to collect the ball.",
		goodTip: "Keep soft hands and fingers pointing down.",
		poor:    "Hands are too high to field a ground ball.",
		poorTip: "Get your hands below your knees with fingers pointing to the ground.",
	},
	CatThrowing: {
		good:    "Throwing arm is in a strong, high position.",
		goodTip: "Step towards the target as you release.",
		poor:    "Throwing elbow is too straight or too low.",
		poorTip: "Keep the elbow at shoulder height and bent at ninety degrees.",
	},
	CatAgility: {
		good:    "Set and balanced, ready to move in any direction.",
		goodTip: "Walk in with the bowler every ball.",
		poor:    "Not set in a ready position when the ball arrives.",
		poorTip: "Stay on the balls of your feet with hands low as the bowler delivers.",
	},
}
