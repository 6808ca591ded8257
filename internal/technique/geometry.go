package technique

import (
	"math"

	"github.com/ayusman/crease/internal/detector"
)

// minSpan is the smallest normalizing distance treated as non-degenerate.
const minSpan = 1e-6

// AngleBetween returns the angle in degrees at vertex b formed by the rays
// b->a and b->c, folded into [0, 180] and rounded to one decimal place.
func AngleBetween(a, b, c detector.Landmark) float64 {
	radians := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	angle := math.Abs(radians * 180 / math.Pi)
	if angle > 180 {
		angle = 360 - angle
	}
	return roundTo(angle, 1)
}

// Distance returns the planar Euclidean distance between a and b; z is ignored.
func Distance(a, b detector.Landmark) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Midpoint averages a and b component-wise. The visibility of the result is
// the lower of the two inputs.
func Midpoint(a, b detector.Landmark) detector.Landmark {
	return detector.Landmark{
		X:          (a.X + b.X) / 2,
		Y:          (a.Y + b.Y) / 2,
		Z:          (a.Z + b.Z) / 2,
		Visibility: math.Min(a.Visibility, b.Visibility),
	}
}

// safeRatio divides num by den, reporting false when den is too small for the
// result to mean anything.
func safeRatio(num, den float64) (float64, bool) {
	if math.Abs(den) < minSpan {
		return 0, false
	}
	return num / den, true
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

func mean(values ...int) int {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return roundInt(float64(sum) / float64(len(values)))
}
