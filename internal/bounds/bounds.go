// Package bounds turns match counts into worst-case precision and recall
// intervals, given how many truth calls may themselves be wrong.
package bounds

import "fmt"

// Interval is a closed range [Lower, Upper] of fractions.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Valid reports whether Lower <= Upper.
func (iv Interval) Valid() bool { return iv.Lower <= iv.Upper }

func (iv Interval) Mid() float64 { return (iv.Lower + iv.Upper) / 2 }

func (iv Interval) Radius() float64 { return iv.Upper - iv.Mid() }

// String formats the interval as a percentage midpoint and radius.
func (iv Interval) String() string {
	return fmt.Sprintf("%.1f +/- %.4f", iv.Mid()*100, iv.Radius()*100)
}

// ErrorBudget is the number of truth calls assumed wrong at the given rate.
func ErrorBudget(numTrue int, rate float64) float64 {
	return float64(numTrue) * rate
}

// Precision bounds tp/(tp+fp) when up to e truth calls are wrong.
func Precision(tp, fp int, e float64) Interval {
	p := float64(tp + fp)
	if p == 0 || e > p {
		return Interval{}
	}
	return Interval{
		Lower: (float64(tp) - e) / p,
		Upper: (float64(tp) + e) / p,
	}
}

// Recall bounds tp/(tp+fn) when up to e truth calls are wrong. Once e
// exceeds fn the wrong truth calls may all be among the misses, which
// shrinks the denominator instead.
func Recall(tp, fn int, e float64) Interval {
	n := float64(tp + fn)
	if n == 0 {
		return Interval{}
	}
	iv := Interval{Lower: (float64(tp) - e) / n}
	switch {
	case e <= float64(fn):
		iv.Upper = (float64(tp) + e) / n
	case n-e <= 0:
		iv.Upper = 1
	default:
		iv.Upper = float64(tp) / (n - e)
	}
	return iv
}
