package scoring

import (
	"fmt"
	"math"
)

const (
	MinScore = 0.0
	MaxScore = 100.0
)

// Point is a single calibration breakpoint: metric value X maps to score Y.
type Point struct {
	X float64 `json:"x" toml:"x"`
	Y float64 `json:"y" toml:"y"`
}

// Curve is a monotonic piecewise-linear mapping from a raw metric to a score.
// Points are ordered by ascending X. Values outside the first/last point
// take the score of the nearest end, so the curve is flat beyond its range.
type Curve []Point

// At returns the interpolated score for x, clamped to [MinScore, MaxScore].
func (c Curve) At(x float64) float64 {
	if len(c) == 0 {
		return MinScore
	}
	if x <= c[0].X {
		return Clamp(c[0].Y)
	}
	last := c[len(c)-1]
	if x >= last.X {
		return Clamp(last.Y)
	}

	for i := 1; i < len(c); i++ {
		lo, hi := c[i-1], c[i]
		if x > hi.X {
			continue
		}
		t := (x - lo.X) / (hi.X - lo.X)
		return Clamp(lo.Y + t*(hi.Y-lo.Y))
	}

	// unreachable for a validated curve
	return Clamp(last.Y)
}

func (c Curve) validate(name string) error {
	if len(c) < 2 {
		return fmt.Errorf("curve %s: needs at least 2 points, got %d", name, len(c))
	}

	ascending, descending := true, true
	for i, p := range c {
		if !isFinite(p.X) || !isFinite(p.Y) {
			return fmt.Errorf("curve %s: point %d is not finite", name, i)
		}
		if p.Y < MinScore || p.Y > MaxScore {
			return fmt.Errorf("curve %s: point %d score %.2f outside [0,100]", name, i, p.Y)
		}
		if i == 0 {
			continue
		}
		prev := c[i-1]
		if p.X <= prev.X {
			return fmt.Errorf("curve %s: point %d x must be strictly ascending", name, i)
		}
		if p.Y < prev.Y {
			ascending = false
		}
		if p.Y > prev.Y {
			descending = false
		}
	}

	if !ascending && !descending {
		return fmt.Errorf("curve %s: scores must be monotonic", name)
	}

	return nil
}

// Clamp bounds a score to [MinScore, MaxScore]. NaN maps to MinScore.
func Clamp(score float64) float64 {
	switch {
	case math.IsNaN(score):
		return MinScore
	case score < MinScore:
		return MinScore
	case score > MaxScore:
		return MaxScore
	default:
		return score
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// weightedMean returns sum(v*w)/sum(w), ignoring entries with zero weight.
func weightedMean(values, weights []float64) float64 {
	var sum, total float64
	for i, v := range values {
		if weights[i] <= 0 {
			continue
		}
		sum += v * weights[i]
		total += weights[i]
	}
	if total == 0 {
		return MinScore
	}
	return sum / total
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
