// Package curve provides piecewise-linear sample curves for authored tuning
// (wallet caps by loyalty level, queue penalties, spend multipliers).
package curve

// Point is a single authored sample on a curve.
type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Curve is an ordered list of points, interpolated linearly between them.
// Points must be sorted by X ascending.
type Curve []Point

// Constant returns a flat curve that always samples to v.
func Constant(v float64) Curve {
	return Curve{{X: 0, Y: v}}
}

// Sample evaluates the curve at x. Values outside the authored range clamp to
// the nearest endpoint. An empty curve samples to 1.0 so that optional
// multiplier curves are neutral when unset.
func (c Curve) Sample(x float64) float64 {
	if len(c) == 0 {
		return 1.0
	}
	if x <= c[0].X {
		return c[0].Y
	}
	last := c[len(c)-1]
	if x >= last.X {
		return last.Y
	}
	for i := 1; i < len(c); i++ {
		if x > c[i].X {
			continue
		}
		a, b := c[i-1], c[i]
		span := b.X - a.X
		if span <= 0 {
			return b.Y
		}
		t := (x - a.X) / span
		return a.Y + t*(b.Y-a.Y)
	}
	return last.Y
}

// Valid reports whether the curve's points are sorted by X ascending.
func (c Curve) Valid() bool {
	for i := 1; i < len(c); i++ {
		if c[i].X < c[i-1].X {
			return false
		}
	}
	return true
}
