package animation

import "math"

// Curve maps linear progress t in [0, 1] to eased progress.
type Curve func(t float64) float64

// Linear applies no easing.
func Linear(t float64) float64 {
	return t
}

// EaseIn starts slowly and accelerates. Equivalent to CSS ease-in.
var EaseIn = CubicBezier(0.4, 0.0, 1.0, 1.0) //nolint:gochecknoglobals

// EaseOut starts quickly and decelerates. Equivalent to CSS ease-out.
var EaseOut = CubicBezier(0.0, 0.0, 0.2, 1.0) //nolint:gochecknoglobals

// EaseInOut accelerates then decelerates. Equivalent to CSS ease-in-out.
var EaseInOut = CubicBezier(0.42, 0.0, 0.58, 1.0) //nolint:gochecknoglobals

// CubicBezier returns an easing curve matching CSS cubic-bezier(x1, y1, x2, y2).
func CubicBezier(x1, y1, x2, y2 float64) Curve {
	return func(t float64) float64 {
		if t <= 0 {
			return 0
		}

		if t >= 1 {
			return 1
		}

		// Solve x(u) = t with Newton-Raphson, falling back to bisection.
		u := t
		for range 8 {
			x := bezier(x1, x2, u) - t
			if math.Abs(x) < 1e-7 {
				return bezier(y1, y2, u)
			}

			dx := bezierSlope(x1, x2, u)
			if math.Abs(dx) < 1e-7 {
				break
			}

			u -= x / dx
		}

		lo, hi := 0.0, 1.0
		u = min(max(u, 0), 1)

		for range 16 {
			x := bezier(x1, x2, u) - t
			if math.Abs(x) < 1e-7 {
				break
			}

			if x > 0 {
				hi = u
			} else {
				lo = u
			}

			u = (lo + hi) / 2
		}

		return bezier(y1, y2, u)
	}
}

// bezier evaluates one axis of a cubic bezier anchored at 0 and 1.
func bezier(p1, p2, u float64) float64 {
	inv := 1 - u

	return 3*inv*inv*u*p1 + 3*inv*u*u*p2 + u*u*u
}

func bezierSlope(p1, p2, u float64) float64 {
	inv := 1 - u

	return 3*inv*inv*p1 + 6*inv*u*(p2-p1) + 3*u*u*(1-p2)
}
