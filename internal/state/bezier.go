package state

// Cubic Bezier control points for the sunrise/sunset ease curve, ground-truthed
// against original_source/src/constants.rs (BEZIER_P1X/Y, BEZIER_P2X/Y): a
// gentle S-curve with a slow start and end.
const (
	bezierP1X = 0.25
	bezierP1Y = 0.0
	bezierP2X = 0.75
	bezierP2Y = 1.0
)

// ease maps linear progress p in [0,1] to eased progress along the cubic
// Bezier curve through (0,0), (bezierP1X,bezierP1Y), (bezierP2X,bezierP2Y),
// (1,1). p is treated as the curve's x-coordinate; the corresponding
// y-coordinate is found by solving for the Bezier parameter t via bisection,
// since the curve isn't given as a function of x directly.
func ease(p float64) float64 {
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return 1
	}
	t := solveBezierT(p)
	return bezierComponent(t, 0, bezierP1Y, bezierP2Y, 1)
}

func solveBezierT(x float64) float64 {
	lo, hi := 0.0, 1.0
	for i := 0; i < 30; i++ {
		mid := (lo + hi) / 2
		bx := bezierComponent(mid, 0, bezierP1X, bezierP2X, 1)
		if bx < x {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

func bezierComponent(t, p0, p1, p2, p3 float64) float64 {
	u := 1 - t
	return u*u*u*p0 + 3*u*u*t*p1 + 3*u*t*t*p2 + t*t*t*p3
}

// lerp linearly interpolates between a and b at t in [0,1].
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Ease exposes the package's cubic-Bezier easing curve for callers outside
// state, such as the Startup Animator, that need the identical curve for a
// transition that isn't one of Evaluate's own.
func Ease(p float64) float64 { return ease(p) }

// Lerp exposes linear interpolation for the same reason as Ease.
func Lerp(a, b, t float64) float64 { return lerp(a, b, t) }
