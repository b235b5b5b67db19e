package chart

import "math"

// smooth densifies a polyline into cubic Bézier segments whose control points
// follow the classic spline construction with the given tension. Distances
// are measured after scaling y by yScale so the curve bends the same way it
// would on screen. The original points are kept at every segment boundary.
func smooth(xs, ys []float64, tension float64, samples int, yScale float64) ([]float64, []float64) {
	n := len(xs)
	if n < 3 || tension <= 0 || samples < 2 {
		return append([]float64(nil), xs...), append([]float64(nil), ys...)
	}

	// prevCtl[i] is the control point before point i, nextCtl[i] the one after.
	type pt struct{ x, y float64 }
	prevCtl := make([]pt, n)
	nextCtl := make([]pt, n)
	for i := 0; i < n; i++ {
		prev, next := i-1, i+1
		if prev < 0 {
			prev = i
		}
		if next >= n {
			next = i
		}
		d01 := dist(xs[i], ys[i], xs[prev], ys[prev], yScale)
		d12 := dist(xs[next], ys[next], xs[i], ys[i], yScale)
		s01, s12 := 0.0, 0.0
		if sum := d01 + d12; sum > 0 {
			s01 = d01 / sum
			s12 = d12 / sum
		}
		fa := tension * s01
		fb := tension * s12
		dx := xs[next] - xs[prev]
		dy := ys[next] - ys[prev]
		prevCtl[i] = pt{xs[i] - fa*dx, ys[i] - fa*dy}
		nextCtl[i] = pt{xs[i] + fb*dx, ys[i] + fb*dy}
	}

	outX := make([]float64, 0, 1+(n-1)*samples)
	outY := make([]float64, 0, 1+(n-1)*samples)
	outX = append(outX, xs[0])
	outY = append(outY, ys[0])
	for i := 0; i < n-1; i++ {
		p0 := pt{xs[i], ys[i]}
		p1 := nextCtl[i]
		p2 := prevCtl[i+1]
		p3 := pt{xs[i+1], ys[i+1]}
		for k := 1; k <= samples; k++ {
			if k == samples {
				outX = append(outX, p3.x)
				outY = append(outY, p3.y)
				continue
			}
			t := float64(k) / float64(samples)
			u := 1 - t
			b0 := u * u * u
			b1 := 3 * u * u * t
			b2 := 3 * u * t * t
			b3 := t * t * t
			outX = append(outX, b0*p0.x+b1*p1.x+b2*p2.x+b3*p3.x)
			outY = append(outY, b0*p0.y+b1*p1.y+b2*p2.y+b3*p3.y)
		}
	}
	return outX, outY
}

func dist(x1, y1, x2, y2, yScale float64) float64 {
	return math.Hypot(x2-x1, (y2-y1)*yScale)
}
