package shadows

import (
	"math"
	"sort"
)

// Cone clips the polygon to the beam of the given width (radians) centred on
// heading. The clipped polygon keeps the vertices inside the beam, gains one
// vertex where each beam edge crosses the polygon and closes through origin.
// A width of 2π or more leaves the polygon unchanged; a non-positive width
// lights nothing.
func (vp VisibilityPolygon) Cone(origin Point, heading, width float64) VisibilityPolygon {
	if width >= 2*math.Pi || len(vp) < 2 {
		return vp
	}
	if width <= 0 {
		return nil
	}
	half := width / 2
	heading = wrapAngle(math.Remainder(heading, 2*math.Pi))

	out := make(VisibilityPolygon, 0, len(vp)+3)
	for _, v := range vp {
		if math.Abs(wrapAngle(v.Angle-heading)) <= half {
			out = append(out, v)
		}
	}

	n := len(vp)
	for _, edge := range []float64{heading - half, heading + half} {
		for k := 0; k < n; k++ {
			a, b := vp[k], vp[(k+1)%n]
			span := b.Angle - a.Angle
			if k == n-1 {
				span += 2 * math.Pi
			}
			// gaps left by missed rays are not walls
			if span <= 0 || span >= math.Pi {
				continue
			}
			rel := math.Mod(edge-a.Angle, 2*math.Pi)
			if rel < 0 {
				rel += 2 * math.Pi
			}
			if rel <= 0 || rel >= span {
				continue
			}
			hit, ok := Intersect(NewRay(origin, edge), Segment{A: a.Point(), B: b.Point()})
			if !ok {
				continue
			}
			hit.Angle = wrapAngle(edge)
			out = append(out, hit)
			break
		}
	}

	out = append(out, Intersection{X: origin.X, Y: origin.Y, Angle: wrapAngle(heading + math.Pi)})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Angle != out[j].Angle {
			return out[i].Angle < out[j].Angle
		}
		return out[i].T < out[j].T
	})
	return out
}
