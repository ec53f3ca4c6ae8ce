package shadows

import (
	"math"
	"sort"
)

// DefaultEpsilon is the angular offset, in radians, of the two extra rays
// cast on either side of every endpoint. They sample the wall just behind a
// corner so light does not leak through it.
const DefaultEpsilon = 1e-5

const (
	// parallelTolerance bounds |det| below which a ray and a segment are
	// treated as parallel
	parallelTolerance = 1e-10
	// extentTolerance widens the segment parameter range so a ray aimed
	// exactly at a corner still registers the hit
	extentTolerance = 1e-9
)

// Caster computes visibility polygons. It holds tunables only; every call
// is a pure function of its arguments.
type Caster struct {
	Epsilon float64
}

// DefaultCaster casts with DefaultEpsilon
var DefaultCaster = Caster{Epsilon: DefaultEpsilon}

// Compute casts from origin against set using DefaultCaster
func Compute(origin Point, set *SegmentSet) VisibilityPolygon {
	return DefaultCaster.Compute(origin, set)
}

// Compute calculates the region visible from origin among the walls of set.
// Three rays are cast per distinct endpoint (at its angle and ±Epsilon); the
// nearest hit of each ray becomes a vertex, and the vertices are sorted by
// angle, ties broken by distance. Angles whose ray hits nothing contribute no
// vertex, which only happens when the border does not enclose the origin.
// A non-finite origin sees nothing.
func (c Caster) Compute(origin Point, set *SegmentSet) VisibilityPolygon {
	if set == nil || len(set.segments) == 0 || !origin.Finite() {
		return VisibilityPolygon{}
	}

	angles := c.candidateAngles(origin, set.endpoints)

	polygon := make(VisibilityPolygon, 0, len(angles))
	for _, angle := range angles {
		hit, ok := nearestHit(NewRay(origin, angle), set.segments)
		if !ok {
			continue
		}
		hit.Angle = angle
		polygon = append(polygon, hit)
	}

	sort.SliceStable(polygon, func(i, j int) bool {
		if polygon[i].Angle != polygon[j].Angle {
			return polygon[i].Angle < polygon[j].Angle
		}
		return polygon[i].T < polygon[j].T
	})

	return polygon
}

// candidateAngles returns θ-ε, θ, θ+ε for every endpoint, wrapped into
// (-π, π], without duplicates
func (c Caster) candidateAngles(origin Point, endpoints []Point) []float64 {
	seen := make(map[float64]bool, len(endpoints)*3)
	angles := make([]float64, 0, len(endpoints)*3)

	for _, p := range endpoints {
		theta := math.Atan2(p.Y-origin.Y, p.X-origin.X)
		for _, a := range [3]float64{theta - c.Epsilon, theta, theta + c.Epsilon} {
			a = wrapAngle(a)
			if seen[a] {
				continue
			}
			seen[a] = true
			angles = append(angles, a)
		}
	}

	return angles
}

// nearestHit finds the closest wall along ray
func nearestHit(ray Ray, segments []Segment) (Intersection, bool) {
	var closest Intersection
	found := false

	for _, seg := range segments {
		hit, ok := Intersect(ray, seg)
		if !ok {
			continue
		}
		if !found || hit.T < closest.T {
			closest = hit
			found = true
		}
	}

	return closest, found
}

// Intersect solves origin + T1*dir = A + T2*(B-A). It reports false when the
// ray and segment are parallel, when the hit lies behind the ray origin
// (T1 < 0) or outside the segment (T2 not in [0, 1]), and when the ray starts
// on one of the segment's endpoints: that wall would otherwise be hit at
// T1 = 0 in almost every direction.
func Intersect(ray Ray, seg Segment) (Intersection, bool) {
	if ray.Origin == seg.A || ray.Origin == seg.B {
		return Intersection{}, false
	}
	s := seg.B.Sub(seg.A)

	det := ray.Dir.Cross(s)
	if math.Abs(det) < parallelTolerance {
		return Intersection{}, false
	}

	diff := seg.A.Sub(ray.Origin)
	t1 := diff.Cross(s) / det
	t2 := diff.Cross(ray.Dir) / det

	if t1 < 0 {
		return Intersection{}, false
	}
	if t2 < -extentTolerance || t2 > 1+extentTolerance {
		return Intersection{}, false
	}

	return Intersection{
		X: ray.Origin.X + ray.Dir.X*t1,
		Y: ray.Origin.Y + ray.Dir.Y*t1,
		T: t1,
	}, true
}
