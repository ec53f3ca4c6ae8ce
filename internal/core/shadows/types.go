package shadows

import "math"

// Point represents a 2D point in scene space (pixels, origin top-left, y down)
type Point struct {
	X, Y float64
}

// Sub returns p - q
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Cross returns the z component of the cross product p × q
func (p Point) Cross(q Point) float64 {
	return p.X*q.Y - p.Y*q.X
}

// Finite reports whether both coordinates are neither NaN nor infinite
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Rect is an axis-aligned rectangle, used for the scene border
type Rect struct {
	Min, Max Point
}

// NewRect builds a rectangle from its top-left corner and size
func NewRect(x, y, width, height float64) Rect {
	return Rect{Min: Point{x, y}, Max: Point{x + width, y + height}}
}

// Empty reports whether the rectangle encloses no area
func (r Rect) Empty() bool {
	return r.Max.X <= r.Min.X || r.Max.Y <= r.Min.Y
}

// Contains reports whether p lies strictly inside the rectangle
func (r Rect) Contains(p Point) bool {
	return p.X > r.Min.X && p.X < r.Max.X && p.Y > r.Min.Y && p.Y < r.Max.Y
}

// Corners returns the corners clockwise (on screen) starting top-left
func (r Rect) Corners() [4]Point {
	return [4]Point{
		{r.Min.X, r.Min.Y},
		{r.Max.X, r.Min.Y},
		{r.Max.X, r.Max.Y},
		{r.Min.X, r.Max.Y},
	}
}

// Segments returns the four border walls chained top, right, bottom, left
func (r Rect) Segments() []Segment {
	c := r.Corners()
	return []Segment{
		{A: c[0], B: c[1]},
		{A: c[1], B: c[2]},
		{A: c[2], B: c[3]},
		{A: c[3], B: c[0]},
	}
}

// Segment represents an opaque wall that blocks light
type Segment struct {
	A, B Point
}

// Length returns the Euclidean length of the segment
func (s Segment) Length() float64 {
	return Distance(s.A, s.B)
}

// Polygon is a named, closed chain of segments. It only exists at
// configuration time to group segments for exclusion.
type Polygon struct {
	Name     string
	Segments []Segment
}

// Vertices returns the chain's corner points in order
func (p Polygon) Vertices() []Point {
	pts := make([]Point, len(p.Segments))
	for i, seg := range p.Segments {
		pts[i] = seg.A
	}
	return pts
}

// Contains reports whether pt lies inside the polygon
func (p Polygon) Contains(pt Point) bool {
	return PointInPolygon(pt, p.Vertices())
}

// Ray is origin + t*Dir for t >= 0
type Ray struct {
	Origin Point
	Dir    Point
}

// NewRay builds a unit-direction ray cast from origin at the given polar angle
func NewRay(origin Point, angle float64) Ray {
	return Ray{Origin: origin, Dir: Point{X: math.Cos(angle), Y: math.Sin(angle)}}
}

// Intersection is the nearest obstacle hit along one cast ray
type Intersection struct {
	X, Y  float64
	T     float64 // distance along the ray
	Angle float64 // polar angle of the ray, radians in (-π, π]
}

// Point returns the hit location
func (i Intersection) Point() Point {
	return Point{X: i.X, Y: i.Y}
}

// VisibilityPolygon is the lit region around an origin: intersections sorted
// by ascending angle. Consecutive vertices plus the closing edge bound a
// star-shaped polygon around the origin.
type VisibilityPolygon []Intersection

// Points returns the polygon vertices as plain points
func (vp VisibilityPolygon) Points() []Point {
	pts := make([]Point, len(vp))
	for i, in := range vp {
		pts[i] = in.Point()
	}
	return pts
}

// Area returns the enclosed area of the polygon
func (vp VisibilityPolygon) Area() float64 {
	return PolygonArea(vp.Points())
}
