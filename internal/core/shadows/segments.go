package shadows

import (
	"github.com/google/uuid"
)

// chainTolerance is how far apart consecutive polygon endpoints may be and
// still count as connected
const chainTolerance = 1e-9

// SegmentSet is an immutable collection of walls. Every cast reads it
// concurrently without locking, so nothing mutates it after construction.
type SegmentSet struct {
	id        uuid.UUID
	segments  []Segment
	endpoints []Point
	polygons  map[string]Polygon
	names     []string
}

func newSegmentSet(segments []Segment, polygons []Polygon) *SegmentSet {
	set := &SegmentSet{
		id:       uuid.New(),
		segments: segments,
		polygons: make(map[string]Polygon, len(polygons)),
	}
	for _, poly := range polygons {
		set.polygons[poly.Name] = poly
		set.names = append(set.names, poly.Name)
	}

	seen := make(map[Point]bool)
	for _, seg := range segments {
		for _, p := range [2]Point{seg.A, seg.B} {
			if !seen[p] {
				seen[p] = true
				set.endpoints = append(set.endpoints, p)
			}
		}
	}
	return set
}

// ID identifies this set; exclusion views get their own ID. A nil set has
// the nil UUID.
func (s *SegmentSet) ID() uuid.UUID {
	if s == nil {
		return uuid.Nil
	}
	return s.id
}

// Len returns the number of segments in the set
func (s *SegmentSet) Len() int {
	return len(s.segments)
}

// Segments returns a copy of the walls in the set
func (s *SegmentSet) Segments() []Segment {
	out := make([]Segment, len(s.segments))
	copy(out, s.segments)
	return out
}

// Endpoints returns the distinct segment endpoints in first-seen order
func (s *SegmentSet) Endpoints() []Point {
	out := make([]Point, len(s.endpoints))
	copy(out, s.endpoints)
	return out
}

// Polygons returns the names of the obstacle polygons still in the set
func (s *SegmentSet) Polygons() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Polygon looks up an obstacle polygon by name
func (s *SegmentSet) Polygon(name string) (Polygon, bool) {
	p, ok := s.polygons[name]
	return p, ok
}

// Contains reports whether seg is one of the set's walls
func (s *SegmentSet) Contains(seg Segment) bool {
	for _, have := range s.segments {
		if have == seg {
			return true
		}
	}
	return false
}

// Build concatenates the border walls and every obstacle polygon's walls into
// one flat set. Polygons must have at least 3 non-degenerate segments chaining
// closed, and unique names.
func Build(border Rect, polygons []Polygon) (*SegmentSet, error) {
	if border.Empty() {
		return nil, &ConfigError{Op: "build", Err: ErrEmptyBorder}
	}

	segments := border.Segments()
	names := make(map[string]bool, len(polygons))
	for _, poly := range polygons {
		if err := validatePolygon(poly); err != nil {
			return nil, err
		}
		if names[poly.Name] {
			return nil, &ConfigError{Op: "build", Polygon: poly.Name, Err: ErrDuplicatePolygon}
		}
		names[poly.Name] = true
		segments = append(segments, poly.Segments...)
	}

	return newSegmentSet(segments, polygons), nil
}

func validatePolygon(poly Polygon) error {
	if len(poly.Segments) < 3 {
		return &ConfigError{Op: "build", Polygon: poly.Name, Err: ErrTooFewSegments}
	}
	for i, seg := range poly.Segments {
		if seg.A == seg.B {
			bad := seg
			return &ConfigError{Op: "build", Polygon: poly.Name, Segment: &bad, Err: ErrZeroLengthSegment}
		}
		next := poly.Segments[(i+1)%len(poly.Segments)]
		if Distance(seg.B, next.A) > chainTolerance {
			bad := seg
			return &ConfigError{Op: "build", Polygon: poly.Name, Segment: &bad, Err: ErrOpenPolygon}
		}
	}
	return nil
}

// Exclude returns a new set equal to set minus every segment of the named
// polygons. It is meant to run once per light at setup; the result is reused
// every frame.
func Exclude(set *SegmentSet, names ...string) (*SegmentSet, error) {
	polys := make([]Polygon, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		poly, ok := set.polygons[name]
		if !ok {
			return nil, &ConfigError{Op: "exclude", Polygon: name, Err: ErrUnknownPolygon}
		}
		polys = append(polys, poly)
	}
	return ExcludePolygons(set, polys...)
}

// ExcludePolygons removes the given polygon definitions from set. Every
// segment named for removal must be present, otherwise the polygon
// definitions and the set disagree and a ConfigError is returned.
func ExcludePolygons(set *SegmentSet, polys ...Polygon) (*SegmentSet, error) {
	// multiset so walls shared by two polygons are removed once per owner
	remaining := make(map[Segment]int, len(set.segments))
	for _, seg := range set.segments {
		remaining[seg]++
	}

	drop := make(map[string]bool, len(polys))
	for _, poly := range polys {
		for _, seg := range poly.Segments {
			if remaining[seg] == 0 {
				bad := seg
				return nil, &ConfigError{Op: "exclude", Polygon: poly.Name, Segment: &bad, Err: ErrSegmentNotFound}
			}
			remaining[seg]--
		}
		drop[poly.Name] = true
	}

	segments := make([]Segment, 0, len(set.segments))
	for _, seg := range set.segments {
		if remaining[seg] > 0 {
			segments = append(segments, seg)
			remaining[seg]--
		}
	}

	kept := make([]Polygon, 0, len(set.names))
	for _, name := range set.names {
		if !drop[name] {
			kept = append(kept, set.polygons[name])
		}
	}
	return newSegmentSet(segments, kept), nil
}

// PolygonFromPoints chains the points into a closed polygon, adding the
// closing edge from the last point back to the first
func PolygonFromPoints(name string, points []Point) Polygon {
	poly := Polygon{Name: name, Segments: make([]Segment, 0, len(points))}
	for i, p := range points {
		poly.Segments = append(poly.Segments, Segment{A: p, B: points[(i+1)%len(points)]})
	}
	return poly
}

// PolygonFromRect builds a four-wall polygon around r
func PolygonFromRect(name string, r Rect) Polygon {
	c := r.Corners()
	return PolygonFromPoints(name, c[:])
}
