package shadows

import (
	"math"
	"reflect"
	"testing"
)

const sceneSize = 600

func squareAt(name string, cx, cy, size float64) Polygon {
	return PolygonFromRect(name, NewRect(cx-size/2, cy-size/2, size, size))
}

func mustBuild(t *testing.T, polygons ...Polygon) *SegmentSet {
	t.Helper()
	set, err := Build(NewRect(0, 0, sceneSize, sceneSize), polygons)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return set
}

func pointSegmentDistance(p Point, seg Segment) float64 {
	d := seg.B.Sub(seg.A)
	lenSq := d.X*d.X + d.Y*d.Y
	u := ((p.X-seg.A.X)*d.X + (p.Y-seg.A.Y)*d.Y) / lenSq
	u = math.Max(0, math.Min(1, u))
	return Distance(p, Point{seg.A.X + u*d.X, seg.A.Y + u*d.Y})
}

func assertSorted(t *testing.T, poly VisibilityPolygon) {
	t.Helper()
	for i := 1; i < len(poly); i++ {
		if poly[i].Angle < poly[i-1].Angle {
			t.Fatalf("Expected non-decreasing angles, got %v before %v at index %d", poly[i-1].Angle, poly[i].Angle, i)
		}
	}
}

// assertStarShaped checks that nothing in set is hit before each vertex
func assertStarShaped(t *testing.T, origin Point, poly VisibilityPolygon, set *SegmentSet) {
	t.Helper()
	for _, v := range poly {
		dist := Distance(origin, v.Point())
		if dist == 0 {
			continue
		}
		ray := Ray{Origin: origin, Dir: Point{(v.X - origin.X) / dist, (v.Y - origin.Y) / dist}}
		for _, seg := range set.Segments() {
			hit, ok := Intersect(ray, seg)
			if ok && hit.T < dist-1e-6 {
				t.Errorf("Expected vertex (%.4f, %.4f) to be the first hit, but segment %v is hit at t=%.4f < %.4f",
					v.X, v.Y, seg, hit.T, dist)
			}
		}
	}
}

func nearestVertex(poly VisibilityPolygon, p Point) float64 {
	best := math.Inf(1)
	for _, v := range poly {
		best = math.Min(best, Distance(p, v.Point()))
	}
	return best
}

func TestComputeBorderOnly(t *testing.T) {
	set := mustBuild(t)
	origin := Point{300, 300}

	poly := Compute(origin, set)
	if len(poly) == 0 {
		t.Fatal("Expected a non-empty polygon")
	}
	assertSorted(t, poly)

	for _, v := range poly {
		onBorder := math.Abs(v.X) < 1e-6 || math.Abs(v.X-sceneSize) < 1e-6 ||
			math.Abs(v.Y) < 1e-6 || math.Abs(v.Y-sceneSize) < 1e-6
		if !onBorder {
			t.Errorf("Expected every vertex on the border, got (%v, %v)", v.X, v.Y)
		}
	}

	border := NewRect(0, 0, sceneSize, sceneSize)
	for _, corner := range border.Corners() {
		if d := nearestVertex(poly, corner); d > 1e-2 {
			t.Errorf("Expected a vertex at corner %v, nearest is %.6f away", corner, d)
		}
	}

	// corners in angular order: top-left, top-right, bottom-right, bottom-left
	// is (-3π/4, -π/4, π/4, 3π/4)
	var order []int
	for _, v := range poly {
		for i, corner := range border.Corners() {
			if Distance(corner, v.Point()) < 1e-6 {
				order = append(order, i)
			}
		}
	}
	if !reflect.DeepEqual(order, []int{0, 1, 2, 3}) {
		t.Errorf("Expected corners in order [0 1 2 3], got %v", order)
	}

	if area := poly.Area(); math.Abs(area-sceneSize*sceneSize) > 1 {
		t.Errorf("Expected area %d, got %.3f", sceneSize*sceneSize, area)
	}
}

func TestComputeSquareObstacle(t *testing.T) {
	square := squareAt("square", 300, 300, 10)
	set := mustBuild(t, square)
	origin := Point{300, 100}

	poly := Compute(origin, set)
	if len(poly) == 0 {
		t.Fatal("Expected a non-empty polygon")
	}
	assertSorted(t, poly)
	assertStarShaped(t, origin, poly, set)

	for _, corner := range NewRect(0, 0, sceneSize, sceneSize).Corners() {
		if d := nearestVertex(poly, corner); d > 1e-2 {
			t.Errorf("Expected far border corner %v in polygon, nearest vertex is %.6f away", corner, d)
		}
	}
	for _, corner := range []Point{{295, 295}, {305, 295}} {
		if d := nearestVertex(poly, corner); d > 1e-6 {
			t.Errorf("Expected near corner %v in polygon, nearest vertex is %.6f away", corner, d)
		}
	}

	nearEdge := 0
	for _, v := range poly {
		if v.X > 295+1e-6 && v.X < 305-1e-6 && v.Y > 295+1e-6 && v.Y < 305-1e-6 {
			t.Errorf("Expected no vertex inside the obstacle, got (%v, %v)", v.X, v.Y)
		}
		onSquare := false
		for _, seg := range square.Segments {
			if pointSegmentDistance(v.Point(), seg) < 1e-6 {
				onSquare = true
			}
		}
		if !onSquare {
			continue
		}
		if math.Abs(v.Y-295) > 1e-6 {
			t.Errorf("Expected obstacle vertices only on the near edge y=295, got (%v, %v)", v.X, v.Y)
		}
		nearEdge++
	}
	if nearEdge < 4 {
		t.Errorf("Expected at least 4 vertices tracing the near edge, got %d", nearEdge)
	}
}

func TestComputeOriginOnEndpoint(t *testing.T) {
	set := mustBuild(t, squareAt("square", 300, 300, 10))

	for _, origin := range []Point{{295, 295}, {0, 0}, {305, 305}} {
		poly := Compute(origin, set)
		if len(poly) == 0 {
			t.Errorf("Expected vertices from origin %v", origin)
		}
		for _, v := range poly {
			if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.T) || math.IsNaN(v.Angle) ||
				math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) || math.IsInf(v.T, 0) {
				t.Fatalf("Expected finite vertex from origin %v, got %+v", origin, v)
			}
			if Distance(origin, v.Point()) < 1e-9 {
				t.Errorf("Expected no vertex at origin %v, got %+v", origin, v)
			}
		}
		if area := poly.Area(); area <= 0 {
			t.Errorf("Expected positive area from origin %v, got %.3f", origin, area)
		}
		assertSorted(t, poly)
		assertStarShaped(t, origin, poly, set)
	}

	// from the obstacle's top-left corner the whole border is still visible
	poly := Compute(Point{295, 295}, set)
	for _, corner := range NewRect(0, 0, sceneSize, sceneSize).Corners() {
		if d := nearestVertex(poly, corner); d > 1e-2 {
			t.Errorf("Expected border corner %v in polygon, nearest vertex is %.6f away", corner, d)
		}
	}
}

func TestComputeNonFiniteOrigin(t *testing.T) {
	set := mustBuild(t, squareAt("square", 300, 300, 10))

	for _, origin := range []Point{{math.NaN(), 10}, {10, math.NaN()}, {math.Inf(1), 10}, {10, math.Inf(-1)}} {
		if poly := Compute(origin, set); len(poly) != 0 {
			t.Errorf("Expected empty polygon for origin %v, got %d vertices", origin, len(poly))
		}
	}
}

func TestComputeIdempotent(t *testing.T) {
	set := mustBuild(t, squareAt("a", 200, 200, 40), squareAt("b", 420, 380, 60))
	origin := Point{311.25, 97.5}

	first := Compute(origin, set)
	second := Compute(origin, set)

	if len(first) != len(second) {
		t.Fatalf("Expected equal lengths, got %d and %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if math.Float64bits(a.X) != math.Float64bits(b.X) || math.Float64bits(a.Y) != math.Float64bits(b.Y) ||
			math.Float64bits(a.T) != math.Float64bits(b.T) || math.Float64bits(a.Angle) != math.Float64bits(b.Angle) {
			t.Fatalf("Expected bit-identical vertex %d, got %+v and %+v", i, a, b)
		}
	}
}

func TestComputeMonotonicOcclusion(t *testing.T) {
	obstacles := []Polygon{
		PolygonFromPoints("p1", []Point{{50, 155}, {240, 153}, {240, 216}, {50, 216}}),
		PolygonFromPoints("p2", []Point{{333, 66}, {408, 66}, {408, 123}, {333, 125}}),
		PolygonFromPoints("p4", []Point{{296, 280}, {435, 280}, {435, 344}, {296, 344}}),
		PolygonFromPoints("p5", []Point{{43, 335}, {135, 335}, {135, 375}, {43, 375}}),
	}
	origin := Point{260, 250}

	prev := Compute(origin, mustBuild(t)).Area()
	for i := range obstacles {
		set := mustBuild(t, obstacles[:i+1]...)
		area := Compute(origin, set).Area()
		if area > prev+1 {
			t.Errorf("Expected area to shrink after adding %s, got %.3f > %.3f", obstacles[i].Name, area, prev)
		}
		prev = area
	}
}

func TestComputeExclusion(t *testing.T) {
	housing := PolygonFromPoints("housing", []Point{{333, 66}, {408, 66}, {408, 123}, {333, 125}})
	set := mustBuild(t, housing, squareAt("other", 200, 300, 50))
	origin := Point{370, 94}

	// without exclusion the light is boxed in by its own housing
	for _, v := range Compute(origin, set) {
		onHousing := false
		for _, seg := range housing.Segments {
			if pointSegmentDistance(v.Point(), seg) < 1e-6 {
				onHousing = true
			}
		}
		if !onHousing {
			t.Errorf("Expected enclosed light to only hit its housing, got (%v, %v)", v.X, v.Y)
		}
	}

	view, err := Exclude(set, "housing")
	if err != nil {
		t.Fatalf("Exclude failed: %v", err)
	}
	poly := Compute(origin, view)
	if len(poly) == 0 {
		t.Fatal("Expected a non-empty polygon")
	}
	for _, v := range poly {
		for _, seg := range housing.Segments {
			if pointSegmentDistance(v.Point(), seg) < 1e-6 {
				t.Errorf("Expected no vertex on excluded segment %v, got (%v, %v)", seg, v.X, v.Y)
			}
		}
	}
	assertStarShaped(t, origin, poly, view)
}

func TestComputeMissingHitLeavesGap(t *testing.T) {
	set := mustBuild(t)
	origin := Point{-100, -100}

	poly := Compute(origin, set)
	candidates := len(DefaultCaster.candidateAngles(origin, set.Endpoints()))
	if len(poly) >= candidates {
		t.Errorf("Expected some rays to miss from outside the border, got %d vertices for %d rays", len(poly), candidates)
	}
	assertSorted(t, poly)
}

func TestComputeEmptySet(t *testing.T) {
	if poly := Compute(Point{1, 1}, nil); len(poly) != 0 {
		t.Errorf("Expected empty polygon for nil set, got %d vertices", len(poly))
	}
}

func TestIntersect(t *testing.T) {
	wall := Segment{A: Point{5, -1}, B: Point{5, 1}}

	hit, ok := Intersect(NewRay(Point{0, 0}, 0), wall)
	if !ok {
		t.Fatal("Expected the ray to hit the wall")
	}
	if math.Abs(hit.X-5) > 1e-12 || math.Abs(hit.Y) > 1e-12 || math.Abs(hit.T-5) > 1e-12 {
		t.Errorf("Expected hit (5, 0) at t=5, got (%v, %v) at t=%v", hit.X, hit.Y, hit.T)
	}

	if _, ok := Intersect(NewRay(Point{0, 0}, math.Pi), wall); ok {
		t.Error("Expected no hit behind the ray origin")
	}
	if _, ok := Intersect(NewRay(Point{0, 0}, math.Pi/4), wall); ok {
		t.Error("Expected no hit outside the segment extent")
	}
	parallel := Segment{A: Point{1, 1}, B: Point{9, 1}}
	if _, ok := Intersect(NewRay(Point{0, 0}, 0), parallel); ok {
		t.Error("Expected parallel ray and segment not to intersect")
	}
	// ray aimed exactly at an endpoint
	if _, ok := Intersect(NewRay(Point{0, 0}, math.Atan2(1, 5)), wall); !ok {
		t.Error("Expected a ray aimed at the endpoint to hit it")
	}
	// ray starting on an endpoint ignores that wall
	for _, angle := range []float64{0, math.Pi / 3, math.Pi, -math.Pi / 2} {
		if hit, ok := Intersect(NewRay(wall.A, angle), wall); ok {
			t.Errorf("Expected no hit from endpoint at angle %v, got %+v", angle, hit)
		}
		if hit, ok := Intersect(NewRay(wall.B, angle), wall); ok {
			t.Errorf("Expected no hit from endpoint at angle %v, got %+v", angle, hit)
		}
	}
}
