package render

import (
	"image/color"
	"math"

	"chosenoffset.com/shadowcast/internal/core/shadows"
)

// maxBatchVertices is the most vertices a uint16-indexed batch can address
const maxBatchVertices = math.MaxUint16

// TriangleBatch is one DrawTriangles call worth of geometry
type TriangleBatch struct {
	Vertices []Vertex
	Indices  []uint16
}

// Shade returns the premultiplied color of a vertex at (x, y)
type Shade func(x, y float64) (r, g, b, a float32)

// SolidShade colors every vertex c
func SolidShade(c color.Color) Shade {
	r, g, b, a := c.RGBA()
	return func(float64, float64) (float32, float32, float32, float32) {
		return float32(r) / 0xffff, float32(g) / 0xffff, float32(b) / 0xffff, float32(a) / 0xffff
	}
}

// RadialShade fades c linearly from intensity at origin to zero at radius
func RadialShade(origin shadows.Point, radius, intensity float64, c color.NRGBA) Shade {
	return func(x, y float64) (float32, float32, float32, float32) {
		f := intensity
		if radius > 0 {
			f *= 1 - shadows.Distance(origin, shadows.Point{X: x, Y: y})/radius
		}
		if f < 0 {
			f = 0
		}
		a := float32(f)
		return float32(c.R) / 255 * a, float32(c.G) / 255 * a, float32(c.B) / 255 * a, a
	}
}

// FanTriangles turns a visibility polygon into a triangle fan around origin.
// Consecutive vertices form one triangle with the origin, including the pair
// closing the polygon across the ±π seam. Pairs spanning π or more are gaps
// left by missing hits and are not filled. Geometry that does not fit one
// uint16-indexed batch is split over several.
func FanTriangles(origin shadows.Point, poly shadows.VisibilityPolygon, shade Shade) []TriangleBatch {
	n := len(poly)
	if n < 2 {
		return nil
	}

	type pair struct{ i, j int }
	pairs := make([]pair, 0, n)
	for i := 0; i+1 < n; i++ {
		if poly[i+1].Angle-poly[i].Angle < math.Pi {
			pairs = append(pairs, pair{i, i + 1})
		}
	}
	if n > 2 && poly[0].Angle+2*math.Pi-poly[n-1].Angle < math.Pi {
		pairs = append(pairs, pair{n - 1, 0})
	}
	if len(pairs) == 0 {
		return nil
	}

	vertex := func(x, y float64) Vertex {
		r, g, b, a := shade(x, y)
		return Vertex{DstX: float32(x), DstY: float32(y), ColorR: r, ColorG: g, ColorB: b, ColorA: a}
	}
	center := vertex(origin.X, origin.Y)
	newBatch := func() TriangleBatch {
		return TriangleBatch{Vertices: []Vertex{center}}
	}

	var batches []TriangleBatch
	batch := newBatch()
	prev := -1 // polygon index of the last vertex appended to batch
	for _, p := range pairs {
		if len(batch.Vertices)+2 > maxBatchVertices {
			batches = append(batches, batch)
			batch = newBatch()
			prev = -1
		}
		var li uint16
		if p.i == prev {
			li = uint16(len(batch.Vertices) - 1)
		} else {
			batch.Vertices = append(batch.Vertices, vertex(poly[p.i].X, poly[p.i].Y))
			li = uint16(len(batch.Vertices) - 1)
		}
		batch.Vertices = append(batch.Vertices, vertex(poly[p.j].X, poly[p.j].Y))
		lj := uint16(len(batch.Vertices) - 1)
		batch.Indices = append(batch.Indices, 0, li, lj)
		prev = p.j
	}
	return append(batches, batch)
}
