// Package snapshot rasterizes the lit scene to an image without a window,
// for the snapshot command and for inspecting casts in tests.
package snapshot

import (
	"fmt"
	"image"
	"io"
	"os"

	"github.com/gogpu/gg"

	"chosenoffset.com/shadowcast/internal/render/lighting"
	"chosenoffset.com/shadowcast/internal/scene"
)

// Options controls what is drawn besides the light polygons
type Options struct {
	Background   gg.RGBA
	Outline      gg.RGBA
	Outlines     bool
	LightMarkers bool
}

// DefaultOptions draws outlines and markers over a near-black floor
func DefaultOptions() Options {
	return Options{
		Background:   gg.RGB(20.0/255, 20.0/255, 20.0/255),
		Outline:      gg.RGB(90.0/255, 90.0/255, 110.0/255),
		Outlines:     true,
		LightMarkers: true,
	}
}

// Render draws every light polygon filled with a radial gradient around its
// origin, then the obstacle outlines. The caller must Close the context.
func Render(sc *scene.Context, lights []lighting.LitPolygon, opts Options) (*gg.Context, error) {
	dc := gg.NewContext(int(sc.Config.Width), int(sc.Config.Height))
	dc.ClearWithColor(opts.Background)

	for _, lit := range lights {
		if len(lit.Polygon) < 3 || lit.Intensity <= 0 {
			continue
		}
		c := gg.FromColor(lit.Color)
		if lit.Radius > 0 {
			dc.SetFillBrush(gg.NewRadialGradientBrush(lit.Origin.X, lit.Origin.Y, 0, lit.Radius).
				AddColorStop(0, gg.RGBA2(c.R, c.G, c.B, lit.Intensity)).
				AddColorStop(1, gg.RGBA2(c.R, c.G, c.B, 0)))
		} else {
			// no falloff
			dc.SetRGBA(c.R, c.G, c.B, lit.Intensity)
		}

		pts := lit.Polygon.Points()
		dc.MoveTo(pts[0].X, pts[0].Y)
		for _, p := range pts[1:] {
			dc.LineTo(p.X, p.Y)
		}
		dc.ClosePath()
		if err := dc.Fill(); err != nil {
			dc.Close()
			return nil, fmt.Errorf("failed to fill light %s: %w", lit.Name, err)
		}
	}

	if opts.Outlines {
		dc.SetRGBA(opts.Outline.R, opts.Outline.G, opts.Outline.B, opts.Outline.A)
		dc.SetLineWidth(1)
		for _, poly := range sc.Polygons {
			verts := poly.Vertices()
			if len(verts) == 0 {
				continue
			}
			dc.MoveTo(verts[0].X, verts[0].Y)
			for _, v := range verts[1:] {
				dc.LineTo(v.X, v.Y)
			}
			dc.ClosePath()
			if err := dc.Stroke(); err != nil {
				dc.Close()
				return nil, fmt.Errorf("failed to outline %s: %w", poly.Name, err)
			}
		}
	}

	if opts.LightMarkers {
		for _, lit := range lights {
			dc.SetColor(lit.Color)
			dc.DrawCircle(lit.Origin.X, lit.Origin.Y, 3)
			if err := dc.Fill(); err != nil {
				dc.Close()
				return nil, fmt.Errorf("failed to mark light %s: %w", lit.Name, err)
			}
		}
	}

	return dc, nil
}

// Image renders the scene and returns the resulting image
func Image(sc *scene.Context, lights []lighting.LitPolygon, opts Options) (image.Image, error) {
	dc, err := Render(sc, lights, opts)
	if err != nil {
		return nil, err
	}
	defer dc.Close()
	return dc.Image(), nil
}

// WritePNG renders the scene as PNG to w
func WritePNG(w io.Writer, sc *scene.Context, lights []lighting.LitPolygon, opts Options) error {
	dc, err := Render(sc, lights, opts)
	if err != nil {
		return err
	}
	defer dc.Close()
	return dc.EncodePNG(w)
}

// SavePNG renders the scene as PNG to path
func SavePNG(path string, sc *scene.Context, lights []lighting.LitPolygon, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WritePNG(f, sc, lights, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
