package game

import (
	"image/color"

	"chosenoffset.com/shadowcast/internal/render"
)

var (
	floorColor       = color.NRGBA{R: 190, G: 180, B: 160, A: 255}
	outlineColor     = color.NRGBA{R: 90, G: 90, B: 110, A: 255}
	placedLightColor = color.NRGBA{R: 255, G: 200, B: 100, A: 255}
)

// uiLineSpacing is the gap in pixels between stacked UI text lines
const uiLineSpacing = 3

// Draw renders the game to the screen.
func (g *Game) Draw(screen render.Image) {
	w, h := screen.Size()

	if g.LightTexture == nil || needsResize(g.LightTexture, w, h) {
		if g.LightTexture != nil {
			g.LightTexture.Dispose()
		}
		g.LightTexture = g.Renderer.NewImage(w, h)
	}

	// Step 1: the unlit scene
	screen.Fill(floorColor)

	// Step 2: accumulate ambient plus every light's fan into the light map
	g.drawLightMap(g.LightTexture)

	// Step 3: darken the scene by the light map
	screen.DrawImage(g.LightTexture, &render.DrawImageOptions{Multiply: true})

	// Step 4: UI on top, unaffected by lighting
	if g.ShowOutlines {
		g.drawObstacles(screen)
		g.drawLightMarkers(screen)
	}
	g.drawUI(screen)
}

func needsResize(img render.Image, w, h int) bool {
	bounds := img.Bounds()
	return bounds.Dx() != w || bounds.Dy() != h
}

func (g *Game) drawLightMap(dst render.Image) {
	ambient := uint8(g.LightingManager.GetAmbientLight() * 255)
	dst.Fill(color.NRGBA{R: ambient, G: ambient, B: ambient, A: 255})

	opts := &render.DrawTrianglesOptions{AntiAlias: true, Additive: true}
	for _, lit := range g.LightingManager.Polygons() {
		shade := render.RadialShade(lit.Origin, lit.Radius, lit.Intensity, lit.Color)
		for _, batch := range render.FanTriangles(lit.Origin, lit.Polygon, shade) {
			dst.DrawTriangles(batch.Vertices, batch.Indices, nil, opts)
		}
	}
}

func (g *Game) drawObstacles(screen render.Image) {
	for _, poly := range g.Scene.Polygons {
		for _, seg := range poly.Segments {
			g.Renderer.StrokeLine(screen, float32(seg.A.X), float32(seg.A.Y), float32(seg.B.X), float32(seg.B.Y), 1, outlineColor)
		}
	}
}

func (g *Game) drawLightMarkers(screen render.Image) {
	for _, lit := range g.LightingManager.Polygons() {
		g.Renderer.FillCircle(screen, float32(lit.Origin.X), float32(lit.Origin.Y), 3, lit.Color)
	}
}

func (g *Game) drawUI(screen render.Image) {
	y := 8
	line := func(text string) {
		g.Renderer.DrawText(screen, text, 8, y, color.White, 1)
		_, h := g.Renderer.MeasureText(text, 1)
		y += h + uiLineSpacing
	}
	if g.Paused {
		line("PAUSED (P to resume)")
	}
	for _, msg := range g.Messages {
		line(msg.Text)
	}
}
