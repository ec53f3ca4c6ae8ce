package game

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chosenoffset.com/shadowcast/internal/render"
	"chosenoffset.com/shadowcast/internal/render/lighting"
	"chosenoffset.com/shadowcast/internal/scene"
)

type fakeImage struct {
	w, h      int
	triangles int
	multiply  int
	disposed  bool
}

func (f *fakeImage) Bounds() image.Rectangle { return image.Rect(0, 0, f.w, f.h) }
func (f *fakeImage) Size() (int, int)        { return f.w, f.h }
func (f *fakeImage) Fill(clr color.Color)    {}
func (f *fakeImage) Dispose()                { f.disposed = true }
func (f *fakeImage) DrawImage(src render.Image, opts *render.DrawImageOptions) {
	if opts != nil && opts.Multiply {
		f.multiply++
	}
}
func (f *fakeImage) DrawTriangles(vertices []render.Vertex, indices []uint16, img render.Image, opts *render.DrawTrianglesOptions) {
	f.triangles += len(indices) / 3
}

type fakeRenderer struct {
	lines, circles int
	texts          []string
	textY          []int
}

func (r *fakeRenderer) NewImage(w, h int) render.Image { return &fakeImage{w: w, h: h} }
func (r *fakeRenderer) FillCircle(dst render.Image, x, y, radius float32, clr color.Color) {
	r.circles++
}
func (r *fakeRenderer) StrokeLine(dst render.Image, x0, y0, x1, y1, strokeWidth float32, clr color.Color) {
	r.lines++
}
func (r *fakeRenderer) DrawText(dst render.Image, text string, x, y int, clr color.Color, scale float64) {
	r.texts = append(r.texts, text)
	r.textY = append(r.textY, y)
}
func (r *fakeRenderer) MeasureText(text string, scale float64) (int, int) { return len(text) * 6, 13 }

type fakeInput struct {
	x, y    int
	keys    map[render.Key]bool
	buttons map[render.MouseButton]bool
}

func newFakeInput() *fakeInput {
	return &fakeInput{keys: map[render.Key]bool{}, buttons: map[render.MouseButton]bool{}}
}

func (f *fakeInput) IsKeyJustPressed(key render.Key) bool { return f.keys[key] }
func (f *fakeInput) GetCursorPosition() (int, int)        { return f.x, f.y }
func (f *fakeInput) IsMouseButtonJustPressed(b render.MouseButton) bool {
	return f.buttons[b]
}

// press holds key for a single Update
func (f *fakeInput) press(g *Game, key render.Key) error {
	f.keys[key] = true
	defer delete(f.keys, key)
	return g.Update()
}

func newTestGame(t *testing.T) (*Game, *fakeInput, *fakeRenderer) {
	t.Helper()
	sc, err := scene.NewContext(scene.DefaultConfig())
	require.NoError(t, err)
	mgr, err := lighting.NewManagerFromScene(sc, nil)
	require.NoError(t, err)
	mgr.SetSeed(7)

	input := newFakeInput()
	r := &fakeRenderer{}
	return New(sc, r, input, mgr), input, r
}

func cursorLight(t *testing.T, g *Game) lighting.LitPolygon {
	t.Helper()
	for _, lit := range g.LightingManager.Polygons() {
		if lit.Name == "cursor" {
			return lit
		}
	}
	t.Fatal("cursor light missing")
	return lighting.LitPolygon{}
}

func TestUpdateFollowsCursor(t *testing.T) {
	g, input, _ := newTestGame(t)
	input.x, input.y = 100, 500

	require.NoError(t, g.Update())
	lit := cursorLight(t, g)
	assert.Equal(t, 100.0, lit.Origin.X)
	assert.Equal(t, 500.0, lit.Origin.Y)
	assert.NotEmpty(t, lit.Polygon)
	assert.Equal(t, 600, g.ScreenWidth)
}

func TestPauseFreezesLights(t *testing.T) {
	g, input, _ := newTestGame(t)
	input.x, input.y = 100, 500
	require.NoError(t, g.Update())

	require.NoError(t, input.press(g, render.KeyP))
	assert.True(t, g.Paused)

	input.x, input.y = 500, 100
	require.NoError(t, g.Update())
	assert.Equal(t, 100.0, cursorLight(t, g).Origin.X)

	require.NoError(t, input.press(g, render.KeySpace))
	assert.False(t, g.Paused)
	assert.Equal(t, 500.0, cursorLight(t, g).Origin.X)
}

func TestEscapeQuits(t *testing.T) {
	g, input, _ := newTestGame(t)
	assert.ErrorIs(t, input.press(g, render.KeyEscape), ErrQuit)
}

func TestPlaceAndClearLights(t *testing.T) {
	g, input, _ := newTestGame(t)
	before := len(g.LightingManager.GetAllLights())

	// inside polygon4
	input.x, input.y = 400, 300
	input.buttons[render.MouseButtonLeft] = true
	require.NoError(t, g.Update())
	delete(input.buttons, render.MouseButtonLeft)

	require.Len(t, g.PlacedLights, 1)
	light, ok := g.LightingManager.GetLight(g.PlacedLights[0])
	require.True(t, ok)
	_, has := light.View.Polygon("polygon4")
	assert.False(t, has, "placed light must not cast against its housing")
	assert.Equal(t, g.Scene.Segments.Len()-4, light.View.Len())

	require.NoError(t, input.press(g, render.KeyC))
	assert.Empty(t, g.PlacedLights)
	assert.Len(t, g.LightingManager.GetAllLights(), before)
}

func TestDrawComposesLightMap(t *testing.T) {
	g, input, r := newTestGame(t)
	input.x, input.y = 300, 450
	require.NoError(t, g.Update())

	screen := &fakeImage{w: 600, h: 600}
	g.Draw(screen)

	lightMap, ok := g.LightTexture.(*fakeImage)
	require.True(t, ok)
	assert.Greater(t, lightMap.triangles, len(g.Scene.Lights))
	assert.Equal(t, 1, screen.multiply)
	assert.Equal(t, 20, r.lines, "five quadrilateral outlines")
	assert.Equal(t, len(g.Scene.Lights), r.circles)

	// resized screen gets a new light map
	g.Draw(&fakeImage{w: 300, h: 300})
	assert.True(t, lightMap.disposed)
}

func TestToggleOutlines(t *testing.T) {
	g, input, r := newTestGame(t)
	require.NoError(t, input.press(g, render.KeyO))
	assert.False(t, g.ShowOutlines)

	g.Draw(&fakeImage{w: 600, h: 600})
	assert.Zero(t, r.lines)
}

func TestDrawUIStacksLinesByTextHeight(t *testing.T) {
	g, _, r := newTestGame(t)
	g.Paused = true
	g.Messages = []Message{
		{Text: "first", TimeLeft: 1, MaxTime: 1},
		{Text: "second", TimeLeft: 1, MaxTime: 1},
	}

	g.drawUI(&fakeImage{w: 600, h: 600})

	assert.Equal(t, []string{"PAUSED (P to resume)", "first", "second"}, r.texts)
	// fake text is 13px tall
	assert.Equal(t, []int{8, 8 + 13 + uiLineSpacing, 8 + 2*(13+uiLineSpacing)}, r.textY)
}
