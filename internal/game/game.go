package game

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"chosenoffset.com/shadowcast/internal/core/shadows"
	"chosenoffset.com/shadowcast/internal/render"
	"chosenoffset.com/shadowcast/internal/render/lighting"
	"chosenoffset.com/shadowcast/internal/scene"
)

// ErrQuit is returned from Update when the player asks to leave
var ErrQuit = errors.New("quit")

// Game holds all demo state and logic.
type Game struct {
	ScreenWidth     int
	ScreenHeight    int
	Scene           *scene.Context
	Renderer        render.Renderer
	InputMgr        render.InputManager
	LightingManager *lighting.Manager
	LightTexture    render.Image

	Cursor       shadows.Point
	Paused       bool
	ShowOutlines bool

	// Lights dropped with the mouse
	PlacedLights []uuid.UUID

	// UI state
	Messages []Message

	// Debug
	FrameCount int
}

// New creates a game for the scene
func New(sc *scene.Context, r render.Renderer, input render.InputManager, mgr *lighting.Manager) *Game {
	return &Game{
		ScreenWidth:     int(sc.Config.Width),
		ScreenHeight:    int(sc.Config.Height),
		Scene:           sc,
		Renderer:        r,
		InputMgr:        input,
		LightingManager: mgr,
		ShowOutlines:    true,
	}
}

// Update handles game logic updates.
func (g *Game) Update() error {
	// Delta time for timers (assuming 60 FPS)
	dt := 1.0 / 60.0
	g.FrameCount++

	g.updateMessages(dt)

	if g.InputMgr.IsKeyJustPressed(render.KeyEscape) {
		return ErrQuit
	}
	if g.InputMgr.IsKeyJustPressed(render.KeyP) || g.InputMgr.IsKeyJustPressed(render.KeySpace) {
		g.Paused = !g.Paused
		if g.Paused {
			g.ShowMessage("Paused")
		} else {
			g.ShowMessage("Resumed")
		}
	}
	if g.InputMgr.IsKeyJustPressed(render.KeyO) {
		g.ShowOutlines = !g.ShowOutlines
	}
	if g.InputMgr.IsKeyJustPressed(render.KeyC) {
		g.clearPlacedLights()
	}

	x, y := g.InputMgr.GetCursorPosition()
	g.Cursor = shadows.Point{X: float64(x), Y: float64(y)}

	if g.InputMgr.IsMouseButtonJustPressed(render.MouseButtonLeft) {
		if err := g.placeLight(g.Cursor); err != nil {
			return err
		}
	}

	if g.Paused {
		return nil
	}

	if err := g.LightingManager.Update(context.Background(), g.Cursor); err != nil {
		return fmt.Errorf("failed to update lights: %w", err)
	}

	if g.FrameCount <= 5 {
		hits, misses := g.LightingManager.Cache().Stats()
		log.Printf("DEBUG Update frame %d: cursor=(%.0f, %.0f) cache hits=%d misses=%d",
			g.FrameCount, g.Cursor.X, g.Cursor.Y, hits, misses)
	}
	return nil
}

// placeLight drops a static light at p. A light dropped inside an obstacle
// does not cast against that obstacle's walls.
func (g *Game) placeLight(p shadows.Point) error {
	view := g.Scene.Segments
	var housing []string
	for _, poly := range g.Scene.Polygons {
		if poly.Contains(p) {
			housing = append(housing, poly.Name)
		}
	}
	if len(housing) > 0 {
		var err error
		view, err = shadows.Exclude(g.Scene.Segments, housing...)
		if err != nil {
			return fmt.Errorf("failed to place light: %w", err)
		}
	}

	id := g.LightingManager.AddLight(&lighting.LightSource{
		Name:      fmt.Sprintf("placed-%d", len(g.PlacedLights)+1),
		X:         p.X,
		Y:         p.Y,
		Radius:    120,
		Intensity: 0.8,
		Color:     placedLightColor,
		View:      view,
	})
	g.PlacedLights = append(g.PlacedLights, id)
	g.ShowMessage(fmt.Sprintf("Placed light at (%.0f, %.0f)", p.X, p.Y))
	return nil
}

func (g *Game) clearPlacedLights() {
	if len(g.PlacedLights) == 0 {
		return
	}
	for _, id := range g.PlacedLights {
		g.LightingManager.RemoveLight(id)
	}
	g.ShowMessage(fmt.Sprintf("Removed %d placed lights", len(g.PlacedLights)))
	g.PlacedLights = nil
}

// Layout returns the game's logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.ScreenWidth, g.ScreenHeight
}

func (g *Game) updateMessages(dt float64) {
	var active []Message
	for _, msg := range g.Messages {
		msg.TimeLeft -= dt
		if msg.TimeLeft > 0 {
			active = append(active, msg)
		}
	}
	g.Messages = active
}

// ShowMessage adds a new message to be displayed on screen.
func (g *Game) ShowMessage(text string) {
	g.Messages = append(g.Messages, Message{
		Text:     text,
		TimeLeft: 3.0,
		MaxTime:  3.0,
	})
	log.Printf("Message: %s", text)
}
