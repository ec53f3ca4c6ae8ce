package lighting

import (
	"context"
	"fmt"
	"image/color"
	"log"
	"math"
	"math/rand"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"chosenoffset.com/shadowcast/internal/core/shadows"
	"chosenoffset.com/shadowcast/internal/scene"
)

const (
	gradientSteps = 255
	flickerChance = 0.05
	cacheCapacity = 512
)

// LightSource represents a single light source in the scene
type LightSource struct {
	ID           uuid.UUID
	Name         string
	X            float64     // World X position (in pixels)
	Y            float64     // World Y position (in pixels)
	Radius       float64     // Light radius (in pixels)
	Intensity    float64     // Light intensity (0.0 to 1.0)
	Color        color.NRGBA // Light color
	FollowCursor bool

	// View is the segment set this light casts against, with its own housing removed
	View *shadows.SegmentSet

	// Color variance cycles between the gradient colors
	Variance      bool
	GradientStart color.NRGBA
	GradientEnd   color.NRGBA
	gradientIndex int
	gradientStep  int

	Flicker   bool
	flickered bool

	// Beam is the cone width in radians, 0 for an all-around light. Heading
	// turns by Spin radians every Update.
	Beam    float64
	Spin    float64
	Heading float64

	polygon shadows.VisibilityPolygon
	dirty   bool
}

// Origin returns the light position as a shadows point
func (l *LightSource) Origin() shadows.Point {
	return shadows.Point{X: l.X, Y: l.Y}
}

// CurrentColor returns the color to draw this frame, after variance and flicker
func (l *LightSource) CurrentColor() color.NRGBA {
	c := l.Color
	if l.Variance {
		c = lerpColor(l.GradientStart, l.GradientEnd, float64(l.gradientIndex)/gradientSteps)
	}
	if l.flickered {
		c.R /= 2
		c.G /= 2
		c.B /= 2
	}
	return c
}

// LitPolygon is the latest visibility polygon of one light, ready for a renderer
type LitPolygon struct {
	ID        uuid.UUID
	Name      string
	Origin    shadows.Point
	Radius    float64
	Intensity float64
	Color     color.NRGBA
	Polygon   shadows.VisibilityPolygon
}

// Manager handles all light sources in the scene
type Manager struct {
	lights       []*LightSource
	byID         map[uuid.UUID]*LightSource
	ambientLight float64 // Global ambient light level (0.0 = pitch black, 1.0 = fully lit)
	cache        *shadows.Cache
	rng          *rand.Rand
}

// NewManager creates a new lighting manager. A nil cache gets a private one.
func NewManager(cache *shadows.Cache) *Manager {
	if cache == nil {
		cache = shadows.NewCache(shadows.DefaultCaster, cacheCapacity)
	}
	return &Manager{
		lights:       make([]*LightSource, 0),
		byID:         make(map[uuid.UUID]*LightSource),
		ambientLight: 0.15,
		cache:        cache,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewManagerFromScene creates a manager holding every light of the scene
func NewManagerFromScene(sc *scene.Context, cache *shadows.Cache) (*Manager, error) {
	m := NewManager(cache)
	m.SetAmbientLight(sc.Config.Ambient)
	for _, l := range sc.Lights {
		light, err := lightFromScene(l)
		if err != nil {
			return nil, err
		}
		m.AddLight(light)
	}
	return m, nil
}

func lightFromScene(l scene.Light) (*LightSource, error) {
	cfg := l.Config
	col, err := scene.ParseColor(cfg.Color)
	if err != nil {
		return nil, fmt.Errorf("light %s: %w", cfg.Name, err)
	}
	light := &LightSource{
		Name:          cfg.Name,
		X:             l.Origin.X,
		Y:             l.Origin.Y,
		Radius:        cfg.Radius,
		Intensity:     cfg.Intensity,
		Color:         col,
		FollowCursor:  cfg.FollowCursor,
		View:          l.View,
		Flicker:       cfg.Flicker,
		Beam:          cfg.Beam * math.Pi / 180,
		Spin:          cfg.Spin * math.Pi / 180,
		GradientStart: col,
		GradientEnd:   col,
	}
	if cfg.GradientStart != "" {
		if light.GradientStart, err = scene.ParseColor(cfg.GradientStart); err != nil {
			return nil, fmt.Errorf("light %s gradient start: %w", cfg.Name, err)
		}
	}
	if cfg.GradientEnd != "" {
		if light.GradientEnd, err = scene.ParseColor(cfg.GradientEnd); err != nil {
			return nil, fmt.Errorf("light %s gradient end: %w", cfg.Name, err)
		}
	}
	light.Variance = cfg.Variance && light.GradientStart != light.GradientEnd
	return light, nil
}

// SetAmbientLight sets the global ambient light level
func (m *Manager) SetAmbientLight(level float64) {
	m.ambientLight = level
}

// GetAmbientLight returns the current ambient light level
func (m *Manager) GetAmbientLight() float64 {
	return m.ambientLight
}

// SetSeed makes flicker deterministic
func (m *Manager) SetSeed(seed int64) {
	m.rng = rand.New(rand.NewSource(seed))
}

// Cache returns the visibility cache the manager casts through
func (m *Manager) Cache() *shadows.Cache {
	return m.cache
}

// AddLight registers a light and schedules its first cast
func (m *Manager) AddLight(light *LightSource) uuid.UUID {
	if light.ID == uuid.Nil {
		light.ID = uuid.New()
	}
	light.dirty = true
	light.gradientStep = 1
	m.lights = append(m.lights, light)
	m.byID[light.ID] = light
	log.Printf("Added light %s at (%.1f, %.1f) radius=%.1f intensity=%.2f", light.Name, light.X, light.Y, light.Radius, light.Intensity)
	return light.ID
}

// RemoveLight removes a light source
func (m *Manager) RemoveLight(id uuid.UUID) {
	if _, ok := m.byID[id]; !ok {
		return
	}
	delete(m.byID, id)
	for i, l := range m.lights {
		if l.ID == id {
			m.lights = append(m.lights[:i], m.lights[i+1:]...)
			break
		}
	}
}

// GetLight returns the light with the given id
func (m *Manager) GetLight(id uuid.UUID) (*LightSource, bool) {
	l, ok := m.byID[id]
	return l, ok
}

// MoveLight repositions a light; its polygon is recomputed on the next Update
func (m *Manager) MoveLight(id uuid.UUID, x, y float64) {
	l, ok := m.byID[id]
	if !ok || (l.X == x && l.Y == y) {
		return
	}
	l.X, l.Y = x, y
	l.dirty = true
}

// GetAllLights returns copies of all light sources
func (m *Manager) GetAllLights() []LightSource {
	lights := make([]LightSource, 0, len(m.lights))
	for _, l := range m.lights {
		lights = append(lights, *l)
	}
	return lights
}

// Update moves cursor-following lights to cursor, recasts every light whose
// origin changed since the last call and advances color variance and flicker.
// Casts run in parallel; each goroutine writes only its own light. Lights not
// yet started when ctx is done keep their previous polygon and stay dirty.
func (m *Manager) Update(ctx context.Context, cursor shadows.Point) error {
	for _, l := range m.lights {
		if l.FollowCursor && (l.X != cursor.X || l.Y != cursor.Y) {
			l.X, l.Y = cursor.X, cursor.Y
			l.dirty = true
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, l := range m.lights {
		if !l.dirty {
			continue
		}
		l := l
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			l.polygon = m.cache.Compute(l.Origin(), l.View)
			l.dirty = false
			return nil
		})
	}
	err := g.Wait()

	for _, l := range m.lights {
		m.advanceShading(l)
	}
	return err
}

func (m *Manager) advanceShading(l *LightSource) {
	if l.Variance {
		l.gradientIndex += l.gradientStep
		if l.gradientIndex >= gradientSteps {
			l.gradientIndex = gradientSteps
			l.gradientStep = -1
		} else if l.gradientIndex <= 0 {
			l.gradientIndex = 0
			l.gradientStep = 1
		}
	}
	l.flickered = l.Flicker && m.rng.Float64() < flickerChance
	if l.Spin != 0 {
		l.Heading = math.Remainder(l.Heading+l.Spin, 2*math.Pi)
	}
}

// Polygons returns the latest polygon of every light, in insertion order.
// Beamed lights are clipped to their current heading; turning never recasts.
func (m *Manager) Polygons() []LitPolygon {
	out := make([]LitPolygon, 0, len(m.lights))
	for _, l := range m.lights {
		poly := l.polygon
		if l.Beam > 0 {
			poly = poly.Cone(l.Origin(), l.Heading, l.Beam)
		}
		out = append(out, LitPolygon{
			ID:        l.ID,
			Name:      l.Name,
			Origin:    l.Origin(),
			Radius:    l.Radius,
			Intensity: l.Intensity,
			Color:     l.CurrentColor(),
			Polygon:   poly,
		})
	}
	return out
}

func lerpColor(a, b color.NRGBA, t float64) color.NRGBA {
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return color.NRGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: 255}
}
