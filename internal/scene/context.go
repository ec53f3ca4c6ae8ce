package scene

import (
	"log"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"chosenoffset.com/shadowcast/internal/core/shadows"
)

// Light is a configured light with its precomputed exclusion view
type Light struct {
	Config   LightConfig
	Origin   shadows.Point
	View     *shadows.SegmentSet
	Excluded []string // polygon names removed from the base set, sorted
}

// Context replaces global scene state: the border, the base segment set and
// one view per light. Everything in it is read-only after NewContext.
type Context struct {
	Config   *Config
	Border   shadows.Rect
	Polygons []shadows.Polygon
	Segments *shadows.SegmentSet
	Lights   []Light

	byName map[string]int
}

// NewContext builds the base segment set and every light's exclusion view.
// Lights that exclude the same polygons share a view so a cache keyed by set
// identity serves them all.
func NewContext(cfg *Config) (*Context, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	border := shadows.NewRect(0, 0, cfg.Width, cfg.Height)
	polygons := make([]shadows.Polygon, 0, len(cfg.Polygons))
	for _, pc := range cfg.Polygons {
		poly, err := pc.polygon()
		if err != nil {
			return nil, err
		}
		polygons = append(polygons, poly)
	}

	base, err := shadows.Build(border, polygons)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build segment set")
	}
	log.Printf("Loaded scene %.0fx%.0f with %d polygons (%d segments)", cfg.Width, cfg.Height, len(polygons), base.Len())

	ctx := &Context{
		Config:   cfg,
		Border:   border,
		Polygons: polygons,
		Segments: base,
		Lights:   make([]Light, 0, len(cfg.Lights)),
		byName:   make(map[string]int, len(cfg.Lights)),
	}

	views := map[string]*shadows.SegmentSet{"": base}
	for _, lc := range cfg.Lights {
		if _, dup := ctx.byName[lc.Name]; dup {
			return nil, errors.Errorf("duplicate light %q", lc.Name)
		}

		origin := shadows.Point{X: lc.X, Y: lc.Y}
		excluded := ctx.exclusionsFor(lc, origin)

		key := strings.Join(excluded, "\x00")
		view, ok := views[key]
		if !ok {
			view, err = shadows.Exclude(base, excluded...)
			if err != nil {
				return nil, errors.Wrapf(err, "light %q", lc.Name)
			}
			views[key] = view
		}

		if len(excluded) > 0 {
			log.Printf("Light %s excludes %s", lc.Name, strings.Join(excluded, ", "))
		}
		if !lc.FollowCursor && !border.Contains(origin) {
			log.Printf("Warning: light %s at (%.1f, %.1f) lies outside the border; its polygon will have gaps", lc.Name, lc.X, lc.Y)
		}

		ctx.byName[lc.Name] = len(ctx.Lights)
		ctx.Lights = append(ctx.Lights, Light{
			Config:   lc,
			Origin:   origin,
			View:     view,
			Excluded: excluded,
		})
	}

	return ctx, nil
}

// exclusionsFor merges a light's explicit exclusions with the polygons that
// contain it when AutoExclude is set.
func (c *Context) exclusionsFor(lc LightConfig, origin shadows.Point) []string {
	seen := make(map[string]bool)
	var names []string
	for _, name := range lc.Exclude {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	if lc.AutoExclude {
		for _, poly := range c.Polygons {
			if !seen[poly.Name] && poly.Contains(origin) {
				seen[poly.Name] = true
				names = append(names, poly.Name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// Light returns the named light
func (c *Context) Light(name string) (*Light, bool) {
	idx, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return &c.Lights[idx], true
}

// View returns the exclusion view of the named light
func (c *Context) View(name string) (*shadows.SegmentSet, error) {
	light, ok := c.Light(name)
	if !ok {
		return nil, errors.Errorf("unknown light %q", name)
	}
	return light.View, nil
}

func (pc PolygonConfig) polygon() (shadows.Polygon, error) {
	points := make([]shadows.Point, 0, len(pc.Points))
	for i, p := range pc.Points {
		if len(p) != 2 {
			return shadows.Polygon{}, errors.Errorf("polygon %q: point %d has %d coordinates", pc.Name, i, len(p))
		}
		points = append(points, shadows.Point{X: p[0], Y: p[1]})
	}
	return shadows.PolygonFromPoints(pc.Name, points), nil
}
