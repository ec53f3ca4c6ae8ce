// Package scene describes the obstacle layout and light placement of a scene
// and turns it into the immutable segment sets the caster reads every frame.
package scene

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed scene.schema.json
var schemaJSON []byte

// Config holds the scene definition, loadable from JSON or YAML
type Config struct {
	Width    float64         `json:"width" yaml:"width"`
	Height   float64         `json:"height" yaml:"height"`
	Ambient  float64         `json:"ambient" yaml:"ambient"` // 0.0 = pitch black, 1.0 = fully lit
	Polygons []PolygonConfig `json:"polygons" yaml:"polygons"`
	Lights   []LightConfig   `json:"lights" yaml:"lights"`
}

// PolygonConfig is one obstacle given as a closed chain of points
type PolygonConfig struct {
	Name   string      `json:"name" yaml:"name"`
	Points [][]float64 `json:"points" yaml:"points"` // [[x, y], ...], closing edge implied
}

// LightConfig places one light and names the obstacles it must not shadow itself against
type LightConfig struct {
	Name         string   `json:"name" yaml:"name"`
	X            float64  `json:"x" yaml:"x"`
	Y            float64  `json:"y" yaml:"y"`
	FollowCursor bool     `json:"follow_cursor,omitempty" yaml:"follow_cursor,omitempty"`
	Exclude      []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	AutoExclude  bool     `json:"auto_exclude,omitempty" yaml:"auto_exclude,omitempty"` // also exclude polygons containing the light

	// Shading, consumed by the renderers
	Radius        float64 `json:"radius" yaml:"radius"`
	Intensity     float64 `json:"intensity" yaml:"intensity"`
	Color         string  `json:"color" yaml:"color"` // "RRGGBB"
	GradientStart string  `json:"gradient_start,omitempty" yaml:"gradient_start,omitempty"`
	GradientEnd   string  `json:"gradient_end,omitempty" yaml:"gradient_end,omitempty"`
	Variance      bool    `json:"variance,omitempty" yaml:"variance,omitempty"` // cycle between the gradient colors
	Flicker       bool    `json:"flicker,omitempty" yaml:"flicker,omitempty"`

	// Beam narrows the light to a cone this many degrees wide; 0 lights all around
	Beam float64 `json:"beam,omitempty" yaml:"beam,omitempty"`
	// Spin turns the beam by this many degrees every frame
	Spin float64 `json:"spin,omitempty" yaml:"spin,omitempty"`
}

const (
	defaultRadius    = 150
	defaultIntensity = 0.8
	defaultColor     = "ffc864" // warm torch light
	defaultAmbient   = 0.15
)

// DefaultConfig returns the demo scene: a 600x600 room with five obstacles
// and lights embedded in some of them
func DefaultConfig() *Config {
	return &Config{
		Width:   600,
		Height:  600,
		Ambient: defaultAmbient,
		Polygons: []PolygonConfig{
			{Name: "polygon1", Points: [][]float64{{50, 155}, {240, 153}, {240, 216}, {50, 216}}},
			{Name: "polygon2", Points: [][]float64{{333, 66}, {408, 66}, {408, 123}, {333, 125}}},
			{Name: "polygon3", Points: [][]float64{{333, 154}, {412, 154}, {412, 216}, {333, 216}}},
			{Name: "polygon4", Points: [][]float64{{296, 280}, {435, 280}, {435, 344}, {296, 344}}},
			{Name: "polygon5", Points: [][]float64{{43, 335}, {135, 335}, {135, 375}, {43, 375}}},
		},
		Lights: []LightConfig{
			{Name: "spotlight1", X: 370, Y: 94, Exclude: []string{"polygon2"}, Radius: 150, Intensity: 0.7,
				Color: "96a0c9", GradientStart: "96a0c9", GradientEnd: "141414", Variance: true},
			{Name: "spotlight2", X: 370, Y: 186, Exclude: []string{"polygon3"}, Radius: 150, Intensity: 0.9,
				Color: "a5a2b4"},
			{Name: "spotlight3", X: 88, Y: 357, Exclude: []string{"polygon5"}, Radius: 150, Intensity: 0.8,
				Color: "96a0c9", GradientStart: "96a0c9", GradientEnd: "161923"},
			{Name: "spotlight4", X: 480, Y: 269, Radius: 200, Intensity: 0.7, Color: "c8323d",
				GradientStart: "dc6265", GradientEnd: "1e0508"},
			{Name: "spotlight5", X: 333, Y: 595, Radius: 300, Intensity: 0.6, Color: "c8c8c8"},
			{Name: "spotlight6", X: 150, Y: 185, Exclude: []string{"polygon1"}, Radius: 200, Intensity: 1,
				Color: "c8c80a", GradientStart: "dcdc0a", GradientEnd: "e61200", Variance: true},
			{Name: "warning", X: 368, Y: 313, AutoExclude: true, Radius: 50, Intensity: 1, Color: "967ddc",
				Flicker: true, Beam: 90, Spin: 6},
			{Name: "cursor", X: 190, Y: 360, FollowCursor: true, Radius: 150, Intensity: 1, Color: "8adedb"},
		},
	}
}

// LoadConfig loads a scene from a .json, .yaml or .yml file. The document is
// checked against the scene schema before decoding. A missing file yields
// the default scene.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrap(err, "failed to read scene config")
	}

	config, err := ParseConfig(data, filepath.Ext(path))
	if err != nil {
		return nil, errors.Wrapf(err, "scene config %s", path)
	}
	return config, nil
}

// ParseConfig decodes and validates a scene document. format is a file
// extension (".json", ".yaml", ".yml"); anything else is treated as JSON.
func ParseConfig(data []byte, format string) (*Config, error) {
	var doc interface{}
	isYAML := false
	switch strings.ToLower(format) {
	case ".yaml", ".yml", "yaml", "yml":
		isYAML = true
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrap(err, "failed to parse yaml")
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrap(err, "failed to parse json")
		}
	}

	if err := validate(doc); err != nil {
		return nil, err
	}

	config := &Config{}
	if isYAML {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, errors.Wrap(err, "failed to decode yaml")
		}
	} else {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, errors.Wrap(err, "failed to decode json")
		}
	}
	config.applyDefaults(doc)
	return config, nil
}

func validate(doc interface{}) error {
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return errors.Wrap(err, "schema validation error")
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("schema validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

// applyDefaults fills fields a scene file left out. Presence is read from
// the generic document so an explicit zero (an unlit ambient, a dark light)
// is kept.
func (c *Config) applyDefaults(doc interface{}) {
	def := DefaultConfig()
	top, _ := doc.(map[string]interface{})
	if !hasKey(top, "width") {
		c.Width = def.Width
	}
	if !hasKey(top, "height") {
		c.Height = def.Height
	}
	if !hasKey(top, "ambient") {
		c.Ambient = def.Ambient
	}

	var lights []interface{}
	if top != nil {
		lights, _ = top["lights"].([]interface{})
	}
	for i := range c.Lights {
		var raw map[string]interface{}
		if i < len(lights) {
			raw, _ = lights[i].(map[string]interface{})
		}
		l := &c.Lights[i]
		if !hasKey(raw, "radius") {
			l.Radius = defaultRadius
		}
		if !hasKey(raw, "intensity") {
			l.Intensity = defaultIntensity
		}
		if !hasKey(raw, "color") {
			l.Color = defaultColor
		}
	}
}

func hasKey(m map[string]interface{}, key string) bool {
	_, ok := m[key]
	return ok
}

// Marshal encodes the config in the given format (".json" or ".yaml")
func (c *Config) Marshal(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case ".yaml", ".yml", "yaml", "yml":
		return yaml.Marshal(c)
	default:
		return json.MarshalIndent(c, "", "  ")
	}
}

// ParseColor parses a hex color in the format "RRGGBB" (leading '#' allowed)
func ParseColor(hex string) (color.NRGBA, error) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", hex)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}
