package vizserver

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"chosenoffset.com/shadowcast/internal/core/shadows"
	"chosenoffset.com/shadowcast/internal/scene"
)

// LightInfo describes one configured light and the size of its view
type LightInfo struct {
	Name         string   `json:"name"`
	X            float64  `json:"x"`
	Y            float64  `json:"y"`
	FollowCursor bool     `json:"follow_cursor"`
	Excluded     []string `json:"excluded"`
	Segments     int      `json:"segments"`
}

// VisibilityResponse is one light's visibility polygon from an origin
type VisibilityResponse struct {
	Light    string       `json:"light"`
	Origin   [2]float64   `json:"origin"`
	Vertices [][2]float64 `json:"vertices"`
	Area     float64      `json:"area"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("vizserver: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// Scene serves the scene configuration
func Scene(sc *scene.Context) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sc.Config)
	}
}

// Lights lists every light with its exclusions
func Lights(sc *scene.Context) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		infos := make([]LightInfo, 0, len(sc.Lights))
		for _, l := range sc.Lights {
			infos = append(infos, LightInfo{
				Name:         l.Config.Name,
				X:            l.Origin.X,
				Y:            l.Origin.Y,
				FollowCursor: l.Config.FollowCursor,
				Excluded:     l.Excluded,
				Segments:     l.View.Len(),
			})
		}
		writeJSON(w, http.StatusOK, infos)
	}
}

// Visibility casts the named light's view from ?x=&y=, defaulting to the
// light's configured origin
func Visibility(sc *scene.Context, cache *shadows.Cache) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		light, ok := sc.Light(vars["name"])
		if !ok {
			writeError(w, http.StatusNotFound, "light not found: "+vars["name"])
			return
		}

		origin := light.Origin
		query := r.URL.Query()
		if v := query.Get("x"); v != "" {
			x, err := parseCoord(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid x: "+v)
				return
			}
			origin.X = x
		}
		if v := query.Get("y"); v != "" {
			y, err := parseCoord(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid y: "+v)
				return
			}
			origin.Y = y
		}

		poly := cache.Compute(origin, light.View)
		writeJSON(w, http.StatusOK, newVisibilityResponse(light.Config.Name, origin, poly))
	}
}

// parseCoord parses a finite coordinate; NaN and infinities are rejected
func parseCoord(v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("coordinate %q is not finite", v)
	}
	return f, nil
}

func newVisibilityResponse(name string, origin shadows.Point, poly shadows.VisibilityPolygon) VisibilityResponse {
	vertices := make([][2]float64, len(poly))
	for i, v := range poly {
		vertices[i] = [2]float64{v.X, v.Y}
	}
	return VisibilityResponse{
		Light:    name,
		Origin:   [2]float64{origin.X, origin.Y},
		Vertices: vertices,
		Area:     poly.Area(),
	}
}
