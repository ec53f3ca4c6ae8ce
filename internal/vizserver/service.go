// Package vizserver exposes the scene and its visibility polygons over HTTP
// and a websocket, for browser-side visualisation.
package vizserver

import (
	"io"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"chosenoffset.com/shadowcast/internal/core/shadows"
	"chosenoffset.com/shadowcast/internal/scene"
)

// VizService serves one scene context over HTTP
type VizService struct {
	addr      string
	scene     *scene.Context
	cache     *shadows.Cache
	logWriter io.Writer
}

// NewVizService serves sc on addr. A nil cache gets a private one.
func NewVizService(addr string, sc *scene.Context, cache *shadows.Cache) *VizService {
	if cache == nil {
		cache = shadows.NewCache(shadows.DefaultCaster, 1024)
	}
	return &VizService{
		addr:      addr,
		scene:     sc,
		cache:     cache,
		logWriter: os.Stdout,
	}
}

// SetLogWriter redirects the access log
func (viz *VizService) SetLogWriter(w io.Writer) {
	viz.logWriter = w
}

// Router returns the routes of the service, each wrapped with access logging
func (viz *VizService) Router() http.Handler {
	logger := viz.logWriter
	router := mux.NewRouter()

	router.Handle("/scene", handlers.CombinedLoggingHandler(logger,
		http.HandlerFunc(Scene(viz.scene)),
	)).Methods("GET")

	router.Handle("/lights", handlers.CombinedLoggingHandler(logger,
		http.HandlerFunc(Lights(viz.scene)),
	)).Methods("GET")

	router.Handle("/lights/{name:[a-zA-Z0-9_\\-]+}/visibility", handlers.CombinedLoggingHandler(logger,
		http.HandlerFunc(Visibility(viz.scene, viz.cache)),
	)).Methods("GET")

	router.Handle("/ws", handlers.CombinedLoggingHandler(logger,
		http.HandlerFunc(Websocket(viz.scene, viz.cache)),
	)).Methods("GET")

	return router
}

// ListenAndServe blocks serving the router on the configured address
func (viz *VizService) ListenAndServe() error {
	log.Println("VIZ Listening on " + viz.addr)
	return http.ListenAndServe(viz.addr, viz.Router())
}
