package vizserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"chosenoffset.com/shadowcast/internal/core/shadows"
	"chosenoffset.com/shadowcast/internal/scene"
)

// CursorMessage is sent by the client whenever its cursor moves
type CursorMessage struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

type wsOutgoingMessage struct {
	Type  string               `json:"type"`
	Data  []VisibilityResponse `json:"data,omitempty"`
	Error string               `json:"error,omitempty"`
}

// Websocket answers every cursor message with the polygons of all lights,
// cursor-following lights moved to the cursor
func Websocket(sc *scene.Context, cache *shadows.Cache) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		}

		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Print("upgrade:", err)
			return
		}
		defer c.Close()

		for {
			_, p, err := c.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("vizserver: read: %v", err)
				}
				return
			}

			cursor, err := parseCursor(p)
			if err != nil {
				if err := c.WriteJSON(wsOutgoingMessage{Type: "error", Error: err.Error()}); err != nil {
					return
				}
				continue
			}

			if err := c.WriteJSON(wsOutgoingMessage{Type: "polygons", Data: castAll(sc, cache, cursor)}); err != nil {
				log.Printf("vizserver: write: %v", err)
				return
			}
		}
	}
}

func parseCursor(p []byte) (shadows.Point, error) {
	var msg CursorMessage
	if err := json.Unmarshal(p, &msg); err != nil {
		return shadows.Point{}, fmt.Errorf("invalid cursor message: %w", err)
	}
	if msg.X == nil || msg.Y == nil {
		return shadows.Point{}, errors.New("cursor message needs x and y")
	}
	cursor := shadows.Point{X: *msg.X, Y: *msg.Y}
	if !cursor.Finite() {
		return shadows.Point{}, errors.New("cursor coordinates must be finite")
	}
	return cursor, nil
}

func castAll(sc *scene.Context, cache *shadows.Cache, cursor shadows.Point) []VisibilityResponse {
	out := make([]VisibilityResponse, 0, len(sc.Lights))
	for _, l := range sc.Lights {
		origin := l.Origin
		if l.Config.FollowCursor {
			origin = cursor
		}
		out = append(out, newVisibilityResponse(l.Config.Name, origin, cache.Compute(origin, l.View)))
	}
	return out
}
