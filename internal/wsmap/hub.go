// Package wsmap bridges a session to browser map widgets over WebSocket.
package wsmap

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"transport-tracker/internal/geo"
	"transport-tracker/internal/mapview"
)

const (
	// Time allowed to write a message to the client.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the client.
	pongWait = 60 * time.Second

	// Send pings to client with this period. Must be less than pongWait.
	pingPeriod = 15 * time.Second

	// Maximum event size accepted from a client.
	maxMessageSize = 1024

	sendBuffer = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Metrics interface {
	SetClients(n int)
	Dropped()
}

// Hub is a map adapter that fans commands out to every connected client.
// It keeps the latest marker, route style and panel state so a client that
// connects mid-session starts from the current picture.
type Hub struct {
	onEvent func(mapview.Event)
	metrics Metrics

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool

	markers map[string][]byte
	routes  map[string][]byte
	camera  []byte
	panel   []byte
	filters []byte
}

func NewHub(onEvent func(mapview.Event), m Metrics) *Hub {
	return &Hub{
		onEvent: onEvent,
		metrics: m,
		clients: make(map[*client]struct{}),
		markers: make(map[string][]byte),
		routes:  make(map[string][]byte),
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	for _, msg := range h.snapshotLocked() {
		c.send <- msg
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.SetClients(n)
	}
	log.Info().Str("remote", r.RemoteAddr).Int("clients", n).Msg("map client connected")

	go c.writePump()
	c.readPump()
}

// snapshotLocked returns the replay for a new client: panel, filters and
// camera first, then route styles and markers. It is capped at the send
// buffer so registration never blocks.
func (h *Hub) snapshotLocked() [][]byte {
	var out [][]byte
	for _, b := range [][]byte{h.panel, h.filters, h.camera} {
		if b != nil {
			out = append(out, b)
		}
	}
	for _, m := range []map[string][]byte{h.routes, h.markers} {
		ids := make([]string, 0, len(m))
		for id := range m {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			out = append(out, m[id])
		}
	}
	if len(out) > sendBuffer {
		out = out[:sendBuffer]
	}
	return out
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	n := len(h.clients)
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.SetClients(n)
	}
}

// Clients is the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.SetClients(0)
	}
}

func (h *Hub) broadcast(cmd mapview.Command, remember func(b []byte)) {
	b, err := json.Marshal(cmd)
	if err != nil {
		log.Error().Err(err).Str("op", cmd.Op).Msg("marshal map command")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	if remember != nil {
		remember(b)
	}
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			// Slow client: it catches up with the next frame.
			if h.metrics != nil {
				h.metrics.Dropped()
			}
		}
	}
}

func (h *Hub) UpsertMarker(id string, at geo.Coordinate, style mapview.MarkerStyle) {
	h.broadcast(mapview.UpsertMarkerCommand(id, at, style), func(b []byte) { h.markers[id] = b })
}

func (h *Hub) RemoveMarker(id string) {
	h.broadcast(mapview.RemoveMarkerCommand(id), func([]byte) { delete(h.markers, id) })
}

func (h *Hub) SetRouteStyle(routeID string, style mapview.RouteStyle) {
	h.broadcast(mapview.RouteStyleCommand(routeID, style), func(b []byte) { h.routes[routeID] = b })
}

func (h *Hub) PanTo(at geo.Coordinate) {
	h.broadcast(mapview.PanToCommand(at), func(b []byte) { h.camera = b })
}

func (h *Hub) FlyTo(at geo.Coordinate, zoom float64) {
	h.broadcast(mapview.FlyToCommand(at, zoom), func(b []byte) { h.camera = b })
}

func (h *Hub) ShowSelection(info *mapview.SelectionInfo) {
	h.broadcast(mapview.SelectionCommand(info), func(b []byte) { h.panel = b })
}

func (h *Hub) ShowFilters(visible map[string]bool) {
	h.broadcast(mapview.FiltersCommand(visible), func(b []byte) { h.filters = b })
}
