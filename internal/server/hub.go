package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/san-kum/qwave/internal/physics"
	"github.com/san-kum/qwave/internal/sim"
	"github.com/san-kum/qwave/internal/source"
)

const sendBuffer = 16

// Msg is the JSON envelope for both directions.
type Msg struct {
	Type    string  `json:"type"`
	Name    string  `json:"name,omitempty"`
	Value   float64 `json:"value,omitempty"`
	Mode    int     `json:"mode,omitempty"`
	Content string  `json:"content,omitempty"`
	Stats   *Stats  `json:"stats,omitempty"`
}

type Stats struct {
	Frame       int     `json:"frame"`
	Time        float64 `json:"time"`
	Source      string  `json:"source"`
	Probability float64 `json:"probability"`
	Peak        float64 `json:"peak"`
	Paused      bool    `json:"paused"`
	Warning     string  `json:"warning,omitempty"`
}

type outbound struct {
	kind int
	data []byte
}

type client struct {
	conn *websocket.Conn
	send chan outbound
}

// Hub fans composited frames out to every connected client and applies
// client commands to the running loop.
type Hub struct {
	loop *sim.Loop
	sw   *source.Switch
	feed *source.Feed

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub binds a hub to loop. sw and feed may be nil; source and upload
// commands then answer with an error.
func NewHub(loop *sim.Loop, sw *source.Switch, feed *source.Feed) *Hub {
	return &Hub{
		loop:    loop,
		sw:      sw,
		feed:    feed,
		clients: make(map[*client]struct{}),
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	log.WithFields(log.Fields{"remote": c.conn.RemoteAddr().String(), "clients": n}).Info("client connected")
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	log.WithField("clients", n).Info("client disconnected")
}

// Clients reports how many clients are connected.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends res as a PNG binary message followed by a stats message.
// It runs on the loop goroutine; slow clients drop frames instead of
// stalling the simulation.
func (h *Hub) Broadcast(res *sim.FrameResult) {
	if h.Clients() == 0 {
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, res.Image); err != nil {
		log.WithError(err).Error("frame encode failed")
		return
	}
	stats, err := json.Marshal(Msg{Type: "stats", Stats: h.stats(res)})
	if err != nil {
		log.WithError(err).Error("stats encode failed")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- outbound{websocket.BinaryMessage, buf.Bytes()}:
		default:
			continue
		}
		select {
		case c.send <- outbound{websocket.TextMessage, stats}:
		default:
		}
	}
}

func (h *Hub) stats(res *sim.FrameResult) *Stats {
	o := h.loop.Orchestrator()
	s := &Stats{
		Frame:       res.Index,
		Time:        res.Time,
		Source:      "none",
		Probability: o.Field().Probability(physics.SpongeWidth),
		Peak:        o.Field().Peak(),
		Paused:      h.loop.Paused(),
	}
	if src := o.Source(); src != nil {
		s.Source = src.Name()
	}
	if res.Warning != nil {
		s.Warning = res.Warning.Error()
	}
	return s
}

// Handle applies one client command and returns the reply to send back.
func (h *Hub) Handle(msg Msg) (Msg, error) {
	switch msg.Type {
	case "set":
		if err := h.loop.Params().Set(msg.Name, msg.Value); err != nil {
			return Msg{}, err
		}
		v, _ := h.loop.Params().Get(msg.Name)
		return Msg{Type: "set", Name: msg.Name, Value: v}, nil
	case "reset":
		h.loop.RequestReset()
		return Msg{Type: "reset"}, nil
	case "pause":
		h.loop.Pause()
		return Msg{Type: "paused"}, nil
	case "resume":
		h.loop.Resume()
		return Msg{Type: "resumed"}, nil
	case "source":
		if h.sw == nil {
			return Msg{}, fmt.Errorf("source switching is not available")
		}
		h.sw.SetMode(source.Mode(msg.Mode))
		return Msg{Type: "source", Mode: int(h.sw.Mode()), Content: h.sw.Name()}, nil
	default:
		return Msg{}, fmt.Errorf("no such type %q", msg.Type)
	}
}

// Upload decodes an image sent by a client and pushes it to the feed.
func (h *Hub) Upload(data []byte) (Msg, error) {
	if h.feed == nil {
		return Msg{}, fmt.Errorf("uploads are not accepted")
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Msg{}, fmt.Errorf("decode upload: %w", err)
	}
	h.feed.Push("upload:"+format, img)
	b := img.Bounds()
	return Msg{Type: "uploaded", Content: fmt.Sprintf("%s %dx%d", format, b.Dx(), b.Dy())}, nil
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close()
	}
}

func (c *client) reply(msg Msg) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.WithError(err).Error("reply encode failed")
		return
	}
	select {
	case c.send <- outbound{websocket.TextMessage, data}:
	default:
		log.Warn("client send buffer full, reply dropped")
	}
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("read failed")
			}
			return
		}

		var (
			reply Msg
			herr  error
		)
		switch kind {
		case websocket.BinaryMessage:
			reply, herr = h.Upload(data)
		default:
			var msg Msg
			if err := json.Unmarshal(data, &msg); err != nil {
				herr = fmt.Errorf("bad message: %w", err)
			} else {
				reply, herr = h.Handle(msg)
			}
		}
		if herr != nil {
			log.WithError(herr).Warn("client command rejected")
			reply = Msg{Type: "error", Content: herr.Error()}
		}
		h.mu.Lock()
		c.reply(reply)
		h.mu.Unlock()
	}
}

// writePump is the only writer on the connection.
func (c *client) writePump() {
	for out := range c.send {
		if err := c.conn.WriteMessage(out.kind, out.data); err != nil {
			log.WithError(err).Warn("write failed")
			c.conn.Close()
			break
		}
	}
	for range c.send {
	}
}
