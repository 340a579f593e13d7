package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/qwave/internal/sim"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	addr     string
	upgrader websocket.Upgrader
	hub      *Hub
	loop     *sim.Loop
}

func NewServer(addr string, upgrader websocket.Upgrader, hub *Hub) *Server {
	return &Server{
		addr:     addr,
		upgrader: upgrader,
		hub:      hub,
		loop:     hub.loop,
	}
}

// Handler routes /ws to the hub.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWs)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// serveWs handles websocket requests from the peer.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("upgrade failed")
		return
	}
	c := &client{conn: conn, send: make(chan outbound, sendBuffer)}
	s.hub.register(c)
	go c.writePump()
	s.hub.readPump(c)
}

// Serve runs the frame loop and the HTTP listener until ctx is cancelled
// or either fails.
func (s *Server) Serve(ctx context.Context) error {
	s.loop.OnFrame(s.hub.Broadcast)
	srv := &http.Server{Addr: s.addr, Handler: s.Handler()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.loop.Run(ctx)
	})
	g.Go(func() error {
		log.WithField("addr", s.addr).Info("listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
