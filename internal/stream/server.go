package stream

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Server upgrades HTTP connections and hands them to the hub.
type Server struct {
	hub    *Hub
	log    *logrus.Logger
	server *http.Server

	upgrader websocket.Upgrader
}

// NewServer creates a stream server listening on port.
func NewServer(hub *Hub, port int, log *logrus.Logger) *Server {
	s := &Server{
		hub: hub,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Research tool on a private network; browsers are not the
			// expected clients.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	s.server = &http.Server{
		Addr:        ":" + strconv.Itoa(port),
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	return s
}

// Start serves websocket upgrades in the background and shuts down when ctx
// is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		s.log.WithField("addr", s.server.Addr).Info("Stream server starting")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Error("Stream server error")
		}
	}()

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()
	return nil
}

// Shutdown stops accepting connections.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	c := newClient(uuid.NewString(), conn, s.hub, s.log)
	s.hub.Register(c)

	go c.writePump()
	go c.readPump()
}
