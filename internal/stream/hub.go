package stream

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/oddslab/internal/metrics"
	"github.com/yourusername/oddslab/internal/models"
)

// Hub fans scan selections out to the connected subscribers. Each client
// receives the subset matching its filter.
type Hub struct {
	clients   map[*Client]bool
	clientsMu sync.RWMutex

	broadcast  chan []models.AnalysisResult
	register   chan *Client
	unregister chan *Client

	log *logrus.Logger
}

// NewHub creates a hub. Run must be called before registering clients.
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []models.AnalysisResult, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

// Run drives the hub until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.registerClient(c)
		case c := <-h.unregister:
			h.unregisterClient(c)
		case results := <-h.broadcast:
			h.broadcastSelections(results)
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// Broadcast queues a batch of selections for delivery. A full buffer drops
// the batch; the next scan supersedes it anyway.
func (h *Hub) Broadcast(results []models.AnalysisResult) {
	select {
	case h.broadcast <- results:
	default:
		h.log.Warn("Stream broadcast buffer full, dropping batch")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = true
	metrics.UpdateStreamClients(len(h.clients))
	h.log.WithFields(logrus.Fields{"client": c.ID, "total": len(h.clients)}).Info("Stream client connected")
}

func (h *Hub) unregisterClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.Send)
		metrics.UpdateStreamClients(len(h.clients))
		h.log.WithFields(logrus.Fields{"client": c.ID, "total": len(h.clients)}).Info("Stream client disconnected")
	}
}

func (h *Hub) broadcastSelections(results []models.AnalysisResult) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	now := time.Now().UTC()
	for _, c := range clients {
		filtered := filterResults(results, c.Filter())
		if len(filtered) == 0 {
			continue
		}
		msg := ServerMessage{Type: MessageTypeSelections, Payload: filtered, Timestamp: now}
		if !c.TrySend(msg) {
			// Slow consumer, disconnect rather than block the hub.
			h.log.WithField("client", c.ID).Warn("Stream client buffer full, disconnecting")
			go h.Unregister(c)
		}
	}
}

func filterResults(results []models.AnalysisResult, filter SubscriptionFilter) []models.AnalysisResult {
	filtered := make([]models.AnalysisResult, 0, len(results))
	for _, r := range results {
		if filter.Matches(r) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.log.WithField("clients", len(h.clients)).Info("Stream hub shutting down")
	for c := range h.clients {
		close(c.Send)
		delete(h.clients, c)
	}
	metrics.UpdateStreamClients(0)
}
