package api

import (
	"encoding/json"
	"io"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Event types pushed to dashboard clients
const (
	EventDatasetLoaded     = "dataset_loaded"
	EventDatasetDeleted    = "dataset_deleted"
	EventAnalysisCompleted = "analysis_completed"
)

// allDatasets is the subscription key of clients following every dataset
const allDatasets = "*"

// SSEClient represents a connected SSE client
type SSEClient struct {
	DatasetID string
	Channel   chan AnalysisEvent
}

// AnalysisEvent is a dataset or analysis lifecycle event streamed over SSE
type AnalysisEvent struct {
	DatasetID string                 `json:"dataset_id"`
	EventType string                 `json:"event_type"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// SSEHub fans analysis events out to Server-Sent Events clients
type SSEHub struct {
	clients    map[string]map[chan AnalysisEvent]bool
	clientsMu  sync.RWMutex
	register   chan SSEClient
	unregister chan SSEClient
	broadcast  chan AnalysisEvent
	done       chan struct{}
	closeOnce  sync.Once
}

// NewSSEHub creates a new SSE hub and starts its loop
func NewSSEHub() *SSEHub {
	hub := &SSEHub{
		clients:    make(map[string]map[chan AnalysisEvent]bool),
		register:   make(chan SSEClient, 10),
		unregister: make(chan SSEClient, 10),
		broadcast:  make(chan AnalysisEvent, 100),
		done:       make(chan struct{}),
	}

	go hub.run()
	return hub
}

// Close stops the hub loop. Later subscriptions receive a closed channel.
func (h *SSEHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// run processes SSE hub operations
func (h *SSEHub) run() {
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.clientsMu.Lock()
			if h.clients[client.DatasetID] == nil {
				h.clients[client.DatasetID] = make(map[chan AnalysisEvent]bool)
			}
			h.clients[client.DatasetID][client.Channel] = true
			log.Printf("[SSE] Client registered for dataset %s (total clients: %d)",
				client.DatasetID, len(h.clients[client.DatasetID]))
			h.clientsMu.Unlock()

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if clients := h.clients[client.DatasetID]; clients[client.Channel] {
				delete(clients, client.Channel)
				close(client.Channel)
				log.Printf("[SSE] Client unregistered from dataset %s (remaining clients: %d)",
					client.DatasetID, len(clients))
				if len(clients) == 0 {
					delete(h.clients, client.DatasetID)
				}
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			h.deliver(event.DatasetID, event)
			h.deliver(allDatasets, event)
			h.clientsMu.RUnlock()
		}
	}
}

// deliver must be called with clientsMu held
func (h *SSEHub) deliver(key string, event AnalysisEvent) {
	for clientChan := range h.clients[key] {
		select {
		case clientChan <- event:
		default:
			log.Printf("[SSE] Client channel full for dataset %s, skipping event", key)
		}
	}
}

// Broadcast sends an event to the clients following its dataset
func (h *SSEHub) Broadcast(event AnalysisEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case h.broadcast <- event:
	default:
		log.Printf("[SSE] Broadcast channel full, dropping event: %s", event.EventType)
	}
}

// Subscribe registers a client channel; an empty dataset ID follows every dataset.
// The returned function unregisters it.
func (h *SSEHub) Subscribe(datasetID string) (<-chan AnalysisEvent, func()) {
	if datasetID == "" {
		datasetID = allDatasets
	}
	clientChan := make(chan AnalysisEvent, 10)
	client := SSEClient{DatasetID: datasetID, Channel: clientChan}

	select {
	case <-h.done:
		close(clientChan)
		return clientChan, func() {}
	default:
	}
	select {
	case h.register <- client:
	case <-h.done:
		close(clientChan)
		return clientChan, func() {}
	}
	return clientChan, func() {
		select {
		case h.unregister <- client:
		case <-h.done:
		}
	}
}

// HandleSSE streams events; ?dataset_id= narrows the stream to one dataset
func (h *SSEHub) HandleSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Headers", "Cache-Control")

	events, unsubscribe := h.Subscribe(c.Query("dataset_id"))
	defer unsubscribe()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			eventJSON, err := json.Marshal(event)
			if err != nil {
				log.Printf("[SSE] Failed to marshal event: %v", err)
				return true
			}
			c.SSEvent(event.EventType, string(eventJSON))
			return true

		case <-time.After(30 * time.Second):
			c.SSEvent("ping", `{"status": "alive", "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false
		}
	})
}

// GetClientCount returns the number of active clients following a dataset
func (h *SSEHub) GetClientCount(datasetID string) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	return len(h.clients[datasetID])
}
