package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/twx/internal/tasks"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EventSource hands out event subscriptions.
type EventSource interface {
	Subscribe(buffer int) (<-chan tasks.Event, func())
}

// EventsHandler streams task events as server-sent events.
//
// Each connection gets its own subscription; a slow client drops events instead of blocking tasks.
type EventsHandler struct {
	events    EventSource
	buffer    int
	keepAlive time.Duration
	logger    *log.Logger
}

// NewEventsHandler creates an [EventsHandler] reading from events.
func NewEventsHandler(events EventSource, logger *log.Logger) *EventsHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &EventsHandler{events: events, buffer: 64, keepAlive: 15 * time.Second, logger: logger}
}

func (h *EventsHandler) Routes() []string { return []string{"GET /api/events"} }

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	clientID := uuid.NewString()
	ch, unsubscribe := h.events.Subscribe(h.buffer)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: connected\ndata: {\"client\":%q}\n\n", clientID)
	flusher.Flush()

	h.logger.Debug("event stream opened", "client", clientID)
	defer h.logger.Debug("event stream closed", "client", clientID)

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case e, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				h.logger.Warn("failed to encode event", "client", clientID, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Kind, data)
			flusher.Flush()
		}
	}
}

// MetricsHandler exposes a Prometheus registry.
type MetricsHandler struct {
	http.Handler
}

// NewMetricsHandler serves the metrics gathered by g.
func NewMetricsHandler(g prometheus.Gatherer) *MetricsHandler {
	return &MetricsHandler{Handler: promhttp.HandlerFor(g, promhttp.HandlerOpts{})}
}

func (h *MetricsHandler) Routes() []string { return []string{"GET /metrics"} }
