package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/ignite/phish-metrics/internal/domain"
	"github.com/ignite/phish-metrics/internal/pkg/logger"
	"github.com/ignite/phish-metrics/internal/repository/postgres"
)

// RunHub pushes completed runs to Server-Sent Events clients on
// GET /api/stream. Runs arrive either from this process's pipeline
// (Publish) or, with an archive, from Postgres NOTIFY so that every
// instance hears about every refresh.
type RunHub struct {
	clients   map[chan []byte]bool
	mu        sync.RWMutex
	broadcast chan []byte
}

func NewRunHub() *RunHub {
	return &RunHub{
		clients:   make(map[chan []byte]bool),
		broadcast: make(chan []byte, 256),
	}
}

// Start runs the broadcast dispatcher until ctx is done.
func (hub *RunHub) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-hub.broadcast:
				hub.mu.RLock()
				for ch := range hub.clients {
					select {
					case ch <- msg:
					default:
						// slow client, drop
					}
				}
				hub.mu.RUnlock()
			}
		}
	}()
}

// ListenPostgres relays notifications on the archive's runs channel until
// ctx is done.
func (hub *RunHub) ListenPostgres(ctx context.Context, connStr string) error {
	reportProblem := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("[stream] pg listener error", "error", err.Error())
		}
	}
	listener := pq.NewListener(connStr, 10*time.Second, time.Minute, reportProblem)
	if err := listener.Listen(postgres.RunsChannel); err != nil {
		listener.Close()
		return err
	}
	logger.Info("[stream] listening on pg_notify channel", "channel", postgres.RunsChannel)

	go func() {
		defer listener.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-listener.Notify:
				// nil after a reconnect; runs committed meanwhile are missed
				if n != nil {
					hub.send([]byte(n.Extra))
				}
			case <-time.After(90 * time.Second):
				go listener.Ping()
			}
		}
	}()
	return nil
}

// Publish broadcasts run to connected clients.
func (hub *RunHub) Publish(run domain.Run) {
	msg, err := json.Marshal(run)
	if err != nil {
		logger.Warn("[stream] encode run failed", "error", err.Error())
		return
	}
	hub.send(msg)
}

func (hub *RunHub) send(msg []byte) {
	select {
	case hub.broadcast <- msg:
	default:
		// buffer full, drop
	}
}

// ClientCount returns the number of connected stream clients.
func (hub *RunHub) ClientCount() int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.clients)
}

// HandleSSE streams runs as "run" events.
//
//	GET /api/stream
func (hub *RunHub) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// The stream outlives the server's WriteTimeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		logger.Warn("[stream] clear write deadline failed", "error", err.Error())
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := make(chan []byte, 64)
	hub.mu.Lock()
	hub.clients[ch] = true
	hub.mu.Unlock()

	defer func() {
		hub.mu.Lock()
		delete(hub.clients, ch)
		hub.mu.Unlock()
	}()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-ch:
			var check json.RawMessage
			if json.Unmarshal(msg, &check) != nil {
				continue
			}
			w.Write([]byte("event: run\ndata: "))
			w.Write(msg)
			w.Write([]byte("\n\n"))
			flusher.Flush()
		}
	}
}
