package sse

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kbukum/convoview/logger"
)

// DefaultKeepAlive is shorter than typical proxy idle timeouts.
const DefaultKeepAlive = 30 * time.Second

// ServeSSE streams hub events to one client until the request context ends
// or the hub stops.
func ServeSSE(hub *Hub, w http.ResponseWriter, r *http.Request, clientID string, keepAlive time.Duration) {
	log := hub.log.WithContext(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// The stream outlives the server's WriteTimeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("could not clear write deadline", logger.Fields("client_id", clientID, logger.FieldError, err.Error()))
	}

	client := NewClient(clientID)
	if !hub.Register(client) {
		http.Error(w, "event stream unavailable", http.StatusServiceUnavailable)
		return
	}
	defer hub.Unregister(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	hello, _ := json.Marshal(map[string]string{"client_id": clientID})
	_, _ = w.Write(Event{Type: EventConnected, Data: hello}.Encode())
	flusher.Flush()

	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-client.Events():
			if !ok {
				return
			}
			if _, err := w.Write(e.Encode()); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
