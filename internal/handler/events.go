package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"go.uber.org/zap"

	"github.com/mmeshcher/agrosurplus/internal/eventbus"
)

// eventBufferSize — сколько событий может ждать отправки медленному клиенту.
const eventBufferSize = 64

type streamFrame struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Events держит SSE-поток доменных событий. Клиент получает только события,
// опубликованные после подключения. При переполнении буфера события для
// этого клиента отбрасываются, публикующий не блокируется.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch := make(chan eventbus.Event, eventBufferSize)
	unsubscribe, err := h.events.Subscribe(func(e eventbus.Event) {
		select {
		case ch <- e:
		default:
			h.logger.Debug("event dropped for slow subscriber", zap.String("event", e.Type))
		}
	})
	if err != nil {
		if errors.Is(err, eventbus.ErrTooManySubscribers) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}
		h.writeError(w, r, err)
		return
	}
	defer unsubscribe()

	w.Header().Set("Content-Type", sse.ContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	send := func(e sse.Event) bool {
		if err := sse.Encode(w, e); err != nil {
			h.logger.Debug("event stream write failed", zap.Error(err))
			return false
		}
		flusher.Flush()
		return true
	}

	if !send(sse.Event{Data: streamFrame{Type: "connected", Payload: map[string]bool{"ok": true}, Timestamp: time.Now().UTC()}}) {
		return
	}

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.done:
			return
		case e := <-ch:
			if !send(sse.Event{Id: e.ID, Data: e}) {
				return
			}
		case t := <-ticker.C:
			if !send(sse.Event{Data: streamFrame{Type: "ping", Timestamp: t.UTC()}}) {
				return
			}
		}
	}
}
