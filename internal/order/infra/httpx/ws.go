package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// trackingPushInterval paces periodic snapshot pushes between status events.
const trackingPushInterval = 2 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The demo has no cross-origin policy; the real app fronts this with a gateway.
	CheckOrigin: func(*http.Request) bool { return true },
}

// StreamTracking upgrades to a websocket and pushes tracking snapshots for
// one order: immediately on connect, on every status change, and on a fixed
// interval in between. The stream ends once a terminal snapshot is sent.
func (h *Handler) StreamTracking(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if _, err := h.engine.Order(orderID); err != nil {
		writeEngineError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WarnContext(r.Context(), "tracking websocket upgrade failed", "order_id", orderID, "error", err)
		return
	}
	defer conn.Close()

	events, cancel := h.engine.Subscribe()
	defer cancel()

	ticker := time.NewTicker(trackingPushInterval)
	defer ticker.Stop()

	push := func() (done bool) {
		snapshot, err := h.engine.Tracking(orderID)
		if err != nil {
			return true
		}
		if err := conn.WriteJSON(snapshot); err != nil {
			return true
		}
		return snapshot.Status.Terminal()
	}

	if push() {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.OrderID != orderID {
				continue
			}
			if push() {
				return
			}
		case <-ticker.C:
			if push() {
				return
			}
		}
	}
}
