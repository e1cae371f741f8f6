// Package notify bridges engine status events to a fire-and-forget
// notification sink. The engine itself never knows about notifications; this
// sits at the presentation edge.
package notify

import (
	"context"
	"log/slog"

	"github.com/zestora/zestora-orders/internal/order/domain"
	"github.com/zestora/zestora-orders/internal/order/engine"
)

// Notification kinds.
const (
	KindSuccess = "success"
	KindInfo    = "info"
)

// Sink receives user-facing notifications.
type Sink interface {
	Notify(ctx context.Context, message, kind string)
}

// LogSink writes notifications to the structured log. The demo has no push
// channel for toasts server-side; the websocket stream carries the same
// status changes to real clients.
type LogSink struct {
	Log *slog.Logger
}

func (s LogSink) Notify(ctx context.Context, message, kind string) {
	s.Log.InfoContext(ctx, "notification", "kind", kind, "message", message)
}

// Forward consumes engine events until the channel closes or ctx is done,
// translating terminal transitions into toast messages.
func Forward(ctx context.Context, events <-chan engine.Event, sink Sink) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Status {
			case domain.StatusDelivered:
				sink.Notify(ctx, "Order delivered successfully", KindSuccess)
			case domain.StatusCancelled:
				sink.Notify(ctx, "Order cancelled", KindInfo)
			case domain.StatusOutForDelivery:
				sink.Notify(ctx, "Your rider is on the way", KindInfo)
			}
		}
	}
}
