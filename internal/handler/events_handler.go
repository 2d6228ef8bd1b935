package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/tweettimer/internal/metrics"
	"github.com/hitoshi/tweettimer/internal/middleware"
	"github.com/hitoshi/tweettimer/internal/realtime"
)

// EventSubscriber はユーザーごとのイベント購読インターフェース。
type EventSubscriber interface {
	Subscribe(userID string) (<-chan realtime.Event, func())
}

// EventsHandler はServer-Sent Eventsで変更通知を配信するHTTPハンドラー。
// クライアントはイベント名（session / tweets / stats）を見て対象リソースを再取得する。
type EventsHandler struct {
	subscriber EventSubscriber
	metrics    metrics.MetricsCollector
	heartbeat  time.Duration
}

// NewEventsHandler はEventsHandlerを生成する。collectorはnilでもよい。
func NewEventsHandler(subscriber EventSubscriber, collector metrics.MetricsCollector, heartbeat time.Duration) *EventsHandler {
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	return &EventsHandler{
		subscriber: subscriber,
		metrics:    collector,
		heartbeat:  heartbeat,
	}
}

// Stream はSSE接続を開始する。
// GET /api/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorized(w)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	events, cancel := h.subscriber.Subscribe(userID)
	defer cancel()

	if h.metrics != nil {
		h.metrics.IncSSESubscribers()
		defer h.metrics.DecSSESubscribers()
	}

	slog.Debug("sse stream opened", slog.String("user_id", userID))

	// 接続確認用の初回コメント
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			slog.Debug("sse stream closed", slog.String("user_id", userID))
			return
		case <-ticker.C:
			// 中間プロキシの接続維持のためのハートビート
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeSSEEvent(w, ev); err != nil {
				slog.Error("failed to write sse event",
					slog.String("user_id", userID),
					slog.String("error", err.Error()),
				)
				return
			}
			flusher.Flush()
		}
	}
}

// writeSSEEvent は1イベントをSSE形式で書き込む。
func writeSSEEvent(w http.ResponseWriter, ev realtime.Event) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", ev.Name); err != nil {
		return err
	}
	data := []byte("{}")
	if ev.Data != nil {
		encoded, err := json.Marshal(ev.Data)
		if err != nil {
			return err
		}
		data = encoded
	}
	_, err := fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
