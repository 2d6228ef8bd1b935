// Package realtime はプロセス内のイベント配信ハブを提供する。
// セッションやツイートの変更をユーザーごとのSSE購読者へ通知する。
package realtime

import (
	"log/slog"
	"sync"
)

// イベント種別。クライアントはこの名前で再取得対象を判断する。
const (
	EventSession = "session" // アクティブセッションの変化
	EventTweets  = "tweets"  // ツイート一覧の変化
	EventStats   = "stats"   // 統計の変化
)

// Event は購読者へ配信される通知。
// Dataはハンドラー側でJSONにシリアライズされる。
type Event struct {
	Name string
	Data any
}

// subscriberBuffer は購読者チャネルのバッファ長。
// 受信が追いつかない購読者へのイベントは破棄する（次のイベントで回復する）。
const subscriberBuffer = 8

// Hub はユーザーごとの購読者を管理し、イベントをファンアウトする。
// すべてのメソッドは並行呼び出しに対して安全。
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
}

// NewHub はHubを生成する。
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe は指定ユーザーのイベントを受信するチャネルを登録する。
// 返される解除関数は複数回呼んでも安全。
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[chan Event]struct{})
	}
	h.subscribers[userID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers[userID], ch)
			if len(h.subscribers[userID]) == 0 {
				delete(h.subscribers, userID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}

	return ch, cancel
}

// Publish は指定ユーザーの全購読者へイベントを配信する。
// バッファが満杯の購読者へは配信せず破棄する。送信側はブロックしない。
func (h *Hub) Publish(userID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[userID] {
		select {
		case ch <- event:
		default:
			slog.Debug("dropping event for slow subscriber",
				slog.String("user_id", userID),
				slog.String("event", event.Name),
			)
		}
	}
}

// SubscriberCount は指定ユーザーの現在の購読者数を返す。
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}
