package realtime

import (
	"sync"
	"testing"
	"time"
)

// TestHub_PublishDeliversToSubscriber は購読者へイベントが届くことを検証する。
func TestHub_PublishDeliversToSubscriber(t *testing.T) {
	hub := NewHub()

	ch, cancel := hub.Subscribe("user-1")
	defer cancel()

	hub.Publish("user-1", Event{Name: EventTweets})

	select {
	case ev := <-ch:
		if ev.Name != EventTweets {
			t.Errorf("event name = %q, want %q", ev.Name, EventTweets)
		}
	case <-time.After(time.Second):
		t.Fatal("expected event to be delivered")
	}
}

// TestHub_PublishToOtherUser_NotDelivered は他ユーザー宛のイベントが届かないことを検証する。
func TestHub_PublishToOtherUser_NotDelivered(t *testing.T) {
	hub := NewHub()

	ch, cancel := hub.Subscribe("user-1")
	defer cancel()

	hub.Publish("user-2", Event{Name: EventSession})

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event delivered: %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

// TestHub_MultipleSubscribers_AllReceive は同一ユーザーの全購読者が受信することを検証する。
func TestHub_MultipleSubscribers_AllReceive(t *testing.T) {
	hub := NewHub()

	ch1, cancel1 := hub.Subscribe("user-1")
	defer cancel1()
	ch2, cancel2 := hub.Subscribe("user-1")
	defer cancel2()

	hub.Publish("user-1", Event{Name: EventStats})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Name != EventStats {
				t.Errorf("subscriber %d: event name = %q, want %q", i, ev.Name, EventStats)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: expected event", i)
		}
	}
}

// TestHub_Cancel_RemovesSubscriber は解除後にイベントが届かないことを検証する。
func TestHub_Cancel_RemovesSubscriber(t *testing.T) {
	hub := NewHub()

	_, cancel := hub.Subscribe("user-1")
	cancel()

	if n := hub.SubscriberCount("user-1"); n != 0 {
		t.Errorf("subscriber count = %d, want 0", n)
	}

	// 解除後のPublishがパニックしないこと
	hub.Publish("user-1", Event{Name: EventSession})
}

// TestHub_CancelTwice_IsSafe は解除関数の二重呼び出しが安全であることを検証する。
func TestHub_CancelTwice_IsSafe(t *testing.T) {
	hub := NewHub()

	_, cancel := hub.Subscribe("user-1")
	cancel()
	cancel()
}

// TestHub_SlowSubscriber_DoesNotBlockPublish はバッファ満杯の購読者がPublishをブロックしないことを検証する。
func TestHub_SlowSubscriber_DoesNotBlockPublish(t *testing.T) {
	hub := NewHub()

	_, cancel := hub.Subscribe("user-1")
	defer cancel()

	done := make(chan struct{})
	go func() {
		// バッファ長を超えて配信してもブロックしない
		for i := 0; i < subscriberBuffer*2; i++ {
			hub.Publish("user-1", Event{Name: EventTweets})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on slow subscriber")
	}
}

// TestHub_ConcurrentSubscribePublish は並行したSubscribe/Publish/解除が安全であることを検証する。
func TestHub_ConcurrentSubscribePublish(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch, cancel := hub.Subscribe("user-1")
			hub.Publish("user-1", Event{Name: EventSession})
			select {
			case <-ch:
			case <-time.After(100 * time.Millisecond):
			}
			cancel()
		}()
	}
	wg.Wait()

	if n := hub.SubscriberCount("user-1"); n != 0 {
		t.Errorf("subscriber count after all cancels = %d, want 0", n)
	}
}
