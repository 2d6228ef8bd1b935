package cycletick

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/tweettimer/internal/cycle"
	"github.com/hitoshi/tweettimer/internal/model"
	"github.com/hitoshi/tweettimer/internal/realtime"
	"github.com/hitoshi/tweettimer/internal/repository"
)

// --- モック ---

type mockWritingSessionRepo struct {
	listActiveFn func(ctx context.Context) ([]*model.WritingSession, error)
	setCycleFn   func(ctx context.Context, id string, cycle int) error
}

func (m *mockWritingSessionRepo) FindActiveByUserID(ctx context.Context, userID string) (*model.WritingSession, error) {
	return nil, nil
}
func (m *mockWritingSessionRepo) FindByID(ctx context.Context, id string) (*model.WritingSession, error) {
	return nil, nil
}
func (m *mockWritingSessionRepo) Start(ctx context.Context, session *model.WritingSession) error {
	return nil
}
func (m *mockWritingSessionRepo) Deactivate(ctx context.Context, id, userID string) error {
	return nil
}
func (m *mockWritingSessionRepo) IncrementCycle(ctx context.Context, id, userID string) (int, error) {
	return 0, nil
}
func (m *mockWritingSessionRepo) SetCycle(ctx context.Context, id string, cycle int) error {
	if m.setCycleFn != nil {
		return m.setCycleFn(ctx, id, cycle)
	}
	return nil
}
func (m *mockWritingSessionRepo) ListActive(ctx context.Context) ([]*model.WritingSession, error) {
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx)
	}
	return nil, nil
}
func (m *mockWritingSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	return nil
}

var _ repository.WritingSessionRepository = (*mockWritingSessionRepo)(nil)

type mockNotifier struct {
	published []string
}

func (m *mockNotifier) Publish(userID string, event realtime.Event) {
	m.published = append(m.published, userID)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// --- テスト ---

// TestRunOnce_LaggingSession_AdvancesCycle は遅れたセッションが計算値まで進むことを検証する。
func TestRunOnce_LaggingSession_AdvancesCycle(t *testing.T) {
	// 3サイクル目に入った経過時間で、格納値はまだ1
	startedAt := time.Now().Add(-time.Duration(2*cycle.CycleSeconds+10) * time.Second)

	var setID string
	var setValue int
	repo := &mockWritingSessionRepo{
		listActiveFn: func(ctx context.Context) ([]*model.WritingSession, error) {
			return []*model.WritingSession{
				{ID: "ws-1", UserID: "user-1", StartedAt: startedAt, IsActive: true, CurrentCycle: 1},
			}, nil
		},
		setCycleFn: func(ctx context.Context, id string, cycle int) error {
			setID = id
			setValue = cycle
			return nil
		},
	}
	notifier := &mockNotifier{}

	r := NewReconciler(repo, notifier, nil, testLogger())

	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	if setID != "ws-1" {
		t.Fatalf("SetCycle called for %q, want ws-1", setID)
	}
	if setValue != 3 {
		t.Errorf("SetCycle value = %d, want 3", setValue)
	}
	if len(notifier.published) != 1 || notifier.published[0] != "user-1" {
		t.Errorf("published to %v, want [user-1]", notifier.published)
	}
}

// TestRunOnce_UpToDateSession_NoUpdate は追従済みセッションが更新されないことを検証する。
func TestRunOnce_UpToDateSession_NoUpdate(t *testing.T) {
	startedAt := time.Now().Add(-10 * time.Second) // まだ1サイクル目

	setCycleCalled := false
	repo := &mockWritingSessionRepo{
		listActiveFn: func(ctx context.Context) ([]*model.WritingSession, error) {
			return []*model.WritingSession{
				{ID: "ws-1", UserID: "user-1", StartedAt: startedAt, IsActive: true, CurrentCycle: 1},
			}, nil
		},
		setCycleFn: func(ctx context.Context, id string, cycle int) error {
			setCycleCalled = true
			return nil
		},
	}
	notifier := &mockNotifier{}

	r := NewReconciler(repo, notifier, nil, testLogger())

	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	if setCycleCalled {
		t.Error("SetCycle should not be called for up-to-date session")
	}
	if len(notifier.published) != 0 {
		t.Errorf("expected no notifications, got %v", notifier.published)
	}
}

// TestRunOnce_AheadSession_NoRegression は格納値が計算値より進んでいても巻き戻さないことを検証する。
func TestRunOnce_AheadSession_NoRegression(t *testing.T) {
	startedAt := time.Now().Add(-10 * time.Second)

	setCycleCalled := false
	repo := &mockWritingSessionRepo{
		listActiveFn: func(ctx context.Context) ([]*model.WritingSession, error) {
			return []*model.WritingSession{
				// クライアント申告で先行した状態
				{ID: "ws-1", UserID: "user-1", StartedAt: startedAt, IsActive: true, CurrentCycle: 5},
			}, nil
		},
		setCycleFn: func(ctx context.Context, id string, cycle int) error {
			setCycleCalled = true
			return nil
		},
	}

	r := NewReconciler(repo, nil, nil, testLogger())

	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	if setCycleCalled {
		t.Error("SetCycle should not regress an ahead session")
	}
}

// TestRunOnce_ConcurrentClientAdvance_Tolerated は並行したクライアント申告による
// 更新対象なしをエラーにしないことを検証する。
func TestRunOnce_ConcurrentClientAdvance_Tolerated(t *testing.T) {
	startedAt := time.Now().Add(-time.Duration(cycle.CycleSeconds+10) * time.Second)

	repo := &mockWritingSessionRepo{
		listActiveFn: func(ctx context.Context) ([]*model.WritingSession, error) {
			return []*model.WritingSession{
				{ID: "ws-1", UserID: "user-1", StartedAt: startedAt, IsActive: true, CurrentCycle: 1},
			}, nil
		},
		setCycleFn: func(ctx context.Context, id string, cycle int) error {
			return repository.ErrNoRowsUpdated
		},
	}

	r := NewReconciler(repo, nil, nil, testLogger())

	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() should tolerate ErrNoRowsUpdated, got %v", err)
	}
}

// TestRunOnce_ListError_ReturnsError は一覧取得の失敗がエラーとして返ることを検証する。
func TestRunOnce_ListError_ReturnsError(t *testing.T) {
	repo := &mockWritingSessionRepo{
		listActiveFn: func(ctx context.Context) ([]*model.WritingSession, error) {
			return nil, errors.New("db error")
		},
	}

	r := NewReconciler(repo, nil, nil, testLogger())

	if err := r.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error from RunOnce")
	}
}

// TestStart_StopsOnContextCancel はコンテキストキャンセルでループが終了することを検証する。
func TestStart_StopsOnContextCancel(t *testing.T) {
	repo := &mockWritingSessionRepo{}
	r := NewReconciler(repo, nil, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Start(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not stop after context cancel")
	}
}
