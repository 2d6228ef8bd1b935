// Package cycletick はサーバー側のサイクル突き合わせワーカーを提供する。
// アクティブセッションの経過時間から本来のサイクル番号を計算し、
// クライアント申告に依存せずcurrent_cycleを追従させる。
package cycletick

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hitoshi/tweettimer/internal/cycle"
	"github.com/hitoshi/tweettimer/internal/metrics"
	"github.com/hitoshi/tweettimer/internal/realtime"
	"github.com/hitoshi/tweettimer/internal/repository"
)

// Notifier はサイクル進行の通知先。
type Notifier interface {
	Publish(userID string, event realtime.Event)
}

// Reconciler はアクティブセッションのサイクル番号を定期的に突き合わせる。
// タイマーのエッジ検出ではなく、経過時間からの再計算で追従するため、
// ティックの遅延や欠落があっても自己修復する。
type Reconciler struct {
	repo     repository.WritingSessionRepository
	notifier Notifier
	metrics  metrics.MetricsCollector
	logger   *slog.Logger
}

// NewReconciler はReconcilerを生成する。notifierとcollectorはnilでもよい。
func NewReconciler(
	repo repository.WritingSessionRepository,
	notifier Notifier,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		repo:     repo,
		notifier: notifier,
		metrics:  collector,
		logger:   logger,
	}
}

// Start は指定間隔のティッカーで突き合わせを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (r *Reconciler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("サイクル突き合わせワーカーを開始しました",
		slog.Duration("interval", interval),
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("サイクル突き合わせワーカーを停止しました")
			return
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil {
				r.logger.Error("サイクル突き合わせの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は全アクティブセッションを1回突き合わせる。
// 格納値が計算値より進んでいる場合は何もしない（単調非減少）。
func (r *Reconciler) RunOnce(ctx context.Context) error {
	sessions, err := r.repo.ListActive(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, ws := range sessions {
		expected := cycle.Number(now, ws.StartedAt)
		if expected <= ws.CurrentCycle {
			continue
		}

		if err := r.repo.SetCycle(ctx, ws.ID, expected); err != nil {
			// クライアント側の申告が先行した場合は更新対象なしになる
			if errors.Is(err, repository.ErrNoRowsUpdated) {
				continue
			}
			r.logger.Error("サイクル番号の更新に失敗しました",
				slog.String("session_id", ws.ID),
				slog.String("error", err.Error()),
			)
			continue
		}

		r.logger.Debug("サイクル番号を更新しました",
			slog.String("session_id", ws.ID),
			slog.Int("from", ws.CurrentCycle),
			slog.Int("to", expected),
		)

		if r.metrics != nil {
			r.metrics.RecordCycleAdvanced(expected - ws.CurrentCycle)
		}
		if r.notifier != nil {
			r.notifier.Publish(ws.UserID, realtime.Event{Name: realtime.EventSession})
		}
	}

	return nil
}
