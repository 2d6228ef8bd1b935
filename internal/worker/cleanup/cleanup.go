// Package cleanup は期限切れデータの自動削除ジョブを提供する。
// 期限切れのログインセッションと、保持期間を超えて放置されたゲストユーザーを
// 日次バッチで削除する。ゲストユーザーの関連データはCASCADE削除で処理される。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/tweettimer/internal/repository"
)

// CleanupJob は期限切れデータの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	sessionRepo        repository.SessionRepository
	userRepo           repository.UserRepository
	logger             *slog.Logger
	GuestRetentionDays int // ゲストユーザーの保持日数（デフォルト: 30）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトのゲスト保持日数は30日。
func NewCleanupJob(sessionRepo repository.SessionRepository, userRepo repository.UserRepository, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		sessionRepo:        sessionRepo,
		userRepo:           userRepo,
		logger:             logger,
		GuestRetentionDays: 30,
	}
}

// Run は期限切れセッションと放置されたゲストユーザーを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	expiredSessions, err := j.sessionRepo.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("期限切れセッションの削除に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("期限切れセッションの削除に失敗: %w", err)
	}

	retention := time.Duration(j.GuestRetentionDays) * 24 * time.Hour
	abandonedGuests, err := j.userRepo.DeleteAbandonedGuests(ctx, retention)
	if err != nil {
		j.logger.Error("放置ゲストユーザーの削除に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.GuestRetentionDays),
		)
		return fmt.Errorf("放置ゲストユーザーの削除に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("expired_sessions", expiredSessions),
		slog.Int64("abandoned_guests", abandonedGuests),
		slog.Int("retention_days", j.GuestRetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// StartDaily は24時間間隔のティッカーでジョブを起動する。
// 起動直後に1回実行し、コンテキストがキャンセルされるまで継続する。
func (j *CleanupJob) StartDaily(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	j.logger.Info("クリーンアップジョブを開始しました",
		slog.Int("retention_days", j.GuestRetentionDays),
	)

	// 起動直後に1回実行
	if err := j.Run(ctx); err != nil {
		j.logger.Error("クリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("クリーンアップジョブを停止しました")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("クリーンアップジョブの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
