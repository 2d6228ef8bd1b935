// Package session はライティングセッションのドメインロジックを提供する。
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/tweettimer/internal/metrics"
	"github.com/hitoshi/tweettimer/internal/model"
	"github.com/hitoshi/tweettimer/internal/realtime"
	"github.com/hitoshi/tweettimer/internal/repository"
)

// Notifier はセッション変更の通知先。
type Notifier interface {
	Publish(userID string, event realtime.Event)
}

// Service はライティングセッションのサービス層。
type Service struct {
	repo     repository.WritingSessionRepository
	notifier Notifier
	metrics  metrics.MetricsCollector
}

// NewService はServiceを生成する。notifierとcollectorはnilでもよい。
func NewService(repo repository.WritingSessionRepository, notifier Notifier, collector metrics.MetricsCollector) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		metrics:  collector,
	}
}

// GetActive はユーザーのアクティブなセッションを返す。存在しない場合はnilを返す。
func (s *Service) GetActive(ctx context.Context, userID string) (*model.WritingSession, error) {
	ws, err := s.repo.FindActiveByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("アクティブセッションの取得に失敗しました: %w", err)
	}
	return ws, nil
}

// Start は新しいセッションを開始する。
// 既存のアクティブセッションは同一トランザクション内で無効化されるため、
// アクティブなセッションは常に最大1つに保たれる。
// 並行した開始要求と競合した場合はSESSION_CONFLICTエラーを返す。
func (s *Service) Start(ctx context.Context, userID string) (*model.WritingSession, error) {
	now := time.Now()
	ws := &model.WritingSession{
		ID:           uuid.New().String(),
		UserID:       userID,
		StartedAt:    now,
		IsActive:     true,
		CurrentCycle: 1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Start(ctx, ws); err != nil {
		if errors.Is(err, repository.ErrActiveSessionExists) {
			return nil, model.NewSessionConflictError()
		}
		return nil, fmt.Errorf("セッションの開始に失敗しました: %w", err)
	}

	slog.Info("writing session started",
		slog.String("session_id", ws.ID),
		slog.String("user_id", userID),
	)

	if s.metrics != nil {
		s.metrics.RecordSessionStarted()
	}
	s.notify(userID)

	return ws, nil
}

// Stop は指定セッションを停止する。started_atとcurrent_cycleは保持される。
// 対象が存在しない、または他ユーザー所有の場合はSESSION_NOT_FOUNDエラーを返す。
func (s *Service) Stop(ctx context.Context, userID, sessionID string) error {
	if err := s.repo.Deactivate(ctx, sessionID, userID); err != nil {
		if errors.Is(err, repository.ErrNoRowsUpdated) {
			return model.NewSessionNotFoundError(sessionID)
		}
		return fmt.Errorf("セッションの停止に失敗しました: %w", err)
	}

	slog.Info("writing session stopped",
		slog.String("session_id", sessionID),
		slog.String("user_id", userID),
	)

	if s.metrics != nil {
		s.metrics.RecordSessionStopped()
	}
	s.notify(userID)

	return nil
}

// AdvanceCycle はサイクルカウンタを1進め、更新後の値を返す。
// クライアントのタイマー満了通知から呼ばれる。
// 重複呼び出しのガードは持たない（サーバー側の突き合わせワーカーが上限を保証する）。
func (s *Service) AdvanceCycle(ctx context.Context, userID, sessionID string) (int, error) {
	cycle, err := s.repo.IncrementCycle(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRowsUpdated) {
			return 0, model.NewSessionNotFoundError(sessionID)
		}
		return 0, fmt.Errorf("サイクルの更新に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordCycleAdvanced(1)
	}
	s.notify(userID)

	return cycle, nil
}

// notify はセッション変化を購読者へ通知する。
func (s *Service) notify(userID string) {
	if s.notifier != nil {
		s.notifier.Publish(userID, realtime.Event{Name: realtime.EventSession})
	}
}
