// Package tweet はツイートジャーナルのドメインロジックを提供する。
package tweet

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

// Notifier はツイート変更の通知先。
type Notifier interface {
	Publish(userID string, event realtime.Event)
}

// Service はツイートのサービス層。
type Service struct {
	repo     repository.TweetRepository
	notifier Notifier
	metrics  metrics.MetricsCollector
}

// NewService はServiceを生成する。notifierとcollectorはnilでもよい。
func NewService(repo repository.TweetRepository, notifier Notifier, collector metrics.MetricsCollector) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		metrics:  collector,
	}
}

// List はユーザーの全ツイートを作成日時の降順で返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Tweet, error) {
	tweets, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ツイート一覧の取得に失敗しました: %w", err)
	}
	return tweets, nil
}

// Create はツイートを作成する。作成時刻はサーバー側で採番する。
// cycleNumberはクライアントのタイマー表示に基づく申告値をそのまま保存する。
// contentの長さ制限は設けない（入力側の表示上の制約のみ）。
func (s *Service) Create(ctx context.Context, userID, content string, cycleNumber int) (*model.Tweet, error) {
	tweet := &model.Tweet{
		ID:          uuid.New().String(),
		UserID:      userID,
		Content:     content,
		CycleNumber: cycleNumber,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Create(ctx, tweet); err != nil {
		return nil, fmt.Errorf("ツイートの作成に失敗しました: %w", err)
	}

	slog.Info("tweet created",
		slog.String("tweet_id", tweet.ID),
		slog.String("user_id", userID),
		slog.Int("cycle_number", cycleNumber),
	)

	if s.metrics != nil {
		s.metrics.RecordTweetCreated()
	}
	s.notify(userID)

	return tweet, nil
}

// Remove は指定ツイートを物理削除する。復元はできない。
// 対象が存在しない、または他ユーザー所有の場合はTWEET_NOT_FOUNDエラーを返す。
func (s *Service) Remove(ctx context.Context, userID, tweetID string) error {
	if err := s.repo.DeleteByID(ctx, tweetID, userID); err != nil {
		if errors.Is(err, repository.ErrNoRowsUpdated) {
			return model.NewTweetNotFoundError(tweetID)
		}
		return fmt.Errorf("ツイートの削除に失敗しました: %w", err)
	}

	slog.Info("tweet deleted",
		slog.String("tweet_id", tweetID),
		slog.String("user_id", userID),
	)

	if s.metrics != nil {
		s.metrics.RecordTweetDeleted()
	}
	s.notify(userID)

	return nil
}

// Stats は総ツイート数と当日（サーバーのローカルタイムゾーンの0時以降）の
// ツイート数を返す。
func (s *Service) Stats(ctx context.Context, userID string) (*model.TweetStats, error) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	total, today, err := s.repo.CountByUserID(ctx, userID, startOfDay)
	if err != nil {
		return nil, fmt.Errorf("ツイート統計の取得に失敗しました: %w", err)
	}

	return &model.TweetStats{
		TotalTweets: total,
		TodayTweets: today,
	}, nil
}

// notify はツイートと統計の変化を購読者へ通知する。
func (s *Service) notify(userID string) {
	if s.notifier != nil {
		s.notifier.Publish(userID, realtime.Event{Name: realtime.EventTweets})
		s.notifier.Publish(userID, realtime.Event{Name: realtime.EventStats})
	}
}
