// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/tweettimer/internal/model"
	"github.com/hitoshi/tweettimer/internal/repository"
)

// TweetDeleter はツイートの一括削除インターフェース。
type TweetDeleter interface {
	DeleteByUserID(ctx context.Context, userID string) error
}

// WritingSessionDeleter はライティングセッションの一括削除インターフェース。
type WritingSessionDeleter interface {
	DeleteByUserID(ctx context.Context, userID string) error
}

// Service はユーザー管理のサービス層。
// 退会処理のビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	tweetDel    TweetDeleter
	wsDel       WritingSessionDeleter
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	tweetDel TweetDeleter,
	wsDel WritingSessionDeleter,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		tweetDel:    tweetDel,
		wsDel:       wsDel,
	}
}

// Withdraw はユーザーの退会処理を実行する。
// 削除順序: tweets → writing_sessions → sessions → user（+ CASCADE: identities）
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	// ユーザー存在確認
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します",
		slog.String("user_id", userID),
		slog.Bool("is_guest", user.IsGuest),
	)

	// 1. ツイートを削除
	if s.tweetDel != nil {
		if err := s.tweetDel.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("ツイートの削除に失敗しました: %w", err)
		}
	}

	// 2. ライティングセッションを削除
	if s.wsDel != nil {
		if err := s.wsDel.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("ライティングセッションの削除に失敗しました: %w", err)
		}
	}

	// 3. ログインセッションを削除
	if s.sessionRepo != nil {
		if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("セッションの削除に失敗しました: %w", err)
		}
	}

	// 4. ユーザーを削除（identitiesはCASCADE削除）
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました",
		slog.String("user_id", userID),
	)

	return nil
}
