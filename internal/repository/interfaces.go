// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/tweettimer/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するidentities、sessions、writing_sessions、tweetsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error

	// DeleteAbandonedGuests は作成からretentionを超え、かつretention期間内に
	// 利用実績（ログインセッション、ツイート、ライティングセッション）のない
	// ゲストユーザーを削除し、削除件数を返す。
	DeleteAbandonedGuests(ctx context.Context, retention time.Duration) (int64, error)
}

// IdentityRepository は認証手段紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

// SessionRepository はログインセッションの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// WritingSessionRepository はライティングセッションの永続化インターフェース。
type WritingSessionRepository interface {
	// FindActiveByUserID はユーザーのアクティブなセッションを取得する。
	// 存在しない場合はnilを返す。
	FindActiveByUserID(ctx context.Context, userID string) (*model.WritingSession, error)

	// FindByID は指定IDのセッションを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.WritingSession, error)

	// Start は既存のアクティブセッションの無効化と新規セッションの挿入を
	// 同一トランザクションで実行する。2つのアクティブセッションが併存する余地はない。
	Start(ctx context.Context, session *model.WritingSession) error

	// Deactivate は指定セッションを非アクティブにする。
	// started_atとcurrent_cycleは変更しない。
	// 対象が存在しない、または所有者が異なる場合はErrNoRowsUpdatedを返す。
	Deactivate(ctx context.Context, id, userID string) error

	// IncrementCycle はサイクルカウンタを1進め、更新後の値を返す。
	// 重複インクリメントに対する内部ガードは持たない（冪等性は呼び出し側の責務）。
	// 対象が存在しない、または所有者が異なる場合はErrNoRowsUpdatedを返す。
	IncrementCycle(ctx context.Context, id, userID string) (int, error)

	// SetCycle はサイクルカウンタを指定値まで引き上げる。
	// 格納値が既にcycle以上の場合は何もせずErrNoRowsUpdatedを返す（単調非減少の保証）。
	SetCycle(ctx context.Context, id string, cycle int) error

	// ListActive は全ユーザーのアクティブセッションを返す。サイクル突き合わせワーカー用。
	ListActive(ctx context.Context) ([]*model.WritingSession, error)

	// DeleteByUserID はユーザーの全セッションを削除する。退会処理用。
	DeleteByUserID(ctx context.Context, userID string) error
}

// TweetRepository はツイートデータの永続化インターフェース。
type TweetRepository interface {
	// FindByID は指定IDのツイートを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Tweet, error)

	// ListByUserID はユーザーの全ツイートを作成日時の降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Tweet, error)

	// Create はツイートを作成する。
	Create(ctx context.Context, tweet *model.Tweet) error

	// DeleteByID は指定IDのツイートを物理削除する。
	// 対象が存在しない、または所有者が異なる場合はErrNoRowsUpdatedを返す。
	DeleteByID(ctx context.Context, id, userID string) error

	// CountByUserID は総数とsince以降に作成された件数を返す。
	CountByUserID(ctx context.Context, userID string, since time.Time) (total int, recent int, err error)

	// DeleteByUserID はユーザーの全ツイートを削除する。退会処理用。
	DeleteByUserID(ctx context.Context, userID string) error
}
