// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// ゲストユーザーはEmailが空でIsGuestがtrueになる。
type User struct {
	ID        string
	Email     string
	Name      string
	IsGuest   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// 認証プロバイダーの種別。
const (
	ProviderPassword = "password"
	ProviderGuest    = "guest"
)

// Identity は認証手段との紐付け情報を表す。
// パスワード認証ではProviderUserIDにメールアドレス、SecretHashにbcryptハッシュを保持する。
// ゲスト認証ではSecretHashは空。
type Identity struct {
	ID             string
	UserID         string
	Provider       string
	ProviderUserID string
	SecretHash     string
	CreatedAt      time.Time
}

// Session はユーザーのログインセッションを表す。
// ライティングセッション（WritingSession）とは別物であることに注意。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
