package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/tweettimer/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	Logger            *slog.Logger
	Metrics           middleware.HTTPStatusRecorder

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ライティングセッション
	SessionService SessionServiceInterface

	// ツイート
	TweetService TweetServiceInterface

	// イベント配信
	EventsHandler *EventsHandler

	// ユーザー
	UserService UserServiceInterface

	// ヘルスチェック
	HealthPinger Pinger
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Logging → Metrics → Recovery → Session → CSRF
//
// 認証ルート（/auth/*）とヘルスチェックはセッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルートに効くミドルウェア
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewRecoveryMiddleware())

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	sessionHandler := NewSessionHandler(deps.SessionService)
	tweetHandler := NewTweetHandler(deps.TweetService)
	userHandler := NewUserHandler(deps.UserService, deps.AuthConfig)
	healthHandler := NewHealthHandler(deps.HealthPinger)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler.Check)
	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.SignUp)
		r.Post("/login", authHandler.SignIn)
		r.Post("/guest", authHandler.Guest)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → CSRF
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		// ライティングセッション管理
		r.Route("/api/sessions", func(r chi.Router) {
			r.Get("/active", sessionHandler.GetActive)
			r.Post("/", sessionHandler.Start)

			r.Route("/{id}", func(r chi.Router) {
				r.Post("/stop", sessionHandler.Stop)
				r.Post("/cycle", sessionHandler.AdvanceCycle)
			})
		})

		// ツイート管理
		r.Route("/api/tweets", func(r chi.Router) {
			r.Get("/", tweetHandler.List)
			r.Post("/", tweetHandler.Create)
			r.Get("/stats", tweetHandler.Stats)
			r.Delete("/{id}", tweetHandler.Delete)
		})

		// 変更通知（SSE）
		if deps.EventsHandler != nil {
			r.Get("/api/events", deps.EventsHandler.Stream)
		}

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Delete("/me", userHandler.Withdraw)
		})
	})

	return r
}
