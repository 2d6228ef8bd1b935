package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/tweettimer/internal/cycle"
	"github.com/hitoshi/tweettimer/internal/middleware"
	"github.com/hitoshi/tweettimer/internal/model"
)

// SessionServiceInterface はセッションハンドラーが必要とするサービスインターフェース。
type SessionServiceInterface interface {
	GetActive(ctx context.Context, userID string) (*model.WritingSession, error)
	Start(ctx context.Context, userID string) (*model.WritingSession, error)
	Stop(ctx context.Context, userID, sessionID string) error
	AdvanceCycle(ctx context.Context, userID, sessionID string) (int, error)
}

// SessionHandler はライティングセッション管理のHTTPハンドラー。
type SessionHandler struct {
	service SessionServiceInterface
}

// NewSessionHandler はSessionHandlerを生成する。
func NewSessionHandler(service SessionServiceInterface) *SessionHandler {
	return &SessionHandler{service: service}
}

// sessionResponse はライティングセッションのAPIレスポンス。
// RemainingSecondsはレスポンス生成時点の残り秒数（1〜460）。
type sessionResponse struct {
	ID               string    `json:"id"`
	StartedAt        time.Time `json:"started_at"`
	IsActive         bool      `json:"is_active"`
	CurrentCycle     int       `json:"current_cycle"`
	RemainingSeconds int       `json:"remaining_seconds"`
	CycleSeconds     int       `json:"cycle_seconds"`
}

// activeSessionResponse はアクティブセッション取得のレスポンス。
// セッションがない場合はsessionがnullになる。
type activeSessionResponse struct {
	Session *sessionResponse `json:"session"`
}

// cycleResponse はサイクル進行のレスポンス。
type cycleResponse struct {
	CurrentCycle int `json:"current_cycle"`
}

// GetActive は現在のアクティブセッションを返す。
// GET /api/sessions/active
func (h *SessionHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorized(w)
		return
	}

	ws, err := h.service.GetActive(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := activeSessionResponse{}
	if ws != nil {
		resp.Session = toSessionResponse(ws)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Start は新しいセッションを開始する。
// POST /api/sessions
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorized(w)
		return
	}

	ws, err := h.service.Start(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(ws))
}

// Stop は指定セッションを停止する。
// POST /api/sessions/{id}/stop
func (h *SessionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorized(w)
		return
	}

	sessionID := chi.URLParam(r, "id")

	if err := h.service.Stop(r.Context(), userID, sessionID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AdvanceCycle はクライアントのタイマー満了通知を受けてサイクルを進める。
// POST /api/sessions/{id}/cycle
func (h *SessionHandler) AdvanceCycle(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorized(w)
		return
	}

	sessionID := chi.URLParam(r, "id")

	currentCycle, err := h.service.AdvanceCycle(r.Context(), userID, sessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cycleResponse{CurrentCycle: currentCycle})
}

// toSessionResponse はmodel.WritingSessionからAPIレスポンスに変換する。
func toSessionResponse(ws *model.WritingSession) *sessionResponse {
	return &sessionResponse{
		ID:               ws.ID,
		StartedAt:        ws.StartedAt,
		IsActive:         ws.IsActive,
		CurrentCycle:     ws.CurrentCycle,
		RemainingSeconds: cycle.Remaining(time.Now(), ws.StartedAt, ws.IsActive),
		CycleSeconds:     cycle.CycleSeconds,
	}
}
