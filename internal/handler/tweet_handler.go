package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/tweettimer/internal/middleware"
	"github.com/hitoshi/tweettimer/internal/model"
)

// TweetServiceInterface はツイートハンドラーが必要とするサービスインターフェース。
type TweetServiceInterface interface {
	List(ctx context.Context, userID string) ([]*model.Tweet, error)
	Create(ctx context.Context, userID, content string, cycleNumber int) (*model.Tweet, error)
	Remove(ctx context.Context, userID, tweetID string) error
	Stats(ctx context.Context, userID string) (*model.TweetStats, error)
}

// TweetHandler はツイート管理のHTTPハンドラー。
type TweetHandler struct {
	service TweetServiceInterface
}

// NewTweetHandler はTweetHandlerを生成する。
func NewTweetHandler(service TweetServiceInterface) *TweetHandler {
	return &TweetHandler{service: service}
}

// createTweetRequest はツイート作成リクエストのボディ。
type createTweetRequest struct {
	Content     string `json:"content"`
	CycleNumber int    `json:"cycle_number"`
}

// tweetResponse はツイートのAPIレスポンス。
type tweetResponse struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	CycleNumber int       `json:"cycle_number"`
	CreatedAt   time.Time `json:"created_at"`
}

// listTweetsResponse はツイート一覧のレスポンス。
type listTweetsResponse struct {
	Tweets []tweetResponse `json:"tweets"`
}

// List はユーザーの全ツイートを新しい順で返す。
// GET /api/tweets
func (h *TweetHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorized(w)
		return
	}

	tweets, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := listTweetsResponse{Tweets: make([]tweetResponse, 0, len(tweets))}
	for _, tweet := range tweets {
		resp.Tweets = append(resp.Tweets, toTweetResponse(tweet))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create はツイートを作成する。
// POST /api/tweets
func (h *TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorized(w)
		return
	}

	var req createTweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		invalidBody(w)
		return
	}

	tweet, err := h.service.Create(r.Context(), userID, req.Content, req.CycleNumber)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTweetResponse(tweet))
}

// Delete は指定ツイートを削除する。
// DELETE /api/tweets/{id}
func (h *TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorized(w)
		return
	}

	tweetID := chi.URLParam(r, "id")

	if err := h.service.Remove(r.Context(), userID, tweetID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stats は総ツイート数と当日のツイート数を返す。
// GET /api/tweets/stats
func (h *TweetHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorized(w)
		return
	}

	stats, err := h.service.Stats(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// toTweetResponse はmodel.TweetからAPIレスポンスに変換する。
func toTweetResponse(tweet *model.Tweet) tweetResponse {
	return tweetResponse{
		ID:          tweet.ID,
		Content:     tweet.Content,
		CycleNumber: tweet.CycleNumber,
		CreatedAt:   tweet.CreatedAt,
	}
}
