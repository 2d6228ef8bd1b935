package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/tweettimer/internal/model"
)

// --- モック定義 ---

type mockTweetService struct {
	listFn   func(ctx context.Context, userID string) ([]*model.Tweet, error)
	createFn func(ctx context.Context, userID, content string, cycleNumber int) (*model.Tweet, error)
	removeFn func(ctx context.Context, userID, tweetID string) error
	statsFn  func(ctx context.Context, userID string) (*model.TweetStats, error)
}

func (m *mockTweetService) List(ctx context.Context, userID string) ([]*model.Tweet, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return []*model.Tweet{}, nil
}
func (m *mockTweetService) Create(ctx context.Context, userID, content string, cycleNumber int) (*model.Tweet, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, content, cycleNumber)
	}
	return nil, nil
}
func (m *mockTweetService) Remove(ctx context.Context, userID, tweetID string) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, userID, tweetID)
	}
	return nil
}
func (m *mockTweetService) Stats(ctx context.Context, userID string) (*model.TweetStats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx, userID)
	}
	return &model.TweetStats{}, nil
}

// --- テスト ---

func TestTweetList_ReturnsTweetsNewestFirst(t *testing.T) {
	now := time.Now()
	svc := &mockTweetService{
		listFn: func(ctx context.Context, userID string) ([]*model.Tweet, error) {
			return []*model.Tweet{
				{ID: "t-2", UserID: userID, Content: "2本目", CycleNumber: 2, CreatedAt: now},
				{ID: "t-1", UserID: userID, Content: "1本目", CycleNumber: 1, CreatedAt: now.Add(-time.Minute)},
			}, nil
		},
	}
	h := NewTweetHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/tweets", nil)
	req = withUserID(req, "user-1")
	w := httptest.NewRecorder()

	h.List(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body struct {
		Tweets []struct {
			ID          string `json:"id"`
			Content     string `json:"content"`
			CycleNumber int    `json:"cycle_number"`
		} `json:"tweets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Tweets) != 2 {
		t.Fatalf("len(tweets) = %d, want 2", len(body.Tweets))
	}
	if body.Tweets[0].ID != "t-2" {
		t.Errorf("first tweet = %q, want t-2", body.Tweets[0].ID)
	}
	if body.Tweets[0].CycleNumber != 2 {
		t.Errorf("cycle_number = %d, want 2", body.Tweets[0].CycleNumber)
	}
}

func TestTweetList_Empty_ReturnsEmptyArray(t *testing.T) {
	h := NewTweetHandler(&mockTweetService{})

	req := httptest.NewRequest(http.MethodGet, "/api/tweets", nil)
	req = withUserID(req, "user-1")
	w := httptest.NewRecorder()

	h.List(w, req)

	// "tweets": null ではなく [] が返ること
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(w.Result().Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if string(raw["tweets"]) != "[]" {
		t.Errorf("tweets = %s, want []", raw["tweets"])
	}
}

func TestTweetCreate_Returns201(t *testing.T) {
	svc := &mockTweetService{
		createFn: func(ctx context.Context, userID, content string, cycleNumber int) (*model.Tweet, error) {
			if content != "進捗ツイート" {
				t.Errorf("content = %q, want 進捗ツイート", content)
			}
			if cycleNumber != 3 {
				t.Errorf("cycleNumber = %d, want 3", cycleNumber)
			}
			return &model.Tweet{
				ID:          "t-new",
				UserID:      userID,
				Content:     content,
				CycleNumber: cycleNumber,
				CreatedAt:   time.Now(),
			}, nil
		},
	}
	h := NewTweetHandler(svc)

	body, _ := json.Marshal(map[string]interface{}{"content": "進捗ツイート", "cycle_number": 3})
	req := httptest.NewRequest(http.MethodPost, "/api/tweets", bytes.NewReader(body))
	req = withUserID(req, "user-1")
	w := httptest.NewRecorder()

	h.Create(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var created map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created["id"] != "t-new" {
		t.Errorf("id = %v, want t-new", created["id"])
	}
}

func TestTweetCreate_InvalidBody_Returns400(t *testing.T) {
	h := NewTweetHandler(&mockTweetService{})

	req := httptest.NewRequest(http.MethodPost, "/api/tweets", bytes.NewReader([]byte("{invalid")))
	req = withUserID(req, "user-1")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

func TestTweetCreate_NoAuth_Returns401(t *testing.T) {
	h := NewTweetHandler(&mockTweetService{})

	body, _ := json.Marshal(map[string]interface{}{"content": "x", "cycle_number": 1})
	req := httptest.NewRequest(http.MethodPost, "/api/tweets", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestTweetDelete_Returns204(t *testing.T) {
	var deletedID string
	svc := &mockTweetService{
		removeFn: func(ctx context.Context, userID, tweetID string) error {
			deletedID = tweetID
			return nil
		},
	}
	h := NewTweetHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/tweets/t-1", nil)
	req = withUserID(req, "user-1")
	req = withChiURLParam(req, "id", "t-1")
	w := httptest.NewRecorder()

	h.Delete(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
	if deletedID != "t-1" {
		t.Errorf("deleted tweet = %q, want t-1", deletedID)
	}
}

func TestTweetDelete_NotFound_Returns404(t *testing.T) {
	svc := &mockTweetService{
		removeFn: func(ctx context.Context, userID, tweetID string) error {
			return model.NewTweetNotFoundError(tweetID)
		},
	}
	h := NewTweetHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/tweets/t-missing", nil)
	req = withUserID(req, "user-1")
	req = withChiURLParam(req, "id", "t-missing")
	w := httptest.NewRecorder()

	h.Delete(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
	errResp := parseAPIErrorResponse(t, w)
	if errResp["code"] != "TWEET_NOT_FOUND" {
		t.Errorf("code = %q, want TWEET_NOT_FOUND", errResp["code"])
	}
}

func TestTweetStats_ReturnsCounts(t *testing.T) {
	svc := &mockTweetService{
		statsFn: func(ctx context.Context, userID string) (*model.TweetStats, error) {
			return &model.TweetStats{TotalTweets: 42, TodayTweets: 7}, nil
		},
	}
	h := NewTweetHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/tweets/stats", nil)
	req = withUserID(req, "user-1")
	w := httptest.NewRecorder()

	h.Stats(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var stats map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if stats["total_tweets"] != float64(42) {
		t.Errorf("total_tweets = %v, want 42", stats["total_tweets"])
	}
	if stats["today_tweets"] != float64(7) {
		t.Errorf("today_tweets = %v, want 7", stats["today_tweets"])
	}
}
