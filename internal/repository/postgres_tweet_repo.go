package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/tweettimer/internal/model"
)

// PostgresTweetRepo はPostgreSQLを使用したツイートリポジトリ。
type PostgresTweetRepo struct {
	db *sql.DB
}

// NewPostgresTweetRepo はPostgresTweetRepoを生成する。
func NewPostgresTweetRepo(db *sql.DB) *PostgresTweetRepo {
	return &PostgresTweetRepo{db: db}
}

// FindByID は指定IDのツイートを取得する。見つからない場合はnilを返す。
func (r *PostgresTweetRepo) FindByID(ctx context.Context, id string) (*model.Tweet, error) {
	tweet := &model.Tweet{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, content, cycle_number, created_at
		 FROM tweets
		 WHERE id = $1`,
		id,
	).Scan(&tweet.ID, &tweet.UserID, &tweet.Content, &tweet.CycleNumber, &tweet.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find tweet: %w", err)
	}

	return tweet, nil
}

// ListByUserID はユーザーの全ツイートを作成日時の降順で返す。
func (r *PostgresTweetRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Tweet, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, content, cycle_number, created_at
		 FROM tweets
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tweets: %w", err)
	}
	defer rows.Close()

	tweets := []*model.Tweet{}
	for rows.Next() {
		tweet := &model.Tweet{}
		if err := rows.Scan(&tweet.ID, &tweet.UserID, &tweet.Content, &tweet.CycleNumber, &tweet.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tweet: %w", err)
		}
		tweets = append(tweets, tweet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tweets: %w", err)
	}

	return tweets, nil
}

// Create はツイートを作成する。
// contentの長さ・空文字の検証は行わない（コンポーザー側のみの制約）。
func (r *PostgresTweetRepo) Create(ctx context.Context, tweet *model.Tweet) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tweets (id, user_id, content, cycle_number, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		tweet.ID, tweet.UserID, tweet.Content, tweet.CycleNumber, tweet.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create tweet: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのツイートを物理削除する。ソフトデリートや復元はない。
func (r *PostgresTweetRepo) DeleteByID(ctx context.Context, id, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tweets WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete tweet: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNoRowsUpdated
	}
	return nil
}

// CountByUserID は総数とsince以降に作成された件数を1クエリで返す。
func (r *PostgresTweetRepo) CountByUserID(ctx context.Context, userID string, since time.Time) (int, int, error) {
	var total, recent int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE created_at >= $2)
		 FROM tweets
		 WHERE user_id = $1`,
		userID, since,
	).Scan(&total, &recent)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count tweets: %w", err)
	}
	return total, recent, nil
}

// DeleteByUserID はユーザーの全ツイートを削除する。
func (r *PostgresTweetRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM tweets WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user tweets: %w", err)
	}
	return nil
}

// compile-time interface check
var _ TweetRepository = (*PostgresTweetRepo)(nil)
