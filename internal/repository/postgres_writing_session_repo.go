package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/tweettimer/internal/model"
)

// ErrActiveSessionExists は並行したセッション開始の競合を示す。
// 「ユーザーごとにアクティブなセッションは最大1つ」のユニーク制約違反から検出する。
var ErrActiveSessionExists = errors.New("another active session exists")

// uniqueViolation はPostgreSQLのunique_violationエラーコード。
const uniqueViolation = pq.ErrorCode("23505")

// PostgresWritingSessionRepo はPostgreSQLを使用したライティングセッションリポジトリ。
type PostgresWritingSessionRepo struct {
	db *sql.DB
}

// NewPostgresWritingSessionRepo はPostgresWritingSessionRepoを生成する。
func NewPostgresWritingSessionRepo(db *sql.DB) *PostgresWritingSessionRepo {
	return &PostgresWritingSessionRepo{db: db}
}

const writingSessionColumns = `id, user_id, started_at, is_active, current_cycle, created_at, updated_at`

// scanWritingSession は1行をWritingSessionに読み取る。
func scanWritingSession(row *sql.Row) (*model.WritingSession, error) {
	ws := &model.WritingSession{}
	err := row.Scan(&ws.ID, &ws.UserID, &ws.StartedAt, &ws.IsActive, &ws.CurrentCycle, &ws.CreatedAt, &ws.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// FindActiveByUserID はユーザーのアクティブなセッションを取得する。
// 存在しない場合はnilを返す。
func (r *PostgresWritingSessionRepo) FindActiveByUserID(ctx context.Context, userID string) (*model.WritingSession, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+writingSessionColumns+`
		 FROM writing_sessions
		 WHERE user_id = $1 AND is_active`,
		userID,
	)
	ws, err := scanWritingSession(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find active writing session: %w", err)
	}
	return ws, nil
}

// FindByID は指定IDのセッションを取得する。見つからない場合はnilを返す。
func (r *PostgresWritingSessionRepo) FindByID(ctx context.Context, id string) (*model.WritingSession, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+writingSessionColumns+`
		 FROM writing_sessions
		 WHERE id = $1`,
		id,
	)
	ws, err := scanWritingSession(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find writing session: %w", err)
	}
	return ws, nil
}

// Start は既存のアクティブセッションの無効化と新規セッションの挿入を
// 同一トランザクションで実行する。
// 並行するStartとの競合はユニーク制約で検出され、ErrActiveSessionExistsを返す。
func (r *PostgresWritingSessionRepo) Start(ctx context.Context, session *model.WritingSession) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 既存のアクティブセッションをすべて無効化
	_, err = tx.ExecContext(ctx,
		`UPDATE writing_sessions
		 SET is_active = FALSE, updated_at = now()
		 WHERE user_id = $1 AND is_active`,
		session.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate existing sessions: %w", err)
	}

	// 新規セッションを挿入
	_, err = tx.ExecContext(ctx,
		`INSERT INTO writing_sessions (id, user_id, started_at, is_active, current_cycle, created_at, updated_at)
		 VALUES ($1, $2, $3, TRUE, $4, $5, $6)`,
		session.ID, session.UserID, session.StartedAt, session.CurrentCycle, session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrActiveSessionExists
		}
		return fmt.Errorf("failed to insert writing session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrActiveSessionExists
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Deactivate は指定セッションを非アクティブにする。
// started_atとcurrent_cycleは変更しない（履歴の保持）。
func (r *PostgresWritingSessionRepo) Deactivate(ctx context.Context, id, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE writing_sessions
		 SET is_active = FALSE, updated_at = now()
		 WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate writing session: %w", err)
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

// IncrementCycle はサイクルカウンタを1進め、更新後の値を返す。
func (r *PostgresWritingSessionRepo) IncrementCycle(ctx context.Context, id, userID string) (int, error) {
	var cycle int
	err := r.db.QueryRowContext(ctx,
		`UPDATE writing_sessions
		 SET current_cycle = current_cycle + 1, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING current_cycle`,
		id, userID,
	).Scan(&cycle)

	if err == sql.ErrNoRows {
		return 0, ErrNoRowsUpdated
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment cycle: %w", err)
	}
	return cycle, nil
}

// SetCycle はサイクルカウンタを指定値まで引き上げる。
// current_cycle < cycle の場合のみ更新する（単調非減少の保証）。
func (r *PostgresWritingSessionRepo) SetCycle(ctx context.Context, id string, cycle int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE writing_sessions
		 SET current_cycle = $2, updated_at = now()
		 WHERE id = $1 AND current_cycle < $2`,
		id, cycle,
	)
	if err != nil {
		return fmt.Errorf("failed to set cycle: %w", err)
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

// ListActive は全ユーザーのアクティブセッションを返す。
func (r *PostgresWritingSessionRepo) ListActive(ctx context.Context) ([]*model.WritingSession, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+writingSessionColumns+`
		 FROM writing_sessions
		 WHERE is_active
		 ORDER BY started_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active writing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.WritingSession
	for rows.Next() {
		ws := &model.WritingSession{}
		if err := rows.Scan(&ws.ID, &ws.UserID, &ws.StartedAt, &ws.IsActive, &ws.CurrentCycle, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan writing session: %w", err)
		}
		sessions = append(sessions, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate writing sessions: %w", err)
	}

	return sessions, nil
}

// DeleteByUserID はユーザーの全ライティングセッションを削除する。
func (r *PostgresWritingSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM writing_sessions WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user writing sessions: %w", err)
	}
	return nil
}

// compile-time interface check
var _ WritingSessionRepository = (*PostgresWritingSessionRepo)(nil)
