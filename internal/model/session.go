package model

import "time"

// WritingSession はライティングセッションを表す。
// 開始時刻からサイクル長（460秒）ごとにCurrentCycleが1ずつ進む。
// ユーザーごとに同時にアクティブなセッションは最大1つ。
type WritingSession struct {
	ID           string
	UserID       string
	StartedAt    time.Time
	IsActive     bool
	CurrentCycle int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
