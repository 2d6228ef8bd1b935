package model

import "time"

// Tweet はユーザーが記録した短文エントリを表す。
// 外部SNSには投稿されない、このアプリ内だけのジャーナルエントリ。
// CycleNumberは作成時点のセッションのサイクル番号を冗長に保持し、
// セッションの停止・削除後も履歴として生き残る。
type Tweet struct {
	ID          string
	UserID      string
	Content     string
	CycleNumber int
	CreatedAt   time.Time
}

// TweetStats はユーザーのツイート統計を表す。
// TodayTweetsはローカルカレンダーの当日0時以降に作成された件数。
type TweetStats struct {
	TotalTweets int `json:"total_tweets"`
	TodayTweets int `json:"today_tweets"`
}
