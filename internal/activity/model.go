package activity

import "time"

// Activity は操作ログ1件。追記専用で更新・削除はしない。
type Activity struct {
	ActivityID int64
	ActorID    string
	Module     string
	Action     string
	Detail     string
	CreatedAt  time.Time
}

type ActivityFilter struct {
	Module  string
	ActorID string
	From    *time.Time
	To      *time.Time
}

type Page struct {
	Limit  int
	Offset int
}
