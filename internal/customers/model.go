package customers

import (
	"database/sql"
	"time"
)

const (
	StatusActive = "active"
	// 重度の支払遅延がある要注意先。新規販売を止める。
	StatusRedListed = "red_listed"
)

// Customer は customers テーブルの1行を表す
type Customer struct {
	CustomerID         int64
	Name               string
	Phone              sql.NullString
	Address            sql.NullString
	Status             string
	OutstandingBalance int64 // 円
	Notes              sql.NullString
	CreatedAt          time.Time
}

// 一覧取得用の検索条件
type CustomerFilter struct {
	NameQuery     string
	RedListedOnly bool
}

type Page struct {
	Limit  int
	Offset int
	Order  string
}
