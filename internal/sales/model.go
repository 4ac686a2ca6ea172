package sales

import (
	"database/sql"
	"time"
)

// Sale は sales テーブルの1行を表す（ロット単位の払い出し）
type Sale struct {
	SaleID     int64
	SaleULID   string
	ProductID  int64
	LotID      int64
	CustomerID int64
	Quantity   int
	UnitPrice  int64 // 円
	Total      int64 // 円
	SoldBy     string
	SoldAt     time.Time
	Notes      sql.NullString
}

// 一覧取得用の検索条件
type SaleFilter struct {
	CustomerID int64
	ProductID  int64
	From       *time.Time
	To         *time.Time
}

type Page struct {
	Limit  int
	Offset int
	Order  string
}
