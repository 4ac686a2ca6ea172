package lots

import (
	"database/sql"
	"time"
)

const (
	StatusActive   = "active"
	StatusDepleted = "depleted"
	StatusExpired  = "expired"
)

// Lot は lots テーブルの1行を表す。
// 同一商品でも入荷バッチごとに1行（ロット番号は商品ごとの連番）。
type Lot struct {
	LotID         int64
	LotULID       string
	ProductID     int64
	LotNumber     int
	Quantity      int
	PurchasePrice int64 // 円
	SellingPrice  int64 // 円
	LocationID    int64
	ReceivedDate  time.Time
	ExpiryDate    sql.NullTime
	Status        string
	Notes         sql.NullString
}

// 一覧取得用の検索条件
type LotFilter struct {
	ProductID  int64
	LocationID int64
	Status     string
}
