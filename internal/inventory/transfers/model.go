package transfers

import (
	"database/sql"
	"time"
)

// Transfer は transfers テーブルの1行を表す。
// 振替元ロットの残量を減らし、振替先に新しいロットを起こした記録。
type Transfer struct {
	TransferID     int64
	TransferULID   string
	ProductID      int64
	LotID          int64 // 振替元ロット
	NewLotID       int64 // 振替先に作成されたロット
	FromLocationID int64
	ToLocationID   int64
	Quantity       int
	TransferredBy  string
	TransferredAt  time.Time
	Notes          sql.NullString
}

// 一覧取得用の検索条件
type TransferFilter struct {
	ProductID  int64
	LocationID int64 // 振替元・振替先どちらかに一致
	From       *time.Time
	To         *time.Time
}

type Page struct {
	Limit  int
	Offset int
	Order  string
}
