package locations

import "time"

// 拠点タイプ
const (
	TypeWarehouse = "warehouse"
	TypeShowroom  = "showroom"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Location は locations テーブルの1行を表す
type Location struct {
	LocationID int64
	Name       string
	Type       string
	Address    *string
	Status     string
	CreatedAt  time.Time
}
