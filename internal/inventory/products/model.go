package products

import "time"

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Product は products テーブルの1行を表す（反物・生地などのSKU）
type Product struct {
	ProductID         int64
	ProductULID       string
	Name              string
	Category          string // 例: cotton / silk / polyester
	Unit              string // 例: m / roll / piece
	DefaultLocationID int64
	Status            string
	CreatedAt         time.Time
}

// 一覧取得用の検索条件
type ProductFilter struct {
	NameQuery  string
	Category   string
	ActiveOnly bool
}

type Page struct {
	Limit  int
	Offset int
	Order  string
}
