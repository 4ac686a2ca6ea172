package sales

import "time"

// 売上登録リクエスト
type CreateSaleRequest struct {
	LotID      int64 `json:"lot_id" binding:"required"`
	CustomerID int64 `json:"customer_id" binding:"required"`
	Quantity   int   `json:"quantity" binding:"required"`
	// 省略時はロットの売価を使う
	UnitPrice *int64  `json:"unit_price,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// 売上レスポンス
type SaleResponse struct {
	SaleID       int64     `json:"sale_id"`
	SaleULID     string    `json:"sale_ulid"`
	ProductID    int64     `json:"product_id"`
	ProductName  string    `json:"product_name,omitempty"`
	LotID        int64     `json:"lot_id"`
	CustomerID   int64     `json:"customer_id"`
	CustomerName string    `json:"customer_name,omitempty"`
	Quantity     int       `json:"quantity"`
	UnitPrice    int64     `json:"unit_price"`
	Total        int64     `json:"total"`
	SoldBy       string    `json:"sold_by"`
	SoldAt       time.Time `json:"sold_at"`
	Notes        *string   `json:"notes,omitempty"`
}

type SaleListResponse struct {
	Items []SaleResponse `json:"items"`
	Total int64          `json:"total"`
}
