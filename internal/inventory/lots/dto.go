package lots

import "time"

// 入荷登録リクエスト
type ReceiveLotRequest struct {
	ProductID     int64 `json:"product_id" binding:"required"`
	Quantity      int   `json:"quantity" binding:"required"`
	PurchasePrice int64 `json:"purchase_price"`
	SellingPrice  int64 `json:"selling_price"`
	LocationID    int64 `json:"location_id" binding:"required"`
	// "2006-01-02" 形式（省略時は当日）
	ReceivedDate *string `json:"received_date,omitempty"`
	ExpiryDate   *string `json:"expiry_date,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

type UpdateLotRequest struct {
	SellingPrice *int64  `json:"selling_price,omitempty"`
	Status       *string `json:"status,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

// ロットレスポンス
type LotResponse struct {
	LotID         int64      `json:"lot_id"`
	LotULID       string     `json:"lot_ulid"`
	ProductID     int64      `json:"product_id"`
	LotNumber     int        `json:"lot_number"`
	Quantity      int        `json:"quantity"`
	PurchasePrice int64      `json:"purchase_price"`
	SellingPrice  int64      `json:"selling_price"`
	LocationID    int64      `json:"location_id"`
	LocationName  string     `json:"location_name,omitempty"` // JOINで埋める
	ReceivedDate  time.Time  `json:"received_date"`
	ExpiryDate    *time.Time `json:"expiry_date,omitempty"`
	Status        string     `json:"status"`
	Notes         *string    `json:"notes,omitempty"`
}
