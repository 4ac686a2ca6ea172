package transfers

import "time"

// 振替登録リクエスト（確認ステップ通過後に送られるコマンド形）
type CreateTransferRequest struct {
	ProductID    int64   `json:"product_id" binding:"required"`
	LotID        int64   `json:"lot_id" binding:"required"`
	ToLocationID int64   `json:"to_location_id" binding:"required"`
	Quantity     int     `json:"quantity" binding:"required"`
	Notes        *string `json:"notes,omitempty"`
}

// 振替レスポンス
type TransferResponse struct {
	TransferID       int64     `json:"transfer_id"`
	TransferULID     string    `json:"transfer_ulid"`
	ProductID        int64     `json:"product_id"`
	ProductName      string    `json:"product_name,omitempty"`
	LotID            int64     `json:"lot_id"`
	NewLotID         int64     `json:"new_lot_id"`
	FromLocationID   int64     `json:"from_location_id"`
	FromLocationName string    `json:"from_location_name,omitempty"`
	ToLocationID     int64     `json:"to_location_id"`
	ToLocationName   string    `json:"to_location_name,omitempty"`
	Quantity         int       `json:"quantity"`
	TransferredBy    string    `json:"transferred_by"`
	TransferredAt    time.Time `json:"transferred_at"`
	Notes            *string   `json:"notes,omitempty"`
	// 画面にそのまま出せるサマリ（商品・数量・振替元→振替先）
	Summary string `json:"summary"`
}

type TransferListResponse struct {
	Items []TransferResponse `json:"items"`
	Total int64              `json:"total"`
}
