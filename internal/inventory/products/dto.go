package products

import "time"

// ===== Requests =====

type CreateProductRequest struct {
	Name              string `json:"name" binding:"required"`
	Category          string `json:"category" binding:"required"`
	Unit              string `json:"unit" binding:"required"`
	DefaultLocationID int64  `json:"default_location_id" binding:"required"`
}

type UpdateProductRequest struct {
	Name              *string `json:"name,omitempty"`
	Category          *string `json:"category,omitempty"`
	Unit              *string `json:"unit,omitempty"`
	DefaultLocationID *int64  `json:"default_location_id,omitempty"`
	Status            *string `json:"status,omitempty"`
}

// ===== Responses =====

type ProductResponse struct {
	ProductID           int64     `json:"product_id"`
	ProductULID         string    `json:"product_ulid"`
	Name                string    `json:"name"`
	Category            string    `json:"category"`
	Unit                string    `json:"unit"`
	DefaultLocationID   int64     `json:"default_location_id"`
	DefaultLocationName string    `json:"default_location_name,omitempty"` // JOINで埋める
	Status              string    `json:"status"`
	TotalStock          int       `json:"total_stock"` // 有効ロットの数量合計
	CreatedAt           time.Time `json:"created_at"`
}

type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Total int64             `json:"total"`
}
