package customers

import "time"

type CreateCustomerRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

type UpdateCustomerRequest struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	Notes   *string `json:"notes,omitempty"`
}

// RedListRequest は取引停止の理由を受け取る
type RedListRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type CustomerResponse struct {
	CustomerID         int64     `json:"customer_id"`
	Name               string    `json:"name"`
	Phone              *string   `json:"phone,omitempty"`
	Address            *string   `json:"address,omitempty"`
	Status             string    `json:"status"`
	OutstandingBalance int64     `json:"outstanding_balance"`
	Notes              *string   `json:"notes,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

type ListCustomersResponse struct {
	Total     int                `json:"total"`
	Customers []CustomerResponse `json:"customers"`
}
