package locations

import "time"

// ===== Requests =====

type CreateLocationRequest struct {
	Name    string  `json:"name" binding:"required"`
	Type    string  `json:"type" binding:"required"` // warehouse | showroom
	Address *string `json:"address,omitempty"`
}

type UpdateLocationRequest struct {
	Name    *string `json:"name,omitempty"`
	Type    *string `json:"type,omitempty"`
	Address *string `json:"address,omitempty"`
	Status  *string `json:"status,omitempty"`
}

// ===== Responses =====

type LocationResponse struct {
	LocationID int64     `json:"location_id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Address    *string   `json:"address,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

func toDTO(l *Location) LocationResponse {
	return LocationResponse{
		LocationID: l.LocationID,
		Name:       l.Name,
		Type:       l.Type,
		Address:    l.Address,
		Status:     l.Status,
		CreatedAt:  l.CreatedAt,
	}
}
