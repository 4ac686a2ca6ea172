package activity

import "time"

type ActivityResponse struct {
	ActivityID int64     `json:"activity_id"`
	ActorID    string    `json:"actor_id"`
	Module     string    `json:"module"`
	Action     string    `json:"action"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type ListActivitiesResponse struct {
	Total      int                `json:"total"`
	Activities []ActivityResponse `json:"activities"`
}
