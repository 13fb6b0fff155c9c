package vehicle

import "time"

type Vehicle struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Make      string    `json:"make"`
	Model     string    `json:"model"`
	Year      int       `json:"year,omitempty"`
	Plate     string    `json:"plate,omitempty"`
	Nickname  string    `json:"nickname,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
