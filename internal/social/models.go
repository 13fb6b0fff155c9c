package social

import "time"

type Follow struct {
	FollowerID  string `json:"follower_id"`
	FollowingID string `json:"following_id"`
}

type Like struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Comment struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionPhoto struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	URL       string    `json:"photo_url"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedItem is one completed session of a followed driver with its social
// counters.
type FeedItem struct {
	SessionID    string    `json:"session_id"`
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	VehicleID    string    `json:"vehicle_id"`
	DistanceM    float64   `json:"distance_m"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
}
