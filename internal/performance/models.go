package performance

import "time"

// Record is the persisted outcome of one segment traversal. At most one
// exists per (segment, session); it is never mutated after creation.
type Record struct {
	ID             string    `json:"id"`
	SegmentID      string    `json:"segment_id"`
	SessionID      string    `json:"session_id"`
	UserID         string    `json:"user_id"`
	VehicleID      string    `json:"vehicle_id"`
	DurationS      int64     `json:"duration_s"`
	AvgSpeedKmh    float64   `json:"avg_speed_kmh"`
	MaxSpeedKmh    *float64  `json:"max_speed_kmh,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"ended_at"`
	RankAtCreation *int      `json:"rank_at_creation,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// TrackSample is one GPS fix of a session's track as the detector reads
// it back from storage, ordered by seq.
type TrackSample struct {
	Lat        float64
	Lng        float64
	SpeedKmh   *float64
	RecordedAt time.Time
	Seq        int
}

type UserSummary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type VehicleSummary struct {
	ID    string `json:"id"`
	Make  string `json:"make"`
	Model string `json:"model"`
}

// RankedPerformance is one leaderboard row. Rank is positional within the
// requested ordering, recomputed on every read.
type RankedPerformance struct {
	Rank    int            `json:"rank"`
	Record  Record         `json:"record"`
	User    UserSummary    `json:"user"`
	Vehicle VehicleSummary `json:"vehicle"`
}
