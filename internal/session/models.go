package session

import "time"

const (
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Session is one recorded drive. Its track is finalized exactly when the
// status moves to completed or cancelled.
type Session struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	VehicleID      string    `json:"vehicle_id"`
	Status         string    `json:"status"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"ended_at,omitempty"`
	TotalDistanceM float64   `json:"total_distance_m"`
	CreatedAt      time.Time `json:"created_at"`
}

// GpsSample is one recorded fix, immutable once stored. Seq increases
// monotonically within a session and orders the track.
type GpsSample struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Seq        int       `json:"seq"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	AltitudeM  *float64  `json:"altitude_m,omitempty"`
	SpeedKmh   *float64  `json:"speed_kmh,omitempty"`
	HeadingDeg *float64  `json:"heading_deg,omitempty"`
	AccuracyM  *float64  `json:"accuracy_m,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at"`
}

type Summary struct {
	SessionID   string  `json:"session_id"`
	Status      string  `json:"status"`
	SampleCount int     `json:"sample_count"`
	DistanceM   float64 `json:"distance_m"`
	DurationSec int64   `json:"duration_sec"`
	AvgSpeedKmh float64 `json:"avg_speed_kmh"`
}
