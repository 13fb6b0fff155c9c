package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Neoznzoe/drivr/internal/db"
	"github.com/Neoznzoe/drivr/internal/shared/geo"
	"github.com/Neoznzoe/drivr/internal/stream"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrInvalidState = errors.New("session state does not allow this operation")
)

type Service struct {
	db  db.Querier
	hub *stream.Hub
}

func NewService(db db.Querier, hub *stream.Hub) *Service {
	return &Service{db: db, hub: hub}
}

func (s *Service) Start(ctx context.Context, input Session) (Session, error) {
	input.ID = uuid.NewString()
	input.Status = StatusActive
	if input.StartedAt.IsZero() {
		input.StartedAt = time.Now()
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO sessions (id, user_id, vehicle_id, status, started_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, input.ID, input.UserID, input.VehicleID, input.Status, input.StartedAt)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Session{}, err
	}
	return input, nil
}

func (s *Service) Get(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, vehicle_id, status, started_at, COALESCE(ended_at, 'epoch'::timestamptz), COALESCE(total_distance_m,0), created_at
		FROM sessions WHERE id=$1
	`, id)
	var sess Session
	err := row.Scan(&sess.ID, &sess.UserID, &sess.VehicleID, &sess.Status, &sess.StartedAt, &sess.EndedAt, &sess.TotalDistanceM, &sess.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

// AddSample appends a fix to an active session's track. Seq is assigned
// server-side when the client sends zero.
func (s *Service) AddSample(ctx context.Context, sessionID string, input GpsSample) (GpsSample, error) {
	var status string
	err := s.db.QueryRow(ctx, `SELECT status FROM sessions WHERE id=$1`, sessionID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return GpsSample{}, ErrNotFound
	}
	if err != nil {
		return GpsSample{}, err
	}
	if status != StatusActive {
		return GpsSample{}, ErrInvalidState
	}

	if input.RecordedAt.IsZero() {
		input.RecordedAt = time.Now()
	}

	var lastLat, lastLng float64
	var lastSeq int
	_ = s.db.QueryRow(ctx, `
		SELECT ST_Y(location::geometry), ST_X(location::geometry), seq
		FROM gps_samples
		WHERE session_id=$1
		ORDER BY seq DESC
		LIMIT 1
	`, sessionID).Scan(&lastLat, &lastLng, &lastSeq)

	if input.Seq == 0 {
		input.Seq = lastSeq + 1
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO gps_samples (session_id, seq, location, altitude_m, speed_kmh, heading_deg, accuracy_m, recorded_at)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3,$4), 4326)::geography, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, sessionID, input.Seq, input.Lng, input.Lat, input.AltitudeM, input.SpeedKmh, input.HeadingDeg, input.AccuracyM, input.RecordedAt)
	if err := row.Scan(&input.ID, &input.CreatedAt); err != nil {
		return GpsSample{}, err
	}
	input.SessionID = sessionID

	if lastSeq > 0 && (lastLat != 0 || lastLng != 0) {
		deltaM := geo.HaversineKm(lastLat, lastLng, input.Lat, input.Lng) * 1000
		_, _ = s.db.Exec(ctx, `
			UPDATE sessions
			SET total_distance_m = COALESCE(total_distance_m,0) + $2
			WHERE id=$1
		`, sessionID, deltaM)
	}

	if s.hub != nil {
		payload, _ := json.Marshal(input)
		s.hub.Broadcast("sessions:"+sessionID, payload)
	}

	return input, nil
}

func (s *Service) Pause(ctx context.Context, id string) error {
	return s.transition(ctx, id, StatusPaused, StatusActive)
}

func (s *Service) Resume(ctx context.Context, id string) error {
	return s.transition(ctx, id, StatusActive, StatusPaused)
}

// Complete finalizes the track. Segment matching runs afterwards and its
// outcome never affects completion itself.
func (s *Service) Complete(ctx context.Context, id string) error {
	return s.finish(ctx, id, StatusCompleted)
}

func (s *Service) Cancel(ctx context.Context, id string) error {
	return s.finish(ctx, id, StatusCancelled)
}

func (s *Service) transition(ctx context.Context, id, to string, from ...string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE sessions SET status=$2 WHERE id=$1 AND status = ANY($3)
	`, id, to, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return ErrInvalidState
	}
	return nil
}

func (s *Service) finish(ctx context.Context, id, to string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE sessions SET status=$2, ended_at=now() WHERE id=$1 AND status = ANY($3)
	`, id, to, []string{StatusActive, StatusPaused})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return ErrInvalidState
	}
	return nil
}

// Track returns the session's samples ordered by seq.
func (s *Service) Track(ctx context.Context, sessionID string) ([]GpsSample, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, session_id, seq, ST_Y(location::geometry), ST_X(location::geometry), altitude_m, speed_kmh, heading_deg, accuracy_m, recorded_at, created_at
		FROM gps_samples WHERE session_id=$1
		ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []GpsSample
	for rows.Next() {
		var g GpsSample
		if err := rows.Scan(&g.ID, &g.SessionID, &g.Seq, &g.Lat, &g.Lng, &g.AltitudeM, &g.SpeedKmh, &g.HeadingDeg, &g.AccuracyM, &g.RecordedAt, &g.CreatedAt); err != nil {
			return nil, err
		}
		samples = append(samples, g)
	}
	return samples, rows.Err()
}

func (s *Service) Summary(ctx context.Context, sessionID string) (Summary, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return Summary{}, err
	}

	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM gps_samples WHERE session_id=$1`, sessionID).Scan(&count); err != nil {
		return Summary{}, err
	}

	duration := time.Since(sess.StartedAt)
	if sess.EndedAt.After(sess.StartedAt) {
		duration = sess.EndedAt.Sub(sess.StartedAt)
	}
	avg := 0.0
	if duration.Seconds() > 0 {
		avg = sess.TotalDistanceM / duration.Seconds() * 3.6
	}

	return Summary{
		SessionID:   sess.ID,
		Status:      sess.Status,
		SampleCount: count,
		DistanceM:   sess.TotalDistanceM,
		DurationSec: int64(duration.Seconds()),
		AvgSpeedKmh: avg,
	}, nil
}
