package performance

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/Neoznzoe/drivr/internal/db"
	"github.com/Neoznzoe/drivr/internal/segment"
	"github.com/Neoznzoe/drivr/internal/shared/geo"
	"github.com/Neoznzoe/drivr/internal/stream"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrSessionNotFound means the session id references nothing.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidState means matching was requested for a session that is
	// not completed.
	ErrInvalidState = errors.New("session is not completed")
)

// Detector runs segment matching for a completed session and records the
// resulting performances. Safe to re-run: duplicates are benign no-ops.
type Detector struct {
	db      db.Querier
	catalog *segment.Service
	records *Service
	hub     *stream.Hub
}

func NewDetector(db db.Querier, catalog *segment.Service, records *Service, hub *stream.Hub) *Detector {
	return &Detector{db: db, catalog: catalog, records: records, hub: hub}
}

// MatchAndRecord matches the session's track against the segment catalog
// and persists one performance per traversed segment. Per-segment faults
// (bad geometry, integrity faults, duplicates) are isolated; only storage
// failures abort the run, leaving already-committed records standing.
func (d *Detector) MatchAndRecord(ctx context.Context, sessionID string) ([]Record, error) {
	var userID, vehicleID, status string
	err := d.db.QueryRow(ctx, `
		SELECT user_id, vehicle_id, status FROM sessions WHERE id=$1
	`, sessionID).Scan(&userID, &vehicleID, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if status != "completed" {
		return nil, ErrInvalidState
	}

	track, err := d.loadTrack(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(track) < 2 {
		return nil, nil
	}
	points := make([]geo.Point, len(track))
	for i, s := range track {
		points[i] = geo.Point{Lat: s.Lat, Lng: s.Lng}
	}

	candidates, err := d.catalog.CandidatesForTrack(ctx, points)
	if err != nil {
		return nil, err
	}

	var created []Record
	for _, seg := range candidates {
		line, err := seg.Centerline()
		if err != nil {
			log.Printf("segment %s: malformed centerline, skipping: %v", seg.ID, err)
			continue
		}

		entry, exit, ok := segment.MatchTrack(points, line, seg.ToleranceM)
		if !ok {
			continue
		}

		stats, err := Extract(track, entry, exit)
		if err != nil {
			log.Printf("segment %s session %s: dropping candidate: %v", seg.ID, sessionID, err)
			continue
		}

		rec, err := d.records.Record(ctx, Record{
			SegmentID:   seg.ID,
			SessionID:   sessionID,
			UserID:      userID,
			VehicleID:   vehicleID,
			DurationS:   stats.DurationS,
			AvgSpeedKmh: stats.AvgSpeedKmh,
			MaxSpeedKmh: stats.MaxSpeedKmh,
			StartedAt:   stats.StartedAt,
			EndedAt:     stats.EndedAt,
		})
		switch {
		case errors.Is(err, ErrDuplicateTraversal):
			continue
		case errors.Is(err, ErrSegmentGone):
			log.Printf("segment %s vanished during matching, skipping", seg.ID)
			continue
		case err != nil:
			// Storage-level failure: abort. Committed records stand and
			// a rerun will not duplicate them.
			return created, err
		}

		created = append(created, rec)
		d.announce(seg.ID, rec)
	}
	return created, nil
}

func (d *Detector) loadTrack(ctx context.Context, sessionID string) ([]TrackSample, error) {
	rows, err := d.db.Query(ctx, `
		SELECT ST_Y(location::geometry), ST_X(location::geometry), speed_kmh, recorded_at, seq
		FROM gps_samples
		WHERE session_id=$1
		ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var track []TrackSample
	for rows.Next() {
		var s TrackSample
		if err := rows.Scan(&s.Lat, &s.Lng, &s.SpeedKmh, &s.RecordedAt, &s.Seq); err != nil {
			return nil, err
		}
		track = append(track, s)
	}
	return track, rows.Err()
}

func (d *Detector) announce(segmentID string, rec Record) {
	if d.hub == nil {
		return
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return
	}
	d.hub.Broadcast("segments:"+segmentID, payload)
}
