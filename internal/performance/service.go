package performance

import (
	"context"
	"errors"
	"log"

	"github.com/Neoznzoe/drivr/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrDuplicateTraversal means a record already exists for the
	// (segment, session) pair. Benign: reruns are idempotent.
	ErrDuplicateTraversal = errors.New("performance already recorded for this segment and session")
	// ErrSegmentGone means the referenced segment does not exist.
	ErrSegmentGone = errors.New("segment not found")
)

const (
	defaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 100
)

// Service is the leaderboard engine: exactly-once record inserts with a
// consistent rank snapshot, plus ranked reads.
type Service struct {
	db    db.TxQuerier
	cache *Cache
}

func NewService(db db.TxQuerier, cache *Cache) *Service {
	return &Service{db: db, cache: cache}
}

// Record inserts rec exactly once per (segment, session). The insert and
// the rank-snapshot count run under a per-segment advisory lock so that
// concurrent completions of the same segment get non-colliding snapshots.
// The stored rank is a point-in-time value for historic feeds; reads
// always recompute ranks.
func (s *Service) Record(ctx context.Context, rec Record) (Record, error) {
	rec.ID = uuid.NewString()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Record{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, rec.SegmentID); err != nil {
		return Record{}, err
	}

	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM performance_records WHERE segment_id=$1 AND session_id=$2)
	`, rec.SegmentID, rec.SessionID).Scan(&exists)
	if err != nil {
		return Record{}, err
	}
	if exists {
		return Record{}, ErrDuplicateTraversal
	}

	var rank int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*)+1 FROM performance_records WHERE segment_id=$1 AND duration_s < $2
	`, rec.SegmentID, rec.DurationS).Scan(&rank)
	if err != nil {
		return Record{}, err
	}
	rec.RankAtCreation = &rank

	err = tx.QueryRow(ctx, `
		INSERT INTO performance_records
			(id, segment_id, session_id, user_id, vehicle_id, duration_s, avg_speed_kmh, max_speed_kmh, started_at, ended_at, rank_at_creation)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at
	`, rec.ID, rec.SegmentID, rec.SessionID, rec.UserID, rec.VehicleID,
		rec.DurationS, rec.AvgSpeedKmh, rec.MaxSpeedKmh, rec.StartedAt, rec.EndedAt, rec.RankAtCreation).
		Scan(&rec.CreatedAt)
	if err != nil {
		return Record{}, mapPgError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Record{}, err
	}

	if s.cache != nil {
		if err := s.cache.RecordTime(ctx, rec.SegmentID, rec.UserID, rec.DurationS); err != nil {
			log.Printf("leaderboard cache update failed for segment %s: %v", rec.SegmentID, err)
		}
	}
	return rec, nil
}

// Leaderboard returns ranked records for a segment ordered by ascending
// duration, ties broken by earlier creation. Ranks are positional over
// that ordering: offset+i+1.
func (s *Service) Leaderboard(ctx context.Context, segmentID string, limit, offset int) ([]RankedPerformance, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(ctx, `
		SELECT pr.id, pr.segment_id, pr.session_id, pr.user_id, pr.vehicle_id,
		       pr.duration_s, pr.avg_speed_kmh, pr.max_speed_kmh, pr.started_at, pr.ended_at,
		       pr.rank_at_creation, pr.created_at,
		       u.username, COALESCE(u.avatar_url,''), v.make, v.model
		FROM performance_records pr
		JOIN users u ON u.id = pr.user_id
		JOIN vehicles v ON v.id = pr.vehicle_id
		WHERE pr.segment_id = $1
		ORDER BY pr.duration_s ASC, pr.created_at ASC
		LIMIT $2 OFFSET $3
	`, segmentID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RankedPerformance
	for rows.Next() {
		var rp RankedPerformance
		if err := rows.Scan(
			&rp.Record.ID, &rp.Record.SegmentID, &rp.Record.SessionID, &rp.Record.UserID, &rp.Record.VehicleID,
			&rp.Record.DurationS, &rp.Record.AvgSpeedKmh, &rp.Record.MaxSpeedKmh, &rp.Record.StartedAt, &rp.Record.EndedAt,
			&rp.Record.RankAtCreation, &rp.Record.CreatedAt,
			&rp.User.Username, &rp.User.AvatarURL, &rp.Vehicle.Make, &rp.Vehicle.Model,
		); err != nil {
			return nil, err
		}
		rp.User.ID = rp.Record.UserID
		rp.Vehicle.ID = rp.Record.VehicleID
		rp.Rank = offset + len(out) + 1
		out = append(out, rp)
	}
	return out, rows.Err()
}

// UserRecords returns one user's records for a segment, fastest first.
// Normally zero or one given the uniqueness constraint per session.
func (s *Service) UserRecords(ctx context.Context, segmentID, userID string) ([]Record, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, segment_id, session_id, user_id, vehicle_id,
		       duration_s, avg_speed_kmh, max_speed_kmh, started_at, ended_at,
		       rank_at_creation, created_at
		FROM performance_records
		WHERE segment_id=$1 AND user_id=$2
		ORDER BY duration_s ASC
	`, segmentID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.ID, &r.SegmentID, &r.SessionID, &r.UserID, &r.VehicleID,
			&r.DurationS, &r.AvgSpeedKmh, &r.MaxSpeedKmh, &r.StartedAt, &r.EndedAt,
			&r.RankAtCreation, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			// Unique (segment_id, session_id) index fired despite the
			// advisory lock, e.g. a run bypassing Record.
			return ErrDuplicateTraversal
		case "23503":
			return ErrSegmentGone
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrSegmentGone
	}
	return err
}
