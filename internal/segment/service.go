package segment

import (
	"context"
	"errors"

	"github.com/Neoznzoe/drivr/internal/db"
	"github.com/Neoznzoe/drivr/internal/shared/geo"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound        = errors.New("segment not found")
	ErrInvalidGeometry = errors.New("segment geometry invalid")
)

// coarseMarginM pads the candidate lookup beyond each segment's own
// tolerance so borderline tracks still reach the exact matcher.
const coarseMarginM = 50.0

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Create(ctx context.Context, input Segment) (Segment, error) {
	line, err := input.Centerline()
	if err != nil {
		return Segment{}, ErrInvalidGeometry
	}
	if input.ToleranceM <= 0 {
		return Segment{}, ErrInvalidGeometry
	}
	distinct := false
	for _, p := range line[1:] {
		if p != line[0] {
			distinct = true
			break
		}
	}
	if !distinct {
		return Segment{}, ErrInvalidGeometry
	}
	if input.LengthM <= 0 {
		input.LengthM = geo.PolylineLengthM(line)
	}
	if input.Kind == "" {
		input.Kind = KindCustom
	}

	input.ID = uuid.NewString()
	input.Active = true
	row := s.db.QueryRow(ctx, `
		INSERT INTO segments (id, name, kind, centerline, length_m, tolerance_m, official, created_by, active)
		VALUES ($1,$2,$3, ST_GeogFromText($4), $5,$6,$7,$8,$9)
		RETURNING created_at
	`, input.ID, input.Name, input.Kind, input.CenterlineWKT, input.LengthM, input.ToleranceM, input.Official, input.CreatedBy, input.Active)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Segment{}, err
	}
	return input, nil
}

func (s *Service) Get(ctx context.Context, id string) (Segment, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, kind, ST_AsText(centerline), length_m, tolerance_m, official, created_by, active, created_at
		FROM segments WHERE id=$1
	`, id)
	var seg Segment
	err := row.Scan(&seg.ID, &seg.Name, &seg.Kind, &seg.CenterlineWKT, &seg.LengthM, &seg.ToleranceM, &seg.Official, &seg.CreatedBy, &seg.Active, &seg.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Segment{}, ErrNotFound
	}
	if err != nil {
		return Segment{}, err
	}
	return seg, nil
}

// Nearby lists active segments whose centerline passes within radiusKm of
// a point, for map browse.
func (s *Service) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]Segment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, kind, ST_AsText(centerline), length_m, tolerance_m, official, created_by, active, created_at
		FROM segments
		WHERE active AND ST_DWithin(centerline, ST_SetSRID(ST_MakePoint($1,$2), 4326)::geography, $3)
		ORDER BY name
	`, lng, lat, radiusKm*1000)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSegments(rows)
}

// CandidatesForTrack returns active segments whose centerline comes within
// tolerance (plus a fixed margin) of the track's linestring. This is the
// coarse spatial filter; the matcher does the exact work.
func (s *Service) CandidatesForTrack(ctx context.Context, track []geo.Point) ([]Segment, error) {
	if len(track) < 2 {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, name, kind, ST_AsText(centerline), length_m, tolerance_m, official, created_by, active, created_at
		FROM segments
		WHERE active AND ST_DWithin(centerline, ST_GeogFromText($1), tolerance_m + $2)
	`, FormatLineString(track), coarseMarginM)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSegments(rows)
}

// Deactivate soft-deletes: records keep referencing the segment.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `UPDATE segments SET active=false WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSegments(rows pgx.Rows) ([]Segment, error) {
	var segments []Segment
	for rows.Next() {
		var seg Segment
		if err := rows.Scan(&seg.ID, &seg.Name, &seg.Kind, &seg.CenterlineWKT, &seg.LengthM, &seg.ToleranceM, &seg.Official, &seg.CreatedBy, &seg.Active, &seg.CreatedAt); err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}
