package segment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Neoznzoe/drivr/internal/shared/geo"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

var errSeg = errors.New("seg fail")

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	return mock
}

func segmentColumns() []string {
	return []string{"id", "name", "kind", "centerline", "length_m", "tolerance_m", "official", "created_by", "active", "created_at"}
}

func TestCreateComputesLength(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO segments`).
		WithArgs(pgxmock.AnyArg(), "Col Example", "mountain_pass", "LINESTRING(6 45, 6.005 45.01, 6.01 45.02)",
			pgxmock.AnyArg(), 30.0, true, (*string)(nil), true).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	svc := NewService(mock)
	seg, err := svc.Create(context.Background(), Segment{
		Name:          "Col Example",
		Kind:          "mountain_pass",
		CenterlineWKT: "LINESTRING(6 45, 6.005 45.01, 6.01 45.02)",
		ToleranceM:    30,
		Official:      true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if seg.LengthM < 2000 || seg.LengthM > 2700 {
		t.Fatalf("computed length = %v", seg.LengthM)
	}
	if !seg.Active || seg.ID == "" {
		t.Fatalf("segment not initialized: %+v", seg)
	}
}

func TestCreateRejectsBadGeometry(t *testing.T) {
	svc := NewService(nil)

	cases := []Segment{
		{Name: "x", CenterlineWKT: "POINT(1 2)", ToleranceM: 30},
		{Name: "x", CenterlineWKT: "LINESTRING(6 45, 6 45)", ToleranceM: 30},
		{Name: "x", CenterlineWKT: "LINESTRING(6 45, 6.01 45.01)", ToleranceM: 0},
		{Name: "x", CenterlineWKT: "LINESTRING(6 45, 6.01 45.01)", ToleranceM: -5},
	}
	for i, input := range cases {
		if _, err := svc.Create(context.Background(), input); !errors.Is(err, ErrInvalidGeometry) {
			t.Fatalf("case %d: expected ErrInvalidGeometry, got %v", i, err)
		}
	}
}

func TestGetNotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, name, kind, ST_AsText\(centerline\)`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	svc := NewService(mock)
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGet(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, name, kind, ST_AsText\(centerline\)`).
		WithArgs("seg-1").
		WillReturnRows(pgxmock.NewRows(segmentColumns()).
			AddRow("seg-1", "Col Example", "mountain_pass", "LINESTRING(6 45, 6.01 45.02)", 2300.0, 30.0, true, (*string)(nil), true, time.Now()))

	svc := NewService(mock)
	seg, err := svc.Get(context.Background(), "seg-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	line, err := seg.Centerline()
	if err != nil || len(line) != 2 {
		t.Fatalf("centerline: %v", err)
	}
}

func TestCandidatesForTrack(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	track := []geo.Point{{Lat: 45.0, Lng: 6.0}, {Lat: 45.02, Lng: 6.01}}

	mock.ExpectQuery(`SELECT id, name, kind, ST_AsText\(centerline\)`).
		WithArgs(FormatLineString(track), coarseMarginM).
		WillReturnRows(pgxmock.NewRows(segmentColumns()).
			AddRow("seg-1", "Col Example", "mountain_pass", "LINESTRING(6 45, 6.01 45.02)", 2300.0, 30.0, true, (*string)(nil), true, time.Now()))

	svc := NewService(mock)
	segments, err := svc.CandidatesForTrack(context.Background(), track)
	if err != nil || len(segments) != 1 {
		t.Fatalf("candidates: %v %d", err, len(segments))
	}
}

func TestCandidatesForTrackShortTrack(t *testing.T) {
	svc := NewService(nil)
	segments, err := svc.CandidatesForTrack(context.Background(), []geo.Point{{Lat: 45, Lng: 6}})
	if err != nil || segments != nil {
		t.Fatalf("short track must short-circuit: %v %v", segments, err)
	}
}

func TestDeactivate(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectExec(`UPDATE segments SET active=false`).
		WithArgs("seg-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	svc := NewService(mock)
	if err := svc.Deactivate(context.Background(), "seg-1"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
}

func TestDeactivateNotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectExec(`UPDATE segments SET active=false`).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	svc := NewService(mock)
	if err := svc.Deactivate(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNearbyQueryError(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, name, kind, ST_AsText\(centerline\)`).
		WithArgs(6.0, 45.0, 10000.0).
		WillReturnError(errSeg)

	svc := NewService(mock)
	if _, err := svc.Nearby(context.Background(), 45.0, 6.0, 10); err == nil {
		t.Fatalf("expected error")
	}
}
