package segment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func passAuth(userID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		return c.Next()
	}
}

func TestCreateSegmentHandler(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO segments`).
		WithArgs(pgxmock.AnyArg(), "Col Example", "mountain_pass", "LINESTRING(6 45, 6.01 45.02)",
			pgxmock.AnyArg(), 30.0, false, pgxmock.AnyArg(), true).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	app := fiber.New()
	RegisterRoutes(app.Group("/segments"), NewService(mock), nil, passAuth("user-1"))

	body := `{"name":"Col Example","kind":"mountain_pass","centerline":"LINESTRING(6 45, 6.01 45.02)","tolerance_m":30}`
	req := httptest.NewRequest(http.MethodPost, "/segments/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("status: %v %d", err, resp.StatusCode)
	}

	raw, _ := io.ReadAll(resp.Body)
	var seg Segment
	if err := json.Unmarshal(raw, &seg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if seg.CreatedBy == nil || *seg.CreatedBy != "user-1" {
		t.Fatalf("creator not taken from auth context: %v", seg.CreatedBy)
	}
}

func TestCreateSegmentHandlerMissingFields(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/segments"), NewService(nil), nil, passAuth("user-1"))

	req := httptest.NewRequest(http.MethodPost, "/segments/", strings.NewReader(`{"name":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateSegmentHandlerBadGeometry(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/segments"), NewService(nil), nil, passAuth("user-1"))

	body := `{"name":"x","centerline":"POINT(1 2)","tolerance_m":30}`
	req := httptest.NewRequest(http.MethodPost, "/segments/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestNearbyHandler(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, name, kind, ST_AsText\(centerline\)`).
		WithArgs(6.0, 45.0, 5000.0).
		WillReturnRows(pgxmock.NewRows(segmentColumns()).
			AddRow("seg-1", "Col Example", "mountain_pass", "LINESTRING(6 45, 6.01 45.02)", 2300.0, 30.0, true, (*string)(nil), true, time.Now()))

	app := fiber.New()
	RegisterRoutes(app.Group("/segments"), NewService(mock), nil, passAuth("user-1"))

	req := httptest.NewRequest(http.MethodGet, "/segments/?lat=45&lng=6&radius_km=5", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %v %d", err, resp.StatusCode)
	}

	raw, _ := io.ReadAll(resp.Body)
	var segments []Segment
	if err := json.Unmarshal(raw, &segments); err != nil || len(segments) != 1 {
		t.Fatalf("decode: %v %s", err, raw)
	}
}

func TestNearbyHandlerMissingCoords(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/segments"), NewService(nil), nil, passAuth("user-1"))

	req := httptest.NewRequest(http.MethodGet, "/segments/?lat=45", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetSegmentHandlerNotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, name, kind, ST_AsText\(centerline\)`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(segmentColumns()))

	app := fiber.New()
	RegisterRoutes(app.Group("/segments"), NewService(mock), nil, passAuth("user-1"))

	req := httptest.NewRequest(http.MethodGet, "/segments/missing", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

type stubBestCache struct {
	invalidated []string
}

func (s *stubBestCache) Invalidate(_ context.Context, segmentID string) error {
	s.invalidated = append(s.invalidated, segmentID)
	return nil
}

func TestDeactivateSegmentHandlerDropsBestCache(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectExec(`UPDATE segments SET active=false`).
		WithArgs("seg-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	cache := &stubBestCache{}
	app := fiber.New()
	RegisterRoutes(app.Group("/segments"), NewService(mock), cache, passAuth("user-1"))

	req := httptest.NewRequest(http.MethodDelete, "/segments/seg-1", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if len(cache.invalidated) != 1 || cache.invalidated[0] != "seg-1" {
		t.Fatalf("cached best time not dropped: %v", cache.invalidated)
	}
}

func TestDeactivateSegmentHandlerNotFoundKeepsCache(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectExec(`UPDATE segments SET active=false`).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	cache := &stubBestCache{}
	app := fiber.New()
	RegisterRoutes(app.Group("/segments"), NewService(mock), cache, passAuth("user-1"))

	req := httptest.NewRequest(http.MethodDelete, "/segments/missing", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if len(cache.invalidated) != 0 {
		t.Fatalf("cache must not be touched on failure: %v", cache.invalidated)
	}
}

func TestDeactivateSegmentHandler(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectExec(`UPDATE segments SET active=false`).
		WithArgs("seg-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	app := fiber.New()
	RegisterRoutes(app.Group("/segments"), NewService(mock), nil, passAuth("user-1"))

	req := httptest.NewRequest(http.MethodDelete, "/segments/seg-1", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}
