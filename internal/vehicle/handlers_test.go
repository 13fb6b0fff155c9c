package vehicle

import (
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

func TestCreateVehicleHandler(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO vehicles`).
		WithArgs(pgxmock.AnyArg(), "user-1", "Alpine", "A110", 0, "", "").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	app := fiber.New()
	RegisterRoutes(app.Group("/vehicles"), NewService(mock), passAuth("user-1"))

	req := httptest.NewRequest(http.MethodPost, "/vehicles/", strings.NewReader(`{"make":"Alpine","model":"A110"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("status: %v %d", err, resp.StatusCode)
	}

	raw, _ := io.ReadAll(resp.Body)
	var v Vehicle
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.OwnerID != "user-1" {
		t.Fatalf("owner not taken from auth context: %+v", v)
	}
}

func TestCreateVehicleHandlerMissingFields(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/vehicles"), NewService(nil), passAuth("user-1"))

	req := httptest.NewRequest(http.MethodPost, "/vehicles/", strings.NewReader(`{"make":"Alpine"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListVehiclesHandler(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, owner_id, make, model`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(vehicleColumns()).
			AddRow("veh-1", "user-1", "Alpine", "A110", 2022, "", "", time.Now()))

	app := fiber.New()
	RegisterRoutes(app.Group("/vehicles"), NewService(mock), passAuth("user-1"))

	req := httptest.NewRequest(http.MethodGet, "/vehicles/", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %v %d", err, resp.StatusCode)
	}
}

func TestGetVehicleHandlerNotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, owner_id, make, model`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(vehicleColumns()))

	app := fiber.New()
	RegisterRoutes(app.Group("/vehicles"), NewService(mock), passAuth("user-1"))

	req := httptest.NewRequest(http.MethodGet, "/vehicles/missing", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestDeleteVehicleHandler(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM vehicles`).
		WithArgs("veh-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	app := fiber.New()
	RegisterRoutes(app.Group("/vehicles"), NewService(mock), passAuth("user-1"))

	req := httptest.NewRequest(http.MethodDelete, "/vehicles/veh-1", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}
