package segment

import (
	"context"
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// BestCache drops a segment's cached best time once the segment is
// deactivated, so the fast path stops serving it.
type BestCache interface {
	Invalidate(ctx context.Context, segmentID string) error
}

func RegisterRoutes(r fiber.Router, svc *Service, cache BestCache, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Segment
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Name == "" || req.CenterlineWKT == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name and centerline required")
		}
		if req.CreatedBy == nil {
			if userID, ok := c.Locals("user_id").(string); ok && userID != "" {
				req.CreatedBy = &userID
			}
		}
		seg, err := svc.Create(c.Context(), req)
		if errors.Is(err, ErrInvalidGeometry) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(seg)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
		lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
		if err1 != nil || err2 != nil {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lng required")
		}
		radiusKm, err := strconv.ParseFloat(c.Query("radius_km", "10"), 64)
		if err != nil || radiusKm <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid radius_km")
		}
		segments, err := svc.Nearby(c.Context(), lat, lng, radiusKm)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(segments)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		seg, err := svc.Get(c.Context(), c.Params("id"))
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "segment not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(seg)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		id := c.Params("id")
		err := svc.Deactivate(c.Context(), id)
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "segment not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if cache != nil {
			if err := cache.Invalidate(c.Context(), id); err != nil {
				log.Printf("best-time cache invalidation failed for segment %s: %v", id, err)
			}
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
