package session

import (
	"context"
	"errors"
	"log"

	"github.com/Neoznzoe/drivr/internal/performance"

	"github.com/gofiber/fiber/v2"
)

// Detector is the segment-matching entry point invoked after completion.
type Detector interface {
	MatchAndRecord(ctx context.Context, sessionID string) ([]performance.Record, error)
}

func RegisterRoutes(r fiber.Router, svc *Service, det Detector, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Session
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.UserID == "" {
			req.UserID, _ = c.Locals("user_id").(string)
		}
		if req.UserID == "" || req.VehicleID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id and vehicle_id required")
		}
		sess, err := svc.Start(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(sess)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		sess, err := svc.Get(c.Context(), c.Params("id"))
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "session not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(sess)
	})

	r.Post("/:id/samples", authMiddleware, func(c *fiber.Ctx) error {
		var req GpsSample
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		sample, err := svc.AddSample(c.Context(), c.Params("id"), req)
		if err != nil {
			return sessionError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(sample)
	})

	r.Post("/:id/pause", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Pause(c.Context(), c.Params("id")); err != nil {
			return sessionError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/:id/resume", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Resume(c.Context(), c.Params("id")); err != nil {
			return sessionError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/:id/complete", authMiddleware, func(c *fiber.Ctx) error {
		id := c.Params("id")
		if err := svc.Complete(c.Context(), id); err != nil {
			return sessionError(err)
		}

		// Matching runs detached: the session is validly completed no
		// matter what matching does, and reruns are idempotent.
		if det != nil {
			go func() {
				records, err := det.MatchAndRecord(context.Background(), id)
				if err != nil {
					log.Printf("segment matching failed for session %s: %v", id, err)
					return
				}
				if len(records) > 0 {
					log.Printf("session %s: %d segment performance(s) recorded", id, len(records))
				}
			}()
		}

		sess, err := svc.Get(c.Context(), id)
		if err != nil {
			return sessionError(err)
		}
		return c.JSON(sess)
	})

	r.Post("/:id/cancel", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Cancel(c.Context(), c.Params("id")); err != nil {
			return sessionError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	// Synchronous, idempotent rerun of segment matching.
	r.Post("/:id/match", authMiddleware, func(c *fiber.Ctx) error {
		if det == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "matching unavailable")
		}
		records, err := det.MatchAndRecord(c.Context(), c.Params("id"))
		if errors.Is(err, performance.ErrSessionNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "session not found")
		}
		if errors.Is(err, performance.ErrInvalidState) {
			return fiber.NewError(fiber.StatusConflict, "session is not completed")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if records == nil {
			records = []performance.Record{}
		}
		return c.JSON(records)
	})

	r.Get("/:id/track", func(c *fiber.Ctx) error {
		samples, err := svc.Track(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(samples)
	})

	r.Get("/:id/summary", func(c *fiber.Ctx) error {
		summary, err := svc.Summary(c.Context(), c.Params("id"))
		if err != nil {
			return sessionError(err)
		}
		return c.JSON(summary)
	})
}

func sessionError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	case errors.Is(err, ErrInvalidState):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
