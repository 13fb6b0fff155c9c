package vehicle

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Vehicle
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.OwnerID == "" {
			req.OwnerID, _ = c.Locals("user_id").(string)
		}
		if req.OwnerID == "" || req.Make == "" || req.Model == "" {
			return fiber.NewError(fiber.StatusBadRequest, "owner_id, make and model required")
		}
		v, err := svc.Create(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(v)
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		ownerID, _ := c.Locals("user_id").(string)
		vehicles, err := svc.ByOwner(c.Context(), ownerID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(vehicles)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		v, err := svc.Get(c.Context(), c.Params("id"))
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "vehicle not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(v)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var req Vehicle
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		v, err := svc.Update(c.Context(), c.Params("id"), req)
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "vehicle not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(v)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
