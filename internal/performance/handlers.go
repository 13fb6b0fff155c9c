package performance

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the leaderboard reads under the segments group.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/:id/leaderboard", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", defaultLeaderboardLimit)
		offset := c.QueryInt("offset", 0)
		board, err := svc.Leaderboard(c.Context(), c.Params("id"), limit, offset)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if board == nil {
			board = []RankedPerformance{}
		}
		return c.JSON(board)
	})

	r.Get("/:id/records", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing user")
		}
		records, err := svc.UserRecords(c.Context(), c.Params("id"), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if records == nil {
			records = []Record{}
		}
		return c.JSON(records)
	})

	r.Get("/:id/best", func(c *fiber.Ctx) error {
		if svc.cache == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "best-time cache disabled")
		}
		userID, durationS, ok, err := svc.cache.Best(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no recorded time")
		}
		return c.JSON(fiber.Map{"user_id": userID, "duration_s": durationS})
	})
}
