package social

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/follow", authMiddleware, func(c *fiber.Ctx) error {
		var body Follow
		if err := c.BodyParser(&body); err != nil || body.FollowingID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "following_id required")
		}
		if body.FollowerID == "" {
			body.FollowerID, _ = c.Locals("user_id").(string)
		}
		if err := svc.Follow(c.Context(), body.FollowerID, body.FollowingID); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusCreated)
	})

	r.Delete("/follow/:followingID", authMiddleware, func(c *fiber.Ctx) error {
		followerID, _ := c.Locals("user_id").(string)
		if err := svc.Unfollow(c.Context(), followerID, c.Params("followingID")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/sessions/:id/likes", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if err := svc.Like(c.Context(), c.Params("id"), userID); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusCreated)
	})

	r.Delete("/sessions/:id/likes", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if err := svc.Unlike(c.Context(), c.Params("id"), userID); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/sessions/:id/comments", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Body string `json:"body"`
		}
		if err := c.BodyParser(&body); err != nil || body.Body == "" {
			return fiber.NewError(fiber.StatusBadRequest, "body required")
		}
		userID, _ := c.Locals("user_id").(string)
		comment, err := svc.AddComment(c.Context(), Comment{
			SessionID: c.Params("id"),
			UserID:    userID,
			Body:      body.Body,
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(comment)
	})

	r.Get("/sessions/:id/comments", func(c *fiber.Ctx) error {
		comments, err := svc.Comments(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(comments)
	})

	r.Post("/sessions/:id/photos", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			URL string `json:"photo_url"`
		}
		if err := c.BodyParser(&body); err != nil || body.URL == "" {
			return fiber.NewError(fiber.StatusBadRequest, "photo_url required")
		}
		photo, err := svc.AddPhoto(c.Context(), c.Params("id"), body.URL)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(photo)
	})

	r.Get("/sessions/:id/photos", func(c *fiber.Ctx) error {
		photos, err := svc.Photos(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(photos)
	})

	r.Get("/feed", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		feed, err := svc.Feed(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(feed)
	})
}
