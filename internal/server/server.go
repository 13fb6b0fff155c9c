package server

import (
	"github.com/Neoznzoe/drivr/internal/auth"
	"github.com/Neoznzoe/drivr/internal/config"
	"github.com/Neoznzoe/drivr/internal/performance"
	"github.com/Neoznzoe/drivr/internal/segment"
	"github.com/Neoznzoe/drivr/internal/session"
	"github.com/Neoznzoe/drivr/internal/social"
	"github.com/Neoznzoe/drivr/internal/stream"
	"github.com/Neoznzoe/drivr/internal/vehicle"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	catalog := segment.NewService(s.DB)
	bestCache := performance.NewCache(s.Redis)
	records := performance.NewService(s.DB, bestCache)
	detector := performance.NewDetector(s.DB, catalog, records, s.Stream)

	var invalidator segment.BestCache
	if bestCache != nil {
		invalidator = bestCache
	}

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	vehicle.RegisterRoutes(s.App.Group("/vehicles"), vehicle.NewService(s.DB), jwtMiddleware)
	session.RegisterRoutes(s.App.Group("/sessions"), session.NewService(s.DB, s.Stream), detector, jwtMiddleware)

	segments := s.App.Group("/segments")
	segment.RegisterRoutes(segments, catalog, invalidator, jwtMiddleware)
	performance.RegisterRoutes(segments, records, jwtMiddleware)

	social.RegisterRoutes(s.App.Group("/social"), social.NewService(s.DB), jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
