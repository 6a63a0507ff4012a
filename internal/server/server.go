package server

import (
	"backend-logistics/internal/clients"
	"backend-logistics/internal/config"
	"backend-logistics/internal/distance"
	"backend-logistics/internal/maps"
	"backend-logistics/internal/pricing"
	"backend-logistics/internal/route"
	"backend-logistics/internal/stream"

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

	var provider distance.Provider
	if s.Cfg.MapsEnabled {
		provider = maps.NewClient(s.Cfg.MapsAPIKey, s.Cfg.MapsBaseURL, s.Cfg.HTTPTimeout())
	}
	distances := distance.NewEstimator(provider, s.Cfg.MapsEnabled, distance.NewCache(s.Redis, 0))

	tariffs := clients.NewTariffClient(s.Cfg.TariffsURL, s.Cfg.HTTPTimeout())
	shipments := clients.NewShipmentClient(s.Cfg.ShipmentsURL, s.Cfg.HTTPTimeout())
	vehicles := clients.NewVehicleClient(s.Cfg.VehiclesURL, s.Cfg.HTTPTimeout())

	routes := route.NewService(s.DB, distances, pricing.NewEstimator(tariffs), shipments, vehicles, s.Stream)
	route.RegisterRoutes(s.App, routes)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
