package server

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"bridgeguard/internal/cache"
	"bridgeguard/internal/config"
	"bridgeguard/internal/database"
	"bridgeguard/internal/game"
)

type FiberServer struct {
	*fiber.App

	cfg       config.Config
	db        database.Service
	cache     cache.Service
	manager   *game.Manager
	hub       *game.Hub
	challenge *game.DailyStreakChallenge
}

// New connects to postgres and redis using the environment and starts the
// validation workers and the live feed hub. Redis is optional.
func New(cfg config.Config) (*FiberServer, error) {
	db := database.New()

	redisService := cache.New()
	if redisService == nil {
		log.Println("[SERVER] Redis unavailable: seed reuse is only caught by the database")
	}

	return NewWithDeps(cfg, db, redisService)
}

// NewWithDeps builds the server around the given stores. cacheSvc may be nil.
func NewWithDeps(cfg config.Config, db database.Service, cacheSvc cache.Service) (*FiberServer, error) {
	challenge, err := cfg.Challenge()
	if err != nil {
		return nil, err
	}

	service := game.NewSessionService(cfg.Game, nil, nil)
	manager := game.NewManager(service, []byte(cfg.SeedSecret), cfg.ManagerOptions())
	hub := game.NewHub()

	server := &FiberServer{
		App: fiber.New(fiber.Config{
			ServerHeader:  "bridgeguard",
			AppName:       "bridgeguard",
			ReadTimeout:   10 * time.Second,
			WriteTimeout:  10 * time.Second,
			IdleTimeout:   120 * time.Second,
			StrictRouting: false,
			BodyLimit:     1 * 1024 * 1024,
		}),

		cfg:       cfg,
		db:        db,
		cache:     cacheSvc,
		manager:   manager,
		hub:       hub,
		challenge: challenge,
	}

	// Apply global middleware
	server.App.Use(recover.New())
	server.App.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
	}))

	go hub.Run()
	manager.Start()

	if challenge != nil {
		log.Printf("[SERVER] Daily challenge %q active", challenge.ID)
	}
	log.Println("[SERVER] Session validator and live feed started")

	return server, nil
}

// Shutdown stops accepting requests, drains the validators and closes the
// stores.
func (s *FiberServer) Shutdown() error {
	log.Println("[SERVER] Shutting down...")

	err := s.App.ShutdownWithTimeout(10 * time.Second)

	if s.manager != nil {
		s.manager.Stop()
	}
	if s.hub != nil {
		s.hub.Stop()
	}

	// Close connections
	if s.cache != nil {
		s.cache.Close()
	}
	if s.db != nil {
		s.db.Close()
	}

	return err
}
