package server

import (
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/gofiber/contrib/websocket"

	"bridgeguard/internal/game"
)

func (s *FiberServer) RegisterFiberRoutes() {
	// Apply CORS middleware
	s.App.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Accept,Authorization,Content-Type",
		AllowCredentials: false, // credentials require explicit origins
		MaxAge:           300,
	}))

	s.App.Get("/health", s.healthHandler)

	s.RegisterGameRoutes()

	s.App.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.App.Get("/ws", websocket.New(s.liveFeedHandler))
}

func (s *FiberServer) healthHandler(c *fiber.Ctx) error {
	health := fiber.Map{
		"game": fiber.Map{
			"status":            "running",
			"connected_clients": s.hub.GetClientCount(),
		},
	}
	if s.db != nil {
		health["database"] = s.db.Health()
	}
	if s.cache != nil {
		health["cache"] = s.cache.Health()
	} else {
		health["cache"] = fiber.Map{"status": "disabled"}
	}
	return c.JSON(health)
}

// liveFeedHandler streams session_validated events to the client.
func (s *FiberServer) liveFeedHandler(conn *websocket.Conn) {
	userID := conn.Query("user_id", "anonymous")

	log.Printf("[WS] New connection from user: %s", userID)

	client := s.hub.RegisterClient(conn, userID)
	if client == nil {
		return
	}

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			log.Printf("[WS] Read error for user %s: %v", userID, err)
			s.hub.UnregisterClient(conn)
			break
		}

		if messageType != websocket.TextMessage {
			continue
		}

		var clientMsg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			continue
		}

		if clientMsg.Type == "ping" {
			client.Reply(game.WSMessage{Type: game.EVENT_PONG})
		}
	}
}
