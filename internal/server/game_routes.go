package server

// RegisterGameRoutes registers the seed and session endpoints.
func (s *FiberServer) RegisterGameRoutes() {
	api := s.App.Group("/api/v1")

	gameAPI := api.Group("/game")
	gameAPI.Post("/seed", s.issueSeedHandler)
	gameAPI.Post("/session", s.submitSessionHandler)
	gameAPI.Get("/session/:id/debug", s.sessionDebugHandler)
}
