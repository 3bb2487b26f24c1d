package server

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"bridgeguard/internal/cache"
	"bridgeguard/internal/database"
	"bridgeguard/internal/game"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type SubmitSessionRequest struct {
	UserID      string           `json:"userId"`
	SessionData game.SessionData `json:"sessionData"`
	Debug       bool             `json:"debug"`
}

type SubmitSessionResponse struct {
	SessionID                string             `json:"sessionId"`
	SessionScore             int                `json:"sessionScore"`
	BlocksPassed             int                `json:"blocksPassed"`
	PointsEarned             uint64             `json:"pointsEarned"`
	TotalPoints              uint64             `json:"totalPoints"`
	IsFraud                  bool               `json:"isFraud"`
	FraudReason              game.FraudReason   `json:"fraudReason"`
	StreakChallengeCompleted bool               `json:"streakChallengeCompleted"`
	Debug                    *game.DebugPayload `json:"debug,omitempty"`
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(APIResponse{Success: false, Message: message})
}

// issueSeedHandler hands out a fresh signed seed for a new session.
func (s *FiberServer) issueSeedHandler(c *fiber.Ctx) error {
	pair, err := s.manager.IssueSeed()
	if err != nil {
		log.Printf("[SESSION] Seed issue failed: %v", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to issue seed")
	}
	return c.JSON(APIResponse{Success: true, Message: "Seed issued", Data: pair})
}

// submitSessionHandler validates a finished session, credits points and
// records it.
func (s *FiberServer) submitSessionHandler(c *fiber.Ctx) error {
	var req SubmitSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.UserID == "" {
		return fail(c, fiber.StatusBadRequest, "User ID is required")
	}

	ctx := c.UserContext()

	user, err := s.db.GetUser(ctx, req.UserID)
	if errors.Is(err, database.ErrUserNotFound) {
		return fail(c, fiber.StatusNotFound, "User not found")
	}
	if err != nil {
		log.Printf("[SESSION] Load user %s failed: %v", req.UserID, err)
		return fail(c, fiber.StatusInternalServerError, "Failed to load user")
	}

	outcome, err := s.manager.Validate(ctx, user, req.SessionData, s.challenge)
	if err != nil {
		return s.validationError(c, err)
	}

	// A nil trace means the seed never verified, so there is nothing to
	// claim, persist or inspect.
	replayed := outcome.Trace != nil

	if replayed && s.cache != nil {
		claimed, err := s.cache.ClaimSeed(ctx, req.SessionData.Seed, s.cfg.SeedTTL())
		if err != nil {
			log.Printf("[CACHE] Seed claim failed, relying on database: %v", err)
		} else if !claimed {
			s.markSeedReused(outcome)
		}
	}

	points, err := s.pointsFor(user, outcome)
	if err != nil {
		var scoringErr *game.ScoringError
		if errors.As(err, &scoringErr) {
			return fail(c, fiber.StatusUnprocessableEntity, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to compute points")
	}

	sessionID := uuid.NewString()
	total := user.Points

	if replayed {
		total, err = s.db.ApplySessionOutcome(ctx, database.SessionRecord{
			SessionID:                sessionID,
			UserID:                   user.ID,
			Seed:                     req.SessionData.Seed,
			Result:                   outcome.Result,
			PointsEarned:             points,
			StreakChallengeCompleted: outcome.StreakChallengeCompleted,
			UsedItems:                req.SessionData.UsedItems,
		})
		switch {
		case errors.Is(err, database.ErrSeedAlreadyUsed):
			s.markSeedReused(outcome)
			points, total = 0, user.Points
		case errors.Is(err, database.ErrUserNotFound):
			return fail(c, fiber.StatusNotFound, "User not found")
		case err != nil:
			log.Printf("[DB] Apply session %s failed: %v", sessionID, err)
			return fail(c, fiber.StatusInternalServerError, "Failed to record session")
		}

		s.storeDebugTrace(ctx, sessionID, outcome)
	}

	if outcome.Result.IsFraud {
		log.Printf("[SESSION] User %s session %s flagged: %s", user.ID, sessionID, outcome.Result.FraudReason)
	}

	s.hub.PublishSession(game.SessionEvent{
		SessionID:                sessionID,
		UserID:                   user.ID,
		Score:                    outcome.Result.Score,
		BlocksPassed:             outcome.Result.BlocksPassed,
		PointsEarned:             points,
		IsFraud:                  outcome.Result.IsFraud,
		FraudReason:              outcome.Result.FraudReason,
		StreakChallengeCompleted: outcome.StreakChallengeCompleted,
	})

	resp := SubmitSessionResponse{
		SessionID:                sessionID,
		SessionScore:             outcome.Result.Score,
		BlocksPassed:             outcome.Result.BlocksPassed,
		PointsEarned:             points,
		TotalPoints:              total,
		IsFraud:                  outcome.Result.IsFraud,
		FraudReason:              outcome.Result.FraudReason,
		StreakChallengeCompleted: outcome.StreakChallengeCompleted,
	}
	if req.Debug {
		resp.Debug = outcome.Debug()
	}

	return c.JSON(APIResponse{Success: true, Message: "Session validated", Data: resp})
}

// sessionDebugHandler returns the stored trace and RNG draws of a session.
func (s *FiberServer) sessionDebugHandler(c *fiber.Ctx) error {
	if s.cache == nil {
		return fail(c, fiber.StatusServiceUnavailable, "Debug traces are unavailable")
	}

	payload, err := s.cache.GetDebugTrace(c.UserContext(), c.Params("id"))
	if errors.Is(err, cache.ErrDebugTraceNotFound) {
		return fail(c, fiber.StatusNotFound, "Debug trace not found")
	}
	if err != nil {
		log.Printf("[CACHE] Load debug trace failed: %v", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to load debug trace")
	}

	return c.JSON(APIResponse{Success: true, Message: "Debug trace", Data: payload})
}

func (s *FiberServer) validationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, game.ErrQueueFull), errors.Is(err, game.ErrManagerStopped):
		return fail(c, fiber.StatusServiceUnavailable, "Validator is busy, retry later")
	case errors.Is(err, game.ErrValidationTimeout), errors.Is(err, context.DeadlineExceeded):
		return fail(c, fiber.StatusGatewayTimeout, "Validation timed out")
	default:
		log.Printf("[SESSION] Validation failed: %v", err)
		return fail(c, fiber.StatusInternalServerError, "Validation failed")
	}
}

// pointsFor computes the points a session earns. Fraud earns nothing; a
// completed challenge counts toward the streak before the boost applies.
func (s *FiberServer) pointsFor(user game.User, outcome *game.SessionOutcome) (uint64, error) {
	if outcome.Result.IsFraud {
		return 0, nil
	}
	streak := user.Streak
	if outcome.StreakChallengeCompleted {
		streak++
	}
	return game.ToPoints(outcome.Result.BlocksPassed, streak, s.cfg.Game)
}

func (s *FiberServer) markSeedReused(outcome *game.SessionOutcome) {
	outcome.Result.IsFraud = true
	outcome.Result.FraudReason = game.FraudInvalidData
	if s.cfg.Game.ZeroScoreOnFraud {
		outcome.Result.Score = 0
		outcome.Result.BlocksPassed = 0
	}
	outcome.StreakChallengeCompleted = false
}

func (s *FiberServer) storeDebugTrace(ctx context.Context, sessionID string, outcome *game.SessionOutcome) {
	if s.cache == nil {
		return
	}
	if err := s.cache.StoreDebugTrace(ctx, sessionID, outcome.Debug(), s.cfg.DebugTraceTTL()); err != nil {
		log.Printf("[CACHE] Store debug trace %s failed: %v", sessionID, err)
	}
}
