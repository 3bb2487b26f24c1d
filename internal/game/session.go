package game

// SessionService composes seed verification, generation, replay, fraud
// detection and the streak challenge. It holds no per-session state and is
// safe for concurrent use.
type SessionService struct {
	cfg       Config
	generator PlatformGenerator
	replayer  Replayer
}

// NewSessionService wires the production generator and replayer when nil is
// passed for either.
func NewSessionService(cfg Config, generator PlatformGenerator, replayer Replayer) *SessionService {
	if generator == nil {
		generator = NewSeededGenerator(cfg)
	}
	if replayer == nil {
		replayer = NewPhysicsReplayer(cfg)
	}
	return &SessionService{cfg: cfg, generator: generator, replayer: replayer}
}

func (s *SessionService) Config() Config {
	return s.cfg
}

func (s *SessionService) IssueSeed(secret []byte) (SeedPair, error) {
	return IssueSeed(secret)
}

// ValidateSession verifies the seed signature, replays the moves and runs
// fraud detection. A bad signature short-circuits to INVALID_DATA without
// generating or replaying anything. The only error returned comes from the
// challenge predicate. Points are left to the caller.
func (s *SessionService) ValidateSession(user User, session SessionData, challenge *DailyStreakChallenge, secret []byte) (*SessionOutcome, error) {
	if !VerifySeed(session.Seed, session.Signature, secret) {
		return invalidData(), nil
	}
	if len(session.Moves) > s.cfg.MaxMoves {
		return invalidData(), nil
	}

	seed, err := DecodeHex32(session.Seed)
	if err != nil {
		return invalidData(), nil
	}

	platforms, draws := s.generator.Generate(seed, len(session.Moves))
	trace := s.replayer.Replay(platforms, session.Moves)

	outcome := &SessionOutcome{
		Result: SessionValidationResult{
			TimePlayed:   trace.TimePlayed,
			Score:        trace.Score,
			BlocksPassed: trace.BlocksPassed,
			PerfectCount: trace.PerfectCount,
		},
		Trace:     trace,
		Draws:     draws,
		Platforms: platforms,
	}

	if isFraud, reason := EvaluateFraud(user, trace, session, s.cfg); isFraud {
		outcome.Result.IsFraud = true
		outcome.Result.FraudReason = reason
		if s.cfg.ZeroScoreOnFraud {
			outcome.Result.Score = 0
			outcome.Result.BlocksPassed = 0
		}
		return outcome, nil
	}

	completed, err := CheckChallenge(challenge, outcome.Result)
	if err != nil {
		return nil, err
	}
	outcome.StreakChallengeCompleted = completed

	return outcome, nil
}

func invalidData() *SessionOutcome {
	return &SessionOutcome{
		Result: SessionValidationResult{
			IsFraud:     true,
			FraudReason: FraudInvalidData,
		},
	}
}
