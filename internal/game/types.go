package game

import (
	"fmt"
)

// Platform is a landing zone. X, InitialX, RangeMin and RangeMax all refer
// to the platform's left edge.
type Platform struct {
	Index    uint32  `json:"index"`
	X        float64 `json:"x"`
	Width    float64 `json:"width"`
	IsMoving bool    `json:"isMoving"`
	Velocity float64 `json:"velocity"`
	RangeMin float64 `json:"rangeMin"`
	RangeMax float64 `json:"rangeMax"`
	InitialX float64 `json:"initialX"`
}

// Right returns the right edge of the platform at its nominal position.
func (p Platform) Right() float64 {
	return p.X + p.Width
}

// PlatformDraw records the raw RNG values consumed for one generated platform.
type PlatformDraw struct {
	Index         uint32  `json:"index"`
	GapRoll       float64 `json:"gapRoll"`
	WidthRoll     float64 `json:"widthRoll"`
	MoveRoll      float64 `json:"moveRoll"`
	DirectionRoll float64 `json:"directionRoll"`
	Gap           int     `json:"gap"`
	Width         int     `json:"width"`
	Range         int     `json:"range"`
	Direction     int     `json:"direction"`
}

// Move is one client-submitted input. All values are milliseconds.
type Move struct {
	StartTime      float64 `json:"startTime"`
	Duration       float64 `json:"duration"`
	IdleDurationMs float64 `json:"idleDurationMs"`
}

type ItemVariant struct {
	ItemID  string `json:"itemId"`
	Variant string `json:"variant,omitempty"`
}

// User is the slice of the external user record the engine needs.
type User struct {
	ID            string         `json:"id"`
	IsBlackListed bool           `json:"isBlackListed"`
	Streak        int            `json:"streak"`
	Points        uint64         `json:"points"`
	Inventory     map[string]int `json:"inventory,omitempty"`
}

type SessionData struct {
	Seed      string        `json:"seed"`
	Signature string        `json:"signature"`
	Moves     []Move        `json:"moves"`
	UsedItems []ItemVariant `json:"usedItems"`
}

type SeedPair struct {
	Seed      string `json:"seed"`
	Signature string `json:"signature"`
}

// ReplayStep is the outcome of simulating a single move.
type ReplayStep struct {
	MoveIndex        int     `json:"moveIndex"`
	PlatformIndex    uint32  `json:"platformIndex"`
	BridgeLength     float64 `json:"bridgeLength"`
	StickEnd         float64 `json:"stickEnd"`
	PlatformX        float64 `json:"platformX"`
	DistanceToCenter float64 `json:"distanceToCenter"`
	IsPerfect        bool    `json:"isPerfect"`
	Hit              bool    `json:"hit"`
	PointsAwarded    int     `json:"pointsAwarded"`
}

// ReplayTrace is the reconstructed record of a session. It is never
// mutated after Replay returns it.
type ReplayTrace struct {
	Steps        []ReplayStep `json:"steps"`
	BlocksPassed int          `json:"blocksPassed"`
	Score        int          `json:"score"`
	PerfectCount int          `json:"perfectCount"`
	TimePlayed   float64      `json:"timePlayed"`
	IgnoredMoves int          `json:"ignoredMoves"`
}

type SessionValidationResult struct {
	TimePlayed   float64     `json:"timePlayed"`
	Score        int         `json:"score"`
	BlocksPassed int         `json:"blocksPassed"`
	PerfectCount int         `json:"perfectCount"`
	IsFraud      bool        `json:"isFraud"`
	FraudReason  FraudReason `json:"fraudReason"`
}

// SessionOutcome is what ValidateSession hands back to the caller layer.
type SessionOutcome struct {
	Result                   SessionValidationResult `json:"result"`
	StreakChallengeCompleted bool                    `json:"streakChallengeCompleted"`
	Trace                    *ReplayTrace            `json:"trace,omitempty"`
	Draws                    []PlatformDraw          `json:"draws,omitempty"`
	Platforms                []Platform              `json:"platforms,omitempty"`
}

// DebugPayload exposes everything needed to diagnose client/server divergence.
type DebugPayload struct {
	Trace     *ReplayTrace   `json:"trace"`
	Draws     []PlatformDraw `json:"draws"`
	Platforms []Platform     `json:"platforms"`
}

// Debug builds the divergence-diagnosis payload for the outcome.
func (o *SessionOutcome) Debug() *DebugPayload {
	if o == nil {
		return nil
	}
	return &DebugPayload{Trace: o.Trace, Draws: o.Draws, Platforms: o.Platforms}
}

// FraudReason is a closed set of verdicts; exactly one is attached to a
// fraudulent session.
type FraudReason uint8

const (
	FraudNone FraudReason = iota
	FraudInvalidItemUsed
	FraudInvalidData
	FraudTooFastBridge
	FraudTooFastBetweenMoves
	FraudPerfectRateTooHigh
	FraudTooManyConsecutivePerfect
	FraudDurationVarianceTooLow
	FraudTimingVarianceTooLow
	FraudUserBlackListed

	fraudReasonCount
)

var fraudReasonNames = [fraudReasonCount]string{
	FraudNone:                      "NONE",
	FraudInvalidItemUsed:           "INVALID_ITEM_USED",
	FraudInvalidData:               "INVALID_DATA",
	FraudTooFastBridge:             "TOO_FAST_BRIDGE",
	FraudTooFastBetweenMoves:       "TOO_FAST_BETWEEN_MOVES",
	FraudPerfectRateTooHigh:        "PERFECT_RATE_TOO_HIGH",
	FraudTooManyConsecutivePerfect: "TOO_MANY_CONSECUTIVE_PERFECT",
	FraudDurationVarianceTooLow:    "DURATION_VARIANCE_TOO_LOW",
	FraudTimingVarianceTooLow:      "TIMING_VARIANCE_TOO_LOW",
	FraudUserBlackListed:           "USER_BLACK_LISTED",
}

// AllFraudReasons lists every reason in declaration order.
func AllFraudReasons() []FraudReason {
	out := make([]FraudReason, 0, fraudReasonCount)
	for r := FraudNone; r < fraudReasonCount; r++ {
		out = append(out, r)
	}
	return out
}

func (r FraudReason) Valid() bool {
	return r < fraudReasonCount
}

func (r FraudReason) String() string {
	if !r.Valid() {
		return fmt.Sprintf("FraudReason(%d)", uint8(r))
	}
	return fraudReasonNames[r]
}

func (r FraudReason) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid fraud reason %d", uint8(r))
	}
	return []byte(fraudReasonNames[r]), nil
}

func (r *FraudReason) UnmarshalText(text []byte) error {
	for i, name := range fraudReasonNames {
		if name == string(text) {
			*r = FraudReason(i)
			return nil
		}
	}
	return fmt.Errorf("unknown fraud reason %q", string(text))
}
