package game

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var ErrNegativeScoringInput = errors.New("scoring input must not be negative")

// ScoringError reports a scoring call that would have produced a negative
// point delta. It is a caller bug, not a fraud verdict.
type ScoringError struct {
	BlocksPassed int
	Streak       int
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("cannot score blocksPassed=%d streak=%d: %v", e.BlocksPassed, e.Streak, ErrNegativeScoringInput)
}

func (e *ScoringError) Unwrap() error {
	return ErrNegativeScoringInput
}

// StreakBoost is min(0.5, ln(streak+1)/7).
func StreakBoost(streak int) float64 {
	if streak <= 0 {
		return 0
	}
	return math.Min(MaxStreakBoost, math.Log(float64(streak)+1)/StreakBoostDivisor)
}

// ToPoints converts blocks passed into points, boosted by the user's streak.
func ToPoints(blocksPassed, streak int, cfg Config) (uint64, error) {
	if blocksPassed < 0 || streak < 0 {
		return 0, &ScoringError{BlocksPassed: blocksPassed, Streak: streak}
	}

	base := decimal.NewFromInt(int64(blocksPassed)).
		Mul(decimal.NewFromInt(int64(cfg.ScoreMultiplier))).
		Mul(decimal.NewFromFloat(cfg.PointRate)).
		Floor()
	if base.IsNegative() {
		return 0, &ScoringError{BlocksPassed: blocksPassed, Streak: streak}
	}

	boost := decimal.NewFromFloat(StreakBoost(streak))
	final := base.Add(base.Mul(boost)).Floor()

	return uint64(final.IntPart()), nil
}
