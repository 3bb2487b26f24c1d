package game

import (
	"errors"
	"fmt"
)

// Config carries every tunable of the generator, the replay physics, the
// fraud thresholds and scoring. Distances are pixels, times are
// milliseconds, speeds are pixels per millisecond.
type Config struct {
	PlatformStartWidth   int     `config:"PLATFORM_START_WIDTH"`
	PlatformMinGap       int     `config:"PLATFORM_MIN_GAP"`
	PlatformMaxGap       int     `config:"PLATFORM_MAX_GAP"`
	PlatformMinWidth     int     `config:"PLATFORM_MIN_WIDTH"`
	PlatformMaxWidth     int     `config:"PLATFORM_MAX_WIDTH"`
	PlatformMoveChance   float64 `config:"PLATFORM_MOVE_CHANCE"`
	PlatformMoveVelocity float64 `config:"PLATFORM_MOVE_VELOCITY"`
	PlatformMoveMinRange int     `config:"PLATFORM_MOVE_MIN_RANGE"`
	PlatformMoveMaxRange int     `config:"PLATFORM_MOVE_MAX_RANGE"`

	GrowSpeed              float64 `config:"GROW_SPEED"`
	MaxBridgeLength        float64 `config:"MAX_BRIDGE_LENGTH"`
	HeroMinLandingDistance float64 `config:"HERO_MIN_LANDING_DISTANCE"`
	PerfectTolerance       float64 `config:"PERFECT_TOLERANCE"`
	ScoreMultiplier        int     `config:"SCORE_MULTIPLIER"`
	PerfectBonus           int     `config:"PERFECT_BONUS"`

	MinBridgeDuration      float64 `config:"MIN_BRIDGE_DURATION"`
	MinTimeBetweenMoves    float64 `config:"MIN_TIME_BETWEEN_MOVES"`
	MaxPerfectRate         float64 `config:"MAX_PERFECT_RATE"`
	MinMovesForPerfectRate int     `config:"MIN_MOVES_FOR_PERFECT_RATE"`
	MaxConsecutivePerfect  int     `config:"MAX_CONSECUTIVE_PERFECT"`
	MinVarianceInDuration  float64 `config:"MIN_VARIANCE_IN_DURATION"`
	MaxMoves               int     `config:"MAX_MOVES"`

	PointRate float64 `config:"POINT_RATE"`

	// ZeroScoreOnFraud selects what a fraud-flagged session reports: true
	// zeroes score and blocks passed, false keeps the replayed values.
	ZeroScoreOnFraud bool `config:"ZERO_SCORE_ON_FRAUD"`
}

const (
	MaxStreakBoost     = 0.5
	StreakBoostDivisor = 7.0
)

// DefaultConfig returns the shipped values.
func DefaultConfig() Config {
	return Config{
		PlatformStartWidth:   100,
		PlatformMinGap:       40,
		PlatformMaxGap:       240,
		PlatformMinWidth:     30,
		PlatformMaxWidth:     100,
		PlatformMoveChance:   0.2,
		PlatformMoveVelocity: 0.05,
		PlatformMoveMinRange: 20,
		PlatformMoveMaxRange: 60,

		GrowSpeed:              0.4,
		MaxBridgeLength:        600,
		HeroMinLandingDistance: 2,
		PerfectTolerance:       3,
		ScoreMultiplier:        1,
		PerfectBonus:           1,

		MinBridgeDuration:      50,
		MinTimeBetweenMoves:    100,
		MaxPerfectRate:         0.85,
		MinMovesForPerfectRate: 5,
		MaxConsecutivePerfect:  10,
		MinVarianceInDuration:  20,
		MaxMoves:               5000,

		PointRate: 10,

		ZeroScoreOnFraud: true,
	}
}

var ErrInvalidConfig = errors.New("invalid game config")

// Validate rejects configurations the generator or replay cannot honour.
func (c Config) Validate() error {
	switch {
	case c.PlatformStartWidth <= 0:
		return fmt.Errorf("%w: platform start width must be positive", ErrInvalidConfig)
	case c.PlatformMinGap < 0 || c.PlatformMinGap > c.PlatformMaxGap:
		return fmt.Errorf("%w: gap range [%d, %d]", ErrInvalidConfig, c.PlatformMinGap, c.PlatformMaxGap)
	case c.PlatformMinWidth <= 0 || c.PlatformMinWidth > c.PlatformMaxWidth:
		return fmt.Errorf("%w: width range [%d, %d]", ErrInvalidConfig, c.PlatformMinWidth, c.PlatformMaxWidth)
	case c.PlatformMoveMinRange < 0 || c.PlatformMoveMinRange > c.PlatformMoveMaxRange:
		return fmt.Errorf("%w: move range [%d, %d]", ErrInvalidConfig, c.PlatformMoveMinRange, c.PlatformMoveMaxRange)
	case c.PlatformMoveChance < 0 || c.PlatformMoveChance > 1:
		return fmt.Errorf("%w: move chance %v outside [0, 1]", ErrInvalidConfig, c.PlatformMoveChance)
	case c.GrowSpeed <= 0 || c.MaxBridgeLength <= 0:
		return fmt.Errorf("%w: grow speed and max bridge length must be positive", ErrInvalidConfig)
	case c.PerfectTolerance < 0 || c.HeroMinLandingDistance < 0:
		return fmt.Errorf("%w: negative landing tolerance", ErrInvalidConfig)
	case c.MaxPerfectRate < 0 || c.MaxPerfectRate > 1:
		return fmt.Errorf("%w: max perfect rate %v outside [0, 1]", ErrInvalidConfig, c.MaxPerfectRate)
	case c.MaxMoves <= 0:
		return fmt.Errorf("%w: max moves must be positive", ErrInvalidConfig)
	case c.ScoreMultiplier < 0 || c.PerfectBonus < 0 || c.PointRate < 0:
		return fmt.Errorf("%w: negative scoring constant", ErrInvalidConfig)
	}
	return nil
}
