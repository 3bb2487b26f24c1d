package game

import (
	"math"
)

// EvaluateFraud runs the fraud battery in fixed priority order and returns
// the first reason that fires.
//
// Variance checks need at least two samples; shorter sessions pass them
// vacuously. An empty session and dying on the first move are both
// legitimate.
func EvaluateFraud(user User, trace *ReplayTrace, session SessionData, cfg Config) (bool, FraudReason) {
	moves := session.Moves

	if user.IsBlackListed {
		return true, FraudUserBlackListed
	}
	if !itemsOwned(user, session.UsedItems) {
		return true, FraudInvalidItemUsed
	}
	if trace == nil || !movesWellFormed(moves, cfg) {
		return true, FraudInvalidData
	}

	for _, mv := range moves {
		if mv.Duration < cfg.MinBridgeDuration {
			return true, FraudTooFastBridge
		}
	}

	for i := 1; i < len(moves); i++ {
		if moves[i].IdleDurationMs < cfg.MinTimeBetweenMoves {
			return true, FraudTooFastBetweenMoves
		}
	}

	// rate is over submitted moves, so moves after an early miss dilute it
	total := len(moves)
	if total > 0 && total >= cfg.MinMovesForPerfectRate {
		if float64(trace.PerfectCount)/float64(total) > cfg.MaxPerfectRate {
			return true, FraudPerfectRateTooHigh
		}
	}

	if longestPerfectRun(trace.Steps) > cfg.MaxConsecutivePerfect {
		return true, FraudTooManyConsecutivePerfect
	}

	durations := make([]float64, len(moves))
	for i, mv := range moves {
		durations[i] = mv.Duration
	}
	// move 0's idle is the wait before play starts, not a gap between moves
	var gaps []float64
	for i := 1; i < len(moves); i++ {
		gaps = append(gaps, moves[i].IdleDurationMs)
	}

	if v, ok := sampleVariance(durations); ok && v < cfg.MinVarianceInDuration {
		return true, FraudDurationVarianceTooLow
	}
	if v, ok := sampleVariance(gaps); ok && v < cfg.MinVarianceInDuration {
		return true, FraudTimingVarianceTooLow
	}

	return false, FraudNone
}

func itemsOwned(user User, used []ItemVariant) bool {
	if len(used) == 0 {
		return true
	}
	counts := make(map[string]int, len(used))
	for _, item := range used {
		if item.ItemID == "" {
			return false
		}
		counts[item.ItemID]++
	}
	for id, n := range counts {
		if user.Inventory[id] < n {
			return false
		}
	}
	return true
}

func movesWellFormed(moves []Move, cfg Config) bool {
	if len(moves) > cfg.MaxMoves {
		return false
	}
	for i, mv := range moves {
		if !finiteNonNegative(mv.StartTime) ||
			!finiteNonNegative(mv.Duration) ||
			!finiteNonNegative(mv.IdleDurationMs) {
			return false
		}
		if i > 0 && mv.StartTime <= moves[i-1].StartTime {
			return false
		}
	}
	return true
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func longestPerfectRun(steps []ReplayStep) int {
	longest, run := 0, 0
	for _, s := range steps {
		if s.IsPerfect {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	return longest
}

// sampleVariance is the n-1 variance in squared input units.
func sampleVariance(values []float64) (float64, bool) {
	n := len(values)
	if n < 2 {
		return 0, false
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(n-1), true
}
