package game

import (
	"math"
)

// Replay re-simulates moves against platforms. Move i targets platform
// i+1; the first miss ends the simulation and the remaining moves are only
// counted as ignored. The result depends on nothing but its arguments.
func Replay(platforms []Platform, moves []Move, cfg Config) *ReplayTrace {
	trace := &ReplayTrace{Steps: make([]ReplayStep, 0, len(moves))}
	if len(platforms) == 0 {
		trace.IgnoredMoves = len(moves)
		return trace
	}

	standingRight := platforms[0].Right()

	for i, mv := range moves {
		if i+1 >= len(platforms) {
			trace.IgnoredMoves = len(moves) - i
			break
		}
		target := platforms[i+1]

		length := bridgeLength(mv.Duration, cfg)

		// The target starts moving once it becomes the next platform, so it
		// has been in motion for the idle time plus the hold time.
		left := target.PositionAt(mv.IdleDurationMs + mv.Duration)
		right := left + target.Width
		center := left + target.Width/2

		stickEnd := standingRight + length
		distance := math.Abs(stickEnd - center)

		hit := stickEnd >= left+cfg.HeroMinLandingDistance &&
			stickEnd <= right-cfg.HeroMinLandingDistance
		perfect := hit && distance <= cfg.PerfectTolerance

		points := 0
		if hit {
			points = cfg.ScoreMultiplier
			if perfect {
				points += cfg.PerfectBonus
			}
		}

		trace.Steps = append(trace.Steps, ReplayStep{
			MoveIndex:        i,
			PlatformIndex:    target.Index,
			BridgeLength:     length,
			StickEnd:         stickEnd,
			PlatformX:        left,
			DistanceToCenter: distance,
			IsPerfect:        perfect,
			Hit:              hit,
			PointsAwarded:    points,
		})

		if !hit {
			trace.IgnoredMoves = len(moves) - i - 1
			break
		}

		trace.BlocksPassed++
		trace.Score += points
		if perfect {
			trace.PerfectCount++
		}
		// A landed platform stops where it was caught.
		standingRight = right
	}

	trace.TimePlayed = timePlayed(moves)
	return trace
}

func bridgeLength(duration float64, cfg Config) float64 {
	if !(duration > 0) {
		return 0
	}
	return math.Min(duration*cfg.GrowSpeed, cfg.MaxBridgeLength)
}

// timePlayed is last.start + last.duration - first.start - first.idle,
// floored at zero.
func timePlayed(moves []Move) float64 {
	if len(moves) == 0 {
		return 0
	}
	first := moves[0]
	last := moves[len(moves)-1]
	t := last.StartTime + last.Duration - first.StartTime - first.IdleDurationMs
	if !(t > 0) || math.IsInf(t, 0) {
		return 0
	}
	return t
}
