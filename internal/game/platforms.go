package game

import (
	"math"
)

// GeneratePlatforms returns platform 0 followed by count generated platforms.
func GeneratePlatforms(seed []byte, count int, cfg Config) []Platform {
	platforms, _ := GeneratePlatformsWithDraws(seed, count, cfg)
	return platforms
}

// GeneratePlatformsWithDraws is GeneratePlatforms plus the raw draws behind
// every generated platform.
//
// Each platform consumes four draws, always in this order and always all
// four, so that the stream stays aligned with the client generator:
//
//	gap, width, move roll, direction roll
//
// The direction roll also supplies the oscillation range: its lower half
// means leftwards, and its position inside the half picks the range.
func GeneratePlatformsWithDraws(seed []byte, count int, cfg Config) ([]Platform, []PlatformDraw) {
	if count < 0 {
		count = 0
	}

	platforms := make([]Platform, 0, count+1)
	draws := make([]PlatformDraw, 0, count)

	start := float64(cfg.PlatformStartWidth)
	platforms = append(platforms, Platform{
		Index:    0,
		X:        0,
		Width:    start,
		InitialX: 0,
		RangeMin: 0,
		RangeMax: 0,
	})

	bg := NewByteGenerator(seed, platformStreamLabel)

	for i := 1; i <= count; i++ {
		prev := platforms[i-1]

		gap, gapRoll := bg.IntBetween(cfg.PlatformMinGap, cfg.PlatformMaxGap)
		width, widthRoll := bg.IntBetween(cfg.PlatformMinWidth, cfg.PlatformMaxWidth)
		moveRoll := bg.NextFloat()
		dirRoll := bg.NextFloat()

		direction := 1
		if dirRoll < 0.5 {
			direction = -1
		}
		half := dirRoll * 2
		frac := half - math.Floor(half)
		moveRange := scaleInt(frac, cfg.PlatformMoveMinRange, cfg.PlatformMoveMaxRange)

		prevRight := prev.InitialX + prev.Width
		x := prevRight + float64(gap)

		p := Platform{
			Index:    uint32(i),
			X:        x,
			Width:    float64(width),
			InitialX: x,
			RangeMin: x,
			RangeMax: x,
		}
		if moveRoll < cfg.PlatformMoveChance {
			p.IsMoving = true
			p.Velocity = float64(direction) * cfg.PlatformMoveVelocity
			p.RangeMin = math.Max(x-float64(moveRange), prevRight+float64(cfg.PlatformMinGap/2))
			p.RangeMax = x + float64(moveRange)
		}

		platforms = append(platforms, p)
		draws = append(draws, PlatformDraw{
			Index:         uint32(i),
			GapRoll:       gapRoll,
			WidthRoll:     widthRoll,
			MoveRoll:      moveRoll,
			DirectionRoll: dirRoll,
			Gap:           gap,
			Width:         width,
			Range:         moveRange,
			Direction:     direction,
		})
	}

	return platforms, draws
}

// PositionAt returns the left edge after elapsedMs of motion starting at
// InitialX. Motion bounces between RangeMin and RangeMax; the closed form
// below is the exact integral of the ping-pong velocity.
func (p Platform) PositionAt(elapsedMs float64) float64 {
	if !p.IsMoving || p.Velocity == 0 {
		return p.InitialX
	}
	span := p.RangeMax - p.RangeMin
	if span <= 0 || !(elapsedMs > 0) || math.IsInf(elapsedMs, 0) {
		return p.InitialX
	}

	offset := p.InitialX - p.RangeMin
	phase := offset
	if p.Velocity < 0 {
		phase = 2*span - offset
	}
	phase = math.Mod(phase+math.Abs(p.Velocity)*elapsedMs, 2*span)

	if phase <= span {
		return p.RangeMin + phase
	}
	return p.RangeMin + 2*span - phase
}
