package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// humanMoves returns n moves with varied hold and idle times.
func humanMoves(n int) []Move {
	holds := []float64{300, 340, 275, 410, 290, 360, 320, 285, 395, 330}
	idles := []float64{500, 620, 480, 710, 560, 530, 650, 470, 590, 610}
	moves := make([]Move, n)
	clock := 1000.0
	for i := range moves {
		idle := idles[i%len(idles)]
		hold := holds[i%len(holds)]
		clock += idle
		moves[i] = Move{StartTime: clock, Duration: hold, IdleDurationMs: idle}
		clock += hold
	}
	return moves
}

// traceWith builds a trace of hits where perfect[i] marks perfect landings.
func traceWith(perfect []bool) *ReplayTrace {
	tr := &ReplayTrace{}
	for i, p := range perfect {
		tr.Steps = append(tr.Steps, ReplayStep{MoveIndex: i, Hit: true, IsPerfect: p})
		tr.BlocksPassed++
		if p {
			tr.PerfectCount++
		}
	}
	return tr
}

func allPerfect(n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = true
	}
	return out
}

func noPerfect(n int) []bool {
	return make([]bool, n)
}

func TestEvaluateFraud_CleanSession(t *testing.T) {
	cfg := DefaultConfig()
	moves := humanMoves(10)

	isFraud, reason := EvaluateFraud(User{ID: "u1"}, traceWith(noPerfect(10)), SessionData{Moves: moves}, cfg)
	assert.False(t, isFraud)
	assert.Equal(t, FraudNone, reason)
}

func TestEvaluateFraud_Rules(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name    string
		user    User
		session func() SessionData
		trace   *ReplayTrace
		want    FraudReason
	}{
		{
			name:    "Blacklisted user",
			user:    User{ID: "u", IsBlackListed: true},
			session: func() SessionData { return SessionData{Moves: humanMoves(3)} },
			trace:   traceWith(noPerfect(3)),
			want:    FraudUserBlackListed,
		},
		{
			name: "Item not owned",
			user: User{ID: "u"},
			session: func() SessionData {
				return SessionData{Moves: humanMoves(3), UsedItems: []ItemVariant{{ItemID: "revive"}}}
			},
			trace: traceWith(noPerfect(3)),
			want:  FraudInvalidItemUsed,
		},
		{
			name: "Item used more often than owned",
			user: User{ID: "u", Inventory: map[string]int{"revive": 1}},
			session: func() SessionData {
				return SessionData{Moves: humanMoves(3), UsedItems: []ItemVariant{{ItemID: "revive"}, {ItemID: "revive"}}}
			},
			trace: traceWith(noPerfect(3)),
			want:  FraudInvalidItemUsed,
		},
		{
			name: "Empty item id",
			user: User{ID: "u", Inventory: map[string]int{"": 5}},
			session: func() SessionData {
				return SessionData{Moves: humanMoves(3), UsedItems: []ItemVariant{{ItemID: ""}}}
			},
			trace: traceWith(noPerfect(3)),
			want:  FraudInvalidItemUsed,
		},
		{
			name:    "Missing trace",
			user:    User{ID: "u"},
			session: func() SessionData { return SessionData{Moves: humanMoves(3)} },
			trace:   nil,
			want:    FraudInvalidData,
		},
		{
			name: "Negative duration",
			user: User{ID: "u"},
			session: func() SessionData {
				m := humanMoves(3)
				m[1].Duration = -1
				return SessionData{Moves: m}
			},
			trace: traceWith(noPerfect(3)),
			want:  FraudInvalidData,
		},
		{
			name: "NaN idle",
			user: User{ID: "u"},
			session: func() SessionData {
				m := humanMoves(3)
				m[2].IdleDurationMs = math.NaN()
				return SessionData{Moves: m}
			},
			trace: traceWith(noPerfect(3)),
			want:  FraudInvalidData,
		},
		{
			name: "Non-monotonic start time",
			user: User{ID: "u"},
			session: func() SessionData {
				m := humanMoves(3)
				m[2].StartTime = m[1].StartTime
				return SessionData{Moves: m}
			},
			trace: traceWith(noPerfect(3)),
			want:  FraudInvalidData,
		},
		{
			name: "Too fast bridge",
			user: User{ID: "u"},
			session: func() SessionData {
				m := humanMoves(6)
				m[4].Duration = 49
				return SessionData{Moves: m}
			},
			trace: traceWith(noPerfect(6)),
			want:  FraudTooFastBridge,
		},
		{
			name: "Too fast between moves",
			user: User{ID: "u"},
			session: func() SessionData {
				m := humanMoves(6)
				m[3].IdleDurationMs = 99
				return SessionData{Moves: m}
			},
			trace: traceWith(noPerfect(6)),
			want:  FraudTooFastBetweenMoves,
		},
		{
			name:    "Perfect rate too high",
			user:    User{ID: "u"},
			session: func() SessionData { return SessionData{Moves: humanMoves(10)} },
			trace:   traceWith([]bool{true, true, true, true, false, true, true, true, true, true}),
			want:    FraudPerfectRateTooHigh,
		},
		{
			name: "Too many consecutive perfect",
			user: User{ID: "u"},
			session: func() SessionData {
				return SessionData{Moves: humanMoves(30)}
			},
			trace: traceWith(append(append(noPerfect(10), allPerfect(11)...), noPerfect(9)...)),
			want:  FraudTooManyConsecutivePerfect,
		},
		{
			name: "Duration variance too low",
			user: User{ID: "u"},
			session: func() SessionData {
				m := humanMoves(6)
				for i := range m {
					m[i].Duration = 300 + float64(i%2)
				}
				return SessionData{Moves: m}
			},
			trace: traceWith(noPerfect(6)),
			want:  FraudDurationVarianceTooLow,
		},
		{
			name: "Timing variance too low",
			user: User{ID: "u"},
			session: func() SessionData {
				m := humanMoves(6)
				clock := 0.0
				for i := range m {
					m[i].IdleDurationMs = 500
					clock += 500
					m[i].StartTime = clock
					clock += m[i].Duration
				}
				return SessionData{Moves: m}
			},
			trace: traceWith(noPerfect(6)),
			want:  FraudTimingVarianceTooLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isFraud, reason := EvaluateFraud(tt.user, tt.trace, tt.session(), cfg)
			assert.Equal(t, tt.want, reason)
			assert.True(t, isFraud)
		})
	}
}

func TestEvaluateFraud_TooManyMoves(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxMoves = 5

	isFraud, reason := EvaluateFraud(User{ID: "u"}, traceWith(noPerfect(6)), SessionData{Moves: humanMoves(6)}, cfg)
	assert.True(t, isFraud)
	assert.Equal(t, FraudInvalidData, reason)
}

func TestEvaluateFraud_PrecedenceFastBridgeBeatsPerfectRate(t *testing.T) {
	cfg := DefaultConfig()

	moves := make([]Move, 5)
	for i := range moves {
		moves[i] = Move{StartTime: float64(1000 + i*600), Duration: 10, IdleDurationMs: float64(500 + i*37)}
	}

	isFraud, reason := EvaluateFraud(User{ID: "u"}, traceWith(allPerfect(5)), SessionData{Moves: moves}, cfg)
	assert.True(t, isFraud)
	assert.Equal(t, FraudTooFastBridge, reason)
}

func TestEvaluateFraud_PrecedenceBlacklistFirst(t *testing.T) {
	cfg := DefaultConfig()
	moves := humanMoves(5)
	moves[0].Duration = 1

	isFraud, reason := EvaluateFraud(
		User{ID: "u", IsBlackListed: true},
		traceWith(allPerfect(5)),
		SessionData{Moves: moves, UsedItems: []ItemVariant{{ItemID: "ghost"}}},
		cfg,
	)
	assert.True(t, isFraud)
	assert.Equal(t, FraudUserBlackListed, reason)
}

func TestEvaluateFraud_OwnedItemsAccepted(t *testing.T) {
	cfg := DefaultConfig()
	user := User{ID: "u", Inventory: map[string]int{"revive": 2, "slowmo": 1}}
	session := SessionData{
		Moves:     humanMoves(4),
		UsedItems: []ItemVariant{{ItemID: "revive", Variant: "gold"}, {ItemID: "revive"}, {ItemID: "slowmo"}},
	}

	isFraud, reason := EvaluateFraud(user, traceWith(noPerfect(4)), session, cfg)
	assert.False(t, isFraud)
	assert.Equal(t, FraudNone, reason)
}

func TestEvaluateFraud_ShortSessionsPassVarianceChecks(t *testing.T) {
	cfg := DefaultConfig()

	// a single move cannot have variance; dying on move one is legitimate
	one := []Move{{StartTime: 1500, Duration: 300, IdleDurationMs: 500}}
	isFraud, reason := EvaluateFraud(User{ID: "u"}, traceWith([]bool{true}), SessionData{Moves: one}, cfg)
	assert.False(t, isFraud)
	assert.Equal(t, FraudNone, reason)
}

func TestEvaluateFraud_EmptySessionIsClean(t *testing.T) {
	isFraud, reason := EvaluateFraud(User{ID: "u"}, traceWith(nil), SessionData{}, DefaultConfig())
	assert.False(t, isFraud)
	assert.Equal(t, FraudNone, reason)
}

func TestEvaluateFraud_PerfectRateCountsEveryMove(t *testing.T) {
	cfg := DefaultConfig()

	// five perfect landings then a miss ends the run; ten moves were sent
	tr := traceWith(allPerfect(5))
	tr.Steps = append(tr.Steps, ReplayStep{MoveIndex: 5})

	isFraud, reason := EvaluateFraud(User{ID: "u"}, tr, SessionData{Moves: humanMoves(10)}, cfg)
	assert.False(t, isFraud)
	assert.Equal(t, FraudNone, reason)

	isFraud, reason = EvaluateFraud(User{ID: "u"}, tr, SessionData{Moves: humanMoves(5)}, cfg)
	assert.True(t, isFraud)
	assert.Equal(t, FraudPerfectRateTooHigh, reason)
}

func TestEvaluateFraud_TimingVarianceIgnoresOpeningIdle(t *testing.T) {
	cfg := DefaultConfig()

	moves := humanMoves(6)
	moves[0].IdleDurationMs = 5000
	for i := 1; i < len(moves); i++ {
		moves[i].IdleDurationMs = 500
	}
	isFraud, reason := EvaluateFraud(User{ID: "u"}, traceWith(noPerfect(6)), SessionData{Moves: moves}, cfg)
	assert.True(t, isFraud)
	assert.Equal(t, FraudTimingVarianceTooLow, reason)

	// two moves leave a single gap, which has no variance
	two := humanMoves(2)
	two[0].IdleDurationMs = 500
	two[1].IdleDurationMs = 500
	isFraud, reason = EvaluateFraud(User{ID: "u"}, traceWith(noPerfect(2)), SessionData{Moves: two}, cfg)
	assert.False(t, isFraud)
	assert.Equal(t, FraudNone, reason)
}

func TestEvaluateFraud_PerfectRateNeedsMinimumSample(t *testing.T) {
	cfg := DefaultConfig()
	moves := humanMoves(4)

	isFraud, _ := EvaluateFraud(User{ID: "u"}, traceWith(allPerfect(4)), SessionData{Moves: moves}, cfg)
	assert.False(t, isFraud)

	cfg.MinMovesForPerfectRate = 1
	isFraud, reason := EvaluateFraud(User{ID: "u"}, traceWith(allPerfect(4)), SessionData{Moves: moves}, cfg)
	assert.True(t, isFraud)
	assert.Equal(t, FraudPerfectRateTooHigh, reason)
}

func TestEvaluateFraud_ConsecutiveRunAtLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPerfectRate = 1

	perfect := append(allPerfect(10), false)
	isFraud, reason := EvaluateFraud(User{ID: "u"}, traceWith(perfect), SessionData{Moves: humanMoves(11)}, cfg)
	assert.False(t, isFraud)
	assert.Equal(t, FraudNone, reason)
}

func TestSampleVariance(t *testing.T) {
	_, ok := sampleVariance(nil)
	assert.False(t, ok)
	_, ok = sampleVariance([]float64{4})
	assert.False(t, ok)

	v, ok := sampleVariance([]float64{500, 520, 480})
	assert.True(t, ok)
	assert.InDelta(t, 400, v, 1e-9)

	v, ok = sampleVariance([]float64{300, 310, 295})
	assert.True(t, ok)
	assert.InDelta(t, 175.0/3, v, 1e-9)
}

func TestLongestPerfectRun(t *testing.T) {
	steps := traceWith([]bool{true, true, false, true, true, true, false}).Steps
	assert.Equal(t, 3, longestPerfectRun(steps))
	assert.Equal(t, 0, longestPerfectRun(nil))
}
