package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ChallengePredicate decides whether a validated session completes a daily
// streak challenge.
type ChallengePredicate interface {
	Evaluate(result SessionValidationResult) (bool, error)
}

// PredicateFunc adapts a plain function to ChallengePredicate.
type PredicateFunc func(result SessionValidationResult) (bool, error)

func (f PredicateFunc) Evaluate(result SessionValidationResult) (bool, error) {
	return f(result)
}

// DailyStreakChallenge is supplied by the caller; the engine only invokes it.
type DailyStreakChallenge struct {
	ID          string             `json:"id"`
	Description string             `json:"description"`
	Predicate   ChallengePredicate `json:"-"`
}

var (
	ErrChallengeMisconfigured = errors.New("daily challenge misconfigured")
	ErrUnknownMetric          = errors.New("unknown challenge metric")
)

// CheckChallenge evaluates the challenge predicate. Errors and panics from
// the predicate are not swallowed.
func CheckChallenge(ch *DailyStreakChallenge, result SessionValidationResult) (bool, error) {
	if ch == nil {
		return false, nil
	}
	if ch.Predicate == nil {
		return false, fmt.Errorf("%w: challenge %q has no predicate", ErrChallengeMisconfigured, ch.ID)
	}
	ok, err := ch.Predicate.Evaluate(result)
	if err != nil {
		return false, fmt.Errorf("challenge %q: %w", ch.ID, err)
	}
	return ok, nil
}

const (
	MetricBlocksPassed = "blocks_passed"
	MetricScore        = "score"
	MetricPerfectCount = "perfect_count"
	MetricTimePlayed   = "time_played"
)

var validOps = []string{"eq", "gt", "ge", "lt", "le"}

// ThresholdPredicate compares one result metric against a constant.
type ThresholdPredicate struct {
	Metric string
	Op     string
	Value  float64
}

func (p ThresholdPredicate) Evaluate(result SessionValidationResult) (bool, error) {
	var v float64
	switch p.Metric {
	case MetricBlocksPassed:
		v = float64(result.BlocksPassed)
	case MetricScore:
		v = float64(result.Score)
	case MetricPerfectCount:
		v = float64(result.PerfectCount)
	case MetricTimePlayed:
		v = result.TimePlayed
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownMetric, p.Metric)
	}

	switch p.Op {
	case "eq":
		return v == p.Value, nil
	case "gt":
		return v > p.Value, nil
	case "ge":
		return v >= p.Value, nil
	case "lt":
		return v < p.Value, nil
	case "le":
		return v <= p.Value, nil
	}
	return false, fmt.Errorf("%w: unknown operator %q", ErrChallengeMisconfigured, p.Op)
}

// ParseChallengeRule parses "metric:op:value", e.g. "blocks_passed:ge:10".
func ParseChallengeRule(rule string) (ThresholdPredicate, error) {
	parts := strings.Split(strings.TrimSpace(rule), ":")
	if len(parts) != 3 {
		return ThresholdPredicate{}, fmt.Errorf("%w: rule %q must be metric:op:value", ErrChallengeMisconfigured, rule)
	}

	metric, op := parts[0], parts[1]
	switch metric {
	case MetricBlocksPassed, MetricScore, MetricPerfectCount, MetricTimePlayed:
	default:
		return ThresholdPredicate{}, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}

	validOp := false
	for _, o := range validOps {
		if op == o {
			validOp = true
			break
		}
	}
	if !validOp {
		return ThresholdPredicate{}, fmt.Errorf("%w: op must be one of %s", ErrChallengeMisconfigured, strings.Join(validOps, ", "))
	}

	value, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return ThresholdPredicate{}, fmt.Errorf("%w: value %q: %v", ErrChallengeMisconfigured, parts[2], err)
	}

	return ThresholdPredicate{Metric: metric, Op: op, Value: value}, nil
}
