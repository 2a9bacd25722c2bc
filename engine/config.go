package engine

import (
	"fmt"
	"sort"

	"match-integrity-system/models"
)

// DifficultyCurve scales team ratings at initialization. Percentages apply to
// every rating and the result is capped at 100.
type DifficultyCurve = models.DifficultyCurve

// DefaultDifficulty is used when a setup names none.
const DefaultDifficulty = "normal"

// Config is everything about a simulation that is chosen by the host rather
// than frozen in the rules.
type Config struct {
	RNGAlgorithm       string
	TickMs             uint64
	MaxTicks           uint64
	MaxRosterSize      int
	TraceIntervalTicks uint64
	Difficulties       map[string]DifficultyCurve
}

// DefaultConfig returns a 90 minute match at 10 ticks per second.
func DefaultConfig() Config {
	return Config{
		RNGAlgorithm:       AlgoSplitMix64,
		TickMs:             100,
		MaxTicks:           54000,
		MaxRosterSize:      11,
		TraceIntervalTicks: 10,
		Difficulties: map[string]DifficultyCurve{
			"easy":   {HomeRatingPercent: 100, AwayRatingPercent: 85},
			"normal": {HomeRatingPercent: 100, AwayRatingPercent: 100},
			"hard":   {HomeRatingPercent: 100, AwayRatingPercent: 110},
		},
	}
}

// Validate rejects configurations that would make runs ambiguous.
func (c Config) Validate() error {
	if _, err := NewRNG(c.RNGAlgorithm, 0); err != nil {
		return err
	}
	if c.TickMs == 0 {
		return fmt.Errorf("tick duration must be positive")
	}
	if c.MaxTicks == 0 {
		return fmt.Errorf("max ticks must be positive")
	}
	if c.TraceIntervalTicks == 0 {
		return fmt.Errorf("trace interval must be positive")
	}
	if _, ok := c.Difficulties[DefaultDifficulty]; !ok {
		return fmt.Errorf("difficulty %q must be configured", DefaultDifficulty)
	}
	for name, curve := range c.Difficulties {
		if curve.HomeRatingPercent <= 0 || curve.AwayRatingPercent <= 0 {
			return fmt.Errorf("difficulty %q has a non-positive rating percent", name)
		}
	}
	return nil
}

// DifficultyNames lists configured difficulties in sorted order.
func (c Config) DifficultyNames() []string {
	names := make([]string, 0, len(c.Difficulties))
	for name := range c.Difficulties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
