package fairness

import (
	"fmt"

	"match-integrity-system/models"
)

// PenaltyWeights are trust-score deductions per finding (tunable via config/env)
type PenaltyWeights struct {
	InputRate        int64 `default:"20"` // per actor over the ceiling
	Outlier          int64 `default:"10"` // per outlying stat
	Physical         int64 `default:"25"` // per player with an impossible displacement
	Periodic         int64 `default:"30"`
	Simultaneous     int64 `default:"40"`
	NonMonotonic     int64 `default:"20"`
	AfterElimination int64 `default:"25"`
	InvalidInput     int64 `default:"2"`  // per rejected input
	InvalidInputCap  int64 `default:"10"` // total for rejected inputs
}

var DefaultPenaltyWeights = PenaltyWeights{
	InputRate:        20,
	Outlier:          10,
	Physical:         25,
	Periodic:         30,
	Simultaneous:     40,
	NonMonotonic:     20,
	AfterElimination: 25,
	InvalidInput:     2,
	InvalidInputCap:  10,
}

// DefaultThresholds: >= 80 clean, >= 40 suspicious, below that rejected.
var DefaultThresholds = models.Thresholds{Clean: 80, Suspicious: 40}

// Config carries every constant the validator reads. The validator never
// adjusts these on its own.
type Config struct {
	Thresholds models.Thresholds
	Weights    PenaltyWeights

	// Input rate: at most MaxActionsPerWindow inputs by one actor in any
	// RateWindowTicks consecutive ticks.
	RateWindowTicks     uint64
	MaxActionsPerWindow int

	// Outliers: one-sided z-score cutoff against the tier reference.
	OutlierZ            float64
	MinShotsForAccuracy int64
	Reference           Reference

	// Physical: allowed displacement is the sprinting max step times the
	// tick gap, scaled by this percentage.
	PhysicalTolerancePercent int64

	// Periodic timing: flagged when an actor has at least PeriodicMinInputs
	// inputs and the stddev of their inter-arrival times is below
	// PeriodicMaxStdDevMs.
	PeriodicMinInputs   int
	PeriodicMaxStdDevMs float64

	// Simultaneous: more than this many ball actions by one actor in one tick.
	MaxBallActionsPerTick int
}

// DefaultConfig is the documented default validator configuration.
func DefaultConfig() Config {
	return Config{
		Thresholds:               DefaultThresholds,
		Weights:                  DefaultPenaltyWeights,
		RateWindowTicks:          10,
		MaxActionsPerWindow:      8,
		OutlierZ:                 3.0,
		MinShotsForAccuracy:      5,
		Reference:                DefaultReference,
		PhysicalTolerancePercent: 115,
		PeriodicMinInputs:        10,
		PeriodicMaxStdDevMs:      2.0,
		MaxBallActionsPerTick:    1,
	}
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.Thresholds.Clean > 100 || c.Thresholds.Suspicious < 0 || c.Thresholds.Suspicious > c.Thresholds.Clean {
		return fmt.Errorf("thresholds must satisfy 0 <= suspicious (%d) <= clean (%d) <= 100", c.Thresholds.Suspicious, c.Thresholds.Clean)
	}
	if c.RateWindowTicks == 0 || c.MaxActionsPerWindow <= 0 {
		return fmt.Errorf("rate window and ceiling must be positive")
	}
	if c.OutlierZ <= 0 {
		return fmt.Errorf("outlier z cutoff must be positive")
	}
	if c.PhysicalTolerancePercent < 100 {
		return fmt.Errorf("physical tolerance must be at least 100%%")
	}
	if c.PeriodicMinInputs < 3 {
		return fmt.Errorf("periodic check needs at least 3 inputs")
	}
	if c.MaxBallActionsPerTick < 1 {
		return fmt.Errorf("max ball actions per tick must be positive")
	}
	if len(c.Reference) == 0 {
		return fmt.Errorf("reference distributions are required")
	}
	return nil
}
