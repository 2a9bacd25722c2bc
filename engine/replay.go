package engine

import "match-integrity-system/models"

// Replay re-runs a match from its setup and input log and returns the record
// it produces. At tick t the simulator is fed the next run of log entries
// whose tick is at most t; earlier ticks are rejected as stale and entries at
// or past the duration as beyond-duration.
func (sim *Simulator) Replay(setup MatchSetup, log []models.PlayerInput) (*models.MatchRecord, error) {
	state, err := sim.Initialize(setup)
	if err != nil {
		return nil, err
	}
	state = sim.run(state, log)
	return sim.Finalize(state, log), nil
}

// ReplayRecord re-runs a finished record. Aborted records are replayed to the
// tick they stopped at and aborted there; a match aborted before its first
// tick replays as zero steps.
func (sim *Simulator) ReplayRecord(rec *models.MatchRecord) (*models.MatchRecord, error) {
	setup := SetupFromRecord(rec)
	abortedAtKickoff := rec.Aborted && rec.DurationTicks == 0
	if abortedAtKickoff {
		setup.DurationTicks = 1
	}
	state, err := sim.Initialize(setup)
	if err != nil {
		return nil, err
	}
	if !abortedAtKickoff {
		state = sim.run(state, rec.InputLog)
	}
	if rec.Aborted {
		state = sim.Abort(state)
	}
	return sim.Finalize(state, rec.InputLog), nil
}

// run plays state to the end in place; state must not be shared.
func (sim *Simulator) run(state *MatchState, log []models.PlayerInput) *MatchState {
	cursor := 0
	for !state.Finished() {
		end := cursor
		for end < len(log) && log[end].Tick <= state.Tick {
			end++
		}
		sim.advance(state, log[cursor:end])
		cursor = end
	}
	return state
}

// SetupFromRecord rebuilds the setup a record was produced from.
func SetupFromRecord(rec *models.MatchRecord) MatchSetup {
	return MatchSetup{
		MatchID:       rec.MatchID,
		Home:          models.Team{ID: rec.HomeTeamID, Players: rec.HomeRoster},
		Away:          models.Team{ID: rec.AwayTeamID, Players: rec.AwayRoster},
		Seed:          rec.Seed,
		DurationTicks: rec.DurationTicks,
		Difficulty:    rec.Difficulty,
	}
}

// ConfigForRecord adapts cfg to replay rec: the record's generator, tick
// length, trace interval and applied difficulty curve win over the local
// defaults. Fields a record leaves zero keep the local value.
func ConfigForRecord(cfg Config, rec *models.MatchRecord) Config {
	if rec.RNGAlgorithm != "" {
		cfg.RNGAlgorithm = rec.RNGAlgorithm
	}
	if rec.TickMs != 0 {
		cfg.TickMs = rec.TickMs
	}
	if rec.TraceIntervalTicks != 0 {
		cfg.TraceIntervalTicks = rec.TraceIntervalTicks
	}
	if rec.Curve.HomeRatingPercent > 0 && rec.Curve.AwayRatingPercent > 0 {
		difficulty := rec.Difficulty
		if difficulty == "" {
			difficulty = DefaultDifficulty
		}
		curves := make(map[string]DifficultyCurve, len(cfg.Difficulties)+1)
		for name, c := range cfg.Difficulties {
			curves[name] = c
		}
		curves[difficulty] = rec.Curve
		cfg.Difficulties = curves
	}
	if rec.DurationTicks > cfg.MaxTicks {
		cfg.MaxTicks = rec.DurationTicks
	}
	return cfg
}
