package engine

import (
	"match-integrity-system/models"
)

// MatchSetup is everything needed to start a match.
type MatchSetup struct {
	MatchID       string      `json:"matchId"`
	Home          models.Team `json:"home"`
	Away          models.Team `json:"away"`
	Seed          uint64      `json:"seed"`
	DurationTicks uint64      `json:"durationTicks"`
	Difficulty    string      `json:"difficulty,omitempty"`
}

// Simulator advances matches tick by tick. It holds only configuration, so
// one Simulator can drive any number of matches concurrently.
type Simulator struct {
	cfg Config
}

// NewSimulator validates cfg and returns a Simulator for it.
func NewSimulator(cfg Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, setupErrorf("config: %v", err)
	}
	return &Simulator{cfg: cfg}, nil
}

// Config returns the configuration the simulator was built with.
func (sim *Simulator) Config() Config {
	return sim.cfg
}

// Initialize checks the setup and returns the kickoff state at tick 0 with
// the home side in possession.
func (sim *Simulator) Initialize(setup MatchSetup) (*MatchState, error) {
	if err := models.CheckMatchID(setup.MatchID); err != nil {
		return nil, setupErrorf("%v", err)
	}
	if err := setup.Home.Validate(sim.cfg.MaxRosterSize); err != nil {
		return nil, setupErrorf("home: %v", err)
	}
	if err := setup.Away.Validate(sim.cfg.MaxRosterSize); err != nil {
		return nil, setupErrorf("away: %v", err)
	}
	if setup.Home.ID == setup.Away.ID {
		return nil, setupErrorf("home and away are the same team %s", setup.Home.ID)
	}
	for _, p := range setup.Away.Players {
		for _, q := range setup.Home.Players {
			if p.ID == q.ID {
				return nil, setupErrorf("player %s is on both rosters", p.ID)
			}
		}
	}
	if setup.DurationTicks == 0 || setup.DurationTicks > sim.cfg.MaxTicks {
		return nil, setupErrorf("durationTicks %d outside 1-%d", setup.DurationTicks, sim.cfg.MaxTicks)
	}
	difficulty := setup.Difficulty
	if difficulty == "" {
		difficulty = DefaultDifficulty
	}
	curve, ok := sim.cfg.Difficulties[difficulty]
	if !ok {
		return nil, setupErrorf("unknown difficulty %q", difficulty)
	}
	rng, err := NewRNG(sim.cfg.RNGAlgorithm, setup.Seed)
	if err != nil {
		return nil, setupErrorf("%v", err)
	}

	state := &MatchState{
		MatchID:            setup.MatchID,
		HomeTeamID:         setup.Home.ID,
		AwayTeamID:         setup.Away.ID,
		HomeRoster:         append([]models.PlayerProfile(nil), setup.Home.Players...),
		AwayRoster:         append([]models.PlayerProfile(nil), setup.Away.Players...),
		Difficulty:         difficulty,
		RNGAlgorithm:       rng.Name(),
		Seed:               setup.Seed,
		rng:                rng,
		DurationTicks:      setup.DurationTicks,
		TickMs:             sim.cfg.TickMs,
		TraceIntervalTicks: sim.cfg.TraceIntervalTicks,
		Curve:              curve,
		Home:               newPlayers(sideHome, setup.Home.Players, curve.HomeRatingPercent),
		Away:               newPlayers(sideAway, setup.Away.Players, curve.AwayRatingPercent),
	}
	state.kickoff(sideHome)
	return state, nil
}

type acceptedInput struct {
	index int
	input models.PlayerInput
}

// Step advances state by exactly one tick using the inputs addressed to it.
// The given state is not modified. Every input is consumed: invalid ones are
// recorded as rejected and otherwise ignored.
func (sim *Simulator) Step(state *MatchState, inputs []models.PlayerInput) (*MatchState, StepReport) {
	next := state.Clone()
	return next, sim.advance(next, inputs)
}

// advance is Step applied in place. Callers must own s.
//
// Within a tick the order is fixed: ingest, stamina recovery, move intents,
// movement, loose-ball contest, actions in input order, trace sample.
func (sim *Simulator) advance(s *MatchState, inputs []models.PlayerInput) StepReport {
	rep := StepReport{Tick: s.Tick}

	if s.Finished() {
		for _, in := range inputs {
			s.reject(&rep, s.LogCursor, in, ReasonBeyondDuration)
			s.LogCursor++
		}
		return rep
	}

	accepted := s.ingest(inputs, &rep)
	s.recover(&rep)

	for _, a := range accepted {
		if a.input.ActionKind != models.ActionMove {
			continue
		}
		d, ev := ResolveMove(s, a.input)
		if d.OutOfRange {
			s.reject(&rep, a.index, a.input, ReasonOutOfRange)
		}
		rep.Events = append(rep.Events, ev)
		s.apply(d, &rep)
	}

	s.move()

	stream := &tickStream{rng: s.generator(), tick: s.Tick}
	s.contest(stream, &rep)

	for _, a := range accepted {
		if a.input.ActionKind == models.ActionMove {
			continue
		}
		if p := s.Player(a.input.ActorID); p.SentOff {
			s.reject(&rep, a.index, a.input, ReasonEliminated)
			continue
		}
		rolls := stream.take(DrawsFor(a.input.ActionKind))
		d, ev := Resolve(s, a.input, rolls)
		if d.OutOfRange {
			s.reject(&rep, a.index, a.input, ReasonOutOfRange)
		}
		rep.Events = append(rep.Events, ev)
		s.apply(d, &rep)
	}

	if s.Tick%s.TraceIntervalTicks == 0 {
		s.sample(false)
	}
	s.Tick++
	s.ClockMs += s.TickMs
	return rep
}

// Abort marks the match as ended early. Finalize then produces a record with
// aborted=true and the ticks actually played.
func (sim *Simulator) Abort(state *MatchState) *MatchState {
	next := state.Clone()
	next.Aborted = true
	return next
}

// Finalize turns a terminal state into the immutable MatchRecord. log is the
// full input log handed to Step; entries Step never saw are recorded as
// beyond-duration rejections.
func (sim *Simulator) Finalize(state *MatchState, log []models.PlayerInput) *models.MatchRecord {
	rejected := append([]models.RejectedInput(nil), state.Rejected...)
	for i := state.LogCursor; i < len(log); i++ {
		rejected = append(rejected, models.RejectedInput{
			Index:   i,
			Tick:    log[i].Tick,
			ActorID: log[i].ActorID,
			Reason:  ReasonBeyondDuration,
		})
	}

	duration := state.DurationTicks
	aborted := state.Aborted
	if state.Tick < state.DurationTicks {
		aborted = true
		duration = state.Tick
	}

	return &models.MatchRecord{
		SchemaVersion:      models.RecordSchemaVersion,
		MatchID:            state.MatchID,
		HomeTeamID:         state.HomeTeamID,
		AwayTeamID:         state.AwayTeamID,
		HomeRoster:         append([]models.PlayerProfile(nil), state.HomeRoster...),
		AwayRoster:         append([]models.PlayerProfile(nil), state.AwayRoster...),
		Difficulty:         state.Difficulty,
		Curve:              state.Curve,
		RNGAlgorithm:       state.RNGAlgorithm,
		Seed:               state.Seed,
		DurationTicks:      duration,
		TickMs:             state.TickMs,
		TraceIntervalTicks: state.TraceIntervalTicks,
		Aborted:            aborted,
		FinalScore:         state.Score,
		InputLog:           append([]models.PlayerInput(nil), log...),
		PlayerStats:        state.stats(),
		PositionTrace:      append([]models.PositionSample(nil), state.Trace...),
		Rejected:           rejected,
	}
}

func (s *MatchState) generator() RNG {
	if s.rng != nil {
		return s.rng
	}
	rng, err := NewRNG(s.RNGAlgorithm, s.Seed)
	if err != nil {
		rng = splitMix64{seed: s.Seed}
	}
	s.rng = rng
	return rng
}

func (s *MatchState) reject(rep *StepReport, index int, in models.PlayerInput, reason string) {
	r := models.RejectedInput{Index: index, Tick: in.Tick, ActorID: in.ActorID, Reason: reason}
	s.Rejected = append(s.Rejected, r)
	rep.Rejected = append(rep.Rejected, r)
}

func (s *MatchState) ingest(inputs []models.PlayerInput, rep *StepReport) []acceptedInput {
	accepted := make([]acceptedInput, 0, len(inputs))
	for _, in := range inputs {
		index := s.LogCursor
		s.LogCursor++

		var reason string
		p := s.Player(in.ActorID)
		switch {
		case !in.ActionKind.Valid():
			reason = ReasonUnknownAction
		case in.Tick < s.Tick:
			reason = ReasonStaleTick
			rep.Stale++
		case in.Tick > s.Tick:
			reason = ReasonFutureTick
		case p == nil:
			reason = ReasonUnknownActor
		case p.SentOff:
			reason = ReasonEliminated
		case in.CheckShape() != nil:
			reason = ReasonMalformed
		}
		if reason != "" {
			s.reject(rep, index, in, reason)
			continue
		}
		p.Tallies.Actions++
		accepted = append(accepted, acceptedInput{index: index, input: in})
	}
	return accepted
}

func (s *MatchState) recover(rep *StepReport) {
	recoveryTick := s.Tick > 0 && s.Tick%StaminaRecoveryTicks == 0
	for _, team := range [][]PlayerState{s.Home, s.Away} {
		for i := range team {
			p := &team[i]
			if p.SentOff {
				continue
			}
			if p.SprintUntilTick != 0 && p.SprintUntilTick == s.Tick {
				rep.Events = append(rep.Events, Event{Tick: s.Tick, Kind: EventSprintExpired, ActorID: p.ID, Side: p.Side})
			}
			if recoveryTick && !p.Sprinting(s.Tick) && p.Stamina < StaminaMax {
				p.Stamina = min(p.Stamina+StaminaRecoveryAmount, StaminaMax)
			}
		}
	}
}

func (s *MatchState) move() {
	for _, team := range [][]PlayerState{s.Home, s.Away} {
		for i := range team {
			p := &team[i]
			if p.SentOff || !p.HasTarget {
				continue
			}
			p.Position = stepToward(p.Position, p.Target, MaxStep(p.EffectiveRatings(s.Tick).Pace))
			if p.Position == p.Target {
				p.HasTarget = false
			}
			if s.BallHolder == p.ID {
				s.Ball.Position = p.Position
			}
		}
	}
	if s.BallHolder == "" && s.Ball.Velocity != (Vec{}) {
		s.Ball.Position = clampToPitch(Vec{X: s.Ball.Position.X + s.Ball.Velocity.X, Y: s.Ball.Position.Y + s.Ball.Velocity.Y})
		s.Ball.Velocity = Vec{X: s.Ball.Velocity.X * BallDecayNum / 10, Y: s.Ball.Velocity.Y * BallDecayNum / 10}
	}
}

// contest settles a loose ball. It draws only when both sides are in reach.
func (s *MatchState) contest(stream *tickStream, rep *StepReport) {
	if s.BallHolder != "" {
		return
	}
	h := s.nearest(sideHome, s.Ball.Position, ControlRadius)
	a := s.nearest(sideAway, s.Ball.Position, ControlRadius)

	var winner *PlayerState
	switch {
	case h != nil && a != nil:
		hr := h.EffectiveRatings(s.Tick)
		ar := a.EffectiveRatings(s.Tick)
		edge := (hr.Dribbling + hr.Physical) - (ar.Dribbling + ar.Physical)
		chance := clamp(ContestBaseBPS+ContestEdgeFactor*edge, ContestMinBPS, ContestMaxBPS)
		if stream.next() < chance {
			winner = h
		} else {
			winner = a
		}
	case h != nil:
		winner = h
	case a != nil:
		winner = a
	default:
		return
	}
	s.givePossession(winner)
	rep.Events = append(rep.Events, Event{Tick: s.Tick, Kind: EventPossession, ActorID: winner.ID, Side: winner.Side})
}

func (s *MatchState) apply(d StateDelta, rep *StepReport) {
	for _, pd := range d.Players {
		p := s.Player(pd.PlayerID)
		if p == nil {
			continue
		}
		p.Stamina = clamp(p.Stamina+pd.StaminaDelta, 0, StaminaMax)
		if pd.SetTarget {
			p.Target = pd.Target
			p.HasTarget = true
		}
		if pd.SprintUntil > 0 {
			p.SprintUntilTick = pd.SprintUntil
		}
		if pd.ShieldUntil > 0 {
			p.ShieldUntilTick = pd.ShieldUntil
		}
		p.Tallies.add(pd.Tallies)
		switch pd.Card {
		case CardYellow:
			p.Tallies.YellowCards++
			if p.Tallies.YellowCards >= 2 {
				p.Tallies.RedCards++
				s.sendOff(p, rep)
			}
		case CardRed:
			p.Tallies.RedCards++
			s.sendOff(p, rep)
		}
	}

	if d.SetLastPass {
		s.LastPass = d.LastPass
	}
	if d.PossessionTo != "" {
		if p := s.Player(d.PossessionTo); p != nil && !p.SentOff {
			s.givePossession(p)
		}
	}
	if d.Loose {
		s.looseBall(d.LooseAt, d.LooseVel)
	}
	if d.GoalFor != "" {
		if d.GoalFor == sideHome {
			s.Score.Home++
		} else {
			s.Score.Away++
		}
		restart := opponent(d.GoalFor)
		s.kickoff(restart)
		s.sample(true)
		rep.Events = append(rep.Events, Event{Tick: s.Tick, Kind: EventKickoff, ActorID: s.BallHolder, Side: restart})
	}
}

func (s *MatchState) sendOff(p *PlayerState, rep *StepReport) {
	if p.SentOff {
		return
	}
	p.SentOff = true
	p.SentOffAtTick = int64(s.Tick)
	p.HasTarget = false
	if s.BallHolder == p.ID {
		s.looseBall(p.Position, Vec{})
	}
	rep.Events = append(rep.Events, Event{Tick: s.Tick, Kind: EventSentOff, ActorID: p.ID, Side: p.Side, Card: CardRed})
}
