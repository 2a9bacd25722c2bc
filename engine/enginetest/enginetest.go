// Package enginetest builds rosters and scripted matches for tests.
package enginetest

import (
	"fmt"
	"testing"

	"match-integrity-system/engine"
	"match-integrity-system/models"
)

// DefaultRatings put a player in the pro tier.
var DefaultRatings = models.Ratings{Pace: 70, Shooting: 80, Passing: 75, Defense: 60, Dribbling: 70, Physical: 65}

// Team builds a roster of n players named <id>-p<i>.
func Team(id string, n int, r models.Ratings) models.Team {
	players := make([]models.PlayerProfile, n)
	for i := range players {
		players[i] = models.PlayerProfile{
			ID:      fmt.Sprintf("%s-p%d", id, i),
			Name:    fmt.Sprintf("Player %d", i),
			Ratings: r,
		}
	}
	return models.Team{ID: id, Name: id, Players: players}
}

// Setup is a ten-a-side match between "home" and "away".
func Setup(matchID string, seed, durationTicks uint64) engine.MatchSetup {
	return engine.MatchSetup{
		MatchID:       matchID,
		Home:          Team("home", 10, DefaultRatings),
		Away:          Team("away", 10, DefaultRatings),
		Seed:          seed,
		DurationTicks: durationTicks,
	}
}

// Simulator is a simulator on the default config.
func Simulator(t testing.TB) *engine.Simulator {
	t.Helper()
	sim, err := engine.NewSimulator(engine.DefaultConfig())
	if err != nil {
		t.Fatalf("simulator: %v", err)
	}
	return sim
}

// Script steps a match while it is being written. Attempts that do not
// produce the wanted outcome are discarded and retried on the next tick, so
// the resulting log contains only the attempts that worked.
type Script struct {
	t     testing.TB
	sim   *engine.Simulator
	state *engine.MatchState
	log   []models.PlayerInput
}

func NewScript(t testing.TB, sim *engine.Simulator, setup engine.MatchSetup) *Script {
	t.Helper()
	state, err := sim.Initialize(setup)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return &Script{t: t, sim: sim, state: state}
}

func (s *Script) State() *engine.MatchState { return s.state }

func (s *Script) Log() []models.PlayerInput {
	return append([]models.PlayerInput(nil), s.log...)
}

func (s *Script) stamp(in models.PlayerInput) models.PlayerInput {
	in.Tick = s.state.Tick
	in.TimestampMs = s.state.Tick*s.state.TickMs + 40 + uint64(len(s.log)%7)*3
	return in
}

// Idle steps n ticks without input.
func (s *Script) Idle(n int) {
	for i := 0; i < n && !s.state.Finished(); i++ {
		s.state, _ = s.sim.Step(s.state, nil)
	}
}

// Submit steps one tick with the given inputs, stamped for the current tick.
func (s *Script) Submit(inputs ...models.PlayerInput) engine.StepReport {
	batch := make([]models.PlayerInput, len(inputs))
	for i, in := range inputs {
		batch[i] = s.stamp(in)
	}
	var rep engine.StepReport
	s.state, rep = s.sim.Step(s.state, batch)
	s.log = append(s.log, batch...)
	return rep
}

// Attempt tries in once per tick until ok accepts the outcome.
func (s *Script) Attempt(in models.PlayerInput, ok func(before, after *engine.MatchState) bool, maxTries int) {
	s.t.Helper()
	for try := 0; try < maxTries && !s.state.Finished(); try++ {
		stamped := s.stamp(in)
		next, _ := s.sim.Step(s.state, []models.PlayerInput{stamped})
		if ok(s.state, next) {
			s.state = next
			s.log = append(s.log, stamped)
			return
		}
		s.state, _ = s.sim.Step(s.state, nil)
	}
	s.t.Fatalf("%s by %s never succeeded in %d tries", in.ActionKind, in.ActorID, maxTries)
}

// MoveTo walks a player to target and waits until it arrives.
func (s *Script) MoveTo(playerID string, target engine.Vec) {
	s.t.Helper()
	s.Submit(models.PlayerInput{
		ActorID:    playerID,
		ActionKind: models.ActionMove,
		Params:     models.InputParams{X: target.X, Y: target.Y},
	})
	for i := 0; i < 1000; i++ {
		if s.state.Player(playerID).Position == target {
			return
		}
		s.Idle(1)
	}
	s.t.Fatalf("%s never reached %+v", playerID, target)
}

// PassTo passes from the current holder until the pass completes.
func (s *Script) PassTo(from, to string) {
	s.t.Helper()
	s.Attempt(models.PlayerInput{
		ActorID:    from,
		ActionKind: models.ActionPass,
		Params:     models.InputParams{TargetID: to},
	}, func(_, after *engine.MatchState) bool {
		return after.BallHolder == to
	}, 200)
}

// Score carries the ball from the current holder to the edge of the box and
// shoots until it goes in.
func (s *Script) Score() string {
	s.t.Helper()
	scorer := s.state.BallHolder
	if scorer == "" {
		s.t.Fatalf("nobody holds the ball at tick %d", s.state.Tick)
	}
	s.MoveTo(scorer, ShootingSpot(s.state.Player(scorer).Side))
	s.Attempt(models.PlayerInput{
		ActorID:    scorer,
		ActionKind: models.ActionShoot,
	}, func(before, after *engine.MatchState) bool {
		return after.Score.Home+after.Score.Away > before.Score.Home+before.Score.Away
	}, 200)
	return scorer
}

// ShootWide carries the ball forward and shoots until the defending side
// ends up with it without conceding.
func (s *Script) ShootWide() {
	s.t.Helper()
	shooter := s.state.BallHolder
	side := s.state.Player(shooter).Side
	s.MoveTo(shooter, ShootingSpot(side))
	s.Attempt(models.PlayerInput{
		ActorID:    shooter,
		ActionKind: models.ActionShoot,
	}, func(before, after *engine.MatchState) bool {
		return after.Score == before.Score && after.Possession != side
	}, 200)
}

// Finish runs out the clock and returns the finalized record.
func (s *Script) Finish() *models.MatchRecord {
	for !s.state.Finished() {
		s.state, _ = s.sim.Step(s.state, nil)
	}
	return s.sim.Finalize(s.state, s.log)
}

// ShootingSpot is five metres in front of the goal a side attacks.
func ShootingSpot(side string) engine.Vec {
	if side == models.SideHome {
		return engine.Vec{X: engine.PitchLength - 500, Y: engine.GoalCenterY}
	}
	return engine.Vec{X: 500, Y: engine.GoalCenterY}
}

// ThreeOne scripts seed 42 to a 3-1 home win without fouls, each home goal by
// a different scorer.
func ThreeOne(t testing.TB, sim *engine.Simulator) (engine.MatchSetup, *Script) {
	t.Helper()
	setup := Setup("match-3-1", 42, 1500)
	s := NewScript(t, sim, setup)

	s.Score() // home-p9 from kickoff
	s.Score() // away-p9 from kickoff

	s.PassTo("home-p9", "home-p5")
	s.Score()

	s.ShootWide() // away-p9, keeper collects
	s.PassTo("home-p0", "home-p2")
	s.Score()

	return setup, s
}
