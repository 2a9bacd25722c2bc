package engine

import "match-integrity-system/models"

const (
	sideHome = models.SideHome
	sideAway = models.SideAway
)

// Tallies are the running per-player counters that become PlayerStats.
type Tallies struct {
	Goals           int64
	Assists         int64
	Shots           int64
	ShotsOnTarget   int64
	Passes          int64
	PassesCompleted int64
	Tackles         int64
	Fouls           int64
	YellowCards     int64
	RedCards        int64
	Sprints         int64
	Actions         int64
}

func (t *Tallies) add(o Tallies) {
	t.Goals += o.Goals
	t.Assists += o.Assists
	t.Shots += o.Shots
	t.ShotsOnTarget += o.ShotsOnTarget
	t.Passes += o.Passes
	t.PassesCompleted += o.PassesCompleted
	t.Tackles += o.Tackles
	t.Fouls += o.Fouls
	t.YellowCards += o.YellowCards
	t.RedCards += o.RedCards
	t.Sprints += o.Sprints
	t.Actions += o.Actions
}

// PlayerState is the mutable per-player slice of MatchState.
type PlayerState struct {
	ID      string
	Side    string
	Ratings models.Ratings // after the difficulty curve

	Position  Vec
	Anchor    Vec
	Target    Vec
	HasTarget bool

	Stamina         int64
	SprintUntilTick uint64 // boost active while tick < SprintUntilTick
	ShieldUntilTick uint64 // tackles on this player are void while tick < ShieldUntilTick

	SentOff       bool
	SentOffAtTick int64

	Tallies Tallies
}

// Ball is either held (MatchState.BallHolder set, Velocity zero) or loose.
type Ball struct {
	Position Vec
	Velocity Vec
}

// PassMemo remembers the last completed pass for assist credit.
type PassMemo struct {
	Valid    bool
	PasserID string
	Side     string
	Tick     uint64
}

// MatchState is the full simulation state at a tick boundary. Step never
// mutates the state it is given, so any MatchState can be kept as a snapshot.
type MatchState struct {
	MatchID      string
	HomeTeamID   string
	AwayTeamID   string
	HomeRoster   []models.PlayerProfile // as submitted; shared, never mutated
	AwayRoster   []models.PlayerProfile
	Difficulty   string
	RNGAlgorithm string
	Seed         uint64
	rng          RNG

	Tick               uint64
	DurationTicks      uint64
	TickMs             uint64
	TraceIntervalTicks uint64
	ClockMs            uint64
	Curve              DifficultyCurve

	Home []PlayerState
	Away []PlayerState

	Ball       Ball
	Possession string // SideHome, SideAway or SideNone
	BallHolder string
	LastPass   PassMemo

	Score models.FinalScore

	// LogCursor counts inputs handed to Step so far; it is the input-log
	// index of the next input and keys Rejected entries.
	LogCursor int
	Rejected  []models.RejectedInput
	Trace     []models.PositionSample

	Aborted bool
}

// Finished reports whether the match has no ticks left to run.
func (s *MatchState) Finished() bool {
	return s.Aborted || s.Tick >= s.DurationTicks
}

// Clone deep-copies every slice the simulator writes to.
func (s *MatchState) Clone() *MatchState {
	out := *s
	out.Home = append([]PlayerState(nil), s.Home...)
	out.Away = append([]PlayerState(nil), s.Away...)
	out.Rejected = append([]models.RejectedInput(nil), s.Rejected...)
	out.Trace = append([]models.PositionSample(nil), s.Trace...)
	return &out
}

// Player finds a player by id, home roster first.
func (s *MatchState) Player(id string) *PlayerState {
	for i := range s.Home {
		if s.Home[i].ID == id {
			return &s.Home[i]
		}
	}
	for i := range s.Away {
		if s.Away[i].ID == id {
			return &s.Away[i]
		}
	}
	return nil
}

func (s *MatchState) team(side string) []PlayerState {
	if side == sideHome {
		return s.Home
	}
	return s.Away
}

func opponent(side string) string {
	if side == sideHome {
		return sideAway
	}
	return sideHome
}

// keeper is the first opponent-side player still on the pitch, roster[0] unless sent off.
func (s *MatchState) keeper(side string) *PlayerState {
	team := s.team(side)
	for i := range team {
		if !team[i].SentOff {
			return &team[i]
		}
	}
	return nil
}

// nearest returns the closest active player of side to p within radius, or
// nil. Ties go to the earlier roster entry.
func (s *MatchState) nearest(side string, p Vec, radius int64) *PlayerState {
	var best *PlayerState
	bestD := radius + 1
	team := s.team(side)
	for i := range team {
		if team[i].SentOff {
			continue
		}
		d := Distance(team[i].Position, p)
		if d < bestD {
			best = &team[i]
			bestD = d
		}
	}
	return best
}

func newPlayers(side string, roster []models.PlayerProfile, percent int64) []PlayerState {
	out := make([]PlayerState, len(roster))
	for i, p := range roster {
		anchor := formationAnchor(side, i)
		out[i] = PlayerState{
			ID:            p.ID,
			Side:          side,
			Ratings:       scaleRatings(p.Ratings, percent),
			Position:      anchor,
			Anchor:        anchor,
			Stamina:       StaminaMax,
			SentOffAtTick: -1,
		}
	}
	return out
}

// kickoff resets players to their anchors and gives the ball to side's
// player nearest the centre spot.
func (s *MatchState) kickoff(side string) {
	for _, team := range [][]PlayerState{s.Home, s.Away} {
		for i := range team {
			if team[i].SentOff {
				continue
			}
			team[i].Position = team[i].Anchor
			team[i].HasTarget = false
		}
	}
	s.Ball = Ball{Position: centerSpot()}
	s.LastPass = PassMemo{}
	s.Possession = models.SideNone
	s.BallHolder = ""
	if p := s.nearest(side, centerSpot(), PitchLength+PitchWidth); p != nil {
		s.givePossession(p)
	}
}

func (s *MatchState) givePossession(p *PlayerState) {
	if s.LastPass.Valid && s.LastPass.Side != p.Side {
		s.LastPass = PassMemo{}
	}
	s.Possession = p.Side
	s.BallHolder = p.ID
	s.Ball = Ball{Position: p.Position}
}

func (s *MatchState) looseBall(at, velocity Vec) {
	s.Possession = models.SideNone
	s.BallHolder = ""
	s.Ball = Ball{Position: clampToPitch(at), Velocity: velocity}
}

func (s *MatchState) sample(kickoff bool) {
	for _, team := range [][]PlayerState{s.Home, s.Away} {
		for _, p := range team {
			s.Trace = append(s.Trace, models.PositionSample{
				Tick:     s.Tick,
				PlayerID: p.ID,
				X:        p.Position.X,
				Y:        p.Position.Y,
				Kickoff:  kickoff,
			})
		}
	}
}

func (s *MatchState) stats() []models.PlayerStats {
	out := make([]models.PlayerStats, 0, len(s.Home)+len(s.Away))
	for _, team := range [][]PlayerState{s.Home, s.Away} {
		for _, p := range team {
			t := p.Tallies
			out = append(out, models.PlayerStats{
				PlayerID:        p.ID,
				Side:            p.Side,
				Goals:           t.Goals,
				Assists:         t.Assists,
				Shots:           t.Shots,
				ShotsOnTarget:   t.ShotsOnTarget,
				Passes:          t.Passes,
				PassesCompleted: t.PassesCompleted,
				Tackles:         t.Tackles,
				Fouls:           t.Fouls,
				YellowCards:     t.YellowCards,
				RedCards:        t.RedCards,
				Sprints:         t.Sprints,
				Actions:         t.Actions,
				SentOffAtTick:   p.SentOffAtTick,
			})
		}
	}
	return out
}
