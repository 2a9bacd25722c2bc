package engine

import "match-integrity-system/models"

// Outcome is the result of one resolved action.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeGoal     Outcome = "goal"
	OutcomeSaved    Outcome = "saved"
	OutcomeMissed   Outcome = "missed"
	OutcomeWon      Outcome = "won"
	OutcomeBlocked  Outcome = "blocked"
	OutcomeFoul     Outcome = "foul"
	OutcomeNoEffect Outcome = "no-effect"
)

// Event kinds beyond the action kinds themselves.
const (
	EventPossession    = "POSSESSION"
	EventKickoff       = "KICKOFF"
	EventSprintExpired = "SPRINT_EXPIRED"
	EventSentOff       = "SENT_OFF"
)

// Card colours.
const (
	CardYellow = "yellow"
	CardRed    = "red"
)

// Event is something that happened during a tick, in the order it happened.
type Event struct {
	Tick     uint64  `json:"tick"`
	Kind     string  `json:"kind"`
	ActorID  string  `json:"actorId,omitempty"`
	TargetID string  `json:"targetId,omitempty"`
	Outcome  Outcome `json:"outcome,omitempty"`
	Card     string  `json:"card,omitempty"`
	Side     string  `json:"side,omitempty"`
	Detail   string  `json:"detail,omitempty"`
}

// PlayerDelta changes one player. Zero fields leave the player untouched.
type PlayerDelta struct {
	PlayerID     string
	StaminaDelta int64
	SetTarget    bool
	Target       Vec
	SprintUntil  uint64
	ShieldUntil  uint64
	Tallies      Tallies
	Card         string
}

// StateDelta is the complete effect of one resolved action. Resolvers return
// deltas rather than writing state; the simulator applies them in order.
type StateDelta struct {
	Players []PlayerDelta

	// PossessionTo hands the ball to a player; LooseAt sets it free.
	PossessionTo string
	Loose        bool
	LooseAt      Vec
	LooseVel     Vec

	// GoalFor is the scoring side; a kickoff for the other side follows.
	GoalFor string

	SetLastPass bool
	LastPass    PassMemo

	// OutOfRange marks an attempt that broke an action range and is recorded
	// as a rejected input.
	OutOfRange bool
}

func (d *StateDelta) player(id string) *PlayerDelta {
	for i := range d.Players {
		if d.Players[i].PlayerID == id {
			return &d.Players[i]
		}
	}
	d.Players = append(d.Players, PlayerDelta{PlayerID: id})
	return &d.Players[len(d.Players)-1]
}

// StepReport is what Step observed besides the new state.
type StepReport struct {
	Tick     uint64                 `json:"tick"`
	Events   []Event                `json:"events"`
	Rejected []models.RejectedInput `json:"rejected,omitempty"`
	Stale    int                    `json:"stale"`
}
