package engine

import (
	"context"
	"log"
	"time"

	"match-integrity-system/models"
)

// TickEvent is published after every tick a Runner executes.
type TickEvent struct {
	MatchID string            `json:"matchId"`
	Tick    uint64            `json:"tick"`
	ClockMs uint64            `json:"clockMs"`
	Score   models.FinalScore `json:"score"`
	Events  []Event           `json:"events,omitempty"`
	Final   bool              `json:"final,omitempty"`
	Aborted bool              `json:"aborted,omitempty"`
}

// Runner drives one match against an InputFeed in wall-clock time. Each tick
// waits at most TickWait for the feed; ctx cancellation aborts the match.
type Runner struct {
	sim      *Simulator
	feed     InputFeed
	TickWait time.Duration

	events chan TickEvent
}

func NewRunner(sim *Simulator, feed InputFeed, tickWait time.Duration) *Runner {
	return &Runner{
		sim:      sim,
		feed:     feed,
		TickWait: tickWait,
		events:   make(chan TickEvent, 256),
	}
}

// Events streams tick events. Slow readers miss events rather than stall the
// match. The channel is closed when Run returns.
func (r *Runner) Events() <-chan TickEvent {
	return r.events
}

// Run plays the match to completion or until ctx is done, and returns the
// finalized record. Only setup errors are returned; cancellation yields an
// aborted record.
func (r *Runner) Run(ctx context.Context, setup MatchSetup) (*models.MatchRecord, error) {
	defer close(r.events)

	// state is owned by this loop, so ticks advance it in place.
	state, err := r.sim.Initialize(setup)
	if err != nil {
		return nil, err
	}

	var inputLog []models.PlayerInput
	for !state.Finished() {
		batch, err := r.next(ctx, state.Tick)
		if err != nil {
			log.Printf("⚠️ [Runner] match %s: feed failed at tick %d: %v", setup.MatchID, state.Tick, err)
			state = r.sim.Abort(state)
			break
		}
		if ctx.Err() != nil {
			log.Printf("🛑 [Runner] match %s aborted at tick %d", setup.MatchID, state.Tick)
			state = r.sim.Abort(state)
			break
		}

		rep := r.sim.advance(state, batch)
		inputLog = append(inputLog, batch...)
		r.publish(TickEvent{
			MatchID: state.MatchID,
			Tick:    rep.Tick,
			ClockMs: state.ClockMs,
			Score:   state.Score,
			Events:  rep.Events,
		})
	}

	if rest, ok := r.feed.(interface{ Rest() []models.PlayerInput }); ok {
		inputLog = append(inputLog, rest.Rest()...)
	}
	rec := r.sim.Finalize(state, inputLog)
	r.publish(TickEvent{
		MatchID: rec.MatchID,
		Tick:    state.Tick,
		ClockMs: state.ClockMs,
		Score:   rec.FinalScore,
		Final:   true,
		Aborted: rec.Aborted,
	})
	return rec, nil
}

func (r *Runner) next(ctx context.Context, tick uint64) ([]models.PlayerInput, error) {
	if r.TickWait <= 0 {
		return r.feed.Next(ctx, tick)
	}
	waitCtx, cancel := context.WithTimeout(ctx, r.TickWait)
	defer cancel()
	return r.feed.Next(waitCtx, tick)
}

func (r *Runner) publish(ev TickEvent) {
	select {
	case r.events <- ev:
	default:
	}
}
