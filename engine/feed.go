package engine

import (
	"context"
	"sync/atomic"

	"match-integrity-system/models"
)

// InputFeed supplies the inputs for one tick. Next returns when the tick's
// inputs are complete or ctx is done; a done ctx is not an error, the tick
// simply runs with what arrived.
type InputFeed interface {
	Next(ctx context.Context, tick uint64) ([]models.PlayerInput, error)
}

// LogFeed plays back a recorded input log with the same grouping Replay uses.
type LogFeed struct {
	log    []models.PlayerInput
	cursor int
}

func NewLogFeed(log []models.PlayerInput) *LogFeed {
	return &LogFeed{log: log}
}

func (f *LogFeed) Next(_ context.Context, tick uint64) ([]models.PlayerInput, error) {
	end := f.cursor
	for end < len(f.log) && f.log[end].Tick <= tick {
		end++
	}
	batch := f.log[f.cursor:end]
	f.cursor = end
	return batch, nil
}

// Remaining is the number of entries never handed out.
func (f *LogFeed) Remaining() int {
	return len(f.log) - f.cursor
}

// Rest hands out everything left, for recording as beyond-duration.
func (f *LogFeed) Rest() []models.PlayerInput {
	rest := f.log[f.cursor:]
	f.cursor = len(f.log)
	return rest
}

// ChannelFeed collects live inputs from a channel. Inputs for a tick that has
// already run are dropped and counted, never logged; inputs for later ticks
// are held back until their tick.
type ChannelFeed struct {
	in      <-chan models.PlayerInput
	pending []models.PlayerInput
	closed  bool
	stale   atomic.Int64
}

func NewChannelFeed(in <-chan models.PlayerInput) *ChannelFeed {
	return &ChannelFeed{in: in}
}

func (f *ChannelFeed) Next(ctx context.Context, tick uint64) ([]models.PlayerInput, error) {
	var batch []models.PlayerInput
	keep := f.pending[:0]
	for _, in := range f.pending {
		switch {
		case in.Tick == tick:
			batch = append(batch, in)
		case in.Tick < tick:
			f.stale.Add(1)
		default:
			keep = append(keep, in)
		}
	}
	f.pending = keep

	for !f.closed {
		select {
		case <-ctx.Done():
			return batch, nil
		case in, ok := <-f.in:
			if !ok {
				f.closed = true
				break
			}
			switch {
			case in.Tick == tick:
				batch = append(batch, in)
			case in.Tick < tick:
				f.stale.Add(1)
			default:
				f.pending = append(f.pending, in)
			}
		}
	}
	return batch, nil
}

// Stale is the number of inputs dropped for arriving after their tick ran.
func (f *ChannelFeed) Stale() int64 {
	return f.stale.Load()
}
