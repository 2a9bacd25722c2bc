package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"match-integrity-system/engine"
	"match-integrity-system/engine/enginetest"
	"match-integrity-system/models"
)

func TestRunnerWithLogFeedMatchesReplay(t *testing.T) {
	sim := enginetest.Simulator(t)
	setup, s := enginetest.ThreeOne(t, sim)
	want := s.Finish()

	feed := engine.NewLogFeed(want.InputLog)
	r := engine.NewRunner(sim, feed, 0)
	go func() {
		for range r.Events() {
		}
	}()

	got, err := r.Run(context.Background(), setup)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Zero(t, feed.Remaining())
}

func TestRunnerAbortsOnCancel(t *testing.T) {
	sim := enginetest.Simulator(t)
	setup := enginetest.Setup("live-abort", 9, 10000)
	inputs := make(chan models.PlayerInput)
	r := engine.NewRunner(sim, engine.NewChannelFeed(inputs), time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan *models.MatchRecord, 1)
	go func() {
		rec, err := r.Run(ctx, setup)
		assert.NoError(t, err)
		done <- rec
	}()

	var last engine.TickEvent
	for ev := range r.Events() {
		last = ev
		if ev.Tick >= 5 && !ev.Final {
			cancel()
		}
	}
	rec := <-done

	assert.True(t, last.Final)
	assert.True(t, last.Aborted)
	assert.True(t, rec.Aborted)
	assert.Less(t, rec.DurationTicks, setup.DurationTicks)
	assert.GreaterOrEqual(t, rec.DurationTicks, uint64(6))

	replayed, err := sim.ReplayRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, rec, replayed)
}

func TestRunnerRejectsBadSetup(t *testing.T) {
	sim := enginetest.Simulator(t)
	r := engine.NewRunner(sim, engine.NewLogFeed(nil), 0)
	_, err := r.Run(context.Background(), engine.MatchSetup{})
	assert.ErrorIs(t, err, engine.ErrInvalidSetup)
}

func TestChannelFeedSortsByTick(t *testing.T) {
	in := make(chan models.PlayerInput, 8)
	in <- models.PlayerInput{Tick: 0, ActorID: "late"}
	in <- models.PlayerInput{Tick: 1, ActorID: "now"}
	in <- models.PlayerInput{Tick: 2, ActorID: "early"}
	in <- models.PlayerInput{Tick: 1, ActorID: "now-too"}
	close(in)

	feed := engine.NewChannelFeed(in)
	batch, err := feed.Next(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "now", batch[0].ActorID)
	assert.Equal(t, "now-too", batch[1].ActorID)
	assert.Equal(t, int64(1), feed.Stale())

	batch, err = feed.Next(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "early", batch[0].ActorID)
}

func TestChannelFeedReturnsWhenWaitExpires(t *testing.T) {
	in := make(chan models.PlayerInput)
	feed := engine.NewChannelFeed(in)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	batch, err := feed.Next(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, batch)
}
