package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"match-integrity-system/engine"
	"match-integrity-system/engine/enginetest"
	"match-integrity-system/models"
)

func kickoffState(t *testing.T) *engine.MatchState {
	t.Helper()
	sim := enginetest.Simulator(t)
	st, err := sim.Initialize(enginetest.Setup("resolver", 7, 600))
	require.NoError(t, err)
	require.Equal(t, "home-p9", st.BallHolder)
	return st
}

func place(st *engine.MatchState, id string, at engine.Vec) {
	p := st.Player(id)
	p.Position = at
	if st.BallHolder == id {
		st.Ball.Position = at
	}
}

func pass(actor, target string) models.PlayerInput {
	return models.PlayerInput{ActorID: actor, ActionKind: models.ActionPass, Params: models.InputParams{TargetID: target}}
}

func TestDrawsAreFixedPerKind(t *testing.T) {
	assert.Equal(t, 0, engine.DrawsFor(models.ActionMove))
	assert.Equal(t, 1, engine.DrawsFor(models.ActionPass))
	assert.Equal(t, 2, engine.DrawsFor(models.ActionShoot))
	assert.Equal(t, 3, engine.DrawsFor(models.ActionTackle))
	assert.Equal(t, 0, engine.DrawsFor(models.ActionSprint))
	assert.Equal(t, 1, engine.DrawsFor(models.ActionSkill))
}

func TestResolversDoNotWriteState(t *testing.T) {
	st := kickoffState(t)
	before := st.Clone()

	engine.ResolvePass(st, pass("home-p9", "home-p5"), []int64{0})
	engine.ResolveShot(st, models.PlayerInput{ActorID: "home-p9", ActionKind: models.ActionShoot}, []int64{0, 0})
	engine.ResolveTackle(st, models.PlayerInput{ActorID: "away-p9", ActionKind: models.ActionTackle}, []int64{0, 0, 0})
	engine.ResolveSprint(st, models.PlayerInput{ActorID: "home-p1", ActionKind: models.ActionSprint})

	assert.Equal(t, before, st)
}

func TestResolvePass(t *testing.T) {
	st := kickoffState(t)

	d, ev := engine.ResolvePass(st, pass("home-p9", "home-p5"), []int64{0})
	assert.Equal(t, engine.OutcomeSuccess, ev.Outcome)
	assert.Equal(t, "home-p5", d.PossessionTo)
	assert.True(t, d.LastPass.Valid)
	require.Len(t, d.Players, 1)
	assert.Equal(t, int64(1), d.Players[0].Tallies.Passes)
	assert.Equal(t, int64(1), d.Players[0].Tallies.PassesCompleted)

	// 1500cm at passing 75: 75 * 2500 * 100 / 4000 = 4687
	d, ev = engine.ResolvePass(st, pass("home-p9", "home-p5"), []int64{4687})
	assert.Equal(t, engine.OutcomeFailed, ev.Outcome)
	assert.True(t, d.Loose)
	assert.Equal(t, int64(0), d.Players[0].Tallies.PassesCompleted)

	d, ev = engine.ResolvePass(st, pass("home-p9", "home-p4"), []int64{0})
	assert.True(t, d.OutOfRange, "receiver is over 40m away")
	assert.Equal(t, engine.OutcomeNoEffect, ev.Outcome)

	d, _ = engine.ResolvePass(st, pass("home-p9", "away-p1"), []int64{0})
	assert.True(t, d.OutOfRange)

	d, ev = engine.ResolvePass(st, pass("home-p5", "home-p9"), []int64{0})
	assert.False(t, d.OutOfRange, "passing without the ball is a plain no-op")
	assert.Equal(t, engine.OutcomeNoEffect, ev.Outcome)
}

func TestResolveShot(t *testing.T) {
	st := kickoffState(t)
	shoot := models.PlayerInput{ActorID: "home-p9", ActionKind: models.ActionShoot}

	d, _ := engine.ResolveShot(st, shoot, []int64{0, 0})
	assert.True(t, d.OutOfRange)

	place(st, "home-p9", enginetest.ShootingSpot(models.SideHome))

	d, ev := engine.ResolveShot(st, shoot, []int64{0, 0})
	assert.Equal(t, engine.OutcomeGoal, ev.Outcome)
	assert.Equal(t, models.SideHome, d.GoalFor)
	assert.Equal(t, int64(1), d.Players[0].Tallies.Goals)
	assert.Equal(t, -engine.ShotExertion, d.Players[0].StaminaDelta)

	d, ev = engine.ResolveShot(st, shoot, []int64{0, engine.KeeperMaxBPS})
	assert.Equal(t, engine.OutcomeSaved, ev.Outcome)
	assert.Equal(t, "away-p0", d.PossessionTo)
	assert.Equal(t, int64(1), d.Players[0].Tallies.ShotsOnTarget)

	d, ev = engine.ResolveShot(st, shoot, []int64{engine.BPSScale - 1, 0})
	assert.Equal(t, engine.OutcomeMissed, ev.Outcome)
	assert.Equal(t, int64(0), d.Players[0].Tallies.ShotsOnTarget)
	assert.Equal(t, int64(1), d.Players[0].Tallies.Shots)
}

func TestShotCreditsAssistInsideWindow(t *testing.T) {
	st := kickoffState(t)
	place(st, "home-p9", enginetest.ShootingSpot(models.SideHome))
	shoot := models.PlayerInput{ActorID: "home-p9", ActionKind: models.ActionShoot}

	st.LastPass = engine.PassMemo{Valid: true, PasserID: "home-p5", Side: models.SideHome, Tick: st.Tick}
	d, ev := engine.ResolveShot(st, shoot, []int64{0, 0})
	assert.Equal(t, "home-p5", ev.TargetID)
	require.Len(t, d.Players, 2)
	assert.Equal(t, int64(1), d.Players[1].Tallies.Assists)

	st.Tick = engine.AssistWindowTicks + 1
	d, _ = engine.ResolveShot(st, shoot, []int64{0, 0})
	assert.Len(t, d.Players, 1)
}

func TestResolveTackle(t *testing.T) {
	st := kickoffState(t)
	tackle := models.PlayerInput{ActorID: "away-p9", ActionKind: models.ActionTackle}

	d, _ := engine.ResolveTackle(st, tackle, []int64{0, 0, 0})
	assert.True(t, d.OutOfRange, "holder is 15m away")

	holder := st.Player("home-p9").Position
	place(st, "away-p9", engine.Vec{X: holder.X + 100, Y: holder.Y})

	d, ev := engine.ResolveTackle(st, tackle, []int64{0, 0, 0})
	assert.Equal(t, engine.OutcomeFoul, ev.Outcome)
	assert.Equal(t, engine.CardRed, ev.Card)

	d, ev = engine.ResolveTackle(st, tackle, []int64{0, 0, engine.RedCardBPS})
	assert.Equal(t, engine.CardYellow, ev.Card)
	assert.Equal(t, int64(1), d.Players[0].Tallies.Fouls)

	d, ev = engine.ResolveTackle(st, tackle, []int64{engine.FoulMaxBPS, 0, 0})
	assert.Equal(t, engine.OutcomeWon, ev.Outcome)
	assert.Equal(t, "away-p9", d.PossessionTo)
	assert.Equal(t, int64(1), d.Players[0].Tallies.Tackles)

	// success = 60 * (200-70) / 2 = 3900
	_, ev = engine.ResolveTackle(st, tackle, []int64{engine.FoulMaxBPS, 3900, 0})
	assert.Equal(t, engine.OutcomeBlocked, ev.Outcome)

	wrong := tackle
	wrong.Params.TargetID = "home-p5"
	d, _ = engine.ResolveTackle(st, wrong, []int64{0, 0, 0})
	assert.True(t, d.OutOfRange)
}

func TestSecondYellowSendsOff(t *testing.T) {
	st := kickoffState(t)
	booking := engine.StateDelta{Players: []engine.PlayerDelta{{PlayerID: "away-p3", Card: engine.CardYellow}}}

	st.ApplyDelta(booking)
	assert.False(t, st.Player("away-p3").SentOff)

	rep := st.ApplyDelta(booking)
	p := st.Player("away-p3")
	assert.True(t, p.SentOff)
	assert.Equal(t, int64(2), p.Tallies.YellowCards)
	assert.Equal(t, int64(1), p.Tallies.RedCards)
	require.NotEmpty(t, rep.Events)
	assert.Equal(t, engine.EventSentOff, rep.Events[0].Kind)
}

func TestSkillShieldsHolder(t *testing.T) {
	st := kickoffState(t)
	skill := models.PlayerInput{ActorID: "home-p9", ActionKind: models.ActionSkill}

	_, ev := engine.ResolveSkill(st, skill, []int64{0})
	assert.Equal(t, engine.OutcomeNoEffect, ev.Outcome, "no defender nearby")

	holder := st.Player("home-p9").Position
	place(st, "away-p9", engine.Vec{X: holder.X + 200, Y: holder.Y})

	d, ev := engine.ResolveSkill(st, skill, []int64{0})
	assert.Equal(t, engine.OutcomeSuccess, ev.Outcome)
	st.ApplyDelta(d)

	_, ev = engine.ResolveTackle(st, models.PlayerInput{ActorID: "away-p9", ActionKind: models.ActionTackle}, []int64{0, 0, 0})
	assert.Equal(t, engine.OutcomeBlocked, ev.Outcome)
	assert.Equal(t, "holder shielded", ev.Detail)

	// 80 * 70 = 5600
	d, ev = engine.ResolveSkill(st, skill, []int64{5600})
	assert.Equal(t, engine.OutcomeFailed, ev.Outcome)
	assert.True(t, d.Loose)
}

func TestMoveOffPitchIsOutOfRange(t *testing.T) {
	st := kickoffState(t)
	d, _ := engine.ResolveMove(st, models.PlayerInput{ActorID: "home-p1", ActionKind: models.ActionMove, Params: models.InputParams{X: -1, Y: 10}})
	assert.True(t, d.OutOfRange)

	d, ev := engine.ResolveMove(st, models.PlayerInput{ActorID: "home-p1", ActionKind: models.ActionMove, Params: models.InputParams{X: 100, Y: 10}})
	assert.False(t, d.OutOfRange)
	assert.Equal(t, engine.OutcomeSuccess, ev.Outcome)
}
