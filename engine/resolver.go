package engine

import "match-integrity-system/models"

// Resolvers are pure: they read the state snapshot and the tick's pre-drawn
// rolls and return a delta plus an event. They never write to s.

// DrawsFor is the number of rolls an accepted action consumes. It is fixed
// per kind and does not depend on the outcome.
func DrawsFor(kind models.ActionKind) int {
	switch kind {
	case models.ActionPass:
		return PassDraws
	case models.ActionShoot:
		return ShotDraws
	case models.ActionTackle:
		return TackleDraws
	case models.ActionSkill:
		return SkillDraws
	default:
		return 0
	}
}

// Resolve dispatches on the action kind.
func Resolve(s *MatchState, in models.PlayerInput, rolls []int64) (StateDelta, Event) {
	switch in.ActionKind {
	case models.ActionMove:
		return ResolveMove(s, in)
	case models.ActionPass:
		return ResolvePass(s, in, rolls)
	case models.ActionShoot:
		return ResolveShot(s, in, rolls)
	case models.ActionTackle:
		return ResolveTackle(s, in, rolls)
	case models.ActionSprint:
		return ResolveSprint(s, in)
	case models.ActionSkill:
		return ResolveSkill(s, in, rolls)
	}
	return StateDelta{}, noEffect(s, in, "unknown action")
}

func noEffect(s *MatchState, in models.PlayerInput, detail string) Event {
	return Event{Tick: s.Tick, Kind: string(in.ActionKind), ActorID: in.ActorID, Outcome: OutcomeNoEffect, Detail: detail}
}

func outOfRange(s *MatchState, in models.PlayerInput, detail string) (StateDelta, Event) {
	return StateDelta{OutOfRange: true}, noEffect(s, in, detail)
}

// ResolveMove sets a movement target. Movement itself happens in the
// movement phase of the tick.
func ResolveMove(s *MatchState, in models.PlayerInput) (StateDelta, Event) {
	target := Vec{X: in.Params.X, Y: in.Params.Y}
	if !onPitch(target) {
		return outOfRange(s, in, "target off pitch")
	}
	d := StateDelta{Players: []PlayerDelta{{PlayerID: in.ActorID, SetTarget: true, Target: target}}}
	return d, Event{Tick: s.Tick, Kind: string(in.ActionKind), ActorID: in.ActorID, Outcome: OutcomeSuccess}
}

// ResolvePass: success = effPassing * (MaxPassDistance-d) * 100 / MaxPassDistance.
func ResolvePass(s *MatchState, in models.PlayerInput, rolls []int64) (StateDelta, Event) {
	passer := s.Player(in.ActorID)
	if passer == nil || s.BallHolder != passer.ID {
		return StateDelta{}, noEffect(s, in, "not in possession")
	}
	receiver := s.Player(in.Params.TargetID)
	if receiver == nil || receiver.Side != passer.Side || receiver.ID == passer.ID || receiver.SentOff {
		return outOfRange(s, in, "invalid receiver")
	}
	dist := Distance(passer.Position, receiver.Position)
	if dist > MaxPassDistance {
		return outOfRange(s, in, "receiver beyond pass range")
	}

	eff := passer.EffectiveRatings(s.Tick).Passing
	p := eff * (MaxPassDistance - dist) * 100 / MaxPassDistance

	var d StateDelta
	pd := d.player(passer.ID)
	pd.Tallies.Passes = 1
	ev := Event{Tick: s.Tick, Kind: string(in.ActionKind), ActorID: passer.ID, TargetID: receiver.ID, Side: passer.Side}

	if rolls[0] < p {
		pd.Tallies.PassesCompleted = 1
		d.PossessionTo = receiver.ID
		d.SetLastPass = true
		d.LastPass = PassMemo{Valid: true, PasserID: passer.ID, Side: passer.Side, Tick: s.Tick}
		ev.Outcome = OutcomeSuccess
		return d, ev
	}

	mid := Vec{X: (passer.Position.X + receiver.Position.X) / 2, Y: (passer.Position.Y + receiver.Position.Y) / 2}
	var vel Vec
	if dist > 0 {
		vel = Vec{
			X: (receiver.Position.X - passer.Position.X) * LooseBallSpeed / dist,
			Y: (receiver.Position.Y - passer.Position.Y) * LooseBallSpeed / dist,
		}
	}
	d.Loose = true
	d.LooseAt = mid
	d.LooseVel = vel
	d.SetLastPass = true
	ev.Outcome = OutcomeFailed
	return d, ev
}

// ResolveShot rolls on-target first, then keeper. Both rolls are always drawn.
//
//	onTarget = effShooting * (MaxShotDistance-d) * 100 / MaxShotDistance
//	beat     = clamp(6000 + 50*(effShooting-keeperDefense) + 20*(power-50), 500, 9500)
func ResolveShot(s *MatchState, in models.PlayerInput, rolls []int64) (StateDelta, Event) {
	shooter := s.Player(in.ActorID)
	if shooter == nil || s.BallHolder != shooter.ID {
		return StateDelta{}, noEffect(s, in, "not in possession")
	}
	goal := attackingGoal(shooter.Side)
	dist := Distance(shooter.Position, goal)
	if dist > MaxShotDistance {
		return outOfRange(s, in, "beyond shooting range")
	}
	power := in.Params.Power
	if power == 0 {
		power = DefaultShotPower
	}

	eff := shooter.EffectiveRatings(s.Tick).Shooting
	onTarget := eff * (MaxShotDistance - dist) * 100 / MaxShotDistance

	keeper := s.keeper(opponent(shooter.Side))
	var keeperDef int64
	if keeper != nil {
		keeperDef = keeper.EffectiveRatings(s.Tick).Defense
	}
	beat := clamp(KeeperBaseBPS+KeeperSkillFactor*(eff-keeperDef)+KeeperPowerFactor*(power-50), KeeperMinBPS, KeeperMaxBPS)

	var d StateDelta
	sd := d.player(shooter.ID)
	sd.Tallies.Shots = 1
	sd.StaminaDelta = -ShotExertion
	ev := Event{Tick: s.Tick, Kind: string(in.ActionKind), ActorID: shooter.ID, Side: shooter.Side}

	switch {
	case rolls[0] < onTarget && rolls[1] < beat:
		sd.Tallies.ShotsOnTarget = 1
		sd.Tallies.Goals = 1
		lp := s.LastPass
		if lp.Valid && lp.Side == shooter.Side && lp.PasserID != shooter.ID && s.Tick-lp.Tick <= AssistWindowTicks {
			d.player(lp.PasserID).Tallies.Assists = 1
			ev.TargetID = lp.PasserID
		}
		d.GoalFor = shooter.Side
		ev.Outcome = OutcomeGoal
	case rolls[0] < onTarget:
		sd.Tallies.ShotsOnTarget = 1
		ev.Outcome = OutcomeSaved
		restartWithKeeper(&d, keeper, goal)
	default:
		ev.Outcome = OutcomeMissed
		restartWithKeeper(&d, keeper, goal)
	}
	return d, ev
}

func restartWithKeeper(d *StateDelta, keeper *PlayerState, goal Vec) {
	if keeper != nil {
		d.PossessionTo = keeper.ID
	} else {
		d.Loose = true
		d.LooseAt = goal
	}
	d.SetLastPass = true
}

// ResolveTackle rolls foul, success, card in that order.
//
//	success = defense * (200-dribbling) / 2
//	foul    = min(1200 + 30*max(0, dribbling-defense), 6000)
func ResolveTackle(s *MatchState, in models.PlayerInput, rolls []int64) (StateDelta, Event) {
	tackler := s.Player(in.ActorID)
	if tackler == nil || s.BallHolder == "" {
		return StateDelta{}, noEffect(s, in, "ball is loose")
	}
	holder := s.Player(s.BallHolder)
	if holder == nil || holder.Side == tackler.Side {
		return StateDelta{}, noEffect(s, in, "no opponent in possession")
	}
	if in.Params.TargetID != "" && in.Params.TargetID != holder.ID {
		return outOfRange(s, in, "target is not the ball holder")
	}
	if Distance(tackler.Position, holder.Position) > TackleRange {
		return outOfRange(s, in, "holder beyond tackle range")
	}

	ev := Event{Tick: s.Tick, Kind: string(in.ActionKind), ActorID: tackler.ID, TargetID: holder.ID, Side: tackler.Side}
	var d StateDelta
	td := d.player(tackler.ID)
	td.StaminaDelta = -TackleExertion

	if s.Tick < holder.ShieldUntilTick {
		ev.Outcome = OutcomeBlocked
		ev.Detail = "holder shielded"
		return d, ev
	}

	def := tackler.EffectiveRatings(s.Tick).Defense
	drib := holder.EffectiveRatings(s.Tick).Dribbling
	success := def * (200 - drib) / 2
	foul := FoulBaseBPS + FoulSkillFactor*max(0, drib-def)
	if foul > FoulMaxBPS {
		foul = FoulMaxBPS
	}

	switch {
	case rolls[0] < foul:
		td.Tallies.Fouls = 1
		switch {
		case rolls[2] < RedCardBPS:
			td.Card = CardRed
		case rolls[2] < YellowCardBPS:
			td.Card = CardYellow
		}
		ev.Outcome = OutcomeFoul
		ev.Card = td.Card
	case rolls[1] < success:
		td.Tallies.Tackles = 1
		d.PossessionTo = tackler.ID
		d.SetLastPass = true
		ev.Outcome = OutcomeWon
	default:
		ev.Outcome = OutcomeBlocked
	}
	return d, ev
}

// ResolveSprint opens the boost window for a fixed stamina cost. No rolls.
func ResolveSprint(s *MatchState, in models.PlayerInput) (StateDelta, Event) {
	p := s.Player(in.ActorID)
	if p == nil {
		return StateDelta{}, noEffect(s, in, "unknown actor")
	}
	if p.Sprinting(s.Tick) {
		return StateDelta{}, noEffect(s, in, "already sprinting")
	}
	if p.Stamina < SprintStaminaCost {
		return StateDelta{}, noEffect(s, in, "insufficient stamina")
	}
	d := StateDelta{Players: []PlayerDelta{{
		PlayerID:     p.ID,
		StaminaDelta: -SprintStaminaCost,
		SprintUntil:  s.Tick + SprintTicks,
		Tallies:      Tallies{Sprints: 1},
	}}}
	return d, Event{Tick: s.Tick, Kind: string(in.ActionKind), ActorID: p.ID, Outcome: OutcomeSuccess, Side: p.Side}
}

// ResolveSkill beats the nearest defender: success shields the holder from
// tackles for SkillShieldTicks, failure knocks the ball loose.
//
//	success = 80 * effDribbling
func ResolveSkill(s *MatchState, in models.PlayerInput, rolls []int64) (StateDelta, Event) {
	p := s.Player(in.ActorID)
	if p == nil || s.BallHolder != p.ID {
		return StateDelta{}, noEffect(s, in, "not in possession")
	}
	defender := s.nearest(opponent(p.Side), p.Position, SkillRange)
	if defender == nil {
		return StateDelta{}, noEffect(s, in, "no defender in range")
	}

	chance := SkillFactorBPS * p.EffectiveRatings(s.Tick).Dribbling
	var d StateDelta
	pd := d.player(p.ID)
	pd.StaminaDelta = -SkillExertion
	ev := Event{Tick: s.Tick, Kind: string(in.ActionKind), ActorID: p.ID, TargetID: defender.ID, Side: p.Side}

	if rolls[0] < chance {
		pd.ShieldUntil = s.Tick + SkillShieldTicks
		ev.Outcome = OutcomeSuccess
		return d, ev
	}
	d.Loose = true
	d.LooseAt = p.Position
	d.SetLastPass = true
	ev.Outcome = OutcomeFailed
	return d, ev
}
