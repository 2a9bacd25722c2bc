package fairness

import (
	"fmt"

	"match-integrity-system/engine"
	"match-integrity-system/models"
)

const IndicatorTeleport = "impossible-displacement"

// checkPhysical walks each player's trace samples in order and flags the
// first displacement larger than the player could cover. A kickoff sample
// starts a new segment, since players are reset to their anchors there.
func (v *Validator) checkPhysical(rec *models.MatchRecord, f *findings) {
	if len(rec.PositionTrace) == 0 {
		f.incomplete("record has no position trace; physical check skipped", "positionTrace")
		return
	}

	type last struct {
		index  int
		sample models.PositionSample
	}
	prev := map[string]last{}
	flagged := map[string]bool{}
	unknown := map[string]bool{}

	for i, s := range rec.PositionTrace {
		profile, side, ok := rec.Profile(s.PlayerID)
		if !ok {
			if !unknown[s.PlayerID] {
				unknown[s.PlayerID] = true
				f.incomplete(fmt.Sprintf("trace references unknown player %s", s.PlayerID), fmt.Sprintf("positionTrace[%d]", i))
			}
			continue
		}
		p, seen := prev[s.PlayerID]
		prev[s.PlayerID] = last{index: i, sample: s}
		if !seen || s.Kickoff || flagged[s.PlayerID] {
			continue
		}
		if s.Tick < p.sample.Tick {
			flagged[s.PlayerID] = true
			f.add(models.Issue{
				Category:    models.CategoryPhysical,
				Severity:    models.SeverityHigh,
				Description: fmt.Sprintf("trace for %s goes back in time (tick %d after %d)", s.PlayerID, s.Tick, p.sample.Tick),
				EvidenceRef: fmt.Sprintf("positionTrace[%d]", i),
			}, v.cfg.Weights.Physical, IndicatorTeleport)
			continue
		}

		gap := int64(s.Tick - p.sample.Tick)
		allowed := v.maxStep(appliedPace(rec, side, profile.Ratings.Pace)) * gap * v.cfg.PhysicalTolerancePercent / 100
		moved := engine.Distance(engine.Vec{X: p.sample.X, Y: p.sample.Y}, engine.Vec{X: s.X, Y: s.Y})
		if moved <= allowed {
			continue
		}
		flagged[s.PlayerID] = true
		f.add(models.Issue{
			Category: models.CategoryPhysical,
			Severity: models.SeverityCritical,
			Description: fmt.Sprintf("%s moved %dcm in %d ticks (max %dcm)",
				s.PlayerID, moved, gap, allowed),
			EvidenceRef: fmt.Sprintf("positionTrace[%d]", i),
		}, v.cfg.Weights.Physical, IndicatorTeleport)
	}
}

// maxStep is the per-tick ceiling with the sprint boost applied and no
// stamina penalty.
func (v *Validator) maxStep(pace int64) int64 {
	return engine.MaxStep(pace + engine.SprintPaceBoost)
}

// appliedPace is the roster pace after the record's difficulty curve. Records
// without a curve are checked against the roster value.
func appliedPace(rec *models.MatchRecord, side string, pace int64) int64 {
	percent := rec.Curve.HomeRatingPercent
	if side == models.SideAway {
		percent = rec.Curve.AwayRatingPercent
	}
	if percent <= 0 {
		return pace
	}
	return min(pace*percent/100, 100)
}
