package fairness

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"match-integrity-system/models"
)

// Known cheat signatures reported in ValidationReport.FraudIndicators.
const (
	PatternPeriodicTiming   = "periodic-input-timing"
	PatternSimultaneous     = "simultaneous-actions"
	PatternNonMonotonic     = "non-monotonic-timestamps"
	PatternAfterElimination = "input-after-elimination"
)

func isBallAction(k models.ActionKind) bool {
	switch k {
	case models.ActionPass, models.ActionShoot, models.ActionTackle, models.ActionSkill:
		return true
	}
	return false
}

func (v *Validator) checkPatterns(rec *models.MatchRecord, f *findings) {
	type actorLog struct {
		indices    []int
		timestamps []float64
	}
	byActor := map[string]*actorLog{}
	var actors []string

	type tickKey struct {
		actor string
		tick  uint64
	}
	ballActions := map[tickKey]int{}
	simultaneous := map[string]bool{}
	nonMonotonic := map[string]bool{}
	afterElimination := map[string]bool{}

	sentOff := map[string]int64{}
	for _, ps := range rec.PlayerStats {
		if ps.SentOffAtTick >= 0 {
			sentOff[ps.PlayerID] = ps.SentOffAtTick
		}
	}

	for i, in := range rec.InputLog {
		al := byActor[in.ActorID]
		if al == nil {
			al = &actorLog{}
			byActor[in.ActorID] = al
			actors = append(actors, in.ActorID)
		}

		if n := len(al.timestamps); n > 0 && float64(in.TimestampMs) < al.timestamps[n-1] && !nonMonotonic[in.ActorID] {
			nonMonotonic[in.ActorID] = true
			f.add(models.Issue{
				Category:    models.CategoryKnownPattern,
				Severity:    models.SeverityMedium,
				Description: fmt.Sprintf("%s timestamps go backwards (%dms after %.0fms)", in.ActorID, in.TimestampMs, al.timestamps[n-1]),
				EvidenceRef: fmt.Sprintf("inputLog[%d]", i),
			}, v.cfg.Weights.NonMonotonic, PatternNonMonotonic)
		}
		al.indices = append(al.indices, i)
		al.timestamps = append(al.timestamps, float64(in.TimestampMs))

		if isBallAction(in.ActionKind) {
			key := tickKey{actor: in.ActorID, tick: in.Tick}
			ballActions[key]++
			if ballActions[key] > v.cfg.MaxBallActionsPerTick && !simultaneous[in.ActorID] {
				simultaneous[in.ActorID] = true
				f.add(models.Issue{
					Category:    models.CategoryKnownPattern,
					Severity:    models.SeverityCritical,
					Description: fmt.Sprintf("%s issued %d ball actions in tick %d", in.ActorID, ballActions[key], in.Tick),
					EvidenceRef: fmt.Sprintf("inputLog[%d]", i),
				}, v.cfg.Weights.Simultaneous, PatternSimultaneous)
			}
		}

		if at, ok := sentOff[in.ActorID]; ok && in.Tick > uint64(at) && !afterElimination[in.ActorID] {
			afterElimination[in.ActorID] = true
			f.add(models.Issue{
				Category:    models.CategoryKnownPattern,
				Severity:    models.SeverityHigh,
				Description: fmt.Sprintf("%s kept submitting inputs after being sent off at tick %d", in.ActorID, at),
				EvidenceRef: fmt.Sprintf("inputLog[%d]", i),
			}, v.cfg.Weights.AfterElimination, PatternAfterElimination)
		}
	}

	for _, actor := range actors {
		al := byActor[actor]
		if len(al.timestamps) < v.cfg.PeriodicMinInputs || nonMonotonic[actor] {
			continue
		}
		gaps := make([]float64, len(al.timestamps)-1)
		for i := range gaps {
			gaps[i] = al.timestamps[i+1] - al.timestamps[i]
		}
		mean, std := stat.MeanStdDev(gaps, nil)
		if mean <= 0 || std >= v.cfg.PeriodicMaxStdDevMs {
			continue
		}
		f.add(models.Issue{
			Category: models.CategoryKnownPattern,
			Severity: models.SeverityHigh,
			Description: fmt.Sprintf("%s inputs arrive every %.1fms with %.2fms jitter over %d inputs",
				actor, mean, std, len(al.timestamps)),
			EvidenceRef: fmt.Sprintf("inputLog[%d]", al.indices[0]),
		}, v.cfg.Weights.Periodic, PatternPeriodicTiming)
	}
}

// checkRejected surfaces simulator rejections, one issue per reason.
func (v *Validator) checkRejected(rec *models.MatchRecord, f *findings) {
	if len(rec.Rejected) == 0 {
		return
	}
	type group struct {
		first int
		count int
	}
	groups := map[string]*group{}
	var reasons []string
	for _, r := range rec.Rejected {
		g := groups[r.Reason]
		if g == nil {
			g = &group{first: r.Index}
			groups[r.Reason] = g
			reasons = append(reasons, r.Reason)
		}
		g.count++
	}

	budget := v.cfg.Weights.InvalidInputCap
	for _, reason := range reasons {
		g := groups[reason]
		penalty := min(int64(g.count)*v.cfg.Weights.InvalidInput, budget)
		budget -= penalty
		f.add(models.Issue{
			Category:    models.CategoryInvalidInput,
			Severity:    models.SeverityLow,
			Description: fmt.Sprintf("%d input(s) rejected by the simulator: %s", g.count, reason),
			EvidenceRef: fmt.Sprintf("inputLog[%d]", g.first),
		}, penalty, "")
	}
}
