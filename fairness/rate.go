package fairness

import (
	"fmt"
	"sort"

	"match-integrity-system/models"
)

// IndicatorRate is reported when any actor exceeds the input ceiling.
const IndicatorRate = "input-rate-ceiling"

type timedInput struct {
	index int
	tick  uint64
}

// checkInputRate slides a RateWindowTicks window over each actor's inputs and
// flags actors whose busiest window holds more than MaxActionsPerWindow.
func (v *Validator) checkInputRate(rec *models.MatchRecord, f *findings) {
	byActor := map[string][]timedInput{}
	var actors []string
	for i, in := range rec.InputLog {
		if _, ok := byActor[in.ActorID]; !ok {
			actors = append(actors, in.ActorID)
		}
		byActor[in.ActorID] = append(byActor[in.ActorID], timedInput{index: i, tick: in.Tick})
	}

	for _, actor := range actors {
		inputs := byActor[actor]
		sort.SliceStable(inputs, func(i, j int) bool { return inputs[i].tick < inputs[j].tick })

		busiest, start := 0, 0
		lo := 0
		for hi := range inputs {
			for inputs[hi].tick-inputs[lo].tick >= v.cfg.RateWindowTicks {
				lo++
			}
			if n := hi - lo + 1; n > busiest {
				busiest, start = n, lo
			}
		}
		if busiest <= v.cfg.MaxActionsPerWindow {
			continue
		}
		f.add(models.Issue{
			Category: models.CategoryInputRate,
			Severity: models.SeverityHigh,
			Description: fmt.Sprintf("%s issued %d inputs within %d ticks (ceiling %d)",
				actor, busiest, v.cfg.RateWindowTicks, v.cfg.MaxActionsPerWindow),
			EvidenceRef: fmt.Sprintf("inputLog[%d]", inputs[start].index),
		}, v.cfg.Weights.InputRate, IndicatorRate)
	}
}
