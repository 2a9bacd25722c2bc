package engine

import "match-integrity-system/models"

// StaminaFactor is the fixed penalty curve, in percent of the base rating.
//
//	stamina >= 50  100
//	30..49          90
//	15..29          80
//	below 15        65
func StaminaFactor(stamina int64) int64 {
	switch {
	case stamina >= 50:
		return 100
	case stamina >= 30:
		return 90
	case stamina >= 15:
		return 80
	default:
		return 65
	}
}

func applyStamina(rating, stamina int64) int64 {
	return rating * StaminaFactor(stamina) / 100
}

// EffectiveRatings are the ratings the resolver uses at tick: the sprint pace
// boost is added first, then the stamina curve is applied to every rating.
func (p *PlayerState) EffectiveRatings(tick uint64) models.Ratings {
	pace := p.Ratings.Pace
	if p.Sprinting(tick) {
		pace += SprintPaceBoost
	}
	return models.Ratings{
		Pace:      applyStamina(pace, p.Stamina),
		Shooting:  applyStamina(p.Ratings.Shooting, p.Stamina),
		Passing:   applyStamina(p.Ratings.Passing, p.Stamina),
		Defense:   applyStamina(p.Ratings.Defense, p.Stamina),
		Dribbling: applyStamina(p.Ratings.Dribbling, p.Stamina),
		Physical:  applyStamina(p.Ratings.Physical, p.Stamina),
	}
}

// Sprinting reports whether the boost window is open at tick.
func (p *PlayerState) Sprinting(tick uint64) bool {
	return tick < p.SprintUntilTick
}

// MaxStep is the largest per-tick displacement for an effective pace.
func MaxStep(pace int64) int64 {
	return BaseStep + pace*PaceStepPercent/100
}

func scaleRatings(r models.Ratings, percent int64) models.Ratings {
	s := func(v int64) int64 {
		return clamp(v*percent/100, 0, 100)
	}
	return models.Ratings{
		Pace:      s(r.Pace),
		Shooting:  s(r.Shooting),
		Passing:   s(r.Passing),
		Defense:   s(r.Defense),
		Dribbling: s(r.Dribbling),
		Physical:  s(r.Physical),
	}
}
