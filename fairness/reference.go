package fairness

import (
	"gonum.org/v1/gonum/stat"

	"match-integrity-system/models"
)

// Tier buckets players by mean rating.
type Tier string

const (
	TierAmateur Tier = "amateur"
	TierPro     Tier = "pro"
	TierElite   Tier = "elite"
)

// TierFor: amateur below 50, pro below 75, elite from 75.
func TierFor(r models.Ratings) Tier {
	switch m := r.Mean(); {
	case m < 50:
		return TierAmateur
	case m < 75:
		return TierPro
	default:
		return TierElite
	}
}

// Distribution is a per-match, per-player reference for one stat.
type Distribution struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
}

// TierReference holds the distributions the outlier check compares against.
type TierReference struct {
	Shots    Distribution `json:"shots"`
	Goals    Distribution `json:"goals"`
	Assists  Distribution `json:"assists"`
	Tackles  Distribution `json:"tackles"`
	Accuracy Distribution `json:"accuracy"`
}

type Reference map[Tier]TierReference

var DefaultReference = Reference{
	TierAmateur: {
		Shots:    Distribution{Mean: 1.2, StdDev: 1.2},
		Goals:    Distribution{Mean: 0.15, StdDev: 0.4},
		Assists:  Distribution{Mean: 0.1, StdDev: 0.35},
		Tackles:  Distribution{Mean: 1.5, StdDev: 1.4},
		Accuracy: Distribution{Mean: 0.30, StdDev: 0.18},
	},
	TierPro: {
		Shots:    Distribution{Mean: 1.5, StdDev: 1.3},
		Goals:    Distribution{Mean: 0.2, StdDev: 0.45},
		Assists:  Distribution{Mean: 0.15, StdDev: 0.4},
		Tackles:  Distribution{Mean: 2.0, StdDev: 1.6},
		Accuracy: Distribution{Mean: 0.38, StdDev: 0.17},
	},
	TierElite: {
		Shots:    Distribution{Mean: 1.8, StdDev: 1.4},
		Goals:    Distribution{Mean: 0.3, StdDev: 0.55},
		Assists:  Distribution{Mean: 0.2, StdDev: 0.45},
		Tackles:  Distribution{Mean: 2.2, StdDev: 1.7},
		Accuracy: Distribution{Mean: 0.45, StdDev: 0.16},
	},
}

// MinReferenceSamples is the smallest per-tier sample BuildReference trusts;
// thinner tiers keep the default distribution.
const MinReferenceSamples = 30

// minStdDev keeps z-scores finite for stats that never vary in history.
const minStdDev = 0.25

// BuildReference derives tier distributions from historical records. Aborted
// records are skipped.
func BuildReference(records []*models.MatchRecord) Reference {
	type samples struct {
		shots, goals, assists, tackles, accuracy []float64
	}
	byTier := map[Tier]*samples{}

	for _, rec := range records {
		if rec == nil || rec.Aborted {
			continue
		}
		for _, ps := range rec.PlayerStats {
			profile, _, ok := rec.Profile(ps.PlayerID)
			if !ok {
				continue
			}
			tier := TierFor(profile.Ratings)
			s := byTier[tier]
			if s == nil {
				s = &samples{}
				byTier[tier] = s
			}
			s.shots = append(s.shots, float64(ps.Shots))
			s.goals = append(s.goals, float64(ps.Goals))
			s.assists = append(s.assists, float64(ps.Assists))
			s.tackles = append(s.tackles, float64(ps.Tackles))
			if ps.Shots > 0 {
				s.accuracy = append(s.accuracy, float64(ps.ShotsOnTarget)/float64(ps.Shots))
			}
		}
	}

	out := Reference{}
	for tier, def := range DefaultReference {
		ref := def
		if s := byTier[tier]; s != nil && len(s.shots) >= MinReferenceSamples {
			ref.Shots = distribution(s.shots)
			ref.Goals = distribution(s.goals)
			ref.Assists = distribution(s.assists)
			ref.Tackles = distribution(s.tackles)
			if len(s.accuracy) >= MinReferenceSamples {
				ref.Accuracy = distribution(s.accuracy)
			}
		}
		out[tier] = ref
	}
	return out
}

func distribution(xs []float64) Distribution {
	mean, std := stat.MeanStdDev(xs, nil)
	if std < minStdDev {
		std = minStdDev
	}
	return Distribution{Mean: mean, StdDev: std}
}
