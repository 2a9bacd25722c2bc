package fairness

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"match-integrity-system/models"
)

const IndicatorOutlier = "statistical-outlier"

// checkOutliers compares each player's tallies with the reference for their
// tier. Only unusually high values are suspicious.
func (v *Validator) checkOutliers(rec *models.MatchRecord, f *findings) {
	if len(rec.PlayerStats) == 0 {
		f.incomplete("record has no player statistics; outlier check skipped", "playerStats")
		return
	}

	for i, ps := range rec.PlayerStats {
		profile, _, ok := rec.Profile(ps.PlayerID)
		if !ok {
			f.incomplete(fmt.Sprintf("stats for %s match no roster entry", ps.PlayerID), fmt.Sprintf("playerStats[%d]", i))
			continue
		}
		tier := TierFor(profile.Ratings)
		ref, ok := v.cfg.Reference[tier]
		if !ok {
			f.incomplete(fmt.Sprintf("no reference distribution for tier %s", tier), fmt.Sprintf("playerStats[%d]", i))
			continue
		}

		v.outlier(f, i, ps.PlayerID, tier, "shots", float64(ps.Shots), ref.Shots)
		v.outlier(f, i, ps.PlayerID, tier, "goals", float64(ps.Goals), ref.Goals)
		v.outlier(f, i, ps.PlayerID, tier, "assists", float64(ps.Assists), ref.Assists)
		v.outlier(f, i, ps.PlayerID, tier, "tackles", float64(ps.Tackles), ref.Tackles)
		if ps.Shots >= v.cfg.MinShotsForAccuracy {
			accuracy := float64(ps.ShotsOnTarget) / float64(ps.Shots)
			v.outlier(f, i, ps.PlayerID, tier, "accuracy", accuracy, ref.Accuracy)
		}
	}
}

func (v *Validator) outlier(f *findings, index int, playerID string, tier Tier, name string, x float64, d Distribution) {
	if d.StdDev <= 0 {
		return
	}
	z := stat.StdScore(x, d.Mean, d.StdDev)
	if z <= v.cfg.OutlierZ {
		return
	}
	f.add(models.Issue{
		Category: models.CategoryOutlier,
		Severity: models.SeverityMedium,
		Description: fmt.Sprintf("%s %s=%.2f is %.1f standard deviations above the %s reference (mean %.2f)",
			playerID, name, x, z, tier, d.Mean),
		EvidenceRef: fmt.Sprintf("playerStats[%d].%s", index, name),
	}, v.cfg.Weights.Outlier, IndicatorOutlier)
}
