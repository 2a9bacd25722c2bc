package fairness_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"match-integrity-system/engine/enginetest"
	"match-integrity-system/fairness"
	"match-integrity-system/models"
)

func TestTierFor(t *testing.T) {
	assert.Equal(t, fairness.TierAmateur, fairness.TierFor(models.Ratings{Pace: 40, Shooting: 40, Passing: 40, Defense: 40, Dribbling: 40, Physical: 40}))
	assert.Equal(t, fairness.TierPro, fairness.TierFor(models.Ratings{Pace: 50, Shooting: 50, Passing: 50, Defense: 50, Dribbling: 50, Physical: 50}))
	assert.Equal(t, fairness.TierPro, fairness.TierFor(enginetest.DefaultRatings))
	assert.Equal(t, fairness.TierElite, fairness.TierFor(models.Ratings{Pace: 75, Shooting: 75, Passing: 75, Defense: 75, Dribbling: 75, Physical: 75}))
}

func historyRecord(shots int64) *models.MatchRecord {
	team := enginetest.Team("hist", 1, enginetest.DefaultRatings)
	return &models.MatchRecord{
		MatchID:    "hist",
		HomeTeamID: team.ID,
		HomeRoster: team.Players,
		PlayerStats: []models.PlayerStats{{
			PlayerID:      team.Players[0].ID,
			Shots:         shots,
			ShotsOnTarget: shots / 2,
			Goals:         1,
		}},
	}
}

func TestBuildReferenceUsesHistory(t *testing.T) {
	var history []*models.MatchRecord
	for i := 0; i < fairness.MinReferenceSamples; i++ {
		history = append(history, historyRecord(int64(2+i%3)))
	}
	aborted := historyRecord(50)
	aborted.Aborted = true
	history = append(history, aborted)

	ref := fairness.BuildReference(history)

	pro := ref[fairness.TierPro]
	assert.InDelta(t, 3.0, pro.Shots.Mean, 0.01)
	assert.Greater(t, pro.Shots.StdDev, 0.5)
	assert.InDelta(t, 1.0, pro.Goals.Mean, 1e-9)
	assert.Equal(t, 0.25, pro.Goals.StdDev, "constant stats get the floor")
	assert.Equal(t, fairness.DefaultReference[fairness.TierElite], ref[fairness.TierElite])
}

func TestBuildReferenceKeepsDefaultsForThinHistory(t *testing.T) {
	ref := fairness.BuildReference([]*models.MatchRecord{historyRecord(9), nil})
	assert.Equal(t, fairness.DefaultReference, ref)
}
