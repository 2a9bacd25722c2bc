package fairness_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"match-integrity-system/engine/enginetest"
	"match-integrity-system/fairness"
	"match-integrity-system/models"
)

func newValidator(t *testing.T, mutate ...func(*fairness.Config)) *fairness.Validator {
	t.Helper()
	cfg := fairness.DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	v, err := fairness.NewValidator(cfg)
	require.NoError(t, err)
	return v
}

// baseRecord is a quiet two-a-side match: stats all zero, one trace sample
// per player, no inputs.
func baseRecord() *models.MatchRecord {
	home := enginetest.Team("home", 2, enginetest.DefaultRatings)
	away := enginetest.Team("away", 2, enginetest.DefaultRatings)
	rec := &models.MatchRecord{
		SchemaVersion: models.RecordSchemaVersion,
		MatchID:       "fixture",
		HomeTeamID:    home.ID,
		AwayTeamID:    away.ID,
		HomeRoster:    home.Players,
		AwayRoster:    away.Players,
		DurationTicks: 600,
		TickMs:        100,
	}
	for _, team := range []models.Team{home, away} {
		side := models.SideHome
		if team.ID == "away" {
			side = models.SideAway
		}
		for i, p := range team.Players {
			rec.PlayerStats = append(rec.PlayerStats, models.PlayerStats{PlayerID: p.ID, Side: side, SentOffAtTick: -1})
			rec.PositionTrace = append(rec.PositionTrace, models.PositionSample{Tick: 0, PlayerID: p.ID, X: 1000 * int64(i+1), Y: 1000})
		}
	}
	return rec
}

func input(tick uint64, actor string, kind models.ActionKind, ts uint64) models.PlayerInput {
	return models.PlayerInput{Tick: tick, ActorID: actor, ActionKind: kind, TimestampMs: ts}
}

func stats(rec *models.MatchRecord, id string) *models.PlayerStats {
	for i := range rec.PlayerStats {
		if rec.PlayerStats[i].PlayerID == id {
			return &rec.PlayerStats[i]
		}
	}
	return nil
}

func TestQuietRecordIsClean(t *testing.T) {
	report := newValidator(t).Validate(baseRecord())
	assert.Equal(t, int64(100), report.TrustScore)
	assert.Equal(t, models.VerdictClean, report.Verdict)
	assert.Empty(t, report.Issues)
	assert.Empty(t, report.FraudIndicators)
	assert.Equal(t, "fixture", report.MatchID)
	assert.NotEmpty(t, report.ReportID)
	assert.Equal(t, fairness.DefaultThresholds, report.Thresholds)
}

func TestThreeOneScenarioIsClean(t *testing.T) {
	sim := enginetest.Simulator(t)
	_, s := enginetest.ThreeOne(t, sim)
	rec := s.Finish()

	report := newValidator(t).Validate(rec)
	assert.GreaterOrEqual(t, report.TrustScore, int64(80))
	assert.Equal(t, models.VerdictClean, report.Verdict)
	assert.False(t, report.HasCategory(models.CategoryPhysical), "%+v", report.Issues)
	assert.False(t, report.HasCategory(models.CategoryInputRate))
	assert.False(t, report.HasCategory(models.CategoryOutlier))
}

func TestRateCeilingBoundary(t *testing.T) {
	v := newValidator(t)

	atCeiling := baseRecord()
	for i := uint64(0); i < 8; i++ {
		atCeiling.InputLog = append(atCeiling.InputLog, input(i, "home-p1", models.ActionMove, i*100+i*i*7))
	}
	report := v.Validate(atCeiling)
	assert.False(t, report.HasCategory(models.CategoryInputRate))
	assert.Equal(t, models.VerdictClean, report.Verdict)

	over := baseRecord()
	for i := uint64(0); i < 9; i++ {
		over.InputLog = append(over.InputLog, input(i, "home-p1", models.ActionMove, i*100+i*i*7))
	}
	report = v.Validate(over)
	require.True(t, report.HasCategory(models.CategoryInputRate))
	assert.Contains(t, report.FraudIndicators, fairness.IndicatorRate)
	assert.Equal(t, int64(100)-fairness.DefaultPenaltyWeights.InputRate, report.TrustScore)
	assert.Equal(t, "inputLog[0]", report.Issues[0].EvidenceRef)
}

func TestRateWindowSlides(t *testing.T) {
	rec := baseRecord()
	// nine inputs spread over ticks 0..18 never put nine in one ten-tick window
	for i := uint64(0); i < 9; i++ {
		rec.InputLog = append(rec.InputLog, input(i*2, "home-p1", models.ActionMove, i*213+i*i*5))
	}
	report := newValidator(t).Validate(rec)
	assert.False(t, report.HasCategory(models.CategoryInputRate))
}

func TestMissingDataIsIncompleteNotPenalised(t *testing.T) {
	rec := baseRecord()
	rec.PlayerStats = nil
	rec.PositionTrace = nil

	report := newValidator(t).Validate(rec)
	assert.Equal(t, int64(100), report.TrustScore)
	assert.Equal(t, models.VerdictClean, report.Verdict)
	require.Len(t, report.Issues, 2)
	for _, is := range report.Issues {
		assert.Equal(t, models.CategoryIncompleteData, is.Category)
		assert.Equal(t, models.SeverityInfo, is.Severity)
	}
}

func TestNilRecordDegradesGracefully(t *testing.T) {
	report := newValidator(t).Validate(nil)
	assert.True(t, report.HasCategory(models.CategoryIncompleteData))
	assert.Equal(t, int64(100), report.TrustScore)
}

func TestOutliers(t *testing.T) {
	v := newValidator(t)

	rec := baseRecord()
	stats(rec, "home-p1").Goals = 5
	report := v.Validate(rec)
	require.True(t, report.HasCategory(models.CategoryOutlier))
	assert.Equal(t, "playerStats[1].goals", report.Issues[0].EvidenceRef)
	assert.Equal(t, int64(90), report.TrustScore)

	// perfect accuracy is ignored below the shot minimum
	rec = baseRecord()
	stats(rec, "home-p1").Shots = 4
	stats(rec, "home-p1").ShotsOnTarget = 4
	assert.False(t, v.Validate(rec).HasCategory(models.CategoryOutlier))

	rec = baseRecord()
	stats(rec, "home-p1").Shots = 5
	stats(rec, "home-p1").ShotsOnTarget = 5
	report = v.Validate(rec)
	require.True(t, report.HasCategory(models.CategoryOutlier))
	assert.Contains(t, report.Issues[len(report.Issues)-1].EvidenceRef, "accuracy")
}

func TestPhysicalPlausibility(t *testing.T) {
	v := newValidator(t)

	rec := baseRecord()
	rec.PositionTrace = append(rec.PositionTrace, models.PositionSample{Tick: 10, PlayerID: "home-p0", X: 1700, Y: 1000})
	assert.False(t, v.Validate(rec).HasCategory(models.CategoryPhysical), "700cm in 10 ticks is reachable")

	rec = baseRecord()
	rec.PositionTrace = append(rec.PositionTrace, models.PositionSample{Tick: 10, PlayerID: "home-p0", X: 5000, Y: 1000})
	report := v.Validate(rec)
	require.True(t, report.HasCategory(models.CategoryPhysical))
	assert.Contains(t, report.FraudIndicators, fairness.IndicatorTeleport)
	assert.Equal(t, "positionTrace[4]", report.Issues[0].EvidenceRef)

	rec = baseRecord()
	rec.PositionTrace = append(rec.PositionTrace, models.PositionSample{Tick: 10, PlayerID: "home-p0", X: 5000, Y: 1000, Kickoff: true})
	assert.False(t, v.Validate(rec).HasCategory(models.CategoryPhysical), "kickoff resets are not movement")
}

func TestPhysicalUsesRecordedDifficultyCurve(t *testing.T) {
	v := newValidator(t)
	sprint := models.PositionSample{Tick: 10, PlayerID: "away-p0", X: 1800, Y: 1000}

	rec := baseRecord()
	rec.Curve = models.DifficultyCurve{HomeRatingPercent: 100, AwayRatingPercent: 100}
	rec.PositionTrace = append(rec.PositionTrace, sprint)
	assert.True(t, v.Validate(rec).HasCategory(models.CategoryPhysical), "800cm in 10 ticks is too far at pace 70")

	rec = baseRecord()
	rec.Curve = models.DifficultyCurve{HomeRatingPercent: 100, AwayRatingPercent: 150}
	rec.PositionTrace = append(rec.PositionTrace, sprint)
	report := v.Validate(rec)
	assert.False(t, report.HasCategory(models.CategoryPhysical), "%+v", report.Issues)
}

func TestKnownPatterns(t *testing.T) {
	v := newValidator(t)

	t.Run("periodic timing", func(t *testing.T) {
		rec := baseRecord()
		for i := uint64(0); i < 12; i++ {
			rec.InputLog = append(rec.InputLog, input(i*5, "home-p1", models.ActionMove, 1000+i*250))
		}
		report := v.Validate(rec)
		assert.Contains(t, report.FraudIndicators, fairness.PatternPeriodicTiming)
		assert.Equal(t, int64(70), report.TrustScore)
		assert.Equal(t, models.VerdictSuspicious, report.Verdict)
	})

	t.Run("human jitter", func(t *testing.T) {
		rec := baseRecord()
		jitter := []uint64{0, 31, 7, 55, 12, 90, 3, 41, 66, 18, 29, 77}
		for i := uint64(0); i < 12; i++ {
			rec.InputLog = append(rec.InputLog, input(i*5, "home-p1", models.ActionMove, 1000+i*250+jitter[i]))
		}
		assert.Empty(t, v.Validate(rec).FraudIndicators)
	})

	t.Run("simultaneous actions", func(t *testing.T) {
		rec := baseRecord()
		rec.InputLog = []models.PlayerInput{
			input(4, "home-p1", models.ActionPass, 400),
			input(4, "home-p1", models.ActionShoot, 401),
		}
		report := v.Validate(rec)
		assert.Contains(t, report.FraudIndicators, fairness.PatternSimultaneous)
		assert.Equal(t, "inputLog[1]", report.Issues[0].EvidenceRef)
	})

	t.Run("move and pass in one tick is fine", func(t *testing.T) {
		rec := baseRecord()
		rec.InputLog = []models.PlayerInput{
			input(4, "home-p1", models.ActionMove, 400),
			input(4, "home-p1", models.ActionPass, 401),
		}
		assert.Empty(t, v.Validate(rec).FraudIndicators)
	})

	t.Run("non-monotonic timestamps", func(t *testing.T) {
		rec := baseRecord()
		rec.InputLog = []models.PlayerInput{
			input(1, "home-p1", models.ActionMove, 500),
			input(2, "home-p1", models.ActionMove, 300),
		}
		report := v.Validate(rec)
		assert.Equal(t, []string{fairness.PatternNonMonotonic}, report.FraudIndicators)
	})

	t.Run("input after elimination", func(t *testing.T) {
		rec := baseRecord()
		stats(rec, "away-p1").SentOffAtTick = 5
		rec.InputLog = []models.PlayerInput{
			input(5, "away-p1", models.ActionTackle, 500),
			input(9, "away-p1", models.ActionMove, 900),
		}
		report := v.Validate(rec)
		assert.Equal(t, []string{fairness.PatternAfterElimination}, report.FraudIndicators)
	})
}

func TestRejectedInputsArePenalisedUpToCap(t *testing.T) {
	rec := baseRecord()
	for i := 0; i < 20; i++ {
		rec.Rejected = append(rec.Rejected, models.RejectedInput{Index: i, ActorID: "home-p1", Reason: "out-of-range"})
	}
	rec.Rejected = append(rec.Rejected, models.RejectedInput{Index: 20, ActorID: "ghost", Reason: "unknown-actor"})

	report := newValidator(t).Validate(rec)
	require.Len(t, report.Issues, 2)
	assert.Equal(t, models.CategoryInvalidInput, report.Issues[0].Category)
	assert.Equal(t, int64(100)-fairness.DefaultPenaltyWeights.InvalidInputCap, report.TrustScore)
	assert.Empty(t, report.FraudIndicators)
}

func TestThresholdsAreConfigurable(t *testing.T) {
	rec := baseRecord()
	stats(rec, "home-p1").Goals = 5

	strict := newValidator(t, func(c *fairness.Config) {
		c.Thresholds = models.Thresholds{Clean: 95, Suspicious: 50}
	})
	report := strict.Validate(rec)
	assert.Equal(t, int64(90), report.TrustScore)
	assert.Equal(t, models.VerdictSuspicious, report.Verdict)
	assert.Equal(t, models.Thresholds{Clean: 95, Suspicious: 50}, report.Thresholds)
}

func TestVerdictBoundaries(t *testing.T) {
	th := fairness.DefaultThresholds
	assert.Equal(t, models.VerdictClean, fairness.VerdictFor(80, th))
	assert.Equal(t, models.VerdictSuspicious, fairness.VerdictFor(79, th))
	assert.Equal(t, models.VerdictSuspicious, fairness.VerdictFor(40, th))
	assert.Equal(t, models.VerdictRejected, fairness.VerdictFor(39, th))
}

func TestConfigValidation(t *testing.T) {
	cfg := fairness.DefaultConfig()
	cfg.Thresholds = models.Thresholds{Clean: 30, Suspicious: 60}
	_, err := fairness.NewValidator(cfg)
	assert.Error(t, err)

	cfg = fairness.DefaultConfig()
	cfg.MaxActionsPerWindow = 0
	_, err = fairness.NewValidator(cfg)
	assert.Error(t, err)
}
