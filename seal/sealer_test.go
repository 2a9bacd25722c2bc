package seal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"match-integrity-system/engine/enginetest"
	"match-integrity-system/models"
	"match-integrity-system/seal"
)

const sealedAt = int64(1_700_000_000_000)

func newSealer(t *testing.T, algorithm string) *seal.Sealer {
	t.Helper()
	s, err := seal.NewSealer(algorithm)
	require.NoError(t, err)
	return s
}

func smallRecord() *models.MatchRecord {
	home := enginetest.Team("home", 3, enginetest.DefaultRatings)
	away := enginetest.Team("away", 3, enginetest.DefaultRatings)
	return &models.MatchRecord{
		SchemaVersion: models.RecordSchemaVersion,
		MatchID:       "m-1",
		HomeTeamID:    home.ID,
		AwayTeamID:    away.ID,
		HomeRoster:    home.Players,
		AwayRoster:    away.Players,
		Difficulty:    "normal",
		Curve:         models.DifficultyCurve{HomeRatingPercent: 100, AwayRatingPercent: 100},
		RNGAlgorithm:  "splitmix64",
		Seed:          7,
		DurationTicks: 600,
		TickMs:        100,
		FinalScore:    models.FinalScore{Home: 2, Away: 1},
		InputLog: []models.PlayerInput{
			{Tick: 3, ActorID: "home-p1", ActionKind: models.ActionMove, Params: models.InputParams{X: 100, Y: 200}, TimestampMs: 345},
		},
		PlayerStats: []models.PlayerStats{
			{PlayerID: "home-p1", Side: models.SideHome, Goals: 2, Actions: 1, SentOffAtTick: -1},
		},
		PositionTrace: []models.PositionSample{{Tick: 0, PlayerID: "home-p1", X: 500, Y: 3400}},
	}
}

func TestSealIsDeterministic(t *testing.T) {
	s := newSealer(t, "")
	rec := smallRecord()

	a, err := s.SealAt(rec, sealedAt)
	require.NoError(t, err)
	b, err := s.SealAt(rec.Clone(), sealedAt)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, seal.HashSHA256, a.Algorithm)
	assert.Equal(t, models.SealVersion, a.Version)
	assert.Len(t, a.ResultHash, 64)
	assert.NotEqual(t, a.ResultHash, a.FullRecordHash)
	assert.Len(t, a.FieldHashes, len(seal.FullFields))
}

func TestVerifyAcceptsUntouchedRecord(t *testing.T) {
	for _, algo := range []string{seal.HashSHA256, seal.HashSHA3, seal.HashBlake2b} {
		t.Run(algo, func(t *testing.T) {
			s := newSealer(t, algo)
			rec := smallRecord()
			sl, err := s.SealAt(rec, sealedAt)
			require.NoError(t, err)

			res := s.Verify(rec, sl)
			assert.True(t, res.Valid, res.Reason)
			assert.Empty(t, res.MismatchedFields)
			assert.True(t, res.Deep)
			assert.Equal(t, "m-1", res.MatchID)
		})
	}
}

func TestAlgorithmsDisagree(t *testing.T) {
	rec := smallRecord()
	hashes := map[string]bool{}
	for _, algo := range []string{seal.HashSHA256, seal.HashSHA3, seal.HashBlake2b} {
		sl, err := newSealer(t, algo).SealAt(rec, sealedAt)
		require.NoError(t, err)
		hashes[sl.ResultHash] = true
	}
	assert.Len(t, hashes, 3)
}

func TestVerifyUsesSealAlgorithm(t *testing.T) {
	rec := smallRecord()
	sl, err := newSealer(t, seal.HashBlake2b).SealAt(rec, sealedAt)
	require.NoError(t, err)

	res := newSealer(t, seal.HashSHA256).Verify(rec, sl)
	assert.True(t, res.Valid, res.Reason)
}

func TestUnknownAlgorithm(t *testing.T) {
	_, err := seal.NewSealer("md5")
	assert.ErrorIs(t, err, seal.ErrUnknownHashAlgo)

	s := newSealer(t, "")
	rec := smallRecord()
	sl, err := s.SealAt(rec, sealedAt)
	require.NoError(t, err)
	sl.Algorithm = "md5"

	res := s.Verify(rec, sl)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Reason, "unknown hash algorithm")
}

func TestEveryResultFieldIsTamperEvident(t *testing.T) {
	tampers := map[string]func(*models.MatchRecord){
		"matchId":       func(r *models.MatchRecord) { r.MatchID = "m-2" },
		"homeTeamId":    func(r *models.MatchRecord) { r.HomeTeamID = "other" },
		"awayTeamId":    func(r *models.MatchRecord) { r.AwayTeamID = "other" },
		"homeRoster":    func(r *models.MatchRecord) { r.HomeRoster[1].Ratings.Pace++ },
		"awayRoster":    func(r *models.MatchRecord) { r.AwayRoster = r.AwayRoster[:2] },
		"durationTicks": func(r *models.MatchRecord) { r.DurationTicks++ },
		"finalScore":    func(r *models.MatchRecord) { r.FinalScore.Away++ },
		"aborted":       func(r *models.MatchRecord) { r.Aborted = true },
		"difficulty":    func(r *models.MatchRecord) { r.Difficulty = "hard" },
		"difficultyCurve": func(r *models.MatchRecord) {
			r.Curve.AwayRatingPercent = 150
		},
		"traceIntervalTicks": func(r *models.MatchRecord) {
			r.TraceIntervalTicks = 5
		},
		"rngAlgorithm":  func(r *models.MatchRecord) { r.RNGAlgorithm = "blake2b" },
		"seed":          func(r *models.MatchRecord) { r.Seed++ },
		"inputLog":      func(r *models.MatchRecord) { r.InputLog[0].TimestampMs++ },
		"playerStats":   func(r *models.MatchRecord) { r.PlayerStats[0].Goals++ },
		"positionTrace": func(r *models.MatchRecord) { r.PositionTrace[0].X++ },
		"rejected": func(r *models.MatchRecord) {
			r.Rejected = append(r.Rejected, models.RejectedInput{Index: 0, ActorID: "x", Reason: "stale"})
		},
	}

	s := newSealer(t, "")
	orig := smallRecord()
	sl, err := s.SealAt(orig, sealedAt)
	require.NoError(t, err)

	for field, tamper := range tampers {
		t.Run(field, func(t *testing.T) {
			rec := orig.Clone()
			tamper(rec)
			res := s.Verify(rec, sl)
			assert.False(t, res.Valid)
			assert.Equal(t, []string{field}, res.MismatchedFields)

			reseal, err := s.SealAt(rec, sealedAt)
			require.NoError(t, err)
			if contains(seal.ResultFields, field) {
				assert.NotEqual(t, sl.ResultHash, reseal.ResultHash)
			} else {
				assert.Equal(t, sl.ResultHash, reseal.ResultHash)
			}
			assert.NotEqual(t, sl.FullRecordHash, reseal.FullRecordHash)
		})
	}
}

func TestSealedAtIsCovered(t *testing.T) {
	s := newSealer(t, "")
	rec := smallRecord()
	sl, err := s.SealAt(rec, sealedAt)
	require.NoError(t, err)

	forged := *sl
	forged.SealedAtMs++
	res := s.Verify(rec, &forged)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"sealedAt"}, res.MismatchedFields)
}

func TestVerifyWithoutFieldHashes(t *testing.T) {
	s := newSealer(t, "")
	rec := smallRecord()
	sl, err := s.SealAt(rec, sealedAt)
	require.NoError(t, err)

	shallow := *sl
	shallow.FieldHashes = nil
	shallow.FullRecordHash = ""

	assert.True(t, s.Verify(rec, &shallow).Valid)

	rec.FinalScore.Home = 9
	res := s.Verify(rec, &shallow)
	assert.False(t, res.Valid)
	assert.False(t, res.Deep)
	assert.Equal(t, []string{"resultHash"}, res.MismatchedFields)

	// Not covered by the result tier.
	rec = smallRecord()
	rec.Seed = 99
	assert.True(t, s.Verify(rec, &shallow).Valid)
}

func TestVerifyNeverMutates(t *testing.T) {
	s := newSealer(t, "")
	rec := smallRecord()
	sl, err := s.SealAt(rec, sealedAt)
	require.NoError(t, err)

	recCopy := rec.Clone()
	sealCopy := *sl
	sealCopy.FieldHashes = map[string]string{}
	for k, v := range sl.FieldHashes {
		sealCopy.FieldHashes[k] = v
	}

	rec.FinalScore.Home = 5
	s.Verify(rec, sl)
	rec.FinalScore.Home = recCopy.FinalScore.Home
	assert.Equal(t, recCopy, rec)
	assert.Equal(t, &sealCopy, sl)
}

func TestUnicodeNormalization(t *testing.T) {
	s := newSealer(t, "")
	composed := smallRecord()
	composed.HomeRoster[0].Name = "José"
	decomposed := smallRecord()
	decomposed.HomeRoster[0].Name = "Jose\u0301"

	a, err := s.SealAt(composed, sealedAt)
	require.NoError(t, err)
	b, err := s.SealAt(decomposed, sealedAt)
	require.NoError(t, err)
	assert.Equal(t, a.ResultHash, b.ResultHash)
	assert.True(t, s.Verify(decomposed, a).Valid)
}

func TestInvalidUTF8(t *testing.T) {
	s := newSealer(t, "")
	rec := smallRecord()
	sl, err := s.SealAt(rec, sealedAt)
	require.NoError(t, err)

	rec.AwayRoster[0].Name = "bad\xffname"
	_, err = s.SealAt(rec, sealedAt)
	assert.ErrorIs(t, err, seal.ErrSerialization)

	res := s.Verify(rec, sl)
	assert.False(t, res.Valid)
	assert.Empty(t, res.MismatchedFields)
	assert.Contains(t, res.Reason, "awayRoster")
}

func TestVerifyNilInputs(t *testing.T) {
	s := newSealer(t, "")
	res := s.Verify(smallRecord(), nil)
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Reason)

	sl, err := s.SealAt(smallRecord(), sealedAt)
	require.NoError(t, err)
	res = s.Verify(nil, sl)
	assert.False(t, res.Valid)
	assert.Equal(t, "m-1", res.MatchID)

	_, err = s.SealAt(nil, sealedAt)
	assert.ErrorIs(t, err, seal.ErrSerialization)
}

func TestCanonicalEscaping(t *testing.T) {
	rec := smallRecord()
	rec.MatchID = "a\"b\\c\nd"
	b, err := seal.CanonicalField(rec, sealedAt, "matchId")
	require.NoError(t, err)
	assert.Equal(t, `"a\"b\\c\u000ad"`, string(b))

	b, err = seal.CanonicalField(rec, sealedAt, "finalScore")
	require.NoError(t, err)
	assert.Equal(t, `{"home":2,"away":1}`, string(b))

	_, err = seal.CanonicalField(rec, sealedAt, "nope")
	assert.ErrorIs(t, err, seal.ErrSerialization)
}

func TestRosterOrderDoesNotMatter(t *testing.T) {
	s := newSealer(t, "")
	rec := smallRecord()
	a, err := s.SealAt(rec, sealedAt)
	require.NoError(t, err)

	rec.HomeRoster[0], rec.HomeRoster[2] = rec.HomeRoster[2], rec.HomeRoster[0]
	b, err := s.SealAt(rec, sealedAt)
	require.NoError(t, err)
	assert.Equal(t, a.ResultHash, b.ResultHash)
}

func TestCanonicalExport(t *testing.T) {
	b, err := seal.Canonical(smallRecord(), sealedAt)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"matchId":"m-1",`)
	assert.Contains(t, string(b), `"sealedAt":1700000000000,`)
	assert.NotContains(t, string(b), "\n")
}

func TestThreeOneSealScenario(t *testing.T) {
	sim := enginetest.Simulator(t)
	_, script := enginetest.ThreeOne(t, sim)
	rec := script.Finish()
	require.Equal(t, models.FinalScore{Home: 3, Away: 1}, rec.FinalScore)

	s := newSealer(t, "")
	sl, err := s.Seal(rec)
	require.NoError(t, err)

	res := s.Verify(rec, sl)
	assert.True(t, res.Valid, res.Reason)
	assert.Empty(t, res.MismatchedFields)

	forged := rec.Clone()
	forged.FinalScore.Home = 4
	res = s.Verify(forged, sl)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"finalScore"}, res.MismatchedFields)

	proof := seal.ProofString(sl, rec.FinalScore)
	parsed, err := seal.ParseProof(proof)
	require.NoError(t, err)
	assert.True(t, seal.MatchesProof(parsed, sl, rec.FinalScore))
	assert.False(t, seal.MatchesProof(parsed, sl, forged.FinalScore))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
