package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"match-integrity-system/config"
	"match-integrity-system/engine"
	"match-integrity-system/fairness"
	"match-integrity-system/seal"
)

func TestDefaults(t *testing.T) {
	t.Setenv("MATCH_SERVICE_TOKEN", "secret")

	cfg, err := config.FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "5200", cfg.Port)
	assert.Equal(t, seal.DefaultHash, cfg.HashAlgorithm)
	assert.Equal(t, engine.DefaultConfig(), cfg.Engine)
	assert.Equal(t, fairness.DefaultPenaltyWeights, cfg.Fairness.Weights)
	assert.Equal(t, fairness.DefaultThresholds, cfg.Fairness.Thresholds)
	assert.Equal(t, time.Hour, cfg.ReverifyInterval)
	assert.False(t, cfg.R2.Enabled())
	assert.Empty(t, cfg.DatabaseURL)
}

func TestMissingToken(t *testing.T) {
	t.Setenv("MATCH_SERVICE_TOKEN", "")
	_, err := config.FromEnv()
	assert.ErrorIs(t, err, config.ErrMissingEnv)
}

func TestOverrides(t *testing.T) {
	t.Setenv("MATCH_SERVICE_TOKEN", "secret")
	t.Setenv("ENGINE_RNG_ALGORITHM", engine.AlgoBlake2b)
	t.Setenv("ENGINE_TICK_MS", "50")
	t.Setenv("ENGINE_DIFFICULTIES", "normal:100:100, brutal:90:130")
	t.Setenv("TRUST_THRESHOLD_CLEAN", "90")
	t.Setenv("PENALTY_PERIODIC", "45")
	t.Setenv("SEAL_HASH_ALGORITHM", seal.HashSHA3)
	t.Setenv("SEAL_INTERVAL", "3s")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , https://b.example,")

	cfg, err := config.FromEnv()
	require.NoError(t, err)
	assert.Equal(t, engine.AlgoBlake2b, cfg.Engine.RNGAlgorithm)
	assert.Equal(t, uint64(50), cfg.Engine.TickMs)
	assert.Equal(t, engine.DifficultyCurve{HomeRatingPercent: 90, AwayRatingPercent: 130}, cfg.Engine.Difficulties["brutal"])
	assert.Len(t, cfg.Engine.Difficulties, 2)
	assert.Equal(t, int64(90), cfg.Fairness.Thresholds.Clean)
	assert.Equal(t, int64(45), cfg.Fairness.Weights.Periodic)
	assert.Equal(t, seal.HashSHA3, cfg.HashAlgorithm)
	assert.Equal(t, 3*time.Second, cfg.SealInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOriginsList())
}

func TestInvalidValues(t *testing.T) {
	cases := map[string]string{
		"ENGINE_RNG_ALGORITHM":       "mt19937",
		"ENGINE_TICK_MS":             "fast",
		"ENGINE_DIFFICULTIES":        "easy:100",
		"TRUST_THRESHOLD_SUSPICIOUS": "95",
		"SEAL_HASH_ALGORITHM":        "md5",
		"REVERIFY_INTERVAL":          "hourly",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("MATCH_SERVICE_TOKEN", "secret")
			t.Setenv(key, value)
			_, err := config.FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestR2RequiresCredentials(t *testing.T) {
	t.Setenv("MATCH_SERVICE_TOKEN", "secret")
	t.Setenv("R2_BUCKET_NAME", "archive")
	_, err := config.FromEnv()
	assert.ErrorIs(t, err, config.ErrMissingEnv)

	t.Setenv("CLOUDFLARE_ACCOUNT_ID", "acct")
	t.Setenv("R2_ACCESS_KEY_ID", "id")
	t.Setenv("R2_ACCESS_KEY_SECRET", "key")
	cfg, err := config.FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.R2.Enabled())
	assert.Equal(t, "sealed", cfg.R2.Prefix)
}
