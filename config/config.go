// Package config loads service settings from the environment (and .env).
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"match-integrity-system/engine"
	"match-integrity-system/fairness"
	"match-integrity-system/seal"
)

// R2 holds the sealed-record archive settings. Archiving is off when Bucket is empty.
type R2 struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	Prefix          string
}

func (r R2) Enabled() bool { return r.Bucket != "" }

type Config struct {
	Port           string
	AllowedOrigins string
	DatabaseURL    string // empty means in-memory store
	ServiceToken   string

	AuthServiceURL   string
	AuthServiceToken string

	// Remote record producers polled by the ingest worker. Off when empty.
	IngestURL      string
	IngestPath     string
	IngestInterval time.Duration

	SealInterval        time.Duration
	ReverifyInterval    time.Duration
	ReverifyConcurrency int
	LiveTickWait        time.Duration
	SeenFilterCapacity  uint

	HashAlgorithm string
	Engine        engine.Config
	Fairness      fairness.Config
	R2            R2
}

var ErrMissingEnv = errors.New("required environment variable not set")

// Load reads .env when present, then the process environment. Values not
// set fall back to the documented defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (Config, error) {
	var errs []error
	r := reader{errs: &errs}

	cfg := Config{
		Port:           r.str("PORT", "5200"),
		AllowedOrigins: r.str("ALLOWED_ORIGINS", "http://localhost:3000"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ServiceToken:   os.Getenv("MATCH_SERVICE_TOKEN"),

		AuthServiceURL:   os.Getenv("AUTH_SERVICE_URL"),
		AuthServiceToken: os.Getenv("AUTH_SERVICE_TOKEN"),

		IngestURL:      os.Getenv("INGEST_SERVICE_URL"),
		IngestPath:     r.str("INGEST_ENDPOINT_PATH", "/api/v1/public/matches"),
		IngestInterval: r.duration("INGEST_INTERVAL", time.Minute),

		SealInterval:        r.duration("SEAL_INTERVAL", 10*time.Second),
		ReverifyInterval:    r.duration("REVERIFY_INTERVAL", time.Hour),
		ReverifyConcurrency: int(r.integer("REVERIFY_CONCURRENCY", 8)),
		LiveTickWait:        r.duration("LIVE_TICK_WAIT", 0),
		SeenFilterCapacity:  uint(r.integer("SEEN_FILTER_CAPACITY", 100000)),

		HashAlgorithm: r.str("SEAL_HASH_ALGORITHM", seal.DefaultHash),

		R2: R2{
			AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
			Bucket:          os.Getenv("R2_BUCKET_NAME"),
			Prefix:          r.str("R2_ARCHIVE_PREFIX", "sealed"),
		},
	}

	if cfg.ServiceToken == "" {
		errs = append(errs, fmt.Errorf("%w: MATCH_SERVICE_TOKEN", ErrMissingEnv))
	}
	if cfg.AuthServiceURL != "" && cfg.AuthServiceToken == "" {
		errs = append(errs, fmt.Errorf("%w: AUTH_SERVICE_TOKEN (required with AUTH_SERVICE_URL)", ErrMissingEnv))
	}
	if cfg.R2.Enabled() && (cfg.R2.AccountID == "" || cfg.R2.AccessKeyID == "" || cfg.R2.AccessKeySecret == "") {
		errs = append(errs, fmt.Errorf("%w: R2 credentials (required with R2_BUCKET_NAME)", ErrMissingEnv))
	}
	if cfg.ReverifyConcurrency < 1 {
		cfg.ReverifyConcurrency = 1
	}

	eng := engine.DefaultConfig()
	eng.RNGAlgorithm = r.str("ENGINE_RNG_ALGORITHM", eng.RNGAlgorithm)
	eng.TickMs = r.uinteger("ENGINE_TICK_MS", eng.TickMs)
	eng.MaxTicks = r.uinteger("ENGINE_MAX_TICKS", eng.MaxTicks)
	eng.TraceIntervalTicks = r.uinteger("ENGINE_TRACE_INTERVAL_TICKS", eng.TraceIntervalTicks)
	eng.MaxRosterSize = int(r.integer("ENGINE_MAX_ROSTER_SIZE", int64(eng.MaxRosterSize)))
	if curves := os.Getenv("ENGINE_DIFFICULTIES"); curves != "" {
		parsed, err := ParseDifficulties(curves)
		if err != nil {
			errs = append(errs, err)
		} else {
			eng.Difficulties = parsed
		}
	}
	if err := eng.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("engine: %w", err))
	}
	cfg.Engine = eng

	fc := fairness.DefaultConfig()
	fc.Thresholds.Clean = r.integer("TRUST_THRESHOLD_CLEAN", fc.Thresholds.Clean)
	fc.Thresholds.Suspicious = r.integer("TRUST_THRESHOLD_SUSPICIOUS", fc.Thresholds.Suspicious)
	fc.RateWindowTicks = r.uinteger("FAIRNESS_RATE_WINDOW_TICKS", fc.RateWindowTicks)
	fc.MaxActionsPerWindow = int(r.integer("FAIRNESS_MAX_ACTIONS_PER_WINDOW", int64(fc.MaxActionsPerWindow)))
	fc.OutlierZ = r.float("FAIRNESS_OUTLIER_Z", fc.OutlierZ)
	fc.PhysicalTolerancePercent = r.integer("FAIRNESS_PHYSICAL_TOLERANCE_PERCENT", fc.PhysicalTolerancePercent)

	w := &fc.Weights
	w.InputRate = r.integer("PENALTY_INPUT_RATE", w.InputRate)
	w.Outlier = r.integer("PENALTY_OUTLIER", w.Outlier)
	w.Physical = r.integer("PENALTY_PHYSICAL", w.Physical)
	w.Periodic = r.integer("PENALTY_PERIODIC", w.Periodic)
	w.Simultaneous = r.integer("PENALTY_SIMULTANEOUS", w.Simultaneous)
	w.NonMonotonic = r.integer("PENALTY_NON_MONOTONIC", w.NonMonotonic)
	w.AfterElimination = r.integer("PENALTY_AFTER_ELIMINATION", w.AfterElimination)
	w.InvalidInput = r.integer("PENALTY_INVALID_INPUT", w.InvalidInput)
	w.InvalidInputCap = r.integer("PENALTY_INVALID_INPUT_CAP", w.InvalidInputCap)
	if err := fc.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("fairness: %w", err))
	}
	cfg.Fairness = fc

	if !seal.SupportedHash(cfg.HashAlgorithm) {
		errs = append(errs, fmt.Errorf("SEAL_HASH_ALGORITHM: %w: %q", seal.ErrUnknownHashAlgo, cfg.HashAlgorithm))
	}

	return cfg, errors.Join(errs...)
}

// ParseDifficulties reads "name:home%:away%" entries separated by commas,
// e.g. "easy:100:85,normal:100:100".
func ParseDifficulties(s string) (map[string]engine.DifficultyCurve, error) {
	out := map[string]engine.DifficultyCurve{}
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("ENGINE_DIFFICULTIES: %q is not name:home:away", entry)
		}
		home, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ENGINE_DIFFICULTIES: %q: %w", entry, err)
		}
		away, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ENGINE_DIFFICULTIES: %q: %w", entry, err)
		}
		out[strings.TrimSpace(parts[0])] = engine.DifficultyCurve{HomeRatingPercent: home, AwayRatingPercent: away}
	}
	return out, nil
}

// AllowedOriginsList splits ALLOWED_ORIGINS and trims each entry.
func (c Config) AllowedOriginsList() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

type reader struct {
	errs *[]error
}

func (r reader) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (r reader) integer(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		*r.errs = append(*r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (r reader) uinteger(key string, def uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		*r.errs = append(*r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (r reader) float(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*r.errs = append(*r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (r reader) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*r.errs = append(*r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
