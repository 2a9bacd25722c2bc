// Package fairness scores a finished MatchRecord for signs of cheating. It
// works only from the logged inputs, the derived stats and the position
// trace; it never needs the random stream.
package fairness

import (
	"time"

	"github.com/google/uuid"

	"match-integrity-system/models"
)

// Validator runs the independent checks and combines them into a report.
// It holds only configuration and is safe for concurrent use.
type Validator struct {
	cfg Config
	now func() time.Time
}

func NewValidator(cfg Config) (*Validator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Validator{cfg: cfg, now: time.Now}, nil
}

// Config returns the configuration in effect.
func (v *Validator) Config() Config {
	return v.cfg
}

// findings accumulates issues and penalty across checks.
type findings struct {
	issues     []models.Issue
	indicators []string
	penalty    int64
}

func (f *findings) add(issue models.Issue, penalty int64, indicator string) {
	f.issues = append(f.issues, issue)
	f.penalty += penalty
	if indicator == "" {
		return
	}
	for _, existing := range f.indicators {
		if existing == indicator {
			return
		}
	}
	f.indicators = append(f.indicators, indicator)
}

func (f *findings) incomplete(description, evidence string) {
	f.add(models.Issue{
		Category:    models.CategoryIncompleteData,
		Severity:    models.SeverityInfo,
		Description: description,
		EvidenceRef: evidence,
	}, 0, "")
}

// Validate produces a new report for rec. Checks that lack the data they need
// add an incomplete-data issue and no penalty instead of failing the report.
func (v *Validator) Validate(rec *models.MatchRecord) *models.ValidationReport {
	f := &findings{}
	if rec == nil {
		rec = &models.MatchRecord{}
	}

	v.checkInputRate(rec, f)
	v.checkOutliers(rec, f)
	v.checkPhysical(rec, f)
	v.checkPatterns(rec, f)
	v.checkRejected(rec, f)

	score := 100 - f.penalty
	if score < 0 {
		score = 0
	}
	if f.issues == nil {
		f.issues = []models.Issue{}
	}
	if f.indicators == nil {
		f.indicators = []string{}
	}
	return &models.ValidationReport{
		ReportID:        uuid.NewString(),
		MatchID:         rec.MatchID,
		TrustScore:      score,
		Issues:          f.issues,
		FraudIndicators: f.indicators,
		Verdict:         VerdictFor(score, v.cfg.Thresholds),
		Thresholds:      v.cfg.Thresholds,
		CreatedAtMs:     v.now().UnixMilli(),
	}
}

// VerdictFor maps a trust score onto the verdict cutoffs.
func VerdictFor(score int64, t models.Thresholds) models.Verdict {
	switch {
	case score >= t.Clean:
		return models.VerdictClean
	case score >= t.Suspicious:
		return models.VerdictSuspicious
	default:
		return models.VerdictRejected
	}
}
