// models/report.go
package models

// Verdict is the validator's final classification.
type Verdict string

const (
	VerdictClean      Verdict = "clean"
	VerdictSuspicious Verdict = "suspicious"
	VerdictRejected   Verdict = "rejected"
)

// Severity of a single issue.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Issue categories emitted by the validator.
const (
	CategoryInputRate      = "input-rate"
	CategoryOutlier        = "statistical-outlier"
	CategoryPhysical       = "physical-plausibility"
	CategoryKnownPattern   = "known-pattern"
	CategoryInvalidInput   = "invalid-input"
	CategoryIncompleteData = "incomplete-data"
)

// Issue is one itemized finding. EvidenceRef points back into the record,
// e.g. "inputLog[12]" or "playerStats[h3].goals".
type Issue struct {
	Category    string   `json:"category"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	EvidenceRef string   `json:"evidenceRef"`
}

// Thresholds are the verdict cutoffs in effect when a report was produced.
type Thresholds struct {
	Clean      int64 `json:"clean"`
	Suspicious int64 `json:"suspicious"`
}

// ValidationReport is produced once per record and never edited.
type ValidationReport struct {
	ReportID        string     `json:"reportId"`
	MatchID         string     `json:"matchId"`
	TrustScore      int64      `json:"trustScore"`
	Issues          []Issue    `json:"issues"`
	FraudIndicators []string   `json:"fraudIndicators"`
	Verdict         Verdict    `json:"verdict"`
	Thresholds      Thresholds `json:"thresholds"`
	CreatedAtMs     int64      `json:"createdAtMs"`
}

// HasCategory reports whether any issue carries the category.
func (r *ValidationReport) HasCategory(category string) bool {
	for _, is := range r.Issues {
		if is.Category == category {
			return true
		}
	}
	return false
}
