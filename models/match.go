package models

import (
	"time"

	"gorm.io/gorm"
)

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// Match sources
const (
	SourceSimulated = "simulated" // produced by this service's simulator
	SourceLive      = "live"      // produced by a live runner
	SourceImported  = "imported"  // handed in by an external producer
)

// StoredMatch persists one MatchRecord (immutable once written).
type StoredMatch struct {
	ID            string `gorm:"primaryKey;type:uuid" json:"id"`
	MatchID       string `gorm:"uniqueIndex;not null" json:"match_id"`
	HomeTeamID    string `gorm:"index;not null" json:"home_team_id"`
	AwayTeamID    string `gorm:"index;not null" json:"away_team_id"`
	HomeScore     int64  `json:"home_score"`
	AwayScore     int64  `json:"away_score"`
	DurationTicks uint64 `json:"duration_ticks"`
	Aborted       bool   `json:"aborted" gorm:"default:false"`
	Source        string `json:"source" gorm:"type:varchar(16);check:source IN ('simulated','live','imported')"`
	SubmittedBy   string `json:"submitted_by,omitempty" gorm:"index"`

	// RecordJSON is the exported record (models.EncodeRecord), not the canonical form.
	RecordJSON string `json:"-" gorm:"type:text;not null"`

	// Sealed is flipped once the first seal row exists; the seal worker polls on it.
	Sealed bool `json:"sealed" gorm:"index;default:false"`

	Timestamps
}

// StoredReport is an append-only ValidationReport row.
type StoredReport struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	MatchID    string    `gorm:"index;not null" json:"match_id"`
	TrustScore int64     `json:"trust_score"`
	Verdict    string    `json:"verdict" gorm:"type:varchar(16);check:verdict IN ('clean','suspicious','rejected')"`
	ReportJSON string    `json:"-" gorm:"type:text;not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// StoredSeal is an append-only Seal row.
type StoredSeal struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	MatchID        string    `gorm:"index;not null" json:"match_id"`
	Algorithm      string    `json:"algorithm" gorm:"type:varchar(32)"`
	ResultHash     string    `json:"result_hash" gorm:"index;type:varchar(128)"`
	FullRecordHash string    `json:"full_record_hash" gorm:"type:varchar(128)"`
	SealJSON       string    `json:"-" gorm:"type:text;not null"`
	SealedAtMs     int64     `json:"sealed_at_ms"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// StoredVerification is an append-only VerifyResult row written by re-verification.
type StoredVerification struct {
	ID               string    `gorm:"primaryKey;type:uuid" json:"id"`
	MatchID          string    `gorm:"index;not null" json:"match_id"`
	SealID           string    `gorm:"index" json:"seal_id"`
	Valid            bool      `json:"valid"`
	MismatchedFields string    `json:"mismatched_fields"` // comma separated
	Reason           string    `json:"reason,omitempty"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
}
