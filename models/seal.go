// models/seal.go
package models

// SealVersion identifies the canonical form and field set used to compute a seal.
const SealVersion = 2

// Seal is the hashed record of a match's defining fields at completion time.
type Seal struct {
	MatchID        string            `json:"matchId"`
	Version        int               `json:"version"`
	Algorithm      string            `json:"algorithm"`
	ResultHash     string            `json:"resultHash"`
	FullRecordHash string            `json:"fullRecordHash,omitempty"`
	FieldHashes    map[string]string `json:"fieldHashes,omitempty"`
	SealedAtMs     int64             `json:"sealedAtMs"`
}

// PartialSeal is what can be recovered from a ProofString.
type PartialSeal struct {
	MatchID    string     `json:"matchId"`
	HashPrefix string     `json:"hashPrefix"`
	Score      FinalScore `json:"score"`
}

// VerifyResult is the outcome of re-verifying a record against a seal.
// A mismatch is a normal result, not an error.
type VerifyResult struct {
	MatchID          string   `json:"matchId"`
	Valid            bool     `json:"valid"`
	MismatchedFields []string `json:"mismatchedFields"`
	Reason           string   `json:"reason,omitempty"`
	Deep             bool     `json:"deep"`
	CheckedAtMs      int64    `json:"checkedAtMs"`
}
