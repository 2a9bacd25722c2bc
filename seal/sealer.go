// Package seal computes and re-verifies tamper-evident digests over a
// MatchRecord's canonical form.
package seal

import (
	"errors"
	"fmt"
	"time"

	"match-integrity-system/models"
)

// Sealer hashes records with one configured algorithm. Verify always uses the
// algorithm named in the seal being checked.
type Sealer struct {
	algorithm string
	now       func() time.Time
}

func NewSealer(algorithm string) (*Sealer, error) {
	if algorithm == "" {
		algorithm = DefaultHash
	}
	if !SupportedHash(algorithm) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHashAlgo, algorithm)
	}
	return &Sealer{algorithm: algorithm, now: time.Now}, nil
}

// Algorithm is the hash used for new seals.
func (s *Sealer) Algorithm() string {
	return s.algorithm
}

// Seal hashes rec as of now.
func (s *Sealer) Seal(rec *models.MatchRecord) (*models.Seal, error) {
	return s.SealAt(rec, s.now().UnixMilli())
}

// SealAt hashes rec with a fixed seal time. Sealing the same record at the
// same time always yields the same seal.
func (s *Sealer) SealAt(rec *models.MatchRecord, sealedAtMs int64) (*models.Seal, error) {
	if rec == nil {
		return nil, &SerializationError{Msg: "record is nil"}
	}
	if rec.MatchID == "" {
		return nil, &SerializationError{Field: "matchId", Msg: "record has no matchId"}
	}
	fieldHashes, err := hashFields(s.algorithm, rec, sealedAtMs, FullFields)
	if err != nil {
		return nil, err
	}
	resultHash, err := combine(s.algorithm, ResultFields, fieldHashes)
	if err != nil {
		return nil, err
	}
	fullHash, err := combine(s.algorithm, FullFields, fieldHashes)
	if err != nil {
		return nil, err
	}
	return &models.Seal{
		MatchID:        rec.MatchID,
		Version:        models.SealVersion,
		Algorithm:      s.algorithm,
		ResultHash:     resultHash,
		FullRecordHash: fullHash,
		FieldHashes:    fieldHashes,
		SealedAtMs:     sealedAtMs,
	}, nil
}

func hashFields(algorithm string, rec *models.MatchRecord, sealedAtMs int64, fields []string) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	for _, field := range fields {
		b, err := CanonicalField(rec, sealedAtMs, field)
		if err != nil {
			return nil, err
		}
		d, err := digest(algorithm, b)
		if err != nil {
			return nil, err
		}
		out[field] = d
	}
	return out, nil
}

// Verify recomputes the hashes seal carries from rec and lists every field
// that no longer matches. It never modifies rec or seal. A record that cannot
// be canonicalised is reported as invalid with a reason.
//
// When the seal has per-field hashes, mismatches name the fields. Without
// them only the aggregate hashes can be compared and the mismatch is reported
// as "resultHash" or "fullRecordHash".
func (s *Sealer) Verify(rec *models.MatchRecord, sl *models.Seal) models.VerifyResult {
	res := models.VerifyResult{
		MismatchedFields: []string{},
		CheckedAtMs:      s.now().UnixMilli(),
	}
	if rec != nil {
		res.MatchID = rec.MatchID
	}
	if sl == nil {
		res.Reason = "no seal to verify against"
		return res
	}
	if res.MatchID == "" {
		res.MatchID = sl.MatchID
	}
	res.Deep = sl.FullRecordHash != ""

	fields := ResultFields
	if res.Deep {
		fields = FullFields
	}
	fieldHashes, err := hashFields(sl.Algorithm, rec, sl.SealedAtMs, fields)
	if err != nil {
		var serr *SerializationError
		if errors.As(err, &serr) || errors.Is(err, ErrUnknownHashAlgo) {
			res.Reason = err.Error()
			return res
		}
		res.Reason = fmt.Sprintf("verification failed: %v", err)
		return res
	}

	if len(sl.FieldHashes) > 0 {
		for _, field := range fields {
			want, ok := sl.FieldHashes[field]
			if !ok {
				continue
			}
			if want != fieldHashes[field] {
				res.MismatchedFields = append(res.MismatchedFields, field)
			}
		}
	}

	resultHash, _ := combine(sl.Algorithm, ResultFields, fieldHashes)
	resultOK := resultHash == sl.ResultHash
	fullOK := true
	if res.Deep {
		fullHash, _ := combine(sl.Algorithm, FullFields, fieldHashes)
		fullOK = fullHash == sl.FullRecordHash
	}

	if len(res.MismatchedFields) == 0 {
		if !resultOK {
			res.MismatchedFields = append(res.MismatchedFields, "resultHash")
		}
		if !fullOK {
			res.MismatchedFields = append(res.MismatchedFields, "fullRecordHash")
		}
	}
	res.Valid = len(res.MismatchedFields) == 0
	if !res.Valid {
		res.Reason = "record does not match seal"
	}
	return res
}
