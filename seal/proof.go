package seal

import (
	"fmt"
	"strconv"
	"strings"

	"match-integrity-system/models"
)

const (
	proofTag        = "PROOF"
	ProofPrefixSize = 16
)

// ProofString is the shareable one-line form of a seal:
//
//	PROOF:<matchId>:<first 16 hex chars of resultHash>:<home>-<away>
func ProofString(sl *models.Seal, score models.FinalScore) string {
	prefix := sl.ResultHash
	if len(prefix) > ProofPrefixSize {
		prefix = prefix[:ProofPrefixSize]
	}
	return fmt.Sprintf("%s:%s:%s:%d-%d", proofTag, sl.MatchID, prefix, score.Home, score.Away)
}

// ParseProof splits a proof string back into its parts. The hash prefix is
// accepted in either case and returned lowercase. Every malformed input
// yields a *ParseError naming what is wrong.
func ParseProof(s string) (*models.PartialSeal, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 4 {
		return nil, parseErrorf(ParseErrSegments, s, "want 4 colon-separated segments, got %d", len(parts))
	}
	if parts[0] != proofTag {
		return nil, parseErrorf(ParseErrPrefix, s, "must start with %s", proofTag)
	}
	matchID := parts[1]
	if matchID == "" {
		return nil, parseErrorf(ParseErrMatchID, s, "match id is empty")
	}

	prefix := strings.ToLower(parts[2])
	if len(prefix) != ProofPrefixSize {
		return nil, parseErrorf(ParseErrHashPrefix, s, "hash prefix must be %d hex chars, got %d", ProofPrefixSize, len(prefix))
	}
	for _, c := range prefix {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return nil, parseErrorf(ParseErrHashPrefix, s, "hash prefix %q is not hex", parts[2])
		}
	}

	home, away, ok := strings.Cut(parts[3], "-")
	if !ok {
		return nil, parseErrorf(ParseErrScore, s, "score %q is not <home>-<away>", parts[3])
	}
	h, err := parseGoals(home)
	if err != nil {
		return nil, parseErrorf(ParseErrScore, s, "home score: %v", err)
	}
	a, err := parseGoals(away)
	if err != nil {
		return nil, parseErrorf(ParseErrScore, s, "away score: %v", err)
	}

	return &models.PartialSeal{
		MatchID:    matchID,
		HashPrefix: prefix,
		Score:      models.FinalScore{Home: h, Away: a},
	}, nil
}

func parseGoals(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%q is not a number", s)
		}
	}
	return strconv.ParseInt(s, 10, 64)
}

// MatchesProof reports whether a parsed proof agrees with a seal and the
// record's score.
func MatchesProof(p *models.PartialSeal, sl *models.Seal, score models.FinalScore) bool {
	return p != nil && sl != nil &&
		p.MatchID == sl.MatchID &&
		strings.HasPrefix(sl.ResultHash, p.HashPrefix) &&
		p.Score == score
}
