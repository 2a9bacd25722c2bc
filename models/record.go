// models/record.go
package models

import (
	"errors"
	"fmt"
	"slices"
	"unicode"

	json "github.com/goccy/go-json"
)

// RecordSchemaVersion identifies the exported MatchRecord layout.
// Version 2 added traceIntervalTicks and difficultyCurve.
const RecordSchemaVersion = 2

// Team sides.
const (
	SideHome = "home"
	SideAway = "away"
	SideNone = "none"
)

// FinalScore is the goal tally at match end.
type FinalScore struct {
	Home int64 `json:"home"`
	Away int64 `json:"away"`
}

// DifficultyCurve is the rating scaling applied to each side, in percent.
type DifficultyCurve struct {
	HomeRatingPercent int64 `json:"homeRatingPercent"`
	AwayRatingPercent int64 `json:"awayRatingPercent"`
}

// PlayerStats are derived per-player tallies, a deterministic function of the input log.
type PlayerStats struct {
	PlayerID        string `json:"playerId"`
	Side            string `json:"side"`
	Goals           int64  `json:"goals"`
	Assists         int64  `json:"assists"`
	Shots           int64  `json:"shots"`
	ShotsOnTarget   int64  `json:"shotsOnTarget"`
	Passes          int64  `json:"passes"`
	PassesCompleted int64  `json:"passesCompleted"`
	Tackles         int64  `json:"tackles"`
	Fouls           int64  `json:"fouls"`
	YellowCards     int64  `json:"yellowCards"`
	RedCards        int64  `json:"redCards"`
	Sprints         int64  `json:"sprints"`
	Actions         int64  `json:"actions"`
	SentOffAtTick   int64  `json:"sentOffAtTick"` // -1 when never sent off
}

// Cards is the combined card count.
func (s PlayerStats) Cards() int64 { return s.YellowCards + s.RedCards }

// PositionSample is one entry of the sampled position transcript. Kickoff
// marks the reset after a goal, where players jump back to their anchors.
type PositionSample struct {
	Tick     uint64 `json:"tick"`
	PlayerID string `json:"playerId"`
	X        int64  `json:"x"`
	Y        int64  `json:"y"`
	Kickoff  bool   `json:"kickoff,omitempty"`
}

// RejectedInput points at an input-log entry the simulator refused.
type RejectedInput struct {
	Index   int    `json:"index"`
	Tick    uint64 `json:"tick"`
	ActorID string `json:"actorId"`
	Reason  string `json:"reason"`
}

// MatchRecord is the terminal, immutable artifact of a match. It is the unit
// that gets validated, sealed and handed to storage collaborators.
type MatchRecord struct {
	SchemaVersion      int              `json:"schemaVersion"`
	MatchID            string           `json:"matchId"`
	HomeTeamID         string           `json:"homeTeamId"`
	AwayTeamID         string           `json:"awayTeamId"`
	HomeRoster         []PlayerProfile  `json:"homeRoster"`
	AwayRoster         []PlayerProfile  `json:"awayRoster"`
	Difficulty         string           `json:"difficulty"`
	Curve              DifficultyCurve  `json:"difficultyCurve"`
	RNGAlgorithm       string           `json:"rngAlgorithm"`
	Seed               uint64           `json:"seed"`
	DurationTicks      uint64           `json:"durationTicks"`
	TickMs             uint64           `json:"tickMs"`
	TraceIntervalTicks uint64           `json:"traceIntervalTicks"`
	Aborted            bool             `json:"aborted"`
	FinalScore         FinalScore       `json:"finalScore"`
	InputLog           []PlayerInput    `json:"inputLog"`
	PlayerStats        []PlayerStats    `json:"playerStats"`
	PositionTrace      []PositionSample `json:"positionTrace"`
	Rejected           []RejectedInput  `json:"rejected"`
}

// Clone returns a deep copy so callers can mutate without touching the original.
func (r *MatchRecord) Clone() *MatchRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.HomeRoster = slices.Clone(r.HomeRoster)
	out.AwayRoster = slices.Clone(r.AwayRoster)
	out.InputLog = slices.Clone(r.InputLog)
	out.PlayerStats = slices.Clone(r.PlayerStats)
	out.PositionTrace = slices.Clone(r.PositionTrace)
	out.Rejected = slices.Clone(r.Rejected)
	return &out
}

// Profile looks a player up in either roster.
func (r *MatchRecord) Profile(playerID string) (PlayerProfile, string, bool) {
	for _, p := range r.HomeRoster {
		if p.ID == playerID {
			return p, SideHome, true
		}
	}
	for _, p := range r.AwayRoster {
		if p.ID == playerID {
			return p, SideAway, true
		}
	}
	return PlayerProfile{}, SideNone, false
}

// CheckMatchID rejects ids that cannot be carried in a proof string, which
// uses ':' as its separator.
func CheckMatchID(id string) error {
	if id == "" {
		return errors.New("matchId is required")
	}
	for _, r := range id {
		if r == ':' || unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("matchId %q contains %q", id, r)
		}
	}
	return nil
}

// ErrUnsupportedSchema is returned when importing a record from a newer exporter.
var ErrUnsupportedSchema = errors.New("unsupported record schema version")

// EncodeRecord is the export codec for storage collaborators. It is not the
// canonical hashing form; see package seal for that.
func EncodeRecord(r *MatchRecord) ([]byte, error) {
	return json.Marshal(r)
}

// DecodeRecord parses an exported record and checks its schema version.
func DecodeRecord(data []byte) (*MatchRecord, error) {
	var r MatchRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode match record: %w", err)
	}
	if r.SchemaVersion == 0 {
		r.SchemaVersion = RecordSchemaVersion
	}
	if r.SchemaVersion > RecordSchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSchema, r.SchemaVersion)
	}
	if err := CheckMatchID(r.MatchID); err != nil {
		return nil, fmt.Errorf("invalid match record: %w", err)
	}
	return &r, nil
}
