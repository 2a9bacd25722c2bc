package seal

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"match-integrity-system/models"
)

// Field names in canonical order. The result tier is what a proof string
// vouches for; the full tier adds everything needed for deep verification.
// These names and their order are part of the seal format; do not rename.
var (
	ResultFields = []string{
		"matchId",
		"homeTeamId",
		"awayTeamId",
		"homeRoster",
		"awayRoster",
		"durationTicks",
		"finalScore",
		"aborted",
		"sealedAt",
	}
	FullFields = append(append([]string(nil), ResultFields...),
		"difficulty",
		"difficultyCurve",
		"rngAlgorithm",
		"seed",
		"traceIntervalTicks",
		"inputLog",
		"playerStats",
		"positionTrace",
		"rejected",
	)
)

// Canonical form rules:
//   - objects are written with a fixed key order and no whitespace
//   - integers are base-10 with no leading zeros or exponent
//   - strings are NFC-normalised, then escaped: '"' and '\\' are backslash
//     escaped, control characters become \u00XX, everything else is raw UTF-8
//   - rosters and player stats are sorted by player id; the input log, the
//     trace and the rejections keep record order
//
// Invalid UTF-8 anywhere is a SerializationError.
type encoder struct {
	buf   bytes.Buffer
	field string
	err   error
}

func (e *encoder) raw(s string) {
	e.buf.WriteString(s)
}

func (e *encoder) str(s string) {
	if e.err != nil {
		return
	}
	if !utf8.ValidString(s) {
		e.err = &SerializationError{Field: e.field, Msg: fmt.Sprintf("invalid UTF-8 in %q", s)}
		return
	}
	s = norm.NFC.String(s)
	e.buf.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"':
			e.buf.WriteString(`\"`)
		case r == '\\':
			e.buf.WriteString(`\\`)
		case r < 0x20:
			fmt.Fprintf(&e.buf, `\u%04x`, r)
		default:
			e.buf.WriteRune(r)
		}
	}
	e.buf.WriteByte('"')
}

func (e *encoder) num(v int64) {
	e.buf.WriteString(strconv.FormatInt(v, 10))
}

func (e *encoder) unum(v uint64) {
	e.buf.WriteString(strconv.FormatUint(v, 10))
}

func (e *encoder) flag(v bool) {
	if v {
		e.buf.WriteString("true")
	} else {
		e.buf.WriteString("false")
	}
}

// key writes a separator when needed, then "name":.
func (e *encoder) key(name string, first bool) {
	if !first {
		e.buf.WriteByte(',')
	}
	e.buf.WriteByte('"')
	e.buf.WriteString(name)
	e.buf.WriteString(`":`)
}

func (e *encoder) roster(players []models.PlayerProfile) {
	sorted := append([]models.PlayerProfile(nil), players...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	e.raw("[")
	for i, p := range sorted {
		if i > 0 {
			e.raw(",")
		}
		e.raw("{")
		e.key("id", true)
		e.str(p.ID)
		e.key("name", false)
		e.str(p.Name)
		e.key("ratings", false)
		e.raw("{")
		e.key("pace", true)
		e.num(p.Ratings.Pace)
		e.key("shooting", false)
		e.num(p.Ratings.Shooting)
		e.key("passing", false)
		e.num(p.Ratings.Passing)
		e.key("defense", false)
		e.num(p.Ratings.Defense)
		e.key("dribbling", false)
		e.num(p.Ratings.Dribbling)
		e.key("physical", false)
		e.num(p.Ratings.Physical)
		e.raw("}}")
	}
	e.raw("]")
}

func (e *encoder) inputLog(log []models.PlayerInput) {
	e.raw("[")
	for i, in := range log {
		if i > 0 {
			e.raw(",")
		}
		e.raw("{")
		e.key("tick", true)
		e.unum(in.Tick)
		e.key("actorId", false)
		e.str(in.ActorID)
		e.key("actionKind", false)
		e.str(string(in.ActionKind))
		e.key("params", false)
		e.raw("{")
		e.key("x", true)
		e.num(in.Params.X)
		e.key("y", false)
		e.num(in.Params.Y)
		e.key("targetId", false)
		e.str(in.Params.TargetID)
		e.key("power", false)
		e.num(in.Params.Power)
		e.raw("}")
		e.key("timestampMs", false)
		e.unum(in.TimestampMs)
		e.raw("}")
	}
	e.raw("]")
}

func (e *encoder) playerStats(stats []models.PlayerStats) {
	sorted := append([]models.PlayerStats(nil), stats...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].PlayerID < sorted[j].PlayerID })
	e.raw("[")
	for i, s := range sorted {
		if i > 0 {
			e.raw(",")
		}
		e.raw("{")
		e.key("playerId", true)
		e.str(s.PlayerID)
		e.key("side", false)
		e.str(s.Side)
		for _, f := range []struct {
			name string
			v    int64
		}{
			{"goals", s.Goals},
			{"assists", s.Assists},
			{"shots", s.Shots},
			{"shotsOnTarget", s.ShotsOnTarget},
			{"passes", s.Passes},
			{"passesCompleted", s.PassesCompleted},
			{"tackles", s.Tackles},
			{"fouls", s.Fouls},
			{"yellowCards", s.YellowCards},
			{"redCards", s.RedCards},
			{"sprints", s.Sprints},
			{"actions", s.Actions},
			{"sentOffAtTick", s.SentOffAtTick},
		} {
			e.key(f.name, false)
			e.num(f.v)
		}
		e.raw("}")
	}
	e.raw("]")
}

func (e *encoder) positionTrace(trace []models.PositionSample) {
	e.raw("[")
	for i, s := range trace {
		if i > 0 {
			e.raw(",")
		}
		e.raw("{")
		e.key("tick", true)
		e.unum(s.Tick)
		e.key("playerId", false)
		e.str(s.PlayerID)
		e.key("x", false)
		e.num(s.X)
		e.key("y", false)
		e.num(s.Y)
		e.key("kickoff", false)
		e.flag(s.Kickoff)
		e.raw("}")
	}
	e.raw("]")
}

func (e *encoder) rejected(rejected []models.RejectedInput) {
	e.raw("[")
	for i, r := range rejected {
		if i > 0 {
			e.raw(",")
		}
		e.raw("{")
		e.key("index", true)
		e.num(int64(r.Index))
		e.key("tick", false)
		e.unum(r.Tick)
		e.key("actorId", false)
		e.str(r.ActorID)
		e.key("reason", false)
		e.str(r.Reason)
		e.raw("}")
	}
	e.raw("]")
}

// CanonicalField returns the canonical bytes of one sealed field.
func CanonicalField(rec *models.MatchRecord, sealedAtMs int64, field string) ([]byte, error) {
	if rec == nil {
		return nil, &SerializationError{Msg: "record is nil"}
	}
	e := &encoder{field: field}
	switch field {
	case "matchId":
		e.str(rec.MatchID)
	case "homeTeamId":
		e.str(rec.HomeTeamID)
	case "awayTeamId":
		e.str(rec.AwayTeamID)
	case "homeRoster":
		e.roster(rec.HomeRoster)
	case "awayRoster":
		e.roster(rec.AwayRoster)
	case "durationTicks":
		e.unum(rec.DurationTicks)
	case "finalScore":
		e.raw("{")
		e.key("home", true)
		e.num(rec.FinalScore.Home)
		e.key("away", false)
		e.num(rec.FinalScore.Away)
		e.raw("}")
	case "aborted":
		e.flag(rec.Aborted)
	case "sealedAt":
		e.num(sealedAtMs)
	case "difficulty":
		e.str(rec.Difficulty)
	case "difficultyCurve":
		e.raw("{")
		e.key("homeRatingPercent", true)
		e.num(rec.Curve.HomeRatingPercent)
		e.key("awayRatingPercent", false)
		e.num(rec.Curve.AwayRatingPercent)
		e.raw("}")
	case "traceIntervalTicks":
		e.unum(rec.TraceIntervalTicks)
	case "rngAlgorithm":
		e.str(rec.RNGAlgorithm)
	case "seed":
		e.unum(rec.Seed)
	case "inputLog":
		e.inputLog(rec.InputLog)
	case "playerStats":
		e.playerStats(rec.PlayerStats)
	case "positionTrace":
		e.positionTrace(rec.PositionTrace)
	case "rejected":
		e.rejected(rec.Rejected)
	default:
		return nil, &SerializationError{Field: field, Msg: "not a sealed field"}
	}
	if e.err != nil {
		return nil, e.err
	}
	return e.buf.Bytes(), nil
}

// Canonical writes the whole full-tier record as one canonical object, in
// FullFields order. It is the export form for third-party verifiers.
func Canonical(rec *models.MatchRecord, sealedAtMs int64) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range FullFields {
		b, err := CanonicalField(rec, sealedAtMs, field)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(field)
		buf.WriteString(`":`)
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
