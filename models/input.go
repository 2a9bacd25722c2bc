// models/input.go
package models

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// InputSchemaVersion is bumped whenever ActionKind or the InputParams shape changes.
const InputSchemaVersion = 1

// ActionKind is the closed set of player actions accepted by the simulator.
type ActionKind string

const (
	ActionMove   ActionKind = "MOVE"
	ActionPass   ActionKind = "PASS"
	ActionShoot  ActionKind = "SHOOT"
	ActionTackle ActionKind = "TACKLE"
	ActionSprint ActionKind = "SPRINT"
	ActionSkill  ActionKind = "SKILL"
)

var actionKinds = map[ActionKind]bool{
	ActionMove:   true,
	ActionPass:   true,
	ActionShoot:  true,
	ActionTackle: true,
	ActionSprint: true,
	ActionSkill:  true,
}

// Valid reports whether k is one of the versioned action kinds.
func (k ActionKind) Valid() bool {
	return actionKinds[k]
}

// InputParams is the action-specific payload. Only the fields relevant to the
// action kind are read:
//
//	MOVE   x, y      target position in centimetres
//	PASS   targetId  receiving teammate
//	SHOOT  power     0-100 (defaults to 70 when zero)
//	TACKLE targetId  optional, must be the ball holder when set
type InputParams struct {
	X        int64  `json:"x,omitempty"`
	Y        int64  `json:"y,omitempty"`
	TargetID string `json:"targetId,omitempty"`
	Power    int64  `json:"power,omitempty"`
}

// PlayerInput is one recorded player action. Immutable once recorded.
type PlayerInput struct {
	Tick        uint64      `json:"tick"`
	ActorID     string      `json:"actorId"`
	ActionKind  ActionKind  `json:"actionKind"`
	Params      InputParams `json:"params"`
	TimestampMs uint64      `json:"timestampMs"`
}

// ErrUnknownActionKind is returned at ingestion for kinds outside the schema.
var ErrUnknownActionKind = errors.New("unknown action kind")

// CheckShape validates the parts of an input that do not depend on match state.
func (in PlayerInput) CheckShape() error {
	if !in.ActionKind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownActionKind, in.ActionKind)
	}
	if strings.TrimSpace(in.ActorID) == "" {
		return errors.New("actorId is required")
	}
	if in.ActionKind == ActionShoot && (in.Params.Power < 0 || in.Params.Power > 100) {
		return fmt.Errorf("power %d outside 0-100", in.Params.Power)
	}
	if in.ActionKind == ActionPass && in.Params.TargetID == "" {
		return errors.New("pass requires params.targetId")
	}
	return nil
}

// InputDecodeError reports which entry of an input batch failed ingestion.
type InputDecodeError struct {
	Index int
	Err   error
}

func (e *InputDecodeError) Error() string {
	return fmt.Sprintf("input[%d]: %v", e.Index, e.Err)
}

func (e *InputDecodeError) Unwrap() error { return e.Err }

// DecodeInputs parses a JSON array of inputs and rejects malformed entries,
// including unknown action kinds, instead of silently dropping them.
func DecodeInputs(data []byte) ([]PlayerInput, error) {
	var inputs []PlayerInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("failed to decode inputs: %w", err)
	}
	if err := CheckInputs(inputs); err != nil {
		return nil, err
	}
	return inputs, nil
}

// CheckInputs runs CheckShape over a batch.
func CheckInputs(inputs []PlayerInput) error {
	for i, in := range inputs {
		if err := in.CheckShape(); err != nil {
			return &InputDecodeError{Index: i, Err: err}
		}
	}
	return nil
}
