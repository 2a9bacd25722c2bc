// models/roster.go
package models

import (
	"errors"
	"fmt"
)

// Ratings are the 0-100 attributes the resolver reads.
type Ratings struct {
	Pace      int64 `json:"pace"`
	Shooting  int64 `json:"shooting"`
	Passing   int64 `json:"passing"`
	Defense   int64 `json:"defense"`
	Dribbling int64 `json:"dribbling"`
	Physical  int64 `json:"physical"`
}

// Mean is the integer average of all six ratings.
func (r Ratings) Mean() int64 {
	return (r.Pace + r.Shooting + r.Passing + r.Defense + r.Dribbling + r.Physical) / 6
}

func (r Ratings) check() error {
	for name, v := range map[string]int64{
		"pace": r.Pace, "shooting": r.Shooting, "passing": r.Passing,
		"defense": r.Defense, "dribbling": r.Dribbling, "physical": r.Physical,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("rating %s=%d outside 0-100", name, v)
		}
	}
	return nil
}

// PlayerProfile is a roster entry. By convention the first player of a roster keeps goal.
type PlayerProfile struct {
	ID      string  `json:"id"`
	Name    string  `json:"name,omitempty"`
	Ratings Ratings `json:"ratings"`
}

// Team is a named, ordered roster.
type Team struct {
	ID      string          `json:"id"`
	Name    string          `json:"name,omitempty"`
	Players []PlayerProfile `json:"players"`
}

// Validate checks roster size bounds and player uniqueness.
func (t Team) Validate(maxPlayers int) error {
	if t.ID == "" {
		return errors.New("team id is required")
	}
	if len(t.Players) == 0 {
		return fmt.Errorf("team %s has no players", t.ID)
	}
	if maxPlayers > 0 && len(t.Players) > maxPlayers {
		return fmt.Errorf("team %s has %d players (max %d)", t.ID, len(t.Players), maxPlayers)
	}
	seen := make(map[string]bool, len(t.Players))
	for _, p := range t.Players {
		if p.ID == "" {
			return fmt.Errorf("team %s has a player without id", t.ID)
		}
		if seen[p.ID] {
			return fmt.Errorf("team %s lists player %s twice", t.ID, p.ID)
		}
		seen[p.ID] = true
		if err := p.Ratings.check(); err != nil {
			return fmt.Errorf("player %s: %w", p.ID, err)
		}
	}
	return nil
}
