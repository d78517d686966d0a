/*
Package game
File: state.go
Description:
    Creates, copies and (de)serialises the GameState.
    Saves are plain JSON so they stay human-readable when exported.
    Loading always starts from defaults and merges whatever fields the
    payload provides, so old or partial saves keep working.
*/

package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DefaultState returns a fresh game started at now.
func DefaultState(now time.Time) GameState {
	return GameState{
		Coins:          0,
		ClickValue:     DefaultClickValue,
		CPS:            0,
		Upgrades:       make(map[string]int),
		LevelXP:        0,
		Level:          1,
		PrestigePoints: 0,
		LastTick:       now.UnixMilli(),
	}
}

// ResetHard wipes everything, prestige points included.
func ResetHard(now time.Time) GameState {
	return DefaultState(now)
}

// Clone returns a deep copy of the state.
func (s GameState) Clone() GameState {
	up := make(map[string]int, len(s.Upgrades))
	for k, v := range s.Upgrades {
		up[k] = v
	}
	s.Upgrades = up
	return s
}

// LastTickTime converts the stored millisecond timestamp.
func (s GameState) LastTickTime() time.Time {
	return time.UnixMilli(s.LastTick)
}

// DecodeState merges a JSON save over the defaults.
//
// Unknown fields are ignored and missing ones keep their default. A field of
// the wrong type is skipped while the rest still merge; in that case the merged
// state is returned together with an error wrapping ErrInvalidSaveData.
// A payload that is not JSON at all returns the defaults and the error.
func DecodeState(raw []byte, now time.Time) (GameState, error) {
	st := DefaultState(now)
	if err := json.Unmarshal(raw, &st); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			normalize(&st)
			return st, fmt.Errorf("%w: %v", ErrInvalidSaveData, err)
		}
		return DefaultState(now), fmt.Errorf("%w: %v", ErrInvalidSaveData, err)
	}
	normalize(&st)
	return st, nil
}

// EncodeState renders the state as indented JSON.
func EncodeState(s GameState) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// normalize restores the invariants a hand-edited save may break.
func normalize(s *GameState) {
	if s.Upgrades == nil {
		s.Upgrades = make(map[string]int)
	}
	for id, n := range s.Upgrades {
		if n < 0 {
			s.Upgrades[id] = 0
		}
	}
	if s.Level < 1 {
		s.Level = 1
	}
	if s.Coins < 0 {
		s.Coins = 0
	}
	if s.LevelXP < 0 {
		s.LevelXP = 0
	}
	if s.PrestigePoints < 0 {
		s.PrestigePoints = 0
	}
	settleLevels(s)
}
