/*
Package game
File: economy.go
Description:
    Handles the economic simulation of the tycoon.
    This includes:
    1. Production formulas (passive rate and click value).
    2. The upgrade cost curve and the purchase transaction.
    3. Experience, the leveling cascade and the prestige transition.

    Everything here is a pure function of its arguments; locking is the
    caller's job (see session.go).
*/

package game

import (
	"errors"
	"math"
)

const (
	XPPerLevel          = 50   // threshold(level) = XPPerLevel * level
	PrestigeMinLevel    = 10   // Lowest level allowed to prestige
	PrestigeLevelsPer   = 10   // Levels per awarded prestige point
	PrestigeBonusPerPt  = 0.01 // +1% production per prestige point
	DefaultClickValue   = 1.0
	MaxLevel            = 1_000_000_000 // Level cap applied by the cascade
	oneoffClickDoubling = 2.0
)

var (
	// ErrInsufficientFunds is returned when a purchase costs more than the balance.
	ErrInsufficientFunds = errors.New("insufficient coins")
	// ErrLevelTooLow is returned when prestige is attempted below PrestigeMinLevel.
	ErrLevelTooLow = errors.New("level too low to prestige")
	// ErrInvalidSaveData is returned for unparseable save payloads.
	ErrInvalidSaveData = errors.New("invalid save data")
)

// PurchaseResult describes a committed (or skipped) purchase.
type PurchaseResult struct {
	UpgradeID string  `json:"upgrade_id"`
	Cost      float64 `json:"cost"`
	Owned     int     `json:"owned"`
	Known     bool    `json:"known"` // false when the id is not in the catalog (no-op)
}

// UpgradeCost is the price of the next unit when `owned` units are already held.
func UpgradeCost(def UpgradeDef, owned int) float64 {
	return def.BaseCost * math.Pow(def.Scale, float64(owned))
}

// LevelThreshold is the XP needed to leave the given level.
func LevelThreshold(level int) float64 {
	return XPPerLevel * float64(level)
}

// globalMultiplier combines the designated mult entry and prestige bonus.
func globalMultiplier(s *GameState, c *Catalog) float64 {
	mult := 1.0
	if def, ok := c.MultiplierDef(); ok {
		mult += float64(s.Upgrades[def.ID]) * def.Value
	}
	return mult * (1 + float64(s.PrestigePoints)*PrestigeBonusPerPt)
}

// ComputePassiveRate returns coins per second from the owned cps upgrades.
func ComputePassiveRate(s *GameState, c *Catalog) float64 {
	base := 0.0
	for _, d := range c.defs {
		if d.Type == UpgradeCPS {
			base += float64(s.Upgrades[d.ID]) * d.Value
		}
	}
	return base * globalMultiplier(s, c)
}

// ComputeClickValue returns the coins granted by one manual click.
// Each unit of a oneoff upgrade doubles the value again; ownership is not capped at one.
func ComputeClickValue(s *GameState, c *Catalog) float64 {
	v := s.ClickValue
	for _, d := range c.defs {
		if d.Type == UpgradeClick {
			v += float64(s.Upgrades[d.ID]) * d.Value
		}
	}
	for _, d := range c.defs {
		if d.Type == UpgradeOneoff {
			if n := s.Upgrades[d.ID]; n > 0 {
				v *= math.Pow(oneoffClickDoubling, float64(n))
			}
		}
	}
	return v * globalMultiplier(s, c)
}

// Purchase buys one unit of the upgrade with the given id.
// Unknown ids succeed without touching the state.
func Purchase(s *GameState, c *Catalog, id string) (PurchaseResult, error) {
	def, ok := c.Lookup(id)
	if !ok {
		return PurchaseResult{UpgradeID: id}, nil
	}

	owned := s.Upgrades[id]
	cost := UpgradeCost(def, owned)
	if s.Coins < cost {
		return PurchaseResult{UpgradeID: id, Cost: cost, Owned: owned, Known: true}, ErrInsufficientFunds
	}

	s.Coins = math.Max(0, s.Coins-cost)
	if s.Upgrades == nil {
		s.Upgrades = make(map[string]int)
	}
	s.Upgrades[id] = owned + 1

	return PurchaseResult{UpgradeID: id, Cost: cost, Owned: owned + 1, Known: true}, nil
}

// ApplyGain credits coins and experience, then settles the leveling cascade.
// Negative amounts reduce coins (clamped at zero) but never experience.
func ApplyGain(s *GameState, amount float64) {
	s.Coins = math.Max(0, s.Coins+amount)
	s.LevelXP += math.Max(0, amount)
	settleLevels(s)
}

// settleLevels consumes thresholds until levelXP < threshold(level).
// When the XP covers many levels it skips ahead with the closed form of
// sum_{i<k} 50*(L+i); the final steps are always taken one level at a time.
// Level never exceeds MaxLevel; XP beyond its threshold is discarded.
func settleLevels(s *GameState) {
	if s.Level < 1 {
		s.Level = 1
	}
	if s.Level > MaxLevel {
		s.Level = MaxLevel
	}
	for s.LevelXP >= LevelThreshold(s.Level) {
		if s.Level >= MaxLevel {
			s.LevelXP = math.Nextafter(LevelThreshold(MaxLevel), 0)
			return
		}
		k := math.Min(levelsCovered(s.Level, s.LevelXP)-1, float64(MaxLevel-s.Level))
		if k > 0 {
			l := float64(s.Level)
			s.LevelXP -= XPPerLevel * (k*l + k*(k-1)/2)
			s.Level += int(k)
			if s.LevelXP < 0 {
				s.LevelXP = 0
			}
			continue
		}
		s.LevelXP -= LevelThreshold(s.Level)
		s.Level++
	}
}

// levelsCovered is the largest k with sum_{i<k} threshold(level+i) <= xp.
func levelsCovered(level int, xp float64) float64 {
	b := float64(level) - 0.5
	return math.Floor(-b + math.Sqrt(b*b+2*xp/XPPerLevel))
}

// Prestige converts levels into prestige points and wipes everything else.
func Prestige(s *GameState) (int, error) {
	if s.Level < PrestigeMinLevel {
		return 0, ErrLevelTooLow
	}
	points := s.Level / PrestigeLevelsPer

	// 1. Bank the points
	s.PrestigePoints += points

	// 2. Partial reset; prestige points are the only thing carried forward
	s.Coins = 0
	s.ClickValue = DefaultClickValue
	s.CPS = 0
	s.Upgrades = make(map[string]int)
	s.Level = 1
	s.LevelXP = 0

	return points, nil
}
