/*
Package game
File: models.go
Description:
    Defines the data structures of the tycoon simulation.
    This file serves as the "schema" for the application, mapping directly to
    the YAML catalog file and to the JSON save blob.

    No logic is performed here; this file is strictly for type definitions.
*/

package game

// UpgradeType decides which production formula consumes an upgrade.
type UpgradeType string

const (
	UpgradeClick  UpgradeType = "click"  // Flat bonus added to the click value
	UpgradeCPS    UpgradeType = "cps"    // Flat bonus added to the passive rate
	UpgradeOneoff UpgradeType = "oneoff" // Doubles the click value once per unit owned
	UpgradeMult   UpgradeType = "mult"   // Global multiplier on clicks and passive income
)

// Valid reports whether t is one of the known upgrade types.
func (t UpgradeType) Valid() bool {
	switch t {
	case UpgradeClick, UpgradeCPS, UpgradeOneoff, UpgradeMult:
		return true
	}
	return false
}

// UpgradeDef represents one purchasable upgrade in the catalog.
type UpgradeDef struct {
	ID          string      `yaml:"id" json:"id"`                   // Unique key (e.g., "cursor")
	Name        string      `yaml:"name" json:"name"`               // Display name
	Description string      `yaml:"description" json:"description"` // Flavor text
	BaseCost    float64     `yaml:"base_cost" json:"base_cost"`     // Price of the first unit
	Scale       float64     `yaml:"scale" json:"scale"`             // Cost growth ratio per unit owned
	Type        UpgradeType `yaml:"type" json:"type"`               // Formula that consumes this entry
	Value       float64     `yaml:"value" json:"value"`             // Per-unit effect magnitude
}

// catalogFile is the root of the catalog YAML document.
type catalogFile struct {
	Upgrades []UpgradeDef `yaml:"upgrades"`
}

// GameState is the single mutable aggregate of a player's progress.
// The JSON field names match the browser save format so old saves import cleanly.
type GameState struct {
	Coins          float64        `json:"coins"`          // Spendable balance, never negative
	ClickValue     float64        `json:"clickValue"`     // Base yield per click before upgrades
	CPS            float64        `json:"cps"`            // Display copy of the passive rate; never read by the simulation
	Upgrades       map[string]int `json:"upgrades"`       // Upgrade ID -> owned count
	LevelXP        float64        `json:"levelXP"`        // Experience toward the next level
	Level          int            `json:"level"`          // Current level, starts at 1
	PrestigePoints int            `json:"prestigePoints"` // Permanent currency carried across prestige
	LastTick       int64          `json:"lastTick"`       // Unix milliseconds of the last accrual
}

// UpgradeView is one catalog row as the presentation layer renders it.
type UpgradeView struct {
	UpgradeDef
	Owned      int     `json:"owned"`
	NextCost   float64 `json:"next_cost"`
	CostText   string  `json:"cost_text"`
	Affordable bool    `json:"affordable"`
}

// View is a read-only rendering snapshot of the session.
type View struct {
	Coins          float64       `json:"coins"`
	CoinsText      string        `json:"coins_text"`
	ClickValue     float64       `json:"click_value"`
	PassiveRate    float64       `json:"passive_rate"`
	PassiveText    string        `json:"passive_text"`
	Level          int           `json:"level"`
	LevelXP        float64       `json:"level_xp"`
	XPNeeded       float64       `json:"xp_needed"`
	XPPercent      float64       `json:"xp_percent"`
	PrestigePoints int           `json:"prestige_points"`
	CanPrestige    bool          `json:"can_prestige"`
	Upgrades       []UpgradeView `json:"upgrades"`
}
