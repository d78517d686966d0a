package game

import (
	"math"

	"github.com/dustin/go-humanize"
)

// FormatAmount renders a coin amount for display, e.g. 12,345.67.
func FormatAmount(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}

// viewLocked builds the render snapshot. Caller holds mu.
func (s *Session) viewLocked() View {
	return BuildView(&s.st, s.catalog)
}

// BuildView computes everything the presentation layer displays.
func BuildView(st *GameState, c *Catalog) View {
	rate := ComputePassiveRate(st, c)
	needed := LevelThreshold(st.Level)

	v := View{
		Coins:          st.Coins,
		CoinsText:      humanize.Commaf(math.Floor(st.Coins)),
		ClickValue:     ComputeClickValue(st, c),
		PassiveRate:    rate,
		PassiveText:    FormatAmount(rate),
		Level:          st.Level,
		LevelXP:        st.LevelXP,
		XPNeeded:       needed,
		XPPercent:      math.Min(100, st.LevelXP/needed*100),
		PrestigePoints: st.PrestigePoints,
		CanPrestige:    st.Level >= PrestigeMinLevel,
		Upgrades:       make([]UpgradeView, 0, c.Len()),
	}

	for _, d := range c.defs {
		owned := st.Upgrades[d.ID]
		cost := UpgradeCost(d, owned)
		v.Upgrades = append(v.Upgrades, UpgradeView{
			UpgradeDef: d,
			Owned:      owned,
			NextCost:   cost,
			CostText:   FormatAmount(cost),
			Affordable: st.Coins >= cost,
		})
	}
	return v
}
