package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freshState() GameState {
	return DefaultState(epoch)
}

func TestUpgradeCost_GeometricCurve(t *testing.T) {
	c := testCatalog(t)
	cursor, ok := c.Lookup("cursor")
	require.True(t, ok)

	assert.InDelta(t, 15.0, UpgradeCost(cursor, 0), 1e-9)
	assert.InDelta(t, 17.25, UpgradeCost(cursor, 1), 1e-9)
	assert.InDelta(t, 19.8375, UpgradeCost(cursor, 2), 1e-9)

	// Prices only ever go up with ownership.
	for n := 0; n < 50; n++ {
		assert.Greater(t, UpgradeCost(cursor, n+1), UpgradeCost(cursor, n))
	}
}

func TestPurchase_ExactCostLeavesZero(t *testing.T) {
	c := testCatalog(t)
	st := freshState()
	st.Coins = 15

	res, err := Purchase(&st, c, "cursor")
	require.NoError(t, err)
	assert.True(t, res.Known)
	assert.Equal(t, 1, res.Owned)
	assert.InDelta(t, 15.0, res.Cost, 1e-9)
	assert.Equal(t, 0.0, st.Coins)
	assert.Equal(t, 1, st.Upgrades["cursor"])
}

func TestPurchase_InsufficientFundsLeavesStateUntouched(t *testing.T) {
	c := testCatalog(t)
	st := freshState()
	st.Coins = 14.99
	before := st.Clone()

	res, err := Purchase(&st, c, "cursor")
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, 0, res.Owned)
	assert.Equal(t, before, st)
}

func TestPurchase_UnknownIDIsNoOp(t *testing.T) {
	c := testCatalog(t)
	st := freshState()
	st.Coins = 1000
	before := st.Clone()

	res, err := Purchase(&st, c, "time-machine")
	assert.NoError(t, err)
	assert.False(t, res.Known)
	assert.Equal(t, before, st)
}

func TestPurchase_NilUpgradeMap(t *testing.T) {
	c := testCatalog(t)
	st := GameState{Coins: 100, Level: 1}

	_, err := Purchase(&st, c, "taptech")
	require.NoError(t, err)
	assert.Equal(t, 1, st.Upgrades["taptech"])
	assert.InDelta(t, 50.0, st.Coins, 1e-9)
}

func TestComputePassiveRate(t *testing.T) {
	c := testCatalog(t)
	st := freshState()
	assert.Equal(t, 0.0, ComputePassiveRate(&st, c))

	st.Upgrades["cursor"] = 10  // 10 * 0.1
	st.Upgrades["factory"] = 2  // 2 * 1
	st.Upgrades["taptech"] = 99 // click-only, ignored here
	assert.InDelta(t, 3.0, ComputePassiveRate(&st, c), 1e-9)

	st.Upgrades["multiplier"] = 2 // x1.10
	assert.InDelta(t, 3.3, ComputePassiveRate(&st, c), 1e-9)

	st.PrestigePoints = 5 // x1.05
	assert.InDelta(t, 3.3*1.05, ComputePassiveRate(&st, c), 1e-9)
}

func TestComputePassiveRate_IgnoresIDsMissingFromCatalog(t *testing.T) {
	c := testCatalog(t)
	st := freshState()
	st.Upgrades["retired-upgrade"] = 40
	st.Upgrades["mine"] = 1

	assert.InDelta(t, 8.0, ComputePassiveRate(&st, c), 1e-9)
}

func TestComputeClickValue(t *testing.T) {
	c := testCatalog(t)
	st := freshState()
	assert.InDelta(t, 1.0, ComputeClickValue(&st, c), 1e-9)

	st.Upgrades["taptech"] = 1
	assert.InDelta(t, 2.0, ComputeClickValue(&st, c), 1e-9)

	// Each doubleclick unit doubles again.
	st.Upgrades["doubleclick"] = 2
	assert.InDelta(t, 8.0, ComputeClickValue(&st, c), 1e-9)

	st.Upgrades["multiplier"] = 1
	st.PrestigePoints = 10
	assert.InDelta(t, 8.0*1.05*1.10, ComputeClickValue(&st, c), 1e-9)
}

func TestApplyGain_LevelCascade(t *testing.T) {
	st := freshState()

	ApplyGain(&st, 150)
	assert.Equal(t, 3, st.Level)
	assert.InDelta(t, 0.0, st.LevelXP, 1e-9)
	assert.InDelta(t, 150.0, st.Coins, 1e-9)

	ApplyGain(&st, 149)
	assert.Equal(t, 3, st.Level)
	assert.InDelta(t, 149.0, st.LevelXP, 1e-9)

	ApplyGain(&st, 1)
	assert.Equal(t, 4, st.Level)
	assert.InDelta(t, 0.0, st.LevelXP, 1e-9)
}

func TestApplyGain_NegativeClampsCoinsAndKeepsXP(t *testing.T) {
	st := freshState()
	st.Coins = 5
	st.LevelXP = 20

	ApplyGain(&st, -10)
	assert.Equal(t, 0.0, st.Coins)
	assert.Equal(t, 20.0, st.LevelXP)
	assert.Equal(t, 1, st.Level)
}

func TestApplyGain_HugeAmountTerminates(t *testing.T) {
	st := freshState()

	ApplyGain(&st, 1e15)
	assert.Greater(t, st.Level, 1000)
	assert.GreaterOrEqual(t, st.LevelXP, 0.0)
	assert.Less(t, st.LevelXP, LevelThreshold(st.Level))
}

func TestApplyGain_MatchesSingleStepCascade(t *testing.T) {
	for _, amount := range []float64{0, 49, 50, 51, 149.5, 1234, 98765.4321} {
		fast := freshState()
		ApplyGain(&fast, amount)

		level, xp := 1, amount
		for xp >= LevelThreshold(level) {
			xp -= LevelThreshold(level)
			level++
		}
		assert.Equal(t, level, fast.Level, "amount %v", amount)
		assert.InDelta(t, xp, fast.LevelXP, 1e-6, "amount %v", amount)
	}
}

func TestPrestige_BelowMinimumLevel(t *testing.T) {
	st := freshState()
	st.Level = 9
	st.Coins = 500
	before := st.Clone()

	points, err := Prestige(&st)
	assert.ErrorIs(t, err, ErrLevelTooLow)
	assert.Equal(t, 0, points)
	assert.Equal(t, before, st)
}

func TestPrestige_AwardsPointsAndResets(t *testing.T) {
	st := freshState()
	st.Level = 25
	st.LevelXP = 300
	st.Coins = 1e6
	st.ClickValue = 3
	st.PrestigePoints = 1
	st.Upgrades["cursor"] = 12

	points, err := Prestige(&st)
	require.NoError(t, err)
	assert.Equal(t, 2, points)
	assert.Equal(t, 3, st.PrestigePoints)
	assert.Equal(t, 1, st.Level)
	assert.Equal(t, 0.0, st.LevelXP)
	assert.Equal(t, 0.0, st.Coins)
	assert.Equal(t, DefaultClickValue, st.ClickValue)
	assert.Empty(t, st.Upgrades)
}

func TestPrestige_ExactlyLevelTen(t *testing.T) {
	st := freshState()
	st.Level = 10

	points, err := Prestige(&st)
	require.NoError(t, err)
	assert.Equal(t, 1, points)
}

func TestApplyGain_SplitEqualsCombined(t *testing.T) {
	amounts := []float64{0, 0.5, 1, 49.9, 50, 99, 150, 333.3, 1000, 2999, 12345.678}
	for _, a := range amounts {
		for _, b := range amounts {
			split := freshState()
			ApplyGain(&split, a)
			ApplyGain(&split, b)

			combined := freshState()
			ApplyGain(&combined, a+b)

			assert.Equal(t, combined.Level, split.Level, "a=%v b=%v", a, b)
			assert.InDelta(t, combined.LevelXP, split.LevelXP, 1e-6, "a=%v b=%v", a, b)
			assert.InDelta(t, combined.Coins, split.Coins, 1e-6, "a=%v b=%v", a, b)
		}
	}
}

func TestApplyGain_StopsAtMaxLevel(t *testing.T) {
	st := freshState()
	ApplyGain(&st, 1e300)

	assert.Equal(t, MaxLevel, st.Level)
	assert.Less(t, st.LevelXP, LevelThreshold(MaxLevel))
}
