package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog_BuiltInEntries(t *testing.T) {
	c := testCatalog(t)
	require.Equal(t, 6, c.Len())

	ids := make([]string, 0, c.Len())
	for _, d := range c.All() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"cursor", "factory", "mine", "taptech", "doubleclick", "multiplier"}, ids)

	mine, ok := c.Lookup("mine")
	require.True(t, ok)
	assert.Equal(t, UpgradeCPS, mine.Type)
	assert.Equal(t, 1200.0, mine.BaseCost)
	assert.Equal(t, 1.18, mine.Scale)
	assert.Equal(t, 8.0, mine.Value)

	mult, ok := c.MultiplierDef()
	require.True(t, ok)
	assert.Equal(t, "multiplier", mult.ID)
}

func TestCatalog_AllReturnsCopy(t *testing.T) {
	c := testCatalog(t)
	all := c.All()
	all[0].BaseCost = 1

	first, _ := c.Lookup(all[0].ID)
	assert.Equal(t, 15.0, first.BaseCost)
}

func TestNewCatalog_Validation(t *testing.T) {
	valid := UpgradeDef{ID: "a", BaseCost: 10, Scale: 1.1, Type: UpgradeCPS, Value: 1}

	cases := map[string]UpgradeDef{
		"missing id":    {BaseCost: 10, Scale: 1.1, Type: UpgradeCPS},
		"zero cost":     {ID: "b", BaseCost: 0, Scale: 1.1, Type: UpgradeCPS},
		"flat scale":    {ID: "b", BaseCost: 10, Scale: 1, Type: UpgradeCPS},
		"unknown type":  {ID: "b", BaseCost: 10, Scale: 1.1, Type: "teleport"},
		"duplicate ids": {ID: "a", BaseCost: 10, Scale: 1.1, Type: UpgradeClick},
	}
	for name, bad := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewCatalog([]UpgradeDef{valid, bad})
			assert.Error(t, err)
		})
	}

	c, err := NewCatalog([]UpgradeDef{valid})
	require.NoError(t, err)
	_, ok := c.MultiplierDef()
	assert.False(t, ok)
}

func TestLoadCatalog_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := `upgrades:
  - id: lemonade
    name: Lemonade Stand
    base_cost: 4
    scale: 1.07
    type: cps
    value: 0.5
  - id: boost
    name: Boost
    base_cost: 100
    scale: 3
    type: mult
    value: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	st := DefaultState(epoch)
	st.Upgrades["lemonade"] = 4
	st.Upgrades["boost"] = 2
	assert.InDelta(t, 4.0, ComputePassiveRate(&st, c), 1e-9)
}

func TestLoadCatalog_EmptyPathUsesBuiltIn(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Equal(t, 6, c.Len())
}

func TestLoadCatalog_Errors(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte("upgrades: [this is: not valid"))
	assert.Error(t, err)
}
