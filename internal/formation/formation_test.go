package formation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogSquadSizes(t *testing.T) {
	for _, f := range All() {
		assert.Equal(t, 11, f.SquadSize(), "formation %s", f.Name)
		assert.Len(t, f.Slots(), 11, "formation %s", f.Name)
	}
}

func TestSlots_Order(t *testing.T) {
	f, ok := Lookup("4-4-2")
	require.True(t, ok)

	want := []string{
		"GK1",
		"DEF1", "DEF2", "DEF3", "DEF4",
		"MID1", "MID2", "MID3", "MID4",
		"ATT1", "ATT2",
	}
	assert.Equal(t, want, f.Slots())
}

func TestLayout_CoversEverySlot(t *testing.T) {
	for _, f := range All() {
		layout := Layout(f.Name)
		require.Len(t, layout, f.SquadSize(), "formation %s", f.Name)

		for _, slot := range f.Slots() {
			c, ok := layout[slot]
			require.True(t, ok, "formation %s slot %s", f.Name, slot)
			assert.GreaterOrEqual(t, c.Top, 0.0)
			assert.LessOrEqual(t, c.Top, 100.0)
			assert.GreaterOrEqual(t, c.Left, 0.0)
			assert.LessOrEqual(t, c.Left, 100.0)
		}
	}
}

func TestLayout_KnownCoordinates(t *testing.T) {
	t.Run("goalkeeper is fixed for every formation", func(t *testing.T) {
		for _, name := range Names() {
			assert.Equal(t, Coordinate{Top: 15, Left: 50}, Layout(name)["GK1"], "formation %s", name)
		}
	})

	t.Run("4-3-3 back four", func(t *testing.T) {
		layout := Layout("4-3-3")
		assert.Equal(t, Coordinate{Top: 30, Left: 15}, layout["DEF1"])
		assert.Equal(t, Coordinate{Top: 30, Left: 35}, layout["DEF2"])
		assert.Equal(t, Coordinate{Top: 30, Left: 65}, layout["DEF3"])
		assert.Equal(t, Coordinate{Top: 30, Left: 85}, layout["DEF4"])
	})

	t.Run("3-5-2 midfield five", func(t *testing.T) {
		layout := Layout("3-5-2")
		assert.Equal(t, Coordinate{Top: 50, Left: 10}, layout["MID1"])
		assert.Equal(t, Coordinate{Top: 50, Left: 30}, layout["MID2"])
		assert.Equal(t, Coordinate{Top: 50, Left: 50}, layout["MID3"])
		assert.Equal(t, Coordinate{Top: 50, Left: 70}, layout["MID4"])
		assert.Equal(t, Coordinate{Top: 50, Left: 90}, layout["MID5"])
	})

	t.Run("strike pairs sit narrow", func(t *testing.T) {
		for _, name := range []string{"4-4-2", "3-5-2"} {
			layout := Layout(name)
			assert.Equal(t, Coordinate{Top: 75, Left: 40}, layout["ATT1"], "formation %s", name)
			assert.Equal(t, Coordinate{Top: 75, Left: 60}, layout["ATT2"], "formation %s", name)
		}
	})
}

func TestLayout_Deterministic(t *testing.T) {
	for _, name := range Names() {
		assert.Equal(t, Layout(name), Layout(name))
	}
}

func TestLayout_UnknownFormation(t *testing.T) {
	assert.Empty(t, Layout("5-5-5"))
	assert.Empty(t, Layout(""))
}

func TestCoordinateFor_Fallback(t *testing.T) {
	layout := Layout("4-3-3")

	assert.Equal(t, Coordinate{Top: 30, Left: 15}, CoordinateFor(layout, "DEF1"))
	assert.Equal(t, DefaultCoordinate, CoordinateFor(layout, "ATT9"))
	assert.Equal(t, DefaultCoordinate, CoordinateFor(nil, "GK1"))
}

func TestLookup(t *testing.T) {
	f, ok := Lookup("3-4-3")
	require.True(t, ok)
	assert.Equal(t, []Line{{Goalkeeper, 1}, {Defender, 3}, {Midfielder, 4}, {Attacker, 3}}, f.Lines)

	_, ok = Lookup("2-3-5")
	assert.False(t, ok)
}

func TestHasSlot(t *testing.T) {
	f, _ := Lookup("4-3-3")
	assert.True(t, f.HasSlot("MID3"))
	assert.False(t, f.HasSlot("MID4"))
	assert.False(t, f.HasSlot("def1"))
}

func TestRoleGroupLabels(t *testing.T) {
	assert.Equal(t, "Goalkeeper", Goalkeeper.Label())
	assert.Equal(t, "Defender", Defender.Label())
	assert.Equal(t, "Midfielder", Midfielder.Label())
	assert.Equal(t, "Attacker", Attacker.Label())
	assert.Equal(t, "XX", RoleGroup("XX").Label())
}
