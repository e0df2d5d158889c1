// Package formation defines the built-in formation catalog and resolves
// where each slot sits on the pitch.
package formation

import "fmt"

// ---------------------------------------------------------------------------
// Role groups
// ---------------------------------------------------------------------------

// RoleGroup is the short code for a positional group.
type RoleGroup string

const (
	Goalkeeper RoleGroup = "GK"
	Defender   RoleGroup = "DEF"
	Midfielder RoleGroup = "MID"
	Attacker   RoleGroup = "ATT"
)

// Label returns the long display name for the group.
func (g RoleGroup) Label() string {
	switch g {
	case Goalkeeper:
		return "Goalkeeper"
	case Defender:
		return "Defender"
	case Midfielder:
		return "Midfielder"
	case Attacker:
		return "Attacker"
	}
	return string(g)
}

// ---------------------------------------------------------------------------
// Formation definitions
// ---------------------------------------------------------------------------

// Line is one positional row of a formation.
type Line struct {
	Role  RoleGroup `json:"role"`
	Count int       `json:"count"`
}

// Formation is a named arrangement of role-group counts. Counts sum to 11
// for every catalog entry, true by construction rather than by validation.
type Formation struct {
	Name  string `json:"name"`
	Lines []Line `json:"lines"`
}

// SquadSize returns the total slot count across all lines.
func (f Formation) SquadSize() int {
	total := 0
	for _, line := range f.Lines {
		total += line.Count
	}
	return total
}

// Slots returns every slot key implied by the formation, in definition
// order. Keys concatenate the role code with a 1-based index ("DEF2").
func (f Formation) Slots() []string {
	slots := make([]string, 0, f.SquadSize())
	for _, line := range f.Lines {
		for i := 1; i <= line.Count; i++ {
			slots = append(slots, SlotKey(line.Role, i))
		}
	}
	return slots
}

// HasSlot reports whether the slot key belongs to this formation.
func (f Formation) HasSlot(slot string) bool {
	for _, s := range f.Slots() {
		if s == slot {
			return true
		}
	}
	return false
}

// SlotKey builds the roster key for a role group and 1-based index.
func SlotKey(role RoleGroup, index int) string {
	return fmt.Sprintf("%s%d", role, index)
}

// ---------------------------------------------------------------------------
// Built-in catalog
// ---------------------------------------------------------------------------

var catalog = []Formation{
	{Name: "4-3-3", Lines: []Line{{Goalkeeper, 1}, {Defender, 4}, {Midfielder, 3}, {Attacker, 3}}},
	{Name: "4-4-2", Lines: []Line{{Goalkeeper, 1}, {Defender, 4}, {Midfielder, 4}, {Attacker, 2}}},
	{Name: "3-5-2", Lines: []Line{{Goalkeeper, 1}, {Defender, 3}, {Midfielder, 5}, {Attacker, 2}}},
	{Name: "3-4-3", Lines: []Line{{Goalkeeper, 1}, {Defender, 3}, {Midfielder, 4}, {Attacker, 3}}},
}

var byName = func() map[string]Formation {
	m := make(map[string]Formation, len(catalog))
	for _, f := range catalog {
		m[f.Name] = f
	}
	return m
}()

// Names returns the catalog's formation names in definition order.
func Names() []string {
	names := make([]string, len(catalog))
	for i, f := range catalog {
		names[i] = f.Name
	}
	return names
}

// All returns the catalog in definition order.
func All() []Formation {
	out := make([]Formation, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the named formation from the catalog.
func Lookup(name string) (Formation, bool) {
	f, ok := byName[name]
	return f, ok
}

// ---------------------------------------------------------------------------
// Layout resolution
// ---------------------------------------------------------------------------

// Coordinate places a slot on the pitch as percentage offsets from the
// top-left corner, both in [0,100].
type Coordinate struct {
	Top  float64 `json:"top"`
	Left float64 `json:"left"`
}

// DefaultCoordinate is the pitch-center fallback for slots the spread
// table does not cover.
var DefaultCoordinate = Coordinate{Top: 50, Left: 50}

// Vertical band per role group. The goalkeeper sits nearest the defended
// goal line.
var bandTop = map[RoleGroup]float64{
	Goalkeeper: 15,
	Defender:   30,
	Midfielder: 50,
	Attacker:   75,
}

// spreads holds the hand-tuned horizontal offsets per formation and role
// group, in slot order. Adding a formation is a data change here and in the
// catalog; there is no general subdivision formula to fall back on.
var spreads = map[string]map[RoleGroup][]float64{
	"4-3-3": {
		Goalkeeper: {50},
		Defender:   {15, 35, 65, 85},
		Midfielder: {25, 50, 75},
		Attacker:   {20, 50, 80},
	},
	"4-4-2": {
		Goalkeeper: {50},
		Defender:   {15, 35, 65, 85},
		Midfielder: {10, 40, 60, 90},
		Attacker:   {40, 60},
	},
	"3-5-2": {
		Goalkeeper: {50},
		Defender:   {25, 50, 75},
		Midfielder: {10, 30, 50, 70, 90},
		Attacker:   {40, 60},
	},
	"3-4-3": {
		Goalkeeper: {50},
		Defender:   {25, 50, 75},
		Midfielder: {20, 40, 60, 80},
		Attacker:   {20, 50, 80},
	},
}

// Layout maps every slot of the named formation to its pitch coordinate.
// Pure and deterministic. Slots whose (formation, role group) pair has no
// spread row are omitted from the result; callers substitute
// DefaultCoordinate for any missing slot. Unknown names yield an empty map.
func Layout(name string) map[string]Coordinate {
	f, ok := Lookup(name)
	if !ok {
		return map[string]Coordinate{}
	}

	rows := spreads[name]
	out := make(map[string]Coordinate, f.SquadSize())
	for _, line := range f.Lines {
		offsets := rows[line.Role]
		for i := 0; i < line.Count && i < len(offsets); i++ {
			out[SlotKey(line.Role, i+1)] = Coordinate{Top: bandTop[line.Role], Left: offsets[i]}
		}
	}
	return out
}

// CoordinateFor looks up a slot in a resolved layout, substituting
// DefaultCoordinate when the layout does not cover it.
func CoordinateFor(layout map[string]Coordinate, slot string) Coordinate {
	if c, ok := layout[slot]; ok {
		return c
	}
	return DefaultCoordinate
}
