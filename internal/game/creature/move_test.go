package creature_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/battlesim/internal/game/creature"
)

func TestPower_YAMLForms(t *testing.T) {
	var moves []creature.Move
	src := `
- name: Tackle
  power: 40
  category: physical
- name: Growl
  power: N/A
- name: Ember
  power: "40"
  category: special
- name: Leer
  power: ~
`
	require.NoError(t, yaml.Unmarshal([]byte(src), &moves))
	require.Len(t, moves, 4)

	n, ok := moves[0].Power.Value()
	assert.True(t, ok)
	assert.Equal(t, 40, n)
	assert.False(t, moves[1].Power.Known())
	assert.Equal(t, "N/A", moves[1].Power.String())
	assert.True(t, moves[2].Power.Known())
	assert.False(t, moves[3].Power.Known())
}

func TestPower_JSONForms(t *testing.T) {
	var p creature.Power
	require.NoError(t, json.Unmarshal([]byte(`90`), &p))
	assert.Equal(t, "90", p.String())
	require.NoError(t, json.Unmarshal([]byte(`"N/A"`), &p))
	assert.False(t, p.Known())
	require.NoError(t, json.Unmarshal([]byte(`null`), &p))
	assert.False(t, p.Known())
	require.NoError(t, json.Unmarshal([]byte(`12.5`), &p))
	assert.False(t, p.Known())
	assert.Error(t, json.Unmarshal([]byte(`[1]`), &p))
}

func TestPower_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(creature.Move{Name: "Surf", Power: creature.PowerOf(90), Category: creature.Special})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Surf","power":90,"category":"special","type":""}`, string(out))

	out, err = json.Marshal(creature.UnknownPower())
	require.NoError(t, err)
	assert.Equal(t, `"N/A"`, string(out))
}

func TestMove_Usable(t *testing.T) {
	assert.True(t, creature.Move{Power: creature.PowerOf(1)}.Usable())
	assert.False(t, creature.Move{Power: creature.PowerOf(0)}.Usable())
	assert.False(t, creature.Move{Power: creature.PowerOf(-5)}.Usable())
	assert.False(t, creature.Move{}.Usable())
}

func TestUsableMoves_PreservesOrder(t *testing.T) {
	moves := []creature.Move{
		{Name: "A", Power: creature.PowerOf(10)},
		{Name: "B"},
		{Name: "C", Power: creature.PowerOf(0)},
		{Name: "D", Power: creature.PowerOf(80)},
	}
	got := creature.UsableMoves(moves)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Name)
	assert.Equal(t, "D", got[1].Name)
}

func TestParseCategory(t *testing.T) {
	c, err := creature.ParseCategory("")
	require.NoError(t, err)
	assert.Equal(t, creature.Physical, c)
	c, err = creature.ParseCategory(" Special ")
	require.NoError(t, err)
	assert.Equal(t, creature.Special, c)
	_, err = creature.ParseCategory("status")
	assert.Error(t, err)
}
