package creature

import "fmt"

// Stage is a species' growth stage. It selects a base-stat preset for
// species whose catalog entry omits explicit base stats.
type Stage string

const (
	StageBasic          Stage = "basic"
	StageFirstEvolution Stage = "first_evolution"
	StageFinalEvolution Stage = "final_evolution"
)

// Presets is the base-stat table per growth stage.
var Presets = map[Stage]Stats{
	StageBasic: {
		HP: 45, Attack: 49, Defense: 49, Speed: 45, SpecialAttack: 65, SpecialDefense: 65,
	},
	StageFirstEvolution: {
		HP: 60, Attack: 62, Defense: 63, Speed: 60, SpecialAttack: 80, SpecialDefense: 80,
	},
	StageFinalEvolution: {
		HP: 80, Attack: 82, Defense: 83, Speed: 80, SpecialAttack: 100, SpecialDefense: 100,
	},
}

// PresetFor returns the base-stat preset for stage.
// An empty stage selects StageBasic.
func PresetFor(stage Stage) (Stats, error) {
	if stage == "" {
		stage = StageBasic
	}
	s, ok := Presets[stage]
	if !ok {
		return Stats{}, fmt.Errorf("unknown growth stage %q", stage)
	}
	return s, nil
}
