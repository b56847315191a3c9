package ai

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/battlesim/internal/game/battle"
	"github.com/cory-johannsen/battlesim/internal/scripting"
)

// Registry maps each difficulty to the opponent's move chooser.
//
// Invariant: Chooser never returns nil.
type Registry struct {
	choosers map[battle.Difficulty]battle.MoveChooser
}

// NewRegistry returns a Registry in which every difficulty uses battle.RandomChooser.
func NewRegistry() *Registry {
	return &Registry{choosers: make(map[battle.Difficulty]battle.MoveChooser)}
}

// Register sets the chooser for d.
//
// Precondition: c must not be nil.
func (r *Registry) Register(d battle.Difficulty, c battle.MoveChooser) {
	r.choosers[d] = c
}

// Chooser returns the chooser for d, falling back to battle.RandomChooser.
func (r *Registry) Chooser(d battle.Difficulty) battle.MoveChooser {
	if c, ok := r.choosers[d]; ok {
		return c
	}
	return battle.RandomChooser{}
}

// LoadScripts loads one strategy script per difficulty into mgr and registers
// a ScriptedChooser for each. scripts maps difficulty name to a Lua file path.
//
// Precondition: mgr and logger must be non-nil.
// Postcondition: Returns an error on an unknown difficulty or a script load failure.
func LoadScripts(mgr *scripting.Manager, scripts map[string]string, instLimit int, logger *zap.Logger) (*Registry, error) {
	reg := NewRegistry()
	for name, path := range scripts {
		d, err := battle.ParseDifficulty(name)
		if err != nil {
			return nil, fmt.Errorf("ai scripts: %w", err)
		}
		if path == "" {
			continue
		}
		if err := mgr.LoadFile(string(d), path, instLimit); err != nil {
			return nil, fmt.Errorf("ai scripts: %w", err)
		}
		reg.Register(d, NewScriptedChooser(mgr, string(d), battle.RandomChooser{}, logger))
		logger.Info("ai script loaded", zap.String("difficulty", string(d)), zap.String("path", path))
	}
	return reg, nil
}
