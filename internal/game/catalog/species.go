// Package catalog provides the read-only creature catalog: species records,
// their learnable moves, name lookup, and search suggestions.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/battlesim/internal/game/creature"
)

// Species is one catalog entry.
type Species struct {
	Number int      `yaml:"number" json:"number"`
	Name   string   `yaml:"name" json:"name"`
	Types  []string `yaml:"types" json:"types"`
	Sprite string   `yaml:"sprite" json:"sprite"`
	// Stage selects the base-stat preset when Base is omitted.
	Stage creature.Stage `yaml:"stage" json:"stage"`
	// Base overrides the stage preset when set.
	Base  *creature.Stats `yaml:"base,omitempty" json:"base,omitempty"`
	Moves []creature.Move `yaml:"moves" json:"moves"`
}

// Key returns the lookup key for the species: its lower-cased name.
func (s *Species) Key() string { return strings.ToLower(s.Name) }

// BaseStats returns Base when set, otherwise the preset for Stage.
//
// Postcondition: Returns an error only if Base is nil and Stage is unknown.
func (s *Species) BaseStats() (creature.Stats, error) {
	if s.Base != nil {
		return *s.Base, nil
	}
	return creature.PresetFor(s.Stage)
}

// UsableMoves returns the moves that may be taken into battle.
func (s *Species) UsableMoves() []creature.Move { return creature.UsableMoves(s.Moves) }

// Validate checks the species record, reporting every violation.
//
// Precondition: s must not be nil.
// Postcondition: Returns nil iff Number >= 1, Name is non-empty, the stage is
// known, move names are non-empty and unique, and move categories are valid.
func (s *Species) Validate() error {
	var errs []string
	if s.Number < 1 {
		errs = append(errs, fmt.Sprintf("number must be >= 1, got %d", s.Number))
	}
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, "name must not be empty")
	}
	if _, err := s.BaseStats(); err != nil {
		errs = append(errs, err.Error())
	}
	seen := make(map[string]bool, len(s.Moves))
	for i, m := range s.Moves {
		if m.Name == "" {
			errs = append(errs, fmt.Sprintf("move %d: name must not be empty", i))
			continue
		}
		key := strings.ToLower(m.Name)
		if seen[key] {
			errs = append(errs, fmt.Sprintf("duplicate move %q", m.Name))
		}
		seen[key] = true
		if _, err := creature.ParseCategory(string(m.Category)); err != nil {
			errs = append(errs, fmt.Sprintf("move %q: %v", m.Name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("species %q: %s", s.Name, strings.Join(errs, "; "))
	}
	return nil
}

// normalize fills defaults after decoding.
func (s *Species) normalize() {
	s.Name = strings.TrimSpace(s.Name)
	for i := range s.Moves {
		if s.Moves[i].Category == "" {
			s.Moves[i].Category = creature.Physical
		}
	}
}

// LoadSpeciesFromBytes parses one or more YAML documents, each a Species.
//
// Postcondition: Returns validated species or an error on the first failure.
func LoadSpeciesFromBytes(data []byte) ([]*Species, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var out []*Species
	for {
		var sp Species
		err := dec.Decode(&sp)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("parsing species YAML: %w", err)
		}
		sp.normalize()
		if err := sp.Validate(); err != nil {
			return nil, err
		}
		out = append(out, &sp)
	}
	return out, nil
}

// LoadDirectory reads every *.yaml file in dir and returns the parsed species.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all species or an error on the first parse or
// validate failure; on error, the partial result is discarded.
func LoadDirectory(dir string) ([]*Species, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading catalog dir %q: %w", dir, err)
	}

	var all []*Species
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		species, err := LoadSpeciesFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		all = append(all, species...)
	}
	return all, nil
}
