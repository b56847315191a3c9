package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cory-johannsen/battlesim/internal/game/dice"
)

// DefaultSuggestionLimit is the number of suggestions Suggest returns when
// called with a non-positive limit.
const DefaultSuggestionLimit = 5

// ErrSpeciesNotFound is returned when a lookup key matches no species.
var ErrSpeciesNotFound = errors.New("species not found")

// Catalog is a read-only source of species.
type Catalog interface {
	// Species returns the species whose name (case-insensitive) or number is key.
	//
	// Postcondition: Returns ErrSpeciesNotFound when nothing matches.
	Species(ctx context.Context, key string) (*Species, error)
	// Names returns every species name in catalog order.
	Names(ctx context.Context) ([]string, error)
}

// Memory is an in-memory Catalog, ordered by species number.
type Memory struct {
	ordered  []*Species
	byName   map[string]*Species
	byNumber map[int]*Species
}

// NewMemory builds a Memory catalog from species.
//
// Postcondition: Returns an error if two species share a name or a number.
func NewMemory(species []*Species) (*Memory, error) {
	m := &Memory{
		ordered:  make([]*Species, 0, len(species)),
		byName:   make(map[string]*Species, len(species)),
		byNumber: make(map[int]*Species, len(species)),
	}
	for _, sp := range species {
		if _, dup := m.byName[sp.Key()]; dup {
			return nil, fmt.Errorf("duplicate species name %q", sp.Name)
		}
		if _, dup := m.byNumber[sp.Number]; dup {
			return nil, fmt.Errorf("duplicate species number %d", sp.Number)
		}
		m.byName[sp.Key()] = sp
		m.byNumber[sp.Number] = sp
		m.ordered = append(m.ordered, sp)
	}
	sort.SliceStable(m.ordered, func(i, j int) bool { return m.ordered[i].Number < m.ordered[j].Number })
	return m, nil
}

// Species implements Catalog.
func (m *Memory) Species(_ context.Context, key string) (*Species, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if sp, ok := m.byName[key]; ok {
		return sp, nil
	}
	if n, err := strconv.Atoi(key); err == nil {
		if sp, ok := m.byNumber[n]; ok {
			return sp, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", key, ErrSpeciesNotFound)
}

// Names implements Catalog.
func (m *Memory) Names(_ context.Context) ([]string, error) {
	out := make([]string, len(m.ordered))
	for i, sp := range m.ordered {
		out[i] = sp.Name
	}
	return out, nil
}

// All returns every species in catalog order.
func (m *Memory) All() []*Species {
	out := make([]*Species, len(m.ordered))
	copy(out, m.ordered)
	return out
}

// Len returns the number of species.
func (m *Memory) Len() int { return len(m.ordered) }

// Suggest returns up to limit names containing term, case-insensitively, in
// catalog order. A blank term yields no suggestions.
func Suggest(names []string, term string, limit int) []string {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}
	var out []string
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), term) {
			out = append(out, n)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// DisplayName renders a catalog name for people: hyphens become spaces and
// each word is title-cased ("mr-mime" → "Mr Mime").
func DisplayName(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "-", " "))
}

// Random returns a uniformly chosen species from cat.
//
// Postcondition: Returns ErrSpeciesNotFound if cat is empty.
func Random(ctx context.Context, cat Catalog, src dice.Source) (*Species, error) {
	names, err := cat.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing species: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("empty catalog: %w", ErrSpeciesNotFound)
	}
	return cat.Species(ctx, names[dice.Pick(src, len(names))])
}
