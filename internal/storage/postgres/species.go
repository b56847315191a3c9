package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/battlesim/internal/game/catalog"
	"github.com/cory-johannsen/battlesim/internal/game/creature"
)

// SpeciesRepository is a catalog.Catalog backed by the species tables.
type SpeciesRepository struct {
	db *pgxpool.Pool
}

var _ catalog.Catalog = (*SpeciesRepository)(nil)

// NewSpeciesRepository creates a SpeciesRepository backed by db.
//
// Precondition: db must be a valid, open connection pool with the catalog
// schema applied.
func NewSpeciesRepository(db *pgxpool.Pool) *SpeciesRepository {
	return &SpeciesRepository{db: db}
}

const speciesColumns = `number, name, types, sprite, stage,
	base_hp, base_attack, base_defense, base_speed, base_special_attack, base_special_defense`

// Species implements catalog.Catalog. key is a name, matched
// case-insensitively, or a catalog number.
func (r *SpeciesRepository) Species(ctx context.Context, key string) (*catalog.Species, error) {
	key = strings.TrimSpace(key)
	var row pgx.Row
	if n, err := strconv.Atoi(key); err == nil {
		row = r.db.QueryRow(ctx, `SELECT `+speciesColumns+` FROM species WHERE number = $1`, n)
	} else {
		row = r.db.QueryRow(ctx, `SELECT `+speciesColumns+` FROM species WHERE LOWER(name) = LOWER($1)`, key)
	}
	sp, err := scanSpecies(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%q: %w", strings.ToLower(key), catalog.ErrSpeciesNotFound)
		}
		return nil, fmt.Errorf("querying species %q: %w", key, err)
	}
	if sp.Moves, err = r.moves(ctx, sp.Number); err != nil {
		return nil, err
	}
	return sp, nil
}

// Names implements catalog.Catalog. Names are returned in catalog order.
func (r *SpeciesRepository) Names(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT name FROM species ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("listing species: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning species names: %w", err)
	}
	return names, nil
}

// Count returns the number of stored species.
func (r *SpeciesRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM species`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting species: %w", err)
	}
	return n, nil
}

// Upsert stores sp, replacing any species with the same number and its whole
// move list, in one transaction.
//
// Precondition: sp must pass Validate.
func (r *SpeciesRepository) Upsert(ctx context.Context, sp *catalog.Species) error {
	if err := sp.Validate(); err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return upsertSpecies(ctx, tx, sp)
	})
}

// UpsertAll stores every species in one transaction.
//
// Postcondition: Either every species is stored or none is.
func (r *SpeciesRepository) UpsertAll(ctx context.Context, all []*catalog.Species) error {
	for _, sp := range all {
		if err := sp.Validate(); err != nil {
			return err
		}
	}
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		for _, sp := range all {
			if err := upsertSpecies(ctx, tx, sp); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a species and its moves.
//
// Postcondition: Returns catalog.ErrSpeciesNotFound if number is not stored.
func (r *SpeciesRepository) Delete(ctx context.Context, number int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM species WHERE number = $1`, number)
	if err != nil {
		return fmt.Errorf("deleting species %d: %w", number, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("#%d: %w", number, catalog.ErrSpeciesNotFound)
	}
	return nil
}

func upsertSpecies(ctx context.Context, tx pgx.Tx, sp *catalog.Species) error {
	base := baseColumns(sp.Base)
	types := sp.Types
	if types == nil {
		types = []string{}
	}
	stage := sp.Stage
	if stage == "" {
		stage = creature.StageBasic
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO species (`+speciesColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (number) DO UPDATE SET
			name = EXCLUDED.name,
			types = EXCLUDED.types,
			sprite = EXCLUDED.sprite,
			stage = EXCLUDED.stage,
			base_hp = EXCLUDED.base_hp,
			base_attack = EXCLUDED.base_attack,
			base_defense = EXCLUDED.base_defense,
			base_speed = EXCLUDED.base_speed,
			base_special_attack = EXCLUDED.base_special_attack,
			base_special_defense = EXCLUDED.base_special_defense,
			updated_at = NOW()`,
		sp.Number, sp.Name, types, sp.Sprite, string(stage),
		base[0], base[1], base[2], base[3], base[4], base[5],
	)
	if err != nil {
		return fmt.Errorf("upserting species %q: %w", sp.Name, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM species_moves WHERE species_number = $1`, sp.Number); err != nil {
		return fmt.Errorf("clearing moves for %q: %w", sp.Name, err)
	}
	rows := make([][]any, len(sp.Moves))
	for i, mv := range sp.Moves {
		var power *int
		if v, ok := mv.Power.Value(); ok {
			power = &v
		}
		category := mv.Category
		if category == "" {
			category = creature.Physical
		}
		rows[i] = []any{sp.Number, i, mv.Name, power, string(category), mv.Type}
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"species_moves"},
		[]string{"species_number", "position", "name", "power", "category", "type"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("inserting moves for %q: %w", sp.Name, err)
	}
	return nil
}

func (r *SpeciesRepository) moves(ctx context.Context, number int) ([]creature.Move, error) {
	rows, err := r.db.Query(ctx, `
		SELECT name, power, category, type
		FROM species_moves WHERE species_number = $1 ORDER BY position`, number)
	if err != nil {
		return nil, fmt.Errorf("querying moves for #%d: %w", number, err)
	}
	moves, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (creature.Move, error) {
		var (
			mv       creature.Move
			power    *int
			category string
		)
		if err := row.Scan(&mv.Name, &power, &category, &mv.Type); err != nil {
			return mv, err
		}
		mv.Category = creature.Category(category)
		if power != nil {
			mv.Power = creature.PowerOf(*power)
		}
		return mv, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning moves for #%d: %w", number, err)
	}
	return moves, nil
}

func scanSpecies(row pgx.Row) (*catalog.Species, error) {
	var (
		sp    catalog.Species
		stage string
		base  [6]*int
	)
	err := row.Scan(&sp.Number, &sp.Name, &sp.Types, &sp.Sprite, &stage,
		&base[0], &base[1], &base[2], &base[3], &base[4], &base[5])
	if err != nil {
		return nil, err
	}
	sp.Stage = creature.Stage(stage)
	sp.Base = baseStats(base)
	return &sp, nil
}

// baseColumns spreads an optional stat override into nullable columns.
func baseColumns(s *creature.Stats) [6]*int {
	if s == nil {
		return [6]*int{}
	}
	return [6]*int{&s.HP, &s.Attack, &s.Defense, &s.Speed, &s.SpecialAttack, &s.SpecialDefense}
}

// baseStats rebuilds the override; any NULL column means the stage preset applies.
func baseStats(cols [6]*int) *creature.Stats {
	for _, c := range cols {
		if c == nil {
			return nil
		}
	}
	return &creature.Stats{
		HP: *cols[0], Attack: *cols[1], Defense: *cols[2],
		Speed: *cols[3], SpecialAttack: *cols[4], SpecialDefense: *cols[5],
	}
}
