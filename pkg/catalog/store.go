package catalog

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	roleIngredient = "ingredient"
	roleProduct    = "product"
)

// Store persists catalogs in a SQLite database. A store holds exactly one
// catalog; Save replaces it.
type Store struct {
	db *sqlx.DB
}

// OpenStore opens or creates the database at path. Use ":memory:" for a
// throwaway store.
func OpenStore(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across queries.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS goods (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS recipes (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		cost REAL NOT NULL,
		milestone TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS recipe_items (
		recipe_id INTEGER NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
		role TEXT NOT NULL CHECK (role IN ('ingredient', 'product')),
		position INTEGER NOT NULL,
		good_id INTEGER NOT NULL REFERENCES goods(id),
		amount REAL NOT NULL,
		PRIMARY KEY (recipe_id, role, position)
	);

	CREATE INDEX IF NOT EXISTS idx_recipe_items_good ON recipe_items(good_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save writes c to the store, replacing the previous catalog.
func (s *Store) Save(ctx context.Context, c *Catalog) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"recipe_items", "recipes", "goods"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, g := range c.goods {
		if _, err := tx.ExecContext(ctx, "INSERT INTO goods (id, name) VALUES (?, ?)", g.ID, g.Name); err != nil {
			return fmt.Errorf("insert good %q: %w", g.Name, err)
		}
	}

	item, err := tx.PreparexContext(ctx, `INSERT INTO recipe_items
		(recipe_id, role, position, good_id, amount) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer item.Close()

	for _, r := range c.recipes {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO recipes (id, name, cost, milestone) VALUES (?, ?, ?, ?)",
			r.ID, r.Name, r.Cost, r.Milestone,
		)
		if err != nil {
			return fmt.Errorf("insert recipe %q: %w", r.Name, err)
		}
		for i, a := range r.Ingredients {
			if _, err := item.ExecContext(ctx, r.ID, roleIngredient, i, a.Good, a.Amount); err != nil {
				return fmt.Errorf("insert recipe %q ingredient: %w", r.Name, err)
			}
		}
		for i, a := range r.Products {
			if _, err := item.ExecContext(ctx, r.ID, roleProduct, i, a.Good, a.Amount); err != nil {
				return fmt.Errorf("insert recipe %q product: %w", r.Name, err)
			}
		}
	}

	return tx.Commit()
}

type goodRow struct {
	ID   int32  `db:"id"`
	Name string `db:"name"`
}

type recipeRow struct {
	ID        int32   `db:"id"`
	Name      string  `db:"name"`
	Cost      float64 `db:"cost"`
	Milestone string  `db:"milestone"`
}

type itemRow struct {
	RecipeID int32   `db:"recipe_id"`
	Role     string  `db:"role"`
	GoodID   int32   `db:"good_id"`
	Amount   float64 `db:"amount"`
}

// Load reads the stored catalog. Identifiers are reassigned densely in the
// stored order, so a catalog saved by this package loads back unchanged.
func (s *Store) Load(ctx context.Context) (*Catalog, error) {
	var goods []goodRow
	if err := s.db.SelectContext(ctx, &goods, "SELECT id, name FROM goods ORDER BY id"); err != nil {
		return nil, fmt.Errorf("load goods: %w", err)
	}
	var recipes []recipeRow
	if err := s.db.SelectContext(ctx, &recipes, "SELECT id, name, cost, milestone FROM recipes ORDER BY id"); err != nil {
		return nil, fmt.Errorf("load recipes: %w", err)
	}
	var items []itemRow
	err := s.db.SelectContext(ctx, &items,
		"SELECT recipe_id, role, good_id, amount FROM recipe_items ORDER BY recipe_id, role, position")
	if err != nil {
		return nil, fmt.Errorf("load recipe items: %w", err)
	}

	names := make(map[int32]string, len(goods))
	b := NewBuilder()
	for _, g := range goods {
		names[g.ID] = g.Name
		if _, err := b.AddGood(g.Name); err != nil {
			return nil, fmt.Errorf("good %d: %w", g.ID, err)
		}
	}

	specs := make(map[int32]*RecipeSpec, len(recipes))
	for _, r := range recipes {
		specs[r.ID] = &RecipeSpec{Name: r.Name, Cost: r.Cost, Milestone: r.Milestone}
	}
	for _, it := range items {
		spec, ok := specs[it.RecipeID]
		if !ok {
			return nil, fmt.Errorf("recipe item references missing recipe %d", it.RecipeID)
		}
		name, ok := names[it.GoodID]
		if !ok {
			return nil, fmt.Errorf("recipe %q: %w: id %d", spec.Name, ErrUnknownGood, it.GoodID)
		}
		q := Quantity{Good: name, Amount: it.Amount}
		if it.Role == roleProduct {
			spec.Products = append(spec.Products, q)
		} else {
			spec.Ingredients = append(spec.Ingredients, q)
		}
	}

	for _, r := range recipes {
		if _, err := b.AddRecipe(*specs[r.ID]); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// Stats reports how many goods and recipes the store holds.
func (s *Store) Stats(ctx context.Context) (goods, recipes int, err error) {
	if err = s.db.GetContext(ctx, &goods, "SELECT COUNT(*) FROM goods"); err != nil {
		return 0, 0, err
	}
	if err = s.db.GetContext(ctx, &recipes, "SELECT COUNT(*) FROM recipes"); err != nil {
		return 0, 0, err
	}
	return goods, recipes, nil
}
