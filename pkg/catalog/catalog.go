package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmptyName is returned when a good or recipe has no name.
	ErrEmptyName = errors.New("name must not be empty")

	// ErrDuplicateRecipe is returned when two recipes share a name.
	ErrDuplicateRecipe = errors.New("duplicate recipe")

	// ErrInvalidAmount is returned for ingredient or product amounts that are
	// not positive finite numbers.
	ErrInvalidAmount = errors.New("amount must be a positive number")

	// ErrInvalidCost is returned for negative or non-finite recipe costs.
	ErrInvalidCost = errors.New("cost must be a non-negative number")

	// ErrNoProducts is returned for recipes that produce nothing.
	ErrNoProducts = errors.New("recipe has no products")

	// ErrUnknownGood is returned when a good name cannot be resolved.
	ErrUnknownGood = errors.New("unknown good")
)

// GoodID identifies a good within one catalog.
type GoodID int32

// RecipeID identifies a recipe within one catalog.
type RecipeID int32

// Amount is a quantity of a good consumed or produced by one recipe run.
type Amount struct {
	Good   GoodID
	Amount float64
}

// Good is a catalog item. Production lists the recipes producing it, in
// catalog order; Usage lists the recipes consuming it.
type Good struct {
	ID         GoodID
	Name       string
	Production []RecipeID
	Usage      []RecipeID
}

// Recipe converts ingredients into products at a base cost per run.
// Milestone, when set, gates the recipe (see [Accessibility]).
type Recipe struct {
	ID          RecipeID
	Name        string
	Ingredients []Amount
	Products    []Amount
	Cost        float64
	Milestone   string
}

// Produces reports whether the recipe lists g among its products.
func (r *Recipe) Produces(g GoodID) bool {
	for _, p := range r.Products {
		if p.Good == g {
			return true
		}
	}
	return false
}

// Catalog is an immutable set of goods and recipes with dense identifiers.
// The zero value is an empty catalog.
type Catalog struct {
	goods        []Good
	recipes      []Recipe
	goodByName   map[string]GoodID
	recipeByName map[string]RecipeID
	fingerprint  string
}

// GoodCount returns the size of the good identifier space.
func (c *Catalog) GoodCount() int { return len(c.goods) }

// RecipeCount returns the size of the recipe identifier space.
func (c *Catalog) RecipeCount() int { return len(c.recipes) }

// HasGood reports whether id refers to a good of this catalog.
func (c *Catalog) HasGood(id GoodID) bool { return id >= 0 && int(id) < len(c.goods) }

// HasRecipe reports whether id refers to a recipe of this catalog.
func (c *Catalog) HasRecipe(id RecipeID) bool { return id >= 0 && int(id) < len(c.recipes) }

// Good returns the good with the given id. Out-of-range ids panic.
// The returned value must not be modified.
func (c *Catalog) Good(id GoodID) *Good { return &c.goods[id] }

// Recipe returns the recipe with the given id. Out-of-range ids panic.
// The returned value must not be modified.
func (c *Catalog) Recipe(id RecipeID) *Recipe { return &c.recipes[id] }

// Goods returns every good in id order. The slice must not be modified.
func (c *Catalog) Goods() []Good { return c.goods }

// Recipes returns every recipe in id order. The slice must not be modified.
func (c *Catalog) Recipes() []Recipe { return c.recipes }

// LookupGood resolves a good by name.
func (c *Catalog) LookupGood(name string) (GoodID, bool) {
	id, ok := c.goodByName[name]
	return id, ok
}

// LookupRecipe resolves a recipe by name.
func (c *Catalog) LookupRecipe(name string) (RecipeID, bool) {
	id, ok := c.recipeByName[name]
	return id, ok
}

// ResolveGoods maps names to ids, failing with ErrUnknownGood on the first
// name that is not in the catalog.
func (c *Catalog) ResolveGoods(names []string) ([]GoodID, error) {
	ids := make([]GoodID, 0, len(names))
	for _, name := range names {
		id, ok := c.goodByName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownGood, name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Fingerprint returns a SHA-256 digest of the catalog content. Two catalogs
// with the same goods and recipes in the same order share a fingerprint.
func (c *Catalog) Fingerprint() string { return c.fingerprint }

// Builder assembles a [Catalog]. Goods referenced by recipes are registered
// implicitly, so declaring goods up front only matters for their ordering
// or for goods no recipe mentions.
type Builder struct {
	goods        []Good
	recipes      []Recipe
	goodByName   map[string]GoodID
	recipeByName map[string]RecipeID
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		goodByName:   make(map[string]GoodID),
		recipeByName: make(map[string]RecipeID),
	}
}

// AddGood registers a good by name and returns its id. Registering a known
// name returns the existing id.
func (b *Builder) AddGood(name string) (GoodID, error) {
	if name == "" {
		return 0, ErrEmptyName
	}
	if id, ok := b.goodByName[name]; ok {
		return id, nil
	}
	id := GoodID(len(b.goods))
	b.goods = append(b.goods, Good{ID: id, Name: name})
	b.goodByName[name] = id
	return id, nil
}

// Quantity is a named good amount, the form recipes take in catalog files.
type Quantity struct {
	Good   string  `toml:"good" json:"good"`
	Amount float64 `toml:"amount" json:"amount"`
}

// RecipeSpec describes a recipe by good names.
type RecipeSpec struct {
	Name        string     `toml:"name" json:"name"`
	Cost        float64    `toml:"cost" json:"cost"`
	Milestone   string     `toml:"milestone,omitempty" json:"milestone,omitempty"`
	Ingredients []Quantity `toml:"ingredients" json:"ingredients"`
	Products    []Quantity `toml:"products" json:"products"`
}

// AddRecipe validates spec and registers it, returning the new id.
func (b *Builder) AddRecipe(spec RecipeSpec) (RecipeID, error) {
	if spec.Name == "" {
		return 0, ErrEmptyName
	}
	if _, ok := b.recipeByName[spec.Name]; ok {
		return 0, fmt.Errorf("%w: %q", ErrDuplicateRecipe, spec.Name)
	}
	if spec.Cost < 0 || math.IsNaN(spec.Cost) || math.IsInf(spec.Cost, 0) {
		return 0, fmt.Errorf("recipe %q: %w", spec.Name, ErrInvalidCost)
	}
	if len(spec.Products) == 0 {
		return 0, fmt.Errorf("recipe %q: %w", spec.Name, ErrNoProducts)
	}

	ingredients, err := b.amounts(spec.Name, spec.Ingredients)
	if err != nil {
		return 0, err
	}
	products, err := b.amounts(spec.Name, spec.Products)
	if err != nil {
		return 0, err
	}

	id := RecipeID(len(b.recipes))
	b.recipes = append(b.recipes, Recipe{
		ID:          id,
		Name:        spec.Name,
		Ingredients: ingredients,
		Products:    products,
		Cost:        spec.Cost,
		Milestone:   spec.Milestone,
	})
	b.recipeByName[spec.Name] = id
	return id, nil
}

func (b *Builder) amounts(recipe string, qs []Quantity) ([]Amount, error) {
	out := make([]Amount, 0, len(qs))
	for _, q := range qs {
		if !(q.Amount > 0) || math.IsInf(q.Amount, 0) {
			return nil, fmt.Errorf("recipe %q, good %q: %w", recipe, q.Good, ErrInvalidAmount)
		}
		id, err := b.AddGood(q.Good)
		if err != nil {
			return nil, fmt.Errorf("recipe %q: %w", recipe, err)
		}
		out = append(out, Amount{Good: id, Amount: q.Amount})
	}
	return out, nil
}

// Build freezes the builder content into a Catalog. The builder must not be
// used afterwards.
func (b *Builder) Build() (*Catalog, error) {
	for _, r := range b.recipes {
		seen := make(map[GoodID]bool, len(r.Products))
		for _, p := range r.Products {
			if !seen[p.Good] {
				b.goods[p.Good].Production = append(b.goods[p.Good].Production, r.ID)
				seen[p.Good] = true
			}
		}
		clear(seen)
		for _, in := range r.Ingredients {
			if !seen[in.Good] {
				b.goods[in.Good].Usage = append(b.goods[in.Good].Usage, r.ID)
				seen[in.Good] = true
			}
		}
	}

	c := &Catalog{
		goods:        b.goods,
		recipes:      b.recipes,
		goodByName:   b.goodByName,
		recipeByName: b.recipeByName,
	}
	fp, err := fingerprint(c)
	if err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}
	c.fingerprint = fp
	return c, nil
}

func fingerprint(c *Catalog) (string, error) {
	data, err := json.Marshal(struct {
		Goods   []Good
		Recipes []Recipe
	}{c.goods, c.recipes})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
