package catalog

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// File is the on-disk shape of a catalog:
//
//	[[good]]
//	name = "ore"
//
//	[[recipe]]
//	name = "smelting"
//	cost = 2.0
//	milestone = "basic-metallurgy"
//	ingredients = [{ good = "ore", amount = 1 }]
//	products = [{ good = "plate", amount = 1 }]
type File struct {
	Goods   []GoodSpec   `toml:"good" json:"goods"`
	Recipes []RecipeSpec `toml:"recipe" json:"recipes"`
}

// GoodSpec declares a good explicitly.
type GoodSpec struct {
	Name string `toml:"name" json:"name"`
}

// LoadTOML reads a catalog file from disk.
func LoadTOML(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := ReadTOML(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ReadTOML decodes a catalog from r. Keys that do not belong to the catalog
// format are rejected so typos do not silently drop data.
func ReadTOML(r io.Reader) (*Catalog, error) {
	var file File
	md, err := toml.NewDecoder(r).Decode(&file)
	if err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		slices.Sort(keys)
		return nil, fmt.Errorf("decode catalog: unknown keys: %s", strings.Join(keys, ", "))
	}
	return file.Build()
}

// Build turns the file content into a catalog. Declared goods come first, in
// file order, followed by goods only mentioned by recipes.
func (f *File) Build() (*Catalog, error) {
	b := NewBuilder()
	for _, g := range f.Goods {
		if _, err := b.AddGood(g.Name); err != nil {
			return nil, fmt.Errorf("good: %w", err)
		}
	}
	for _, r := range f.Recipes {
		if _, err := b.AddRecipe(r); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// WriteTOML encodes c in the catalog file format.
func WriteTOML(w io.Writer, c *Catalog) error {
	return toml.NewEncoder(w).Encode(ToFile(c))
}

// ToFile converts c back to its file representation.
func ToFile(c *Catalog) *File {
	f := &File{
		Goods:   make([]GoodSpec, len(c.goods)),
		Recipes: make([]RecipeSpec, len(c.recipes)),
	}
	for i, g := range c.goods {
		f.Goods[i] = GoodSpec{Name: g.Name}
	}
	for i, r := range c.recipes {
		f.Recipes[i] = RecipeSpec{
			Name:        r.Name,
			Cost:        r.Cost,
			Milestone:   r.Milestone,
			Ingredients: c.quantities(r.Ingredients),
			Products:    c.quantities(r.Products),
		}
	}
	return f
}

func (c *Catalog) quantities(amounts []Amount) []Quantity {
	qs := make([]Quantity, len(amounts))
	for i, a := range amounts {
		qs[i] = Quantity{Good: c.goods[a.Good].Name, Amount: a.Amount}
	}
	return qs
}
