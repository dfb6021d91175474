package catalog

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFactory(t *testing.T) *Catalog {
	t.Helper()
	c, err := LoadTOML("testdata/factory.toml")
	require.NoError(t, err)
	return c
}

func TestLoadTOML(t *testing.T) {
	c := buildFactory(t)

	require.Equal(t, 4, c.GoodCount())
	require.Equal(t, 4, c.RecipeCount())

	ore, ok := c.LookupGood("ore")
	require.True(t, ok)
	assert.Equal(t, GoodID(0), ore)

	// Goods only mentioned by recipes follow the declared ones, in recipe
	// order with ingredients before products: the circuit recipe names wire
	// before its own product.
	wire, ok := c.LookupGood("wire")
	require.True(t, ok)
	assert.Equal(t, GoodID(2), wire)

	circuit, ok := c.LookupGood("circuit")
	require.True(t, ok)
	assert.Equal(t, GoodID(3), circuit)

	plate, _ := c.LookupGood("plate")
	assert.Equal(t, []RecipeID{0, 1}, c.Good(plate).Production)
	assert.Equal(t, []RecipeID{2, 3}, c.Good(plate).Usage)

	arc, ok := c.LookupRecipe("arc-smelting")
	require.True(t, ok)
	r := c.Recipe(arc)
	assert.Equal(t, "electrics", r.Milestone)
	assert.Equal(t, 5.0, r.Cost)
	assert.True(t, r.Produces(plate))
	assert.False(t, r.Produces(ore))
}

func TestReadTOML_UnknownKeys(t *testing.T) {
	src := `
[[recipe]]
name = "smelting"
costs = 2.0
products = [{ good = "plate", amount = 1 }]
`
	_, err := ReadTOML(strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipe.costs")
}

func TestWriteTOML_RoundTrip(t *testing.T) {
	c := buildFactory(t)

	var buf bytes.Buffer
	require.NoError(t, WriteTOML(&buf, c))

	back, err := ReadTOML(&buf)
	require.NoError(t, err)
	assert.Equal(t, c.Fingerprint(), back.Fingerprint())
}

func TestBuilder_Validation(t *testing.T) {
	plate := []Quantity{{Good: "plate", Amount: 1}}
	tests := []struct {
		name string
		spec RecipeSpec
		want error
	}{
		{"empty name", RecipeSpec{Products: plate}, ErrEmptyName},
		{"negative cost", RecipeSpec{Name: "r", Cost: -1, Products: plate}, ErrInvalidCost},
		{"nan cost", RecipeSpec{Name: "r", Cost: math.NaN(), Products: plate}, ErrInvalidCost},
		{"no products", RecipeSpec{Name: "r", Cost: 1}, ErrNoProducts},
		{"zero amount", RecipeSpec{Name: "r", Products: []Quantity{{Good: "plate"}}}, ErrInvalidAmount},
		{"empty good", RecipeSpec{Name: "r", Products: []Quantity{{Amount: 1}}}, ErrEmptyName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuilder().AddRecipe(tt.spec)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBuilder_DuplicateRecipe(t *testing.T) {
	b := NewBuilder()
	spec := RecipeSpec{Name: "smelting", Products: []Quantity{{Good: "plate", Amount: 1}}}
	_, err := b.AddRecipe(spec)
	require.NoError(t, err)
	_, err = b.AddRecipe(spec)
	assert.ErrorIs(t, err, ErrDuplicateRecipe)
}

func TestBuilder_AddGoodIsIdempotent(t *testing.T) {
	b := NewBuilder()
	a, err := b.AddGood("ore")
	require.NoError(t, err)
	again, err := b.AddGood("ore")
	require.NoError(t, err)
	assert.Equal(t, a, again)
}

func TestCatalog_HasGood(t *testing.T) {
	c := buildFactory(t)
	assert.True(t, c.HasGood(0))
	assert.True(t, c.HasGood(GoodID(c.GoodCount()-1)))
	assert.False(t, c.HasGood(-1))
	assert.False(t, c.HasGood(GoodID(c.GoodCount())))
	assert.False(t, c.HasRecipe(RecipeID(c.RecipeCount())))

	var empty Catalog
	assert.False(t, empty.HasGood(0))
}

func TestCatalog_ResolveGoods(t *testing.T) {
	c := buildFactory(t)
	ids, err := c.ResolveGoods([]string{"plate", "ore"})
	require.NoError(t, err)
	assert.Equal(t, []GoodID{1, 0}, ids)

	_, err = c.ResolveGoods([]string{"unobtainium"})
	assert.ErrorIs(t, err, ErrUnknownGood)
}

func TestMilestones(t *testing.T) {
	c := buildFactory(t)
	smelting, _ := c.LookupRecipe("smelting")
	arc, _ := c.LookupRecipe("arc-smelting")

	none := Unlocked()
	assert.True(t, none.Accessible(c.Recipe(smelting)))
	assert.False(t, none.Accessible(c.Recipe(arc)))

	electrics := Unlocked("electrics", "automation")
	assert.True(t, electrics.Accessible(c.Recipe(arc)))
	assert.Equal(t, []string{"automation", "electrics"}, electrics.Names())

	assert.True(t, Everything.Accessible(c.Recipe(arc)))
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := buildFactory(t)

	s, err := OpenStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(ctx, c))

	goods, recipes, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, goods)
	assert.Equal(t, 4, recipes)

	back, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, c.Fingerprint(), back.Fingerprint())

	circuit, _ := back.LookupRecipe("circuit")
	r := back.Recipe(circuit)
	require.Len(t, r.Ingredients, 2)
	assert.Equal(t, "wire", back.Good(r.Ingredients[1].Good).Name)
	assert.Equal(t, 3.0, r.Ingredients[1].Amount)
}

func TestStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	s, err := OpenStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(ctx, buildFactory(t)))

	b := NewBuilder()
	_, err = b.AddRecipe(RecipeSpec{Name: "mining", Cost: 1, Products: []Quantity{{Good: "ore", Amount: 1}}})
	require.NoError(t, err)
	small, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, small))

	back, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, back.GoodCount())
	assert.Equal(t, 1, back.RecipeCount())
}

func TestStore_LoadEmpty(t *testing.T) {
	s, err := OpenStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	c, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Zero(t, c.GoodCount())
	assert.Zero(t, c.RecipeCount())
}
