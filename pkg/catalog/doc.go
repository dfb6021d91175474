// Package catalog holds the immutable goods and recipe catalog the planner
// works against.
//
// Goods and recipes are numbered densely (0..n-1) when the catalog is built,
// so they can key a [mapping.Mapping]. Once [Builder.Build] returns, a
// [Catalog] never changes and may be shared across goroutines.
//
// Catalogs come from three places:
//
//   - [Builder], for programmatic construction and tests
//   - [LoadTOML] / [ReadTOML], for hand-written catalog files
//   - [Store], a SQLite database written by `tierplan catalog import`
//
// # Accessibility
//
// A recipe may be gated behind a milestone. [Accessibility] decides whether a
// recipe can be used in a plan; [Milestones] is the standard implementation
// where ungated recipes and recipes with an unlocked milestone are accessible.
//
// [mapping.Mapping]: github.com/matzehuels/tierplan/pkg/mapping
package catalog
