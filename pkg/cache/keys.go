package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"strings"
)

// GoalKey is one goal in a plan cache key.
type GoalKey struct {
	Good   string  `json:"good"`
	Amount float64 `json:"amount"`
}

// PlanKeyOpts is the normalized solve request a plan key is derived from.
type PlanKeyOpts struct {
	Goals      []GoalKey `json:"goals"`
	Roots      []string  `json:"roots"`
	Milestones []string  `json:"milestones"`
}

// RenderKeyOpts selects a rendered artifact of a plan.
type RenderKeyOpts struct {
	Format    string `json:"format"`
	Direction string `json:"direction"`
	Detailed  bool   `json:"detailed"`
}

// Keyer derives cache keys.
type Keyer interface {
	// PlanKey identifies a solved plan for a catalog and request.
	PlanKey(catalogHash string, opts PlanKeyOpts) string

	// RenderKey identifies a rendered plan artifact.
	RenderKey(planHash string, opts RenderKeyOpts) string
}

// DefaultKeyer hashes catalog fingerprint and request together. Goal order
// matters for tiering ties, so goals are kept as given; roots and milestones
// are sets and get sorted.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) PlanKey(catalogHash string, opts PlanKeyOpts) string {
	opts.Roots = sortedUnique(opts.Roots)
	opts.Milestones = sortedUnique(opts.Milestones)
	return hashKey("plan", catalogHash, opts)
}

func (DefaultKeyer) RenderKey(planHash string, opts RenderKeyOpts) string {
	opts.Format = strings.ToLower(opts.Format)
	return hashKey("render", planHash, opts)
}

func sortedUnique(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	out := slices.Clone(s)
	slices.Sort(out)
	return slices.Compact(out)
}

// ScopedKeyer prefixes every key of an inner keyer, separating tenants or
// catalog versions that share one backend.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) PlanKey(catalogHash string, opts PlanKeyOpts) string {
	return k.prefix + k.inner.PlanKey(catalogHash, opts)
}

func (k *ScopedKeyer) RenderKey(planHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(planHash, opts)
}

// Hash returns the hex SHA-256 digest of data. Rendered artifacts are keyed
// by the hash of the encoded plan they were drawn from.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey builds "kind:<digest>" over the JSON encoding of the parts. The
// parts are plain structs and strings, so encoding cannot fail.
func hashKey(kind string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return kind + ":" + Hash(data)
}
