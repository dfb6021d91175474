package catalog

import (
	"maps"
	"slices"
)

// Accessibility decides whether a recipe may be used in a plan.
type Accessibility interface {
	Accessible(r *Recipe) bool
}

// AccessibilityFunc adapts a function to [Accessibility].
type AccessibilityFunc func(r *Recipe) bool

// Accessible calls f(r).
func (f AccessibilityFunc) Accessible(r *Recipe) bool { return f(r) }

// Everything makes every recipe accessible regardless of milestones.
var Everything Accessibility = AccessibilityFunc(func(*Recipe) bool { return true })

// Milestones is the set of unlocked milestone names. Recipes without a
// milestone are always accessible; gated recipes need theirs unlocked.
type Milestones map[string]struct{}

// Unlocked builds a milestone set from names.
func Unlocked(names ...string) Milestones {
	m := make(Milestones, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

// Accessible implements [Accessibility].
func (m Milestones) Accessible(r *Recipe) bool {
	if r.Milestone == "" {
		return true
	}
	_, ok := m[r.Milestone]
	return ok
}

// Names returns the unlocked milestones sorted by name.
func (m Milestones) Names() []string {
	return slices.Sorted(maps.Keys(m))
}
