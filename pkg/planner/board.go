package planner

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/matzehuels/tierplan/pkg/catalog"
	errs "github.com/matzehuels/tierplan/pkg/errors"
)

// Board holds the currently published plan. Readers never see a partially
// built plan: publication replaces a single pointer. The zero value holds no
// plan.
//
// Solves that overlap are ordered by the ticket they took when they started
// (see [Board.Reserve]): the outcome of a solve never replaces the outcome
// of one that started after it.
type Board struct {
	current atomic.Pointer[Plan]
	version atomic.Uint64
	issued  atomic.Uint64

	mu      sync.Mutex
	applied uint64 // ticket of the outcome on the board
}

// Current returns the published plan, or nil when there is none.
func (b *Board) Current() *Plan { return b.current.Load() }

// Version increases with every publication, including invalidations.
func (b *Board) Version() uint64 { return b.version.Load() }

// Reserve hands out the ticket for a solve about to start.
func (b *Board) Reserve() uint64 { return b.issued.Add(1) }

// Publish replaces the current plan unconditionally.
func (b *Board) Publish(p *Plan) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.applied = b.Reserve()
	b.store(p)
}

// Invalidate replaces the current plan with "no plan".
func (b *Board) Invalidate() { b.Publish(nil) }

// Apply records the outcome of a solve that starts and ends now.
func (b *Board) Apply(p *Plan, err error) error {
	_, err = b.ApplyReserved(b.Reserve(), p, err)
	return err
}

// ApplyReserved records the outcome of the solve holding ticket. A plan is
// published and a NO_SOLUTION failure invalidates the board. Any other error
// (invalid input, cancellation, internal failures) leaves the previous plan
// in place. Outcomes older than the one on the board are dropped; the bool
// reports whether the board changed. The error is returned as-is.
func (b *Board) ApplyReserved(ticket uint64, p *Plan, err error) (bool, error) {
	if err != nil && !errs.Is(err, errs.ErrCodeNoSolution) {
		return false, err
	}
	if err != nil {
		p = nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if ticket < b.applied {
		return false, err
	}
	b.applied = ticket
	b.store(p)
	return true, err
}

func (b *Board) store(p *Plan) {
	b.current.Store(p)
	b.version.Add(1)
}

// Run solves and applies the result to the board.
func (b *Board) Run(ctx context.Context, cat *catalog.Catalog, goals []Goal, roots []catalog.GoodID, opts Options) (*Plan, error) {
	ticket := b.Reserve()
	p, err := Solve(ctx, cat, goals, roots, opts)
	_, err = b.ApplyReserved(ticket, p, err)
	return p, err
}
