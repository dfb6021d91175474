package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/matzehuels/tierplan/pkg/catalog"
	errs "github.com/matzehuels/tierplan/pkg/errors"
	planio "github.com/matzehuels/tierplan/pkg/io"
	"github.com/matzehuels/tierplan/pkg/pipeline"
	"github.com/matzehuels/tierplan/pkg/planner"
)

// requestFlags are the flags shared by commands that solve a request.
type requestFlags struct {
	catalog    string
	goals      []string
	roots      []string
	milestones []string
	noCache    bool
	refresh    bool
}

func (f *requestFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.catalog, "catalog", "c", "", "catalog file (.toml) or database (default from config)")
	fs.StringArrayVarP(&f.goals, "goal", "g", nil, "goal as good=amount (repeatable)")
	fs.StringSliceVarP(&f.roots, "root", "r", nil, "freely available good (repeatable)")
	fs.StringSliceVarP(&f.milestones, "milestone", "m", nil, "unlocked milestone (repeatable; none means everything is unlocked)")
	fs.BoolVar(&f.noCache, "no-cache", false, "disable the plan cache")
	fs.BoolVar(&f.refresh, "refresh", false, "solve again even when a cached plan exists")
}

// request merges the request file (if any) with the flags. Flag goals,
// roots and milestones are appended to the file's.
func (f *requestFlags) request(args []string) (*planio.Request, error) {
	req := &planio.Request{}
	if len(args) > 0 {
		var err error
		if req, err = planio.LoadRequest(args[0]); err != nil {
			return nil, err
		}
	}
	for _, s := range f.goals {
		g, err := parseGoal(s)
		if err != nil {
			return nil, err
		}
		req.Goals = append(req.Goals, g)
	}
	req.Roots = append(req.Roots, f.roots...)
	req.Milestones = append(req.Milestones, f.milestones...)
	if len(req.Goals) == 0 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "no goals: pass a request file or --goal good=amount")
	}
	return req, nil
}

// parseGoal reads "good=amount".
func parseGoal(s string) (planio.GoalSpec, error) {
	name, amount, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return planio.GoalSpec{}, errs.New(errs.ErrCodeInvalidGoal, "goal %q: want good=amount", s)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(amount), 64)
	if err != nil {
		return planio.GoalSpec{}, errs.New(errs.ErrCodeInvalidGoal, "goal %q: amount is not a number", s)
	}
	return planio.GoalSpec{Good: name, Amount: v}, nil
}

// solveRequest loads the catalog and solves the request with a spinner
// tracking solver progress.
func (c *CLI) solveRequest(ctx context.Context, args []string, f *requestFlags) (*pipeline.Result, *catalog.Catalog, error) {
	req, err := f.request(args)
	if err != nil {
		return nil, nil, err
	}
	cat, err := c.openCatalog(ctx, f.catalog)
	if err != nil {
		return nil, nil, err
	}
	runner, err := c.newRunner(ctx, f.noCache)
	if err != nil {
		return nil, nil, err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Solving...")
	spinner.Start()
	res, err := runner.Solve(ctx, cat, req, pipeline.Options{
		Refresh: f.refresh,
		Trace: func(s planner.State) {
			spinner.SetMessage(fmt.Sprintf("Solving (%s)...", s))
		},
	})
	spinner.Stop()
	if err != nil {
		return nil, nil, err
	}
	return res, cat, nil
}
