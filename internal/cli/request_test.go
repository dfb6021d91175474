package cli

import (
	"path/filepath"
	"testing"

	errs "github.com/matzehuels/tierplan/pkg/errors"
	planio "github.com/matzehuels/tierplan/pkg/io"
)

func TestParseGoal(t *testing.T) {
	tests := []struct {
		in      string
		want    planio.GoalSpec
		wantErr bool
	}{
		{"gear=5", planio.GoalSpec{Good: "gear", Amount: 5}, false},
		{" iron plate = 2.5 ", planio.GoalSpec{Good: "iron plate", Amount: 2.5}, false},
		{"gear", planio.GoalSpec{}, true},
		{"=5", planio.GoalSpec{}, true},
		{"gear=lots", planio.GoalSpec{}, true},
	}
	for _, tt := range tests {
		got, err := parseGoal(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseGoal(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr && !errs.Is(err, errs.ErrCodeInvalidGoal) {
			t.Errorf("parseGoal(%q) code = %s", tt.in, errs.GetCode(err))
		}
		if got != tt.want {
			t.Errorf("parseGoal(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestRequestFlagsMerge(t *testing.T) {
	path := writeFile(t, t.TempDir(), "req.toml", `
roots = ["ore"]
milestones = ["electrics"]

[[goals]]
good = "circuit"
amount = 2
`)
	f := requestFlags{goals: []string{"wire=4"}, roots: []string{"plate"}}
	req, err := f.request([]string{path})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if len(req.Goals) != 2 || req.Goals[0].Good != "circuit" || req.Goals[1].Good != "wire" {
		t.Errorf("goals = %+v", req.Goals)
	}
	if len(req.Roots) != 2 || req.Roots[1] != "plate" {
		t.Errorf("roots = %v", req.Roots)
	}
	if len(req.Milestones) != 1 {
		t.Errorf("milestones = %v", req.Milestones)
	}
}

func TestRequestFlagsErrors(t *testing.T) {
	var empty requestFlags
	if _, err := empty.request(nil); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("no goals: err = %v", err)
	}

	bad := requestFlags{goals: []string{"gear"}}
	if _, err := bad.request(nil); !errs.Is(err, errs.ErrCodeInvalidGoal) {
		t.Errorf("bad goal: err = %v", err)
	}

	if _, err := empty.request([]string{filepath.Join(t.TempDir(), "missing.toml")}); err == nil {
		t.Error("missing request file should fail")
	}
}
