package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/tierplan/pkg/errors"
)

const factoryTOML = `
[[good]]
name = "ore"

[[recipe]]
name = "smelting"
cost = 2.0
ingredients = [{ good = "ore", amount = 1 }]
products = [{ good = "plate", amount = 1 }]

[[recipe]]
name = "arc-smelting"
cost = 5.0
milestone = "electrics"
ingredients = [{ good = "ore", amount = 1 }]
products = [{ good = "plate", amount = 1 }]

[[recipe]]
name = "circuit"
cost = 3.0
ingredients = [{ good = "plate", amount = 2 }, { good = "wire", amount = 3 }]
products = [{ good = "circuit", amount = 1 }]

[[recipe]]
name = "wire"
cost = 1.0
ingredients = [{ good = "plate", amount = 1 }]
products = [{ good = "wire", amount = 2 }]
`

// captureStdout redirects command output into w until the returned function
// is called.
func captureStdout(w io.Writer) func() {
	prev := stdout
	stdout = w
	return func() { stdout = prev }
}

// testEnv isolates XDG directories and returns a catalog file.
func testEnv(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(base, "cache"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(base, "data"))
	return writeFile(t, base, "factory.toml", factoryTOML)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	restore := captureStdout(&out)
	defer restore()

	c := New(io.Discard, log.InfoLevel)
	err := c.Execute(context.Background(), args)
	return out.String(), err
}

func TestSolveCommand(t *testing.T) {
	catPath := testEnv(t)
	planPath := filepath.Join(t.TempDir(), "plan.json")

	out, err := run(t, "solve", "-c", catPath, "-g", "circuit=4", "-r", "ore", "-o", planPath)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	for _, want := range []string{"3 recipes", "3 tiers", "smelting", "wire", "circuit", "fresh"} {
		if !strings.Contains(out, want) {
			t.Errorf("output misses %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "arc-smelting") {
		t.Errorf("costlier producer in plan:\n%s", out)
	}
	if _, err := os.Stat(planPath); err != nil {
		t.Errorf("plan not written: %v", err)
	}

	again, err := run(t, "solve", "-c", catPath, "-g", "circuit=4", "-r", "ore")
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if !strings.Contains(again, "cached") {
		t.Errorf("second solve should come from the file cache:\n%s", again)
	}
}

func TestSolveCommandErrors(t *testing.T) {
	catPath := testEnv(t)

	tests := []struct {
		name string
		args []string
		code errs.Code
	}{
		{"no goals", []string{"solve", "-c", catPath}, errs.ErrCodeInvalidInput},
		{"unknown good", []string{"solve", "-c", catPath, "-g", "rocket=1"}, errs.ErrCodeInvalidGoal},
		{"infeasible", []string{"solve", "-c", catPath, "-g", "circuit=1", "--no-cache"}, errs.ErrCodeNoSolution},
		{"missing catalog", []string{"solve", "-c", filepath.Join(t.TempDir(), "none.db"), "-g", "circuit=1"}, errs.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if !errs.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestCatalogImportShowExport(t *testing.T) {
	catPath := testEnv(t)
	db := filepath.Join(t.TempDir(), "catalog.db")

	out, err := run(t, "catalog", "import", catPath, "--db", db)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "Imported 4 goods and 4 recipes") {
		t.Errorf("import output:\n%s", out)
	}

	out, err = run(t, "catalog", "show", "-c", db, "--recipes")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"electrics", "arc-smelting", "2 plate, 3 wire"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output misses %q:\n%s", want, out)
		}
	}

	out, err = run(t, "catalog", "export", "-c", db)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, `name = "circuit"`) {
		t.Errorf("export output:\n%s", out)
	}

	if _, err := run(t, "solve", "-c", db, "-g", "wire=2", "-r", "ore", "--no-cache"); err != nil {
		t.Errorf("solve against the imported database: %v", err)
	}
}

func TestCatalogImportRejectsTOMLTarget(t *testing.T) {
	catPath := testEnv(t)
	_, err := run(t, "catalog", "import", catPath, "--db", filepath.Join(t.TempDir(), "out.toml"))
	if !errs.Is(err, errs.ErrCodeInvalidPath) {
		t.Errorf("err = %v", err)
	}
}

func TestRenderCommand(t *testing.T) {
	catPath := testEnv(t)

	out, err := run(t, "render", "-c", catPath, "-g", "wire=2", "-r", "ore", "-f", "dot", "-o", "-")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(out, "digraph plan {") || !strings.Contains(out, `[label="plate"]`) {
		t.Errorf("render output:\n%s", out)
	}

	if _, err := run(t, "render", "-c", catPath, "-g", "wire=2", "-f", "gif"); !errs.Is(err, errs.ErrCodeInvalidFormat) {
		t.Errorf("bad format: err = %v", err)
	}
}

func TestRenderSavedPlan(t *testing.T) {
	catPath := testEnv(t)
	dir := t.TempDir()
	planPath := filepath.Join(dir, "plan.json")
	if _, err := run(t, "solve", "-c", catPath, "-g", "wire=2", "-r", "ore", "-o", planPath); err != nil {
		t.Fatalf("solve: %v", err)
	}

	dotPath := filepath.Join(dir, "plan.dot")
	if _, err := run(t, "render", "-c", catPath, "--plan", planPath, "-f", "dot", "-o", dotPath, "--detailed"); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(dotPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `+ 2 wire`) {
		t.Errorf("detailed DOT:\n%s", data)
	}

}

func TestCacheCommands(t *testing.T) {
	catPath := testEnv(t)
	if _, err := run(t, "solve", "-c", catPath, "-g", "wire=2", "-r", "ore"); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	dir := strings.TrimSpace(out)
	if filepath.Base(dir) != appName {
		t.Errorf("cache path = %q", dir)
	}

	if _, err := run(t, "cache", "clear"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	again, err := run(t, "solve", "-c", catPath, "-g", "wire=2", "-r", "ore")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(again, "cached") {
		t.Errorf("solve after clear should be fresh:\n%s", again)
	}
}

func TestExplicitConfig(t *testing.T) {
	catPath := testEnv(t)
	cfg := writeFile(t, t.TempDir(), "tierplan.toml", "catalog = \""+filepath.ToSlash(catPath)+"\"\n[cache]\nbackend = \"none\"\n")

	out, err := run(t, "--config", cfg, "solve", "-g", "wire=2", "-r", "ore")
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if !strings.Contains(out, "wire") {
		t.Errorf("output:\n%s", out)
	}

	if _, err := run(t, "--config", filepath.Join(t.TempDir(), "nope.toml"), "solve", "-g", "wire=2"); err == nil {
		t.Error("missing explicit config should fail")
	}
}

func TestCompletionCommand(t *testing.T) {
	testEnv(t)
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"completion", "bash"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "tierplan") {
		t.Error("bash completion should mention the command")
	}
}
