// Package cli implements the tierplan command-line interface.
//
// Commands:
//   - solve: optimize a request against a catalog and print the tiers
//   - catalog: import TOML catalogs into the SQLite store, show and export them
//   - render: draw a plan as DOT, SVG or PNG
//   - browse: explore a solved plan tier by tier in the terminal
//   - serve: run the HTTP API
//   - cache: clear the plan cache or print its location
//
// Configuration comes from $XDG_CONFIG_HOME/tierplan/config.toml (or
// --config); flags override it. All commands accept --verbose (-v) for debug
// logging. Loggers travel through context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

const logTimeFormat = "15:04:05.00"

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      logTimeFormat,
		Level:           level,
	})
}

// stage times one step of a command and logs it once finished.
type stage struct {
	logger *log.Logger
	name   string
	start  time.Time
}

func startStage(l *log.Logger, name string) stage {
	return stage{logger: l, name: name, start: time.Now()}
}

// done logs the stage name with its elapsed time and the given key/value
// pairs, e.g. `load catalog goods=12 recipes=9 elapsed=3ms`.
func (s stage) done(keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(s.start).Round(time.Millisecond))
	s.logger.Info(s.name, keyvals...)
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger set by withLogger, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
