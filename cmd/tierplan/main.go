package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/tierplan/internal/cli"
	errs "github.com/matzehuels/tierplan/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := cli.New(os.Stderr, cli.LogInfo)
	if err := c.Execute(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, context.Canceled) || errs.Is(err, errs.ErrCodeCanceled) {
			os.Exit(130) // SIGINT convention
		}
		os.Exit(1)
	}
}
