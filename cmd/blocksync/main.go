package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/blocksync-io/client/aligner"
	"github.com/blocksync-io/client/config"
	"github.com/blocksync-io/client/sink"
	_ "go.uber.org/automaxprocs/maxprocs"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		cancel()
	}()

	cmd := NewCmd()
	cmd.SetContext(ctx)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(exitCode(err))
	}
}

// exitCode maps a returned error onto §6/§7's exit-code table. Errors from
// config.Config.Validate reach here unwrapped from node.New before any
// connection is attempted, so anything else is a startup/connection failure
// unless it matches one of the aligner's two late-running sentinels.
func exitCode(err error) int {
	switch {
	case errors.Is(err, config.ErrInvalid):
		return 2
	case errors.Is(err, aligner.ErrAllSourcesEnded):
		return 4
	case errors.Is(err, aligner.ErrSinkFailure), errors.Is(err, sink.ErrWriteFailed):
		return 5
	default:
		return 3
	}
}
