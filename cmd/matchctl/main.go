// Command matchctl runs backfills and embedding rebuilds from the command line.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd(loadEngine).ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}
