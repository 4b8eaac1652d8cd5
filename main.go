// ./main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/domlens-cli/cmd"
)

// main is the entry point for the domlens CLI application. Commands receive a
// signal-aware context so Ctrl-C aborts an in-flight inspection cleanly.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.ExecuteContext(ctx)
}
