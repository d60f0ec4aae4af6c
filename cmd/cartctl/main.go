// cmd/cartctl/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := newRootCommand(openContainerBackend)
	if err := root.ExecuteContext(ctx); err != nil {
		var blocked *blockedError
		if !errors.As(err, &blocked) {
			fmt.Fprintln(os.Stderr, "cartctl:", err)
		}
		os.Exit(1)
	}
}
