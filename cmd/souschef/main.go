// SousChef guides a cook through a recipe hands-free.
//
// Usage:
//
//	souschef serve [--addr :8080]
//	souschef cook [--query pasta] [--voice]
//	souschef parse "set a pasta timer to 8 minutes"
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	defer a.close()
	return newRootCmd(a).ExecuteContext(ctx)
}
