// smartcalc is a terminal calculator with an AI math tutor.
//
// Usage:
//
//	smartcalc                         Start the interactive calculator
//	smartcalc eval "7 + 3"            Evaluate one expression
//	smartcalc history list            Show recent calculations
//	smartcalc explain "7 + 3" 10      Explain a calculation
//	smartcalc solve "..."             Solve a word problem
//	smartcalc mcp                     Serve calculator tools over MCP (stdio)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
