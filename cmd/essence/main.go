// Command essence inspects, unpacks and builds SGA archives, and dumps the
// chunky resources stored in them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := newApp(os.Stdout, os.Stderr)
	if err := a.root().Execute(ctx, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "essence: %v\n", err)
		stop()
		os.Exit(1) //nolint:gocritic // stop has run
	}
}
