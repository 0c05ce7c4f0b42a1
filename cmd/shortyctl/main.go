package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/shortyapp/shorty/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "shortyctl:", err)
		stop()
		os.Exit(1)
	}
}
