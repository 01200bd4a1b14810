// Package main provides the entry point for the LNP scraper service.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/jmylchreest/lnp-scraper/cmd/lnp-scraper/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	commands.ExecuteContext(ctx)
}
