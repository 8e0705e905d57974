package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"varehus/internal/adapters/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.NewRootCommand(cli.DefaultDeps()))
	stop()
	os.Exit(code)
}
