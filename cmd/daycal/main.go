// Package main is the entry point for the daycal calendar.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"daycal/internal/cli"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	code := cli.NewDispatcher(cli.HTTPServiceFactory, nil).Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
