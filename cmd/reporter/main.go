package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/fitelo/sales-dashboard/app/reporter"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	defer cancel()

	app := reporter.Initialize(ctx)

	app.Start(ctx)
}
