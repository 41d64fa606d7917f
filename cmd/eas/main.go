package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aussiebroadwan/eas/internal/app"
)

func main() {
	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "eas: failed to initialize: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err = run(ctx, application, os.Args[1:], os.Stdout)
	stop()
	_ = application.Close()

	if err != nil {
		fmt.Fprintf(os.Stderr, "eas: %v\n", err)
		os.Exit(1)
	}
}
