package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/km-arc/go-housekeeper/app"
	"github.com/km-arc/go-housekeeper/app/installer"
)

// Usage:
//
//	housekeeper           serve the API and run scheduled cleanups
//	housekeeper install   create the tables and seed default settings
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 && os.Args[1] == "install" {
		// The installer runs without the container: it only needs config
		// and a connection.
		if err := installer.New(installer.WithLogger(log.Logger)).Install(ctx); err != nil {
			log.Fatal().Err(err).Msg("install failed")
		}
		return
	}

	application, err := app.New()
	if err != nil {
		log.Fatal().Err(err).Msg("bootstrap failed")
	}
	if err := application.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
