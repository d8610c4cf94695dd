package main

import (
	"context"
	"log"

	"incident-backend/internal/bootstrap"
	"incident-backend/internal/shared/config"
	"incident-backend/internal/shared/server"
	"incident-backend/internal/shared/storage/db"
	"incident-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	if app.DB != nil {
		if err := db.RunMigrations(context.Background(), app.DB); err != nil {
			log.Fatalf("run migrations: %v", err)
		}
	}

	addr := server.Addr(cfg.Port)
	telemetry.Info("api.start", map[string]any{
		"addr":         addr,
		"env":          cfg.Env,
		"object_store": cfg.ObjectStoreType,
		"database":     app.DB != nil,
	})

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
