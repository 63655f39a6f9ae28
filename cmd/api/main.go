package main

import (
	"log"

	"github.com/molehq/mole/internal/alert"
	"github.com/molehq/mole/internal/config"
	"github.com/molehq/mole/internal/httpserver"
	"github.com/molehq/mole/internal/mole"
	"github.com/molehq/mole/internal/store"
)

// main boots the collector: config → store → schema → HTTP server.
func main() {
	// Load runtime config from environment (DB_URL/DB_PATH, API_KEYS, ...).
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Connect to durable storage: shared Postgres when DB_URL is set,
	// embedded SQLite otherwise. Schema bootstrap is idempotent, a fresh
	// database needs no manual setup.
	var st store.Store
	if cfg.DBURL != "" {
		pg, err := store.NewPostgresStore(cfg.DBURL)
		if err != nil {
			log.Fatal(err)
		}
		if err := pg.EnsureSchema(); err != nil {
			log.Fatal(err)
		}
		st = pg
	} else {
		sq, err := store.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			log.Fatal(err)
		}
		if err := sq.EnsureSchema(); err != nil {
			log.Fatal(err)
		}
		st = sq
	}
	defer st.Close()

	// Build the recording engine, with the alert channel when configured.
	var opts []mole.Option
	if cfg.AlertWebhookURL != "" {
		opts = append(opts, mole.WithAlerts(alert.NewNotifier(cfg.AlertWebhookURL)))
	}
	m := mole.New(st, opts...)

	// Build HTTP router (public health + authenticated APIs).
	router := httpserver.NewRouter(cfg, st, m)

	log.Println("server started on " + cfg.ListenAddr)
	log.Fatal(router.Run(cfg.ListenAddr))
}
