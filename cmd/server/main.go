package main

import (
	"context"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sufra-pos/api/internal/config"
	"github.com/sufra-pos/api/internal/database"
	"github.com/sufra-pos/api/internal/notify"
	"github.com/sufra-pos/api/internal/router"
	"github.com/sufra-pos/api/internal/ws"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to create connection pool: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}
	queries := database.New(pool)

	hub := ws.NewHub()
	go hub.Run()

	targets := notify.Fanout{hub}
	publisher, err := notify.Dial(cfg.AMQPURL)
	if err != nil {
		// The broker is optional; low stock events still reach the hub.
		log.Printf("WARN: rabbitmq unavailable, broker notifications disabled: %v", err)
	} else {
		defer publisher.Close()
		targets = append(targets, publisher)
	}

	r := router.New(cfg, queries, pool, hub, targets)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
