package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/courierhq/courier/config"
	"github.com/courierhq/courier/delivery/redisqueue"
	"github.com/courierhq/courier/destination"
	destinationpg "github.com/courierhq/courier/destination/postgres"
	"github.com/courierhq/courier/event"
	eventpg "github.com/courierhq/courier/event/postgres"
	chihandlers "github.com/courierhq/courier/internal/http/chi"
	"github.com/courierhq/courier/metrics"
	"github.com/courierhq/courier/seed"
	"github.com/jackc/pgx/v5/pgxpool"
)

const shutdownTimeout = 30 * time.Second

/* The API binary wires ingestion and registration together: Postgres for the
 * three entities, Redis for the delivery trigger queue, chi for the HTTP
 * surface. Importing flows one direction only: the binary imports business
 * packages, which import their storage packages.
 */

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Println(fmt.Errorf("connecting to postgres: %w", err))
		return
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		fmt.Println(fmt.Errorf("pinging postgres: %w", err))
		return
	}

	destRepo := destinationpg.NewRepository(pool)
	eventRepo := eventpg.NewRepository(pool)
	if err := destRepo.Migrate(ctx); err != nil {
		fmt.Println(err)
		return
	}
	if err := eventRepo.Migrate(ctx); err != nil {
		fmt.Println(err)
		return
	}

	queue, err := redisqueue.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer queue.Close()

	if cfg.SeedFile != "" {
		loader := seed.NewLoader()
		if err := loader.Load(cfg.SeedFile); err != nil {
			fmt.Println(err)
			return
		}
		if err := loader.Apply(ctx, destRepo); err != nil {
			fmt.Println(err)
			return
		}
	}

	destService := destination.NewService(destRepo)
	eventService := event.NewService(eventRepo, destRepo, queue)

	collector := metrics.NewStoreCollector(eventRepo, queue)
	exporter, err := metrics.NewOTelExporter(collector)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer exporter.Shutdown(context.Background())

	r := chihandlers.Handlers(destService, eventService, exporter.ServeHTTP())
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      r,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	fmt.Printf("Listening on port %s\n", cfg.Port)
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		fmt.Println(err)
		return
	}
	err = <-errShutdown
	if err != nil {
		fmt.Println(err)
		return
	}
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		fmt.Printf("\nShutting down server...\n")
		errShutdown <- nil
	default:
		errShutdown <- fmt.Errorf("forcing closing the server")
	}
}
