package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/courierhq/courier/config"
	"github.com/courierhq/courier/delivery"
	"github.com/courierhq/courier/delivery/redisqueue"
	destinationpg "github.com/courierhq/courier/destination/postgres"
	eventpg "github.com/courierhq/courier/event/postgres"
	"github.com/courierhq/courier/metrics"
	"github.com/jackc/pgx/v5/pgxpool"
)

/* The worker binary is the delivery engine's runtime: it drains the
 * scheduled-delivery queue and runs processing cycles until stopped.
 * Metrics are exposed on a separate port for scraping.
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

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "courier-worker")

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

	queue, err := redisqueue.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer queue.Close()

	collector := metrics.NewStoreCollector(eventRepo, queue)
	exporter, err := metrics.NewOTelExporter(collector)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer exporter.Shutdown(context.Background())

	instruments, err := metrics.NewDeliveryInstruments()
	if err != nil {
		fmt.Println(err)
		return
	}

	policy := delivery.Policy{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  cfg.RetryBaseDelay(),
	}
	client := delivery.NewClient(cfg.DeliveryTimeout())
	processor := delivery.NewProcessor(eventRepo, destRepo, client, policy, queue, logger)

	worker := delivery.NewWorker(processor, queue, delivery.WorkerConfig{
		Parallelism:  cfg.WorkerParallelism,
		PollInterval: cfg.WorkerPollInterval(),
		Burst:        cfg.WorkerBurst,
		IdleDelay:    cfg.WorkerIdleDelay(),
	}, logger)
	worker.Heartbeat = queue
	worker.Observer = instruments

	metricsSrv := &http.Server{
		Addr:         ":" + cfg.MetricsPort,
		Handler:      exporter.ServeHTTP(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Println(err)
		}
	}()

	fmt.Printf("Worker running with parallelism %d, metrics on port %s\n", cfg.WorkerParallelism, cfg.MetricsPort)
	worker.Run(ctx)

	ctxTimeout, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(ctxTimeout); err != nil {
		fmt.Println(err)
	}
}
