// Package main runs the portfolio engine API server:
// - Uploads: multipart trade-log CSV exports → validation + object store
// - Runs: equal-weighted portfolio runs with persisted snapshots
// - Streaming: upload and run lifecycle events over WebSocket
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	s3blob "portfolio-lab/internal/blob/s3"
	"portfolio-lab/internal/config"
	"portfolio-lab/internal/runner"
	"portfolio-lab/internal/server"
	"portfolio-lab/internal/server/ws"
	"portfolio-lab/internal/storage"
	chstore "portfolio-lab/internal/storage/clickhouse"
	"portfolio-lab/internal/storage/memory"
	"portfolio-lab/internal/storage/migrations"
	pgstore "portfolio-lab/internal/storage/postgres"
)

// stores holds every storage implementation the server wires in.
type stores struct {
	batchStore storage.BatchStore
	fileStore  storage.FileRecordStore
	runStore   storage.RunStore
	curveStore storage.CurvePointStore
	objects    storage.ObjectStore
}

func main() {
	configPath := flag.String("config", os.Getenv("PORTLAB_CONFIG"), "Path to TOML config file")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, cleanup, err := createStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	hub := ws.NewHub(cfg.Server.CORSOrigins, cfg.LogLevel == "debug")
	go hub.Run(ctx)

	eng := runner.New(runner.Options{
		BatchStore:          st.batchStore,
		FileRecordStore:     st.fileStore,
		RunStore:            st.runStore,
		CurvePointStore:     st.curveStore,
		ObjectStore:         st.objects,
		TotalCapitalDefault: cfg.Portfolio.TotalCapitalDefault,
		CurrencyDefault:     cfg.Portfolio.CurrencyDefault,
		RiskFreeRate:        cfg.Portfolio.RiskFreeRate,
		Verbose:             cfg.LogLevel == "debug",
	})

	srv := server.New(server.Options{
		Config: server.Config{
			Host:        cfg.Server.Host,
			Port:        cfg.Server.Port,
			CORSOrigins: cfg.Server.CORSOrigins,
		},
		BatchStore:      st.batchStore,
		FileRecordStore: st.fileStore,
		RunStore:        st.runStore,
		CurvePointStore: st.curveStore,
		ObjectStore:     st.objects,
		Runner:          eng,
		Hub:             hub,
		Logger:          logger,
	})

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	select {
	case sig := <-sigCh:
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-done:
		if err != nil {
			logger.Fatalf("Server error: %v", err)
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("Shutdown error: %v", err)
	}
	cancel()

	logger.Println("Shutdown complete")
}

// createStores builds the storage layer from config. Empty DSNs fall back to
// in-memory implementations so the server can run without infrastructure.
func createStores(ctx context.Context, cfg *config.Config, logger *log.Logger) (*stores, func(), error) {
	st := &stores{
		batchStore: memory.NewBatchStore(),
		fileStore:  memory.NewFileRecordStore(),
		runStore:   memory.NewRunStore(),
		curveStore: memory.NewCurvePointStore(),
		objects:    memory.NewObjectStore(),
	}
	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if cfg.Postgres.DSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		cleanups = append(cleanups, pool.Close)

		if cfg.Postgres.RunMigrations {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
			}
			logger.Println("Postgres migrations applied")
		}

		st.batchStore = pgstore.NewBatchStore(pool)
		st.fileStore = pgstore.NewFileRecordStore(pool)
		st.runStore = pgstore.NewRunStore(pool)
		logger.Println("Using PostgreSQL for batches, files and runs")
	} else {
		logger.Println("No postgres DSN, using in-memory stores")
	}

	if cfg.Clickhouse.DSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Clickhouse.DSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		cleanups = append(cleanups, func() { conn.Close() })

		st.curveStore = chstore.NewCurvePointStore(conn)
		logger.Println("Using ClickHouse for curve points")
	}

	if cfg.S3.Bucket != "" {
		client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("create s3 client: %w", err)
		}
		if err := client.Health(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("s3 bucket %s unreachable: %w", cfg.S3.Bucket, err)
		}
		st.objects = s3blob.NewStore(client)
		logger.Printf("Using S3 bucket %s for uploads", cfg.S3.Bucket)
	} else {
		logger.Println("No S3 bucket configured, keeping uploads in memory")
	}

	return st, cleanup, nil
}
