// Package main provides the battle server binary. It serves interactive
// battles over Telnet, the JSON battle API over HTTP, and gRPC health checks.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cory-johannsen/battlesim/internal/api"
	"github.com/cory-johannsen/battlesim/internal/config"
	"github.com/cory-johannsen/battlesim/internal/frontend/handlers"
	"github.com/cory-johannsen/battlesim/internal/frontend/telnet"
	"github.com/cory-johannsen/battlesim/internal/game/ai"
	"github.com/cory-johannsen/battlesim/internal/game/catalog"
	"github.com/cory-johannsen/battlesim/internal/game/dice"
	"github.com/cory-johannsen/battlesim/internal/observability"
	"github.com/cory-johannsen/battlesim/internal/scripting"
	"github.com/cory-johannsen/battlesim/internal/server"
	"github.com/cory-johannsen/battlesim/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/battlesim.yaml", "path to configuration file")
	envFile := flag.String("env", ".env", "optional .env file loaded before the config")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("note: %s not loaded: %v", *envFile, err)
	}

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Telemetry)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("flushing traces", zap.Error(err))
		}
	}()

	logger.Info("starting battle server",
		zap.String("mode", cfg.Server.Mode),
		zap.String("catalog", cfg.Catalog.Source),
	)

	cat, pool, err := openCatalog(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("opening catalog", zap.Error(err))
	}

	scripts := scripting.NewManager(dice.NewCryptoSource(), logger)
	defer scripts.Close()
	choosers, err := ai.LoadScripts(scripts, cfg.AI.Scripts, cfg.AI.InstructionLimit, logger)
	if err != nil {
		logger.Fatal("loading ai scripts", zap.Error(err))
	}

	health := server.NewHealthService(cfg.GRPC.Addr(), logger)
	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("grpc-health", health)

	if cfg.Server.RunsTelnet() {
		handler := handlers.NewBattleHandler(cat, choosers, cfg.Battle, logger)
		lifecycle.Add("telnet", telnet.NewAcceptor(cfg.Telnet, handler, logger))
		health.SetServing("telnet", true)
	}
	if cfg.Server.RunsAPI() {
		apiServer := api.NewServer(cat, choosers, cfg.Battle, logger)
		lifecycle.Add("http", server.NewHTTPService(
			cfg.HTTP.Addr(), apiServer.Router(), cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout, logger,
		))
		health.SetServing("api", true)
	}

	if pool != nil {
		stopProbe := make(chan struct{})
		lifecycle.Add("postgres", &server.FuncService{
			StartFn: func() error {
				ticker := time.NewTicker(30 * time.Second)
				defer ticker.Stop()
				for {
					select {
					case <-stopProbe:
						return nil
					case <-ticker.C:
					}
					err := pool.Health(ctx, 5*time.Second)
					health.SetServing("postgres", err == nil)
					if err != nil {
						logger.Warn("database health check failed", zap.Error(err))
					}
				}
			},
			StopFn: func() {
				close(stopProbe)
				pool.Close()
			},
		})
		health.SetServing("postgres", true)
	}

	logger.Info("battle server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("telnet_addr", cfg.Telnet.Addr()),
		zap.String("http_addr", cfg.HTTP.Addr()),
		zap.String("grpc_addr", cfg.GRPC.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// openCatalog returns the configured species catalog. The pool is non-nil
// only for the postgres source and is owned by the caller.
func openCatalog(ctx context.Context, cfg config.Config, logger *zap.Logger) (catalog.Catalog, *postgres.Pool, error) {
	loadStart := time.Now()
	switch cfg.Catalog.Source {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		repo := postgres.NewSpeciesRepository(pool.DB())
		n, err := repo.Count(ctx)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("catalog connected",
			zap.String("host", cfg.Database.Host),
			zap.Int("species", n),
			zap.Duration("elapsed", time.Since(loadStart)),
		)
		return repo, pool, nil
	default:
		species, err := catalog.LoadDirectory(cfg.Catalog.Dir)
		if err != nil {
			return nil, nil, err
		}
		mem, err := catalog.NewMemory(species)
		if err != nil {
			return nil, nil, fmt.Errorf("indexing %s: %w", cfg.Catalog.Dir, err)
		}
		logger.Info("catalog loaded",
			zap.String("dir", cfg.Catalog.Dir),
			zap.Int("species", mem.Len()),
			zap.Duration("elapsed", time.Since(loadStart)),
		)
		return mem, nil, nil
	}
}
