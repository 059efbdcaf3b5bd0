// Package main provides the arena server binary: the shared match hub with its
// Telnet console, browser frontend and gRPC health endpoint.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/frontend/handlers"
	"github.com/cory-johannsen/arena/internal/frontend/telnet"
	"github.com/cory-johannsen/arena/internal/frontend/web"
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/fighter"
	"github.com/cory-johannsen/arena/internal/game/match"
	"github.com/cory-johannsen/arena/internal/gameserver"
	"github.com/cory-johannsen/arena/internal/observability"
	"github.com/cory-johannsen/arena/internal/render"
	"github.com/cory-johannsen/arena/internal/scripting"
	"github.com/cory-johannsen/arena/internal/server"
	"github.com/cory-johannsen/arena/internal/storage/postgres"
)

// dbCheckInterval is how often the Postgres roster is pinged for health.
const dbCheckInterval = 15 * time.Second

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "arenaserver")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lifecycle := server.NewLifecycle(logger)
	health := server.NewHealthService(cfg.Health.Addr(), logger)

	provider, dirRoster, pool := openRoster(ctx, cfg, logger)
	if pool != nil {
		defer pool.Close()
	}

	opts := gameserver.HubOptions{
		Match: match.Options{
			Engine: combat.Options{
				Cooldown: cfg.Arena.CriticalCooldown,
				KOPolicy: cfg.Arena.KOPolicy(),
				Source:   dice.NewLoggedSource(dice.NewCryptoSource(), logger),
			},
			Strict: cfg.Arena.Strict,
		},
		Controls:        cfg.Arena.Controls,
		CommentaryLimit: cfg.Arena.CommentaryLimit,
	}
	if cfg.Arena.ScriptDir != "" {
		scripts := scripting.NewManager(dice.NewCryptoSource(), logger)
		if err := scripts.Load(cfg.Arena.ScriptDir, cfg.Arena.ScriptInstructionLimit); err != nil {
			logger.Fatal("loading announcer scripts", zap.String("dir", cfg.Arena.ScriptDir), zap.Error(err))
		}
		defer scripts.Close()
		opts.Announcer = scripts
		logger.Info("announcer scripts loaded", zap.String("dir", cfg.Arena.ScriptDir))
	}

	hub, err := gameserver.NewHub(provider, opts, logger)
	if err != nil {
		logger.Fatal("creating arena hub", zap.Error(err))
	}
	hubDone := make(chan struct{})
	lifecycle.Add("arena", &server.FuncService{
		StartFn: func() error {
			hub.Start()
			health.SetServing("arena", true)
			<-hubDone
			return nil
		},
		StopFn: func() {
			health.SetServing("arena", false)
			hub.Stop()
			close(hubDone)
		},
	})

	if dirRoster != nil && cfg.Arena.WatchRoster {
		watcher, err := fighter.NewWatcher(dirRoster, logger)
		if err != nil {
			logger.Fatal("watching roster directory", zap.String("dir", dirRoster.Dir()), zap.Error(err))
		}
		go refreshOnReload(ctx, hub, watcher.Reloaded, logger)
		lifecycle.Add("roster-watcher", &server.FuncService{StartFn: watcher.Start, StopFn: watcher.Stop})
	}

	if pool != nil {
		watchCtx, stopWatch := context.WithCancel(ctx)
		health.SetServing("roster", true)
		lifecycle.Add("roster-health", &server.FuncService{
			StartFn: func() error {
				pool.Watch(watchCtx, dbCheckInterval, func(err error) {
					if err != nil {
						logger.Warn("roster database unhealthy", zap.Error(err))
					}
					health.SetServing("roster", err == nil)
				})
				return nil
			},
			StopFn: stopWatch,
		})
	}

	acceptor := telnet.NewAcceptor(cfg.Telnet, handlers.NewConsoleHandler(hub, logger), logger)
	lifecycle.Add("telnet", &server.FuncService{
		StartFn: acceptor.ListenAndServe,
		StopFn:  acceptor.Stop,
	})

	site := web.NewServer(hub, render.NewRenderer(logger), web.Options{
		ReleaseMode:    cfg.HTTP.ReleaseMode,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	}, logger)
	httpSvc := server.NewHTTPService(cfg.HTTP.Addr(), site.Handler(), logger)
	httpSvc.RegisterOnShutdown(site.Close)
	lifecycle.Add("http", httpSvc)

	lifecycle.Add("health", health)

	logger.Info("arena server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("telnet_addr", cfg.Telnet.Addr()),
		zap.String("http_addr", cfg.HTTP.Addr()),
		zap.String("health_addr", cfg.Health.Addr()),
		zap.String("roster_source", cfg.Arena.RosterSource),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("arena server stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// openRoster builds the configured fighter provider. For a YAML roster the
// DirRoster is returned so it can be watched; for Postgres the pool is returned
// so the caller can close and monitor it.
func openRoster(ctx context.Context, cfg config.Config, logger *zap.Logger) (fighter.Provider, *fighter.DirRoster, *postgres.Pool) {
	start := time.Now()
	switch cfg.Arena.RosterSource {
	case config.RosterSourcePostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(start)),
		)
		return postgres.NewFighterRepository(pool.DB()), nil, pool
	default:
		roster, err := fighter.NewDirRoster(cfg.Arena.RosterDir)
		if err != nil {
			logger.Fatal("loading roster", zap.String("dir", cfg.Arena.RosterDir), zap.Error(err))
		}
		logger.Info("roster loaded",
			zap.String("dir", roster.Dir()),
			zap.Int("fighters", roster.Len()),
			zap.Duration("elapsed", time.Since(start)),
		)
		return roster, roster, nil
	}
}

// refreshOnReload pushes roster reloads into the hub until ctx is done.
func refreshOnReload(ctx context.Context, hub *gameserver.Hub, reloaded <-chan int, logger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-reloaded:
			if err := hub.RefreshRoster(ctx); err != nil {
				logger.Warn("refreshing selections after roster reload", zap.Int("fighters", n), zap.Error(err))
			}
		}
	}
}
