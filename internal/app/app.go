// Package app assembla i componenti dell'agente e ne governa il ciclo
// di vita: database, pipeline, coda task, security manager e web
// interface.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Parokor/a0-core-agent/internal/pipeline"
	"github.com/Parokor/a0-core-agent/internal/security"
	"github.com/Parokor/a0-core-agent/internal/tasks"
	"github.com/Parokor/a0-core-agent/internal/web"
	"github.com/Parokor/a0-core-agent/pkg/config"
	"github.com/Parokor/a0-core-agent/pkg/database"
	"github.com/rs/zerolog/log"
)

// App è l'agente assemblato
type App struct {
	cfg     *config.Config
	db      *database.DB
	pipe    *pipeline.Pipeline
	taskMgr *tasks.Manager
	secMgr  *security.Manager
	server  *web.Server
}

// New assembla l'applicazione a partire dalla configurazione risolta
func New(cfg *config.Config) (*App, error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	pipe := pipeline.New(cfg)
	taskMgr := tasks.NewManager(db, pipe, cfg.System.TaskPollInterval, cfg.System.MaxConcurrentTasks)
	secMgr := security.NewManager(cfg.Security, db)

	a := &App{
		cfg:     cfg,
		db:      db,
		pipe:    pipe,
		taskMgr: taskMgr,
		secMgr:  secMgr,
	}

	if cfg.Web.Enabled {
		a.server = web.NewServer(cfg.Web, pipe, taskMgr, secMgr)
	}

	return a, nil
}

// Pipeline restituisce la pipeline dell'app
func (a *App) Pipeline() *pipeline.Pipeline {
	return a.pipe
}

// Run avvia l'agente e blocca finché il context non viene cancellato
func (a *App) Run(ctx context.Context) error {
	available := a.pipe.Initialize(ctx)
	if available == 0 {
		log.Warn().Msg("No providers available, running in limited mode")
	}

	a.taskMgr.Start(ctx)
	go a.maintenanceLoop(ctx)

	errCh := make(chan error, 1)
	if a.server != nil {
		go func() {
			if err := a.server.Start(); err != nil {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error().Err(err).Msg("Web interface failed")
	}

	a.shutdown()
	return nil
}

// maintenanceLoop esegue i lavori periodici: pruning dei task terminali
func (a *App) maintenanceLoop(ctx context.Context) {
	interval := a.cfg.System.MaintenanceInterval
	if interval <= 0 {
		interval = 30 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report := a.pipe.HealthCheck(ctx)
			log.Info().
				Int("available", report.Available).
				Int("healthy", report.Healthy).
				Int("total", report.Total).
				Msg("Maintenance health check")

			pruned, err := a.taskMgr.PruneCompleted(7 * 24 * time.Hour)
			if err != nil {
				log.Error().Err(err).Msg("Task pruning failed")
				continue
			}
			if pruned > 0 {
				log.Info().Int64("pruned", pruned).Msg("Old tasks pruned")
			}
		}
	}
}

// shutdown rilascia le risorse in ordine inverso di avvio; best-effort
func (a *App) shutdown() {
	log.Info().Msg("Shutting down")

	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := a.server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Web interface shutdown failed")
		}
		cancel()
	}

	a.taskMgr.Shutdown()
	a.pipe.Shutdown()

	if err := a.db.Close(); err != nil {
		log.Error().Err(err).Msg("Database close failed")
	}

	log.Info().Msg("Shutdown complete")
}
