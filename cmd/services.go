package cmd

import (
	"context"

	"github.com/habedi/cardidle/auth"
	"github.com/habedi/cardidle/badge"
	"github.com/habedi/cardidle/client"
	"github.com/habedi/cardidle/config"
	"github.com/habedi/cardidle/db"
	"github.com/habedi/cardidle/host"
	"github.com/habedi/cardidle/idle"
	"github.com/habedi/cardidle/proc"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// services holds the collaborators shared by the commands.
type services struct {
	cfg      *config.Instance
	auth     *auth.Service
	steam    *client.Client
	titles   db.TitleRepository
	stats    db.StatsRepository
	host     *host.Controller
	procs    proc.ProcessTable
	launcher proc.Launcher
}

func newServices(gdb *gorm.DB, cfg *config.Instance, procs proc.ProcessTable) *services {
	v := cfg.Values()
	authService := auth.NewServiceWithRepo(db.NewSessionRepository(gdb), proc.NewClientDetector(procs, v.IgnoreClient))
	return &services{
		cfg:      cfg,
		auth:     authService,
		steam:    client.NewClient(authService, v.RequestsPerSecond, v.Threads),
		titles:   db.NewTitleRepository(gdb),
		stats:    db.NewStatsRepository(gdb),
		host:     host.NewController(),
		procs:    procs,
		launcher: proc.ExecLauncher{},
	}
}

func (s *services) newSupervisor() *proc.Supervisor {
	return proc.NewSupervisor(s.cfg.Values().HelperPath, s.launcher, s.procs)
}

func (s *services) newOrchestrator(sup idle.Supervisor, observer func(idle.Status), onComplete func()) *idle.Orchestrator {
	return idle.New(idle.Dependencies{
		Loader:     cachingLoader{Loader: s.steam, titles: s.titles},
		Checker:    s.steam,
		Supervisor: sup,
		Gate:       s.auth,
		Settings:   s.cfg,
		Host:       s.host,
		Stats:      db.StatsRecorder{Repo: s.stats},
		Observer:   observer,
		OnComplete: onComplete,
	})
}

// cachingLoader stores every successful scrape so 'badges list' works offline.
type cachingLoader struct {
	idle.Loader
	titles db.TitleRepository
}

func (l cachingLoader) LoadTitles(ctx context.Context) ([]badge.Entry, error) {
	entries, err := l.Loader.LoadTitles(ctx)
	if err != nil {
		return nil, err
	}
	if err := l.titles.ReplaceAll(ctx, entries); err != nil {
		log.Warn().Err(err).Msg("Failed to cache titles")
	}
	return entries, nil
}
