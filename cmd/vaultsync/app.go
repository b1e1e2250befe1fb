package main

import (
	"log/slog"

	"github.com/vaultsync/vaultsync/internal/config"
	"github.com/vaultsync/vaultsync/internal/store"
	vsync "github.com/vaultsync/vaultsync/internal/sync"
	"github.com/vaultsync/vaultsync/internal/vault"
)

// app wires the vault, store client, journal and engine together for one
// command invocation.
type app struct {
	cfg     *config.Config
	vault   *vault.Vault
	client  *store.Client
	journal *vsync.Journal
	filter  *vsync.PathFilter
	ignore  *vsync.IgnoreList
	engine  *vsync.Engine

	locked bool
}

type appOptions struct {
	dryRun bool
	// lock takes the exclusive vault lock; watch and mutating commands set it
	lock bool
}

func newApp(cfg *config.Config, opts appOptions) (*app, error) {
	v, err := vault.New(cfg.VaultDir)
	if err != nil {
		return nil, err
	}

	if opts.lock {
		if err := v.Lock(); err != nil {
			return nil, err
		}
	}

	client, err := store.NewClient(&store.Options{
		BaseURL:  cfg.ServerURL,
		Database: cfg.Database,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, err
	}

	journal := vsync.NewJournal(v.JournalPath)
	if err := journal.Open(); err != nil {
		// the journal is bookkeeping, not a prerequisite
		slog.Warn("journal unavailable, continuing without it", "error", err)
		journal = nil
	}

	filter, err := vsync.NewPathFilter(cfg.Extensions, cfg.IncludeGlobs)
	if err != nil {
		return nil, err
	}

	ignore := vsync.NewIgnoreList(v.Root)
	ignore.Load()

	engine, err := vsync.NewEngine(v, client, journal, filter, ignore, &vsync.EngineOptions{
		DryRun: opts.dryRun,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		vault:   v,
		client:  client,
		journal: journal,
		filter:  filter,
		ignore:  ignore,
		engine:  engine,
		locked:  opts.lock,
	}, nil
}

func (a *app) close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			slog.Warn("journal close failed", "error", err)
		}
	}
	if a.locked {
		if err := a.vault.Unlock(); err != nil {
			slog.Warn("vault unlock failed", "error", err)
		}
	}
}
