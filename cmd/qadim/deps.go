package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bobibcgroup/qadim/internal/infrastructure/config"
	"github.com/bobibcgroup/qadim/internal/infrastructure/relationaldb/sqlite"
	"github.com/bobibcgroup/qadim/internal/queue"
)

// Deps holds the dependencies every command needs: config, the SQLite
// repository (relational store and job store in one) and the enqueue side of
// the queue. The worker command builds the rest of the stack itself.
type Deps struct {
	Config *config.Config
	DB     *sqlite.Repository
	Queue  *queue.Queue
}

// withDeps loads config and builds dependencies, then calls the provided
// function. It handles cleanup automatically.
func withDeps(fn func(*Deps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := sqlite.NewRepository(cfg.SQLite)
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(context.Background()); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	deps := &Deps{
		Config: cfg,
		DB:     db,
		Queue:  queue.NewWithPolicies(db, buildPolicies(cfg), nil),
	}

	return fn(deps)
}

// buildPolicies merges config overrides onto the built-in policy table.
// Priority is fixed per queue and cannot be overridden.
func buildPolicies(cfg *config.Config) map[string]queue.Policy {
	policies := queue.DefaultPolicies()
	for name, override := range cfg.Queues {
		policy, ok := policies[name]
		if !ok {
			continue
		}
		if override.MaxAttempts > 0 {
			policy.MaxAttempts = override.MaxAttempts
		}
		if override.BackoffBase.Std() > 0 {
			policy.BackoffBase = override.BackoffBase.Std()
		}
		if override.RetainCompleted > 0 {
			policy.RetainCompleted = override.RetainCompleted
		}
		if override.RetainFailed > 0 {
			policy.RetainFailed = override.RetainFailed
		}
		policies[name] = policy
	}
	return policies
}
