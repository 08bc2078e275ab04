// Package services hands out shared service instances. Construction is
// expensive (database pool, transport clients), so each service is built
// lazily, at most once, and shared by every caller.
package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"horse.fit/phrasebook/internal/config"
	"horse.fit/phrasebook/internal/db"
	"horse.fit/phrasebook/internal/history"
	"horse.fit/phrasebook/internal/translation"
)

// Container wires application services against shared infrastructure. The
// get-or-create path is check-lock-check: an atomic fast-path read, a
// mutex-guarded construction, and a re-check under the lock. Instances are
// published only after construction completes, so callers never observe a
// partially built service.
type Container struct {
	cfg    *config.Config
	logger zerolog.Logger

	mu       sync.Mutex
	pool     *db.Pool
	store    atomic.Pointer[history.Store]
	pipeline atomic.Pointer[translation.Pipeline]

	// backendFactory runs with mu held; tests may replace it.
	backendFactory func(ctx context.Context) (history.Backend, error)
	historyBuilds  int
	pipelineBuilds int
}

func NewContainer(cfg *config.Config, logger zerolog.Logger) *Container {
	c := &Container{
		cfg:    cfg,
		logger: logger,
	}
	c.backendFactory = c.newPoolBackend
	return c
}

// History returns the shared history store, constructing it on first access.
func (c *Container) History(ctx context.Context) (*history.Store, error) {
	if c == nil {
		return nil, fmt.Errorf("service container is nil")
	}
	if store := c.store.Load(); store != nil {
		return store, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if store := c.store.Load(); store != nil {
		return store, nil
	}

	backend, err := c.backendFactory(ctx)
	if err != nil {
		return nil, err
	}

	store := history.NewStore(backend, c.logger)
	c.historyBuilds++
	c.store.Store(store)
	return store, nil
}

// Pipeline returns the shared translation pipeline, constructing it and its
// history store on first access.
func (c *Container) Pipeline(ctx context.Context) (*translation.Pipeline, error) {
	if c == nil {
		return nil, fmt.Errorf("service container is nil")
	}
	if pipeline := c.pipeline.Load(); pipeline != nil {
		return pipeline, nil
	}

	store, err := c.History(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if pipeline := c.pipeline.Load(); pipeline != nil {
		return pipeline, nil
	}

	registry := translation.NewRegistryFromConfig(c.cfg)
	pipeline := translation.NewPipeline(registry, translation.PipelineOptions{
		Credentials: translation.Credentials{
			AppID:  c.cfg.TranslateAppID,
			Secret: c.cfg.TranslateSecret,
		},
		MaxQueryLength: c.cfg.MaxQueryLength,
		Store:          store,
		Logger:         c.logger,
	})
	c.pipelineBuilds++
	c.pipeline.Store(pipeline)
	return pipeline, nil
}

// Config returns the configuration the container was built with.
func (c *Container) Config() *config.Config {
	if c == nil {
		return nil
	}
	return c.cfg
}

// Close releases the shared database pool.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pool == nil {
		return nil
	}
	err := c.pool.Close()
	c.pool = nil
	return err
}

func (c *Container) newPoolBackend(ctx context.Context) (history.Backend, error) {
	if c.pool == nil {
		pool, err := db.NewPool(ctx, c.cfg)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		c.pool = pool
	}
	return c.pool, nil
}
