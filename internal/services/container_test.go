package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"horse.fit/phrasebook/internal/config"
	"horse.fit/phrasebook/internal/history"
)

type noopBackend struct{}

func (noopBackend) InsertRecords(context.Context, []history.Record) error { return nil }
func (noopBackend) GetRecord(context.Context, string) (history.Record, error) {
	return history.Record{}, history.ErrNotExist
}
func (noopBackend) UpdateRecord(context.Context, history.Record) error { return nil }
func (noopBackend) DeleteRecords(context.Context, []string) (int64, error) { return 0, nil }
func (noopBackend) ClearRecords(context.Context, bool) (int64, error) { return 0, nil }
func (noopBackend) ListRecords(context.Context) ([]history.Record, error) { return nil, nil }

func newTestContainer() *Container {
	c := NewContainer(&config.Config{MaxQueryLength: 100}, zerolog.Nop())
	c.backendFactory = func(context.Context) (history.Backend, error) {
		return noopBackend{}, nil
	}
	return c
}

func TestHistoryIsBuiltOnceUnderConcurrency(t *testing.T) {
	t.Parallel()

	c := newTestContainer()

	const callers = 32
	stores := make([]*history.Store, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		i := i
		go func() {
			defer wg.Done()
			store, err := c.History(context.Background())
			if err != nil {
				t.Errorf("History failed: %v", err)
				return
			}
			stores[i] = store
		}()
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if stores[i] != stores[0] {
			t.Fatalf("caller %d received a different store instance", i)
		}
	}
	if c.historyBuilds != 1 {
		t.Fatalf("expected exactly one build, got %d", c.historyBuilds)
	}
}

func TestPipelineSharesTheHistoryStore(t *testing.T) {
	t.Parallel()

	c := newTestContainer()

	first, err := c.Pipeline(context.Background())
	if err != nil {
		t.Fatalf("Pipeline failed: %v", err)
	}
	second, err := c.Pipeline(context.Background())
	if err != nil {
		t.Fatalf("Pipeline failed: %v", err)
	}
	if first != second {
		t.Fatalf("expected the same pipeline instance")
	}
	if c.pipelineBuilds != 1 || c.historyBuilds != 1 {
		t.Fatalf("expected one build each, got pipeline=%d history=%d",
			c.pipelineBuilds, c.historyBuilds)
	}
}

func TestHistoryPropagatesFactoryFailure(t *testing.T) {
	t.Parallel()

	c := NewContainer(&config.Config{}, zerolog.Nop())
	c.backendFactory = func(context.Context) (history.Backend, error) {
		return nil, fmt.Errorf("connection refused")
	}

	if _, err := c.History(context.Background()); err == nil {
		t.Fatalf("expected factory failure to surface")
	}
	if c.historyBuilds != 0 {
		t.Fatalf("failed construction must not count as a build")
	}

	// The next call retries instead of caching the failure.
	c.backendFactory = func(context.Context) (history.Backend, error) {
		return noopBackend{}, nil
	}
	if _, err := c.History(context.Background()); err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
}
