package sync

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/flowgraph/internal/store"
)

// Export is one rendering of the store handed to each destination.
type Export struct {
	Data []byte
	Summary
}

// Destination is a backup target (S3, git, etc.).
type Destination interface {
	Write(ctx context.Context, exp Export) error
}

// Scheduler periodically exports every saved flow to one or more
// destinations. A destination is written again only after the exported
// flows change, or when its previous write failed.
type Scheduler struct {
	store        store.Store
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	mu sync.Mutex
	// delivered holds, per destination, the digest of the last export it
	// accepted.
	delivered []string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that exports from the store to the given
// destinations at the specified interval.
func NewScheduler(s store.Store, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:        s,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
		delivered:    make([]string, len(destinations)),
	}
}

// Start runs an initial sync immediately, then one per interval.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.SyncOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = s.SyncOnce(ctx)
			}
		}
	}()
}

// Stop cancels the scheduler and waits for the current sync (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// SyncOnce exports the store and writes the result to every destination
// that has not yet accepted it. Destination failures are logged and
// reported together in the returned error.
func (s *Scheduler) SyncOnce(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	sum, err := ExportJSONL(ctx, s.store, &buf)
	if err != nil {
		s.logger.Error("sync export failed", "err", err)
		return err
	}
	exp := Export{Data: buf.Bytes(), Summary: sum}

	written, failed := 0, 0
	for i, dest := range s.destinations {
		if s.delivered[i] == sum.Digest {
			continue
		}
		if err := dest.Write(ctx, exp); err != nil {
			failed++
			s.logger.Error("sync destination write failed", "destination", destinationName(i, dest), "err", err)
			continue
		}
		s.delivered[i] = sum.Digest
		written++
	}

	s.logger.Info("sync completed", "summary", sum.String(), "written", written, "failed", failed, "bytes", len(exp.Data))
	if failed > 0 {
		return fmt.Errorf("sync: %d of %d destinations failed", failed, len(s.destinations))
	}
	return nil
}

// destinationName labels a destination in logs.
func destinationName(i int, d Destination) string {
	if n, ok := d.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%d", i)
}
