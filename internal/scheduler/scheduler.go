package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/campusmatch/campusmatch/internal/store"
	"github.com/campusmatch/campusmatch/pkg/feed"
)

// Scheduler runs periodic feed imports and stale activity expiry.
type Scheduler struct {
	store     store.Store
	importer  *feed.Importer
	importInt time.Duration
	expireInt time.Duration
	maxAge    time.Duration
}

// New creates a new scheduler.
func New(s store.Store, importer *feed.Importer, importInt, expireInt time.Duration, maxAgeDays int) *Scheduler {
	if importInt == 0 {
		importInt = time.Hour
	}
	if expireInt == 0 {
		expireInt = 6 * time.Hour
	}
	if maxAgeDays <= 0 {
		maxAgeDays = 60
	}
	return &Scheduler{
		store:     s,
		importer:  importer,
		importInt: importInt,
		expireInt: expireInt,
		maxAge:    time.Duration(maxAgeDays) * 24 * time.Hour,
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	importTicker := time.NewTicker(s.importInt)
	expireTicker := time.NewTicker(s.expireInt)
	defer importTicker.Stop()
	defer expireTicker.Stop()

	// Run immediately on start.
	if s.importer.HasFeeds() {
		fmt.Fprintln(os.Stderr, "scheduler: initial feed import...")
		s.importFeeds(ctx)
	}
	s.expireStale(ctx)

	fmt.Fprintf(os.Stderr, "scheduler: running (import every %s, expire every %s)\n",
		s.importInt, s.expireInt)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "scheduler: stopped")
			return ctx.Err()
		case <-importTicker.C:
			if s.importer.HasFeeds() {
				fmt.Fprintln(os.Stderr, "scheduler: importing feeds...")
				s.importFeeds(ctx)
			}
		case <-expireTicker.C:
			s.expireStale(ctx)
		}
	}
}

func (s *Scheduler) importFeeds(ctx context.Context) {
	n, err := s.importer.ImportAll(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  import error: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "  imported %d activities\n", n)
}

func (s *Scheduler) expireStale(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.maxAge)
	n, err := s.store.ExpireActivities(ctx, cutoff)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  expire error: %v\n", err)
		return
	}
	if n > 0 {
		fmt.Fprintf(os.Stderr, "  closed %d stale activities\n", n)
	}
}
