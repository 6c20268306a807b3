package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/talentboard/authcore/internal/auth/blacklist"
)

// expiredPurger is the narrow slice of the rotation engine the housekeeping
// worker needs.
type expiredPurger interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// HousekeepingService runs the two periodic purge jobs: sweeping the
// revocation list and deleting long-expired refresh records. The jobs tick
// on independent intervals and a failure in one never cancels the other or
// a later run.
type HousekeepingService struct {
	Blacklist blacklist.List
	Purger    expiredPurger
	Limiter   *Limiter
	Logger    *slog.Logger

	SweepInterval time.Duration
	PurgeInterval time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates the background worker. Non-positive
// intervals default to 5 minutes for the sweep and 1 hour for the purge.
func NewHousekeepingService(
	list blacklist.List,
	purger expiredPurger,
	limiter *Limiter,
	logger *slog.Logger,
	sweepInterval, purgeInterval time.Duration,
) *HousekeepingService {
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Minute
	}
	if purgeInterval <= 0 {
		purgeInterval = 1 * time.Hour
	}

	return &HousekeepingService{
		Blacklist:     list,
		Purger:        purger,
		Limiter:       limiter,
		Logger:        logger,
		SweepInterval: sweepInterval,
		PurgeInterval: purgeInterval,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop() to
// gracefully shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started",
		"sweep_interval", s.SweepInterval,
		"purge_interval", s.PurgeInterval,
	)
}

// Stop shuts down the worker. Blocks until any in-progress run finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	sweep := time.NewTicker(s.SweepInterval)
	defer sweep.Stop()
	purge := time.NewTicker(s.PurgeInterval)
	defer purge.Stop()

	for {
		select {
		case <-sweep.C:
			s.runSweep()
		case <-purge.C:
			s.runPurge()
		case <-s.stopCh:
			return
		}
	}
}

// runSweep drops revocation entries past their retention and prunes idle
// rate-limiter buckets while it is at it.
func (s *HousekeepingService) runSweep() {
	ctx := context.Background()

	removed, err := s.Blacklist.Sweep(ctx, time.Now().UTC())
	if err != nil {
		s.Logger.Error("revocation list sweep failed", "error", err)
	} else {
		s.Logger.Debug("revocation list swept", "removed", removed)
	}

	if s.Limiter != nil {
		dropped := s.Limiter.Prune(s.SweepInterval * 4)
		if dropped > 0 {
			s.Logger.Debug("rate limiter pruned", "dropped", dropped)
		}
	}
}

// runPurge deletes refresh records whose expiry is past the retention
// window.
func (s *HousekeepingService) runPurge() {
	ctx := context.Background()

	removed, err := s.Purger.CleanupExpired(ctx)
	if err != nil {
		s.Logger.Error("expired refresh record purge failed", "error", err)
		return
	}
	s.Logger.Debug("expired refresh records purged", "removed", removed)
}
