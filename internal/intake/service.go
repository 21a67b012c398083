// Package intake runs the claim-intake pipeline: a cron-driven mailbox
// poller feeding the ingestion queue, and a pool of workers draining it
// through validation and the fulfillment state machine.
package intake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"claim-intake-go/internal/config"
	"claim-intake-go/internal/directory"
	"claim-intake-go/internal/fulfillment"
	"claim-intake-go/internal/mail"
	"claim-intake-go/internal/metrics"
	"claim-intake-go/internal/queue"
	"claim-intake-go/internal/repository"
)

// Service owns the poll schedule and the worker pool.
type Service struct {
	cron      *cron.Cron
	entryID   cron.EntryID
	config    *config.IntakeConfig
	mailbox   string
	inbox     mail.Inbox
	queue     *queue.IngestionQueue
	repo      *repository.Repository
	validator directory.Validator
	processor *fulfillment.Processor
	metrics   *metrics.Metrics
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.RWMutex
}

// New creates a new intake service
func New(cfg *config.IntakeConfig, mailbox string, inbox mail.Inbox, q *queue.IngestionQueue, repo *repository.Repository, validator directory.Validator, processor *fulfillment.Processor, m *metrics.Metrics) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		cron:      cron.New(cron.WithSeconds()),
		config:    cfg,
		mailbox:   mailbox,
		inbox:     inbox,
		queue:     q,
		repo:      repo,
		validator: validator,
		processor: processor,
		metrics:   m,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start starts the poll schedule and the workers
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("intake service is already running")
	}

	schedule := fmt.Sprintf("*/%d * * * * *", s.config.IntervalSeconds)

	// Fresh cron and context per start so a stopped service can be
	// restarted cleanly.
	s.cron = cron.New(cron.WithSeconds())
	entryID, err := s.cron.AddFunc(schedule, s.pollCycle)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.entryID = entryID
	s.cron.Start()
	s.isRunning = true

	logrus.Infof("Intake service started: polling every %ds with %d workers", s.config.IntervalSeconds, s.config.Workers)
	return nil
}

// Stop stops polling immediately and lets in-flight work drain. Workers are
// cancelled after the cron stops so no new submissions sneak in, and each
// worker finishes its current transition before exiting.
func (s *Service) Stop() error {
	// Flip the flag first and release the lock before waiting: a poll cycle
	// that is already running needs the lock to observe the flag and bail.
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	cronCtx := s.cron.Stop()
	select {
	case <-cronCtx.Done():
		logrus.Info("Poll schedule stopped gracefully")
	case <-time.After(30 * time.Second):
		logrus.Warn("Poll schedule stop timeout, forcing shutdown")
	}

	s.cancel()
	s.wg.Wait()

	logrus.Info("Intake service stopped")
	return nil
}

// IsRunning returns whether the intake service is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// RunOnce runs one poll cycle immediately (for manual triggering)
func (s *Service) RunOnce() {
	logrus.Info("Running intake poll cycle once")
	s.pollCycle()
}

// GetNextRun returns the time of the next scheduled poll
func (s *Service) GetNextRun() time.Time {
	if !s.IsRunning() {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// GetLastRun returns the time of the last poll
func (s *Service) GetLastRun() time.Time {
	if !s.IsRunning() {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Prev
}

// QueueSize returns the current ingestion queue depth.
func (s *Service) QueueSize() int {
	return s.queue.Size()
}

// Wait waits for the workers to stop
func (s *Service) Wait() {
	s.wg.Wait()
}
