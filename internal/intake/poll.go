package intake

import (
	"errors"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"claim-intake-go/internal/repository"
)

// pollCycle is one scheduled pass: list everything beyond the stored
// checkpoint, enqueue the batch, and only then advance the checkpoint.
// Re-polling the same window after a crash is safe because processing is
// idempotent on claim identity.
func (s *Service) pollCycle() {
	s.wg.Add(1)
	defer s.wg.Done()

	s.mu.RLock()
	if !s.isRunning {
		s.mu.RUnlock()
		return
	}
	s.mu.RUnlock()

	start := time.Now()
	s.metrics.PollCount.Inc()

	cp, err := s.repo.LoadCheckpoint(s.ctx, s.mailbox)
	if errors.Is(err, repository.ErrNotFound) {
		// First run: record the current mailbox position without ingesting
		// the backlog. The probe count is above any real message count, so
		// the listing returns only the position.
		_, current, err := s.inbox.ListNewSubmissions(s.ctx, math.MaxUint32)
		if err != nil {
			logrus.Errorf("Failed to probe mailbox on first run: %v", err)
			return
		}
		if err := s.repo.SaveCheckpoint(s.ctx, s.mailbox, current); err != nil {
			logrus.Errorf("Failed to initialize checkpoint: %v", err)
			return
		}
		logrus.Infof("Initialized mailbox checkpoint at %d messages, monitoring from next cycle", current)
		return
	}
	if err != nil {
		logrus.Errorf("Failed to load checkpoint: %v", err)
		return
	}

	subs, current, err := s.inbox.ListNewSubmissions(s.ctx, cp.MessageCount)
	if err != nil {
		// Checkpoint stays put; the next cycle retries the same window.
		logrus.Errorf("Failed to list new submissions: %v", err)
		return
	}

	for _, sub := range subs {
		s.queue.Enqueue(sub)
		s.metrics.SubmissionsQueued.Inc()
		logrus.Infof("Queued submission from %s (claim %s, %d attachments) | queue size: %d",
			sub.Sender, sub.ClaimID, sub.AttachmentCount(), s.queue.Size())
	}
	s.metrics.QueueDepth.Set(float64(s.queue.Size()))

	if current != cp.MessageCount {
		if err := s.repo.SaveCheckpoint(s.ctx, s.mailbox, current); err != nil {
			logrus.Errorf("Failed to advance checkpoint: %v", err)
			return
		}
	}

	if len(subs) > 0 {
		logrus.Infof("Poll cycle enqueued %d submissions in %v", len(subs), time.Since(start))
	}
}
