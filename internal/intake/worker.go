package intake

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"claim-intake-go/internal/directory"
	"claim-intake-go/internal/mail"
)

// worker drains the ingestion queue until the service context is cancelled.
// Each dequeued submission is validated and run through the state machine;
// a transient failure puts the submission back on the queue.
func (s *Service) worker(id int) {
	defer s.wg.Done()

	for {
		sub, err := s.queue.Dequeue(s.ctx)
		if err != nil {
			return
		}
		s.metrics.QueueDepth.Set(float64(s.queue.Size()))

		if err := s.processSubmission(sub); err != nil {
			logrus.Errorf("Worker %d failed to process claim %s: %v", id, sub.ClaimID, err)

			// Back off before requeueing so a down collaborator does not
			// turn the worker pool into a busy loop.
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			s.queue.Enqueue(sub)
			s.metrics.QueueDepth.Set(float64(s.queue.Size()))
		}
	}
}

// processSubmission routes one submission: unregistered senders get the
// terminal rejection branch, everyone else enters the state machine.
func (s *Service) processSubmission(sub mail.ClaimSubmission) error {
	// In-flight transitions run to completion even during shutdown, so the
	// worker uses a detached context for the actual processing.
	ctx := context.Background()

	_, err := s.validator.Validate(ctx, sub.Sender)
	if errors.Is(err, directory.ErrNotFound) {
		_, err := s.processor.Reject(ctx, sub)
		return err
	}
	if err != nil {
		return err
	}

	outcome, err := s.processor.Process(ctx, sub)
	if err != nil {
		return err
	}

	logrus.Infof("Processed claim %s from %s: %s", sub.ClaimID, sub.Sender, outcome)
	return nil
}
