// Package fulfillment drives a claim submission through the intake state
// machine: Received -> Assessing -> Completed or Pending. Completed is
// terminal for a claim; Pending claims re-enter as Received when the sender
// replies with the missing items under the same claim reference.
package fulfillment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"claim-intake-go/internal/assess"
	"claim-intake-go/internal/mail"
	"claim-intake-go/internal/metrics"
	"claim-intake-go/internal/model"
	"claim-intake-go/internal/repository"
	"claim-intake-go/internal/storage"
)

// Outcome is the terminal result of processing one submission.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomePending   Outcome = "pending"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeRejected  Outcome = "rejected"
)

const assessmentUnavailable = "assessment unavailable"

// Processor is the fulfillment state machine. It coordinates the assessor,
// the archival uploader, the persistence gateway and the outbound mail
// sender without ever leaving a claim in a partially completed state.
type Processor struct {
	repo     *repository.Repository
	assessor assess.Assessor
	uploader storage.Uploader
	sender   mail.Sender
	metrics  *metrics.Metrics
	locks    *claimLocks
}

// NewProcessor creates the state machine.
func NewProcessor(repo *repository.Repository, assessor assess.Assessor, uploader storage.Uploader, sender mail.Sender, m *metrics.Metrics) *Processor {
	return &Processor{
		repo:     repo,
		assessor: assessor,
		uploader: uploader,
		sender:   sender,
		metrics:  m,
		locks:    newClaimLocks(),
	}
}

// Process runs one submission through the state machine. Submissions for the
// same claim serialize on a per-claim lock; a claim that already completed
// is skipped without side effects.
func (p *Processor) Process(ctx context.Context, sub mail.ClaimSubmission) (Outcome, error) {
	start := time.Now()
	defer func() {
		p.metrics.ProcessingTime.Observe(time.Since(start).Seconds())
	}()

	lock := p.locks.acquire(sub.ClaimID)
	defer lock.Unlock()

	completed, err := p.repo.IsClaimCompleted(ctx, sub.ClaimID)
	if err != nil {
		return "", fmt.Errorf("failed to check claim state: %w", err)
	}
	if completed {
		logrus.Infof("Claim %s already completed, skipping submission from %s", sub.ClaimID, sub.Sender)
		p.metrics.DuplicatesSkipped.Inc()
		return OutcomeDuplicate, nil
	}

	verdict := p.assessWithFallback(ctx, sub)

	if verdict.Complete {
		return p.finalize(ctx, sub)
	}
	return p.markPending(ctx, sub, verdict.MissingItems, true)
}

// Reject handles a submission whose sender is not a registered policyholder.
// The claim never enters the state machine; the sender gets a terminal
// rejection mail carrying the claim reference.
func (p *Processor) Reject(ctx context.Context, sub mail.ClaimSubmission) (Outcome, error) {
	subject, body := mail.UserNotFoundEmail(sub.ClaimID, sub.Sender)
	if err := p.sender.Send(ctx, sub.Sender, subject, body); err != nil {
		return "", fmt.Errorf("failed to send rejection email: %w", err)
	}

	logrus.Infof("Rejected submission from unregistered sender %s (claim %s)", sub.Sender, sub.ClaimID)
	p.metrics.ClaimsRejected.Inc()
	return OutcomeRejected, nil
}

// assessWithFallback invokes the assessor, retrying once on failure. When
// both attempts fail the claim falls back to pending rather than being
// dropped.
func (p *Processor) assessWithFallback(ctx context.Context, sub mail.ClaimSubmission) assess.Verdict {
	ev := buildEvidence(sub)

	var verdict assess.Verdict
	var err error
	for attempt := 1; attempt <= 2; attempt++ {
		verdict, err = p.assessor.Assess(ctx, ev)
		if err == nil {
			return verdict
		}
		logrus.Warnf("Assessment attempt %d for claim %s failed: %v", attempt, sub.ClaimID, err)
	}

	p.metrics.AssessmentFailures.Inc()
	return assess.Verdict{
		Complete:     false,
		MissingItems: []string{assessmentUnavailable},
		ClaimID:      sub.ClaimID,
	}
}

func buildEvidence(sub mail.ClaimSubmission) assess.Evidence {
	ev := assess.Evidence{
		Sender:  sub.Sender,
		Subject: sub.Subject,
		ClaimID: sub.ClaimID,
		Body:    sub.Body,
	}
	for _, path := range sub.AttachmentPaths {
		ev.AttachmentNames = append(ev.AttachmentNames, filepath.Base(path))
		var size int64
		if info, err := os.Stat(path); err == nil {
			size = info.Size()
		}
		ev.AttachmentSizes = append(ev.AttachmentSizes, size)
	}
	return ev
}

// finalize performs the Assessing -> Completed transition. The order is
// load-bearing: all uploads must succeed before the completed record is
// written, and the record must be written before any local file is deleted.
// A failure at any upload aborts the whole transition and leaves the claim
// pending with its files intact, so the next submission retries wholesale.
func (p *Processor) finalize(ctx context.Context, sub mail.ClaimSubmission) (Outcome, error) {
	contentURL, err := p.uploader.UploadContent(ctx, sub.Sender, sub.ClaimID, sub.Body)
	if err != nil {
		p.metrics.UploadFailures.Inc()
		logrus.Errorf("Content upload failed for claim %s: %v", sub.ClaimID, err)
		return p.markPending(ctx, sub, []string{"upload failed"}, false)
	}

	attachmentURLs := make([]string, 0, len(sub.AttachmentPaths))
	for _, path := range sub.AttachmentPaths {
		url, err := p.uploader.UploadAttachment(ctx, sub.Sender, sub.ClaimID, path)
		if err != nil {
			p.metrics.UploadFailures.Inc()
			logrus.Errorf("Attachment upload failed for claim %s (%s): %v", sub.ClaimID, filepath.Base(path), err)
			return p.markPending(ctx, sub, []string{"upload failed"}, false)
		}
		attachmentURLs = append(attachmentURLs, url)
	}

	now := time.Now()
	rec := &model.Fulfillment{
		UserMail:          sub.Sender,
		ClaimID:           sub.ClaimID,
		MailContent:       recordContent(sub, 800),
		MailContentS3URL:  &contentURL,
		AttachmentCount:   len(attachmentURLs),
		Status:            model.StatusCompleted,
		S3UploadTimestamp: &now,
	}
	rec.SetAttachmentURLs(attachmentURLs)

	if err := p.repo.UpsertFulfillment(ctx, rec); err != nil {
		// The uploads are durable and keyed deterministically; the next
		// cycle re-uploads over the same keys and retries the write.
		return "", fmt.Errorf("failed to persist completed fulfillment for %s: %w", sub.ClaimID, err)
	}

	p.cleanupLocalFiles(sub)

	logrus.Infof("Claim %s completed: %d attachments archived", sub.ClaimID, len(attachmentURLs))
	p.metrics.ClaimsCompleted.Inc()
	return OutcomeCompleted, nil
}

// markPending performs the Assessing -> Pending transition. Local files are
// kept so a later cycle can finalize. The follow-up email is skipped for
// upload failures: the sender has nothing to add, the retry is on our side.
func (p *Processor) markPending(ctx context.Context, sub mail.ClaimSubmission, missingItems []string, notifySender bool) (Outcome, error) {
	missing := strings.Join(missingItems, "\n")
	rec := &model.Fulfillment{
		UserMail:        sub.Sender,
		ClaimID:         sub.ClaimID,
		MailContent:     recordContent(sub, 1000),
		AttachmentCount: len(sub.AttachmentPaths),
		Status:          model.StatusPending,
		MissingItems:    &missing,
	}
	rec.SetLocalPaths(sub.AttachmentPaths)

	if err := p.repo.UpsertFulfillment(ctx, rec); err != nil {
		return "", fmt.Errorf("failed to persist pending fulfillment for %s: %w", sub.ClaimID, err)
	}

	if notifySender {
		subject, body := mail.PendingFollowupEmail(sub.ClaimID, missingItems)
		if err := p.sender.Send(ctx, sub.Sender, subject, body); err != nil {
			return "", fmt.Errorf("failed to send follow-up email for %s: %w", sub.ClaimID, err)
		}
		p.metrics.FollowupsSent.Inc()
	}

	logrus.Infof("Claim %s pending: %s", sub.ClaimID, missing)
	p.metrics.ClaimsPending.Inc()
	return OutcomePending, nil
}

// cleanupLocalFiles deletes a completed claim's local attachments. Cleanup
// is best-effort: a failure is logged but never reverses the completed
// state.
func (p *Processor) cleanupLocalFiles(sub mail.ClaimSubmission) {
	for _, path := range sub.AttachmentPaths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logrus.Warnf("Failed to delete local attachment %s: %v", path, err)
		}
	}

	if len(sub.AttachmentPaths) > 0 {
		claimDir := filepath.Dir(sub.AttachmentPaths[0])
		if err := os.Remove(claimDir); err != nil && !os.IsNotExist(err) {
			logrus.Debugf("Claim folder %s not removed: %v", claimDir, err)
		}
	}
}

func recordContent(sub mail.ClaimSubmission, limit int) string {
	content := fmt.Sprintf("Subject: %s\nContent: %s", sub.Subject, sub.Body)
	if len(content) > limit {
		content = content[:limit]
	}
	return content
}
