package intake

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"claim-intake-go/internal/assess"
	"claim-intake-go/internal/config"
	"claim-intake-go/internal/directory"
	"claim-intake-go/internal/fulfillment"
	"claim-intake-go/internal/mail"
	"claim-intake-go/internal/metrics"
	"claim-intake-go/internal/model"
	"claim-intake-go/internal/queue"
	"claim-intake-go/internal/repository"
)

var testMetrics = metrics.NewMetrics()

// fakeInbox serves a scripted mailbox: submissions are returned whenever the
// caller's checkpoint is behind the current message count.
type fakeInbox struct {
	mu      sync.Mutex
	subs    []mail.ClaimSubmission
	current uint32
	err     error
}

func (f *fakeInbox) set(current uint32, subs ...mail.ClaimSubmission) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = current
	f.subs = subs
}

func (f *fakeInbox) ListNewSubmissions(_ context.Context, sinceCount uint32) ([]mail.ClaimSubmission, uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, 0, f.err
	}
	if sinceCount >= f.current {
		return nil, f.current, nil
	}
	return f.subs, f.current, nil
}

func (f *fakeInbox) Close() error { return nil }

type fakeValidator struct {
	registered map[string]bool
}

func (v *fakeValidator) Validate(_ context.Context, email string) (*model.Policyholder, error) {
	if v.registered[email] {
		return &model.Policyholder{MailID: email, PolicyType: "auto"}, nil
	}
	return nil, directory.ErrNotFound
}

type fakeAssessor struct {
	verdict assess.Verdict
}

func (a *fakeAssessor) Assess(_ context.Context, ev assess.Evidence) (assess.Verdict, error) {
	v := a.verdict
	v.ClaimID = ev.ClaimID
	return v, nil
}

type fakeUploader struct{}

func (fakeUploader) UploadContent(_ context.Context, userMail, claimID, _ string) (string, error) {
	return fmt.Sprintf("https://bucket.s3.amazonaws.com/%s/claims/%s/mail_content.txt", userMail, claimID), nil
}

func (fakeUploader) UploadAttachment(_ context.Context, userMail, claimID, path string) (string, error) {
	return fmt.Sprintf("https://bucket.s3.amazonaws.com/%s/claims/%s/attachments/%s",
		userMail, claimID, filepath.Base(path)), nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *fakeSender) Send(_ context.Context, to, subject, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to+": "+subject)
	return nil
}

func (s *fakeSender) Close() error { return nil }

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type testHarness struct {
	svc    *Service
	inbox  *fakeInbox
	repo   *repository.Repository
	sender *fakeSender
}

func setupService(t *testing.T) *testHarness {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Fulfillment{}, &model.MailCheckpoint{}))

	repo := repository.New(db)
	inbox := &fakeInbox{}
	sender := &fakeSender{}
	validator := &fakeValidator{registered: map[string]bool{"alice@example.com": true}}
	processor := fulfillment.NewProcessor(repo,
		&fakeAssessor{verdict: assess.Verdict{Complete: true}},
		fakeUploader{}, sender, testMetrics)

	cfg := &config.IntakeConfig{IntervalSeconds: 60, Workers: 2}
	svc := New(cfg, "INBOX", inbox, queue.New(), repo, validator, processor, testMetrics)

	t.Cleanup(func() { _ = svc.Stop() })

	return &testHarness{svc: svc, inbox: inbox, repo: repo, sender: sender}
}

func TestServiceStartStopRestart(t *testing.T) {
	h := setupService(t)

	assert.False(t, h.svc.IsRunning())

	require.NoError(t, h.svc.Start())
	assert.True(t, h.svc.IsRunning())
	assert.False(t, h.svc.GetNextRun().IsZero())

	err := h.svc.Start()
	assert.Error(t, err, "double start must be refused")

	require.NoError(t, h.svc.Stop())
	assert.False(t, h.svc.IsRunning())

	require.NoError(t, h.svc.Stop(), "stopping a stopped service is a no-op")

	require.NoError(t, h.svc.Start(), "a stopped service can be restarted")
	assert.True(t, h.svc.IsRunning())
}

func TestFirstRunInitializesCheckpoint(t *testing.T) {
	h := setupService(t)
	h.inbox.set(5)

	require.NoError(t, h.svc.Start())
	h.svc.RunOnce()

	cp, err := h.repo.LoadCheckpoint(context.Background(), "INBOX")
	require.NoError(t, err)
	assert.Equal(t, uint32(5), cp.MessageCount)

	// The backlog before the checkpoint is never ingested.
	assert.Zero(t, h.svc.QueueSize())
}

func TestPollEnqueuesAndWorkersProcess(t *testing.T) {
	h := setupService(t)
	h.inbox.set(2)

	require.NoError(t, h.svc.Start())
	h.svc.RunOnce() // initialize checkpoint at 2

	subA := mail.ClaimSubmission{
		Sender:  "alice@example.com",
		Subject: "Car accident claim",
		Body:    "Accident on the highway, claim amount $1200.",
		ClaimID: "CLAIM_1A2B3C4D_20260823",
	}
	subB := mail.ClaimSubmission{
		Sender:  "alice@example.com",
		Subject: "Water damage claim",
		Body:    "Burst pipe, claim amount $800.",
		ClaimID: "CLAIM_AAAA1111_20260823",
	}
	h.inbox.set(4, subA, subB)

	h.svc.RunOnce()

	require.Eventually(t, func() bool {
		done, err := h.repo.IsClaimCompleted(context.Background(), subA.ClaimID)
		if err != nil || !done {
			return false
		}
		done, err = h.repo.IsClaimCompleted(context.Background(), subB.ClaimID)
		return err == nil && done
	}, 5*time.Second, 20*time.Millisecond, "workers should drain and complete both claims")

	cp, err := h.repo.LoadCheckpoint(context.Background(), "INBOX")
	require.NoError(t, err)
	assert.Equal(t, uint32(4), cp.MessageCount)
}

func TestUnregisteredSenderIsRejected(t *testing.T) {
	h := setupService(t)
	h.inbox.set(1)

	require.NoError(t, h.svc.Start())
	h.svc.RunOnce() // initialize checkpoint

	sub := mail.ClaimSubmission{
		Sender:  "stranger@example.com",
		Subject: "Claim",
		Body:    "Please pay me.",
		ClaimID: "CLAIM_BBBB2222_20260823",
	}
	h.inbox.set(2, sub)

	h.svc.RunOnce()

	require.Eventually(t, func() bool {
		return h.sender.count() == 1
	}, 5*time.Second, 20*time.Millisecond, "rejection email should be sent")

	_, err := h.repo.FindByClaimID(context.Background(), sub.ClaimID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPollErrorLeavesCheckpointUntouched(t *testing.T) {
	h := setupService(t)
	h.inbox.set(3)

	require.NoError(t, h.svc.Start())
	h.svc.RunOnce() // checkpoint at 3

	h.inbox.mu.Lock()
	h.inbox.err = errors.New("imap connection reset")
	h.inbox.mu.Unlock()

	h.svc.RunOnce()

	cp, err := h.repo.LoadCheckpoint(context.Background(), "INBOX")
	require.NoError(t, err)
	assert.Equal(t, uint32(3), cp.MessageCount, "a failed listing must not advance the checkpoint")
	assert.Zero(t, h.svc.QueueSize())
}

func TestRunOnceWhileStoppedDoesNothing(t *testing.T) {
	h := setupService(t)
	h.inbox.set(5)

	h.svc.RunOnce()

	_, err := h.repo.LoadCheckpoint(context.Background(), "INBOX")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
