package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"claim-intake-go/internal/model"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Fulfillment{},
		&model.Policyholder{},
		&model.MailCheckpoint{},
	))

	return New(db)
}

func TestUpsertFulfillmentCreate(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	rec := &model.Fulfillment{
		UserMail:    "alice@example.com",
		ClaimID:     "CLAIM_1A2B3C4D_20260823",
		MailContent: "claim body",
		Status:      model.StatusPending,
	}
	require.NoError(t, repo.UpsertFulfillment(ctx, rec))

	assert.NotZero(t, rec.ID)
	assert.Regexp(t, `^FULFILL_[A-Z0-9]{8}$`, rec.FulfillmentID)

	found, err := repo.FindByClaimID(ctx, "CLAIM_1A2B3C4D_20260823")
	require.NoError(t, err)
	assert.Equal(t, rec.FulfillmentID, found.FulfillmentID)
	assert.Equal(t, model.StatusPending, found.Status)
}

func TestUpsertFulfillmentUpdateKeepsIdentity(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	first := &model.Fulfillment{
		UserMail: "alice@example.com",
		ClaimID:  "CLAIM_1A2B3C4D_20260823",
		Status:   model.StatusPending,
	}
	require.NoError(t, repo.UpsertFulfillment(ctx, first))

	second := &model.Fulfillment{
		UserMail: "alice@example.com",
		ClaimID:  "CLAIM_1A2B3C4D_20260823",
		Status:   model.StatusCompleted,
	}
	second.SetAttachmentURLs([]string{"https://bucket.s3.amazonaws.com/a.pdf"})
	require.NoError(t, repo.UpsertFulfillment(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.FulfillmentID, second.FulfillmentID)

	all, err := repo.ListFulfillments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1, "upsert on the same claim must not create a second row")
	assert.Equal(t, model.StatusCompleted, all[0].Status)
	assert.Equal(t, []string{"https://bucket.s3.amazonaws.com/a.pdf"}, all[0].GetAttachmentURLs())
}

func TestUpsertFulfillmentRefusesDowngrade(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	completed := &model.Fulfillment{
		UserMail: "alice@example.com",
		ClaimID:  "CLAIM_1A2B3C4D_20260823",
		Status:   model.StatusCompleted,
	}
	require.NoError(t, repo.UpsertFulfillment(ctx, completed))

	missing := "policy number"
	late := &model.Fulfillment{
		UserMail:     "alice@example.com",
		ClaimID:      "CLAIM_1A2B3C4D_20260823",
		Status:       model.StatusPending,
		MissingItems: &missing,
	}
	require.NoError(t, repo.UpsertFulfillment(ctx, late))

	// The stale pending write is dropped and the caller sees the stored state.
	assert.Equal(t, model.StatusCompleted, late.Status)
	assert.Nil(t, late.MissingItems)

	found, err := repo.FindByClaimID(ctx, "CLAIM_1A2B3C4D_20260823")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, found.Status)
}

func TestFindByFulfillmentID(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	rec := &model.Fulfillment{
		UserMail: "bob@example.com",
		ClaimID:  "CLAIM_AAAA1111_20260823",
		Status:   model.StatusPending,
	}
	require.NoError(t, repo.UpsertFulfillment(ctx, rec))

	found, err := repo.FindByFulfillmentID(ctx, rec.FulfillmentID)
	require.NoError(t, err)
	assert.Equal(t, rec.ClaimID, found.ClaimID)

	_, err = repo.FindByFulfillmentID(ctx, "FULFILL_MISSING1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIsClaimCompleted(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	done, err := repo.IsClaimCompleted(ctx, "CLAIM_UNKNOWN1_20260823")
	require.NoError(t, err)
	assert.False(t, done)

	rec := &model.Fulfillment{
		UserMail: "alice@example.com",
		ClaimID:  "CLAIM_1A2B3C4D_20260823",
		Status:   model.StatusPending,
	}
	require.NoError(t, repo.UpsertFulfillment(ctx, rec))

	done, err = repo.IsClaimCompleted(ctx, rec.ClaimID)
	require.NoError(t, err)
	assert.False(t, done)

	rec.Status = model.StatusCompleted
	require.NoError(t, repo.UpsertFulfillment(ctx, rec))

	done, err = repo.IsClaimCompleted(ctx, rec.ClaimID)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestCheckpointRoundTrip(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, err := repo.LoadCheckpoint(ctx, "INBOX")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.SaveCheckpoint(ctx, "INBOX", 42))

	cp, err := repo.LoadCheckpoint(ctx, "INBOX")
	require.NoError(t, err)
	assert.Equal(t, uint32(42), cp.MessageCount)
	assert.False(t, cp.LastConnectionTime.IsZero())

	require.NoError(t, repo.SaveCheckpoint(ctx, "INBOX", 45))

	cp, err = repo.LoadCheckpoint(ctx, "INBOX")
	require.NoError(t, err)
	assert.Equal(t, uint32(45), cp.MessageCount)
}

func TestCheckpointPerMailbox(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveCheckpoint(ctx, "INBOX", 10))
	require.NoError(t, repo.SaveCheckpoint(ctx, "Claims", 3))

	inbox, err := repo.LoadCheckpoint(ctx, "INBOX")
	require.NoError(t, err)
	claims, err := repo.LoadCheckpoint(ctx, "Claims")
	require.NoError(t, err)

	assert.Equal(t, uint32(10), inbox.MessageCount)
	assert.Equal(t, uint32(3), claims.MessageCount)
}
