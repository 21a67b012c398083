// Package repository is the single consistency boundary for durable intake
// state. The fulfillment state machine never touches the database directly;
// every write goes through here, which is where the monotonic-finalization
// invariant is enforced: a completed claim never goes back to pending.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"claim-intake-go/internal/model"
)

// ErrNotFound reports a missing record.
var ErrNotFound = errors.New("record not found")

type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// NewFulfillmentID generates a fulfillment identifier.
func NewFulfillmentID() string {
	return "FULFILL_" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
}

// UpsertFulfillment creates or updates the fulfillment record for a claim,
// idempotent on claim identifier. Runs in a transaction so overlapping
// workers serialize; a downgrade from completed to pending is dropped.
func (r *Repository) UpsertFulfillment(ctx context.Context, rec *model.Fulfillment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Fulfillment
		result := tx.Where("claim_id = ?", rec.ClaimID).First(&existing)

		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			if rec.FulfillmentID == "" {
				rec.FulfillmentID = NewFulfillmentID()
			}
			if result := tx.Create(rec); result.Error != nil {
				return fmt.Errorf("failed to create fulfillment: %w", result.Error)
			}
			return nil
		}
		if result.Error != nil {
			return fmt.Errorf("database error finding fulfillment: %w", result.Error)
		}

		if existing.Status == model.StatusCompleted && rec.Status == model.StatusPending {
			logrus.Warnf("Dropping pending write for already completed claim %s", rec.ClaimID)
			*rec = existing
			return nil
		}

		rec.ID = existing.ID
		rec.FulfillmentID = existing.FulfillmentID
		rec.CreatedAt = existing.CreatedAt
		if result := tx.Save(rec); result.Error != nil {
			return fmt.Errorf("failed to update fulfillment: %w", result.Error)
		}
		return nil
	})
}

// FindByClaimID returns the fulfillment record for a claim.
func (r *Repository) FindByClaimID(ctx context.Context, claimID string) (*model.Fulfillment, error) {
	var rec model.Fulfillment
	result := r.db.WithContext(ctx).Where("claim_id = ?", claimID).First(&rec)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, fmt.Errorf("database error finding fulfillment: %w", result.Error)
	}
	return &rec, nil
}

// FindByFulfillmentID returns the record with the given fulfillment
// identifier.
func (r *Repository) FindByFulfillmentID(ctx context.Context, fulfillmentID string) (*model.Fulfillment, error) {
	var rec model.Fulfillment
	result := r.db.WithContext(ctx).Where("fulfillment_id = ?", fulfillmentID).First(&rec)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, fmt.Errorf("database error finding fulfillment: %w", result.Error)
	}
	return &rec, nil
}

// ListFulfillments returns all fulfillment records, newest first.
func (r *Repository) ListFulfillments(ctx context.Context) ([]model.Fulfillment, error) {
	var recs []model.Fulfillment
	result := r.db.WithContext(ctx).Order("created_at desc").Find(&recs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list fulfillments: %w", result.Error)
	}
	return recs, nil
}

// IsClaimCompleted reports whether a claim already has a completed record.
// Checked before the assessing transition to keep terminal processing
// at-most-once.
func (r *Repository) IsClaimCompleted(ctx context.Context, claimID string) (bool, error) {
	rec, err := r.FindByClaimID(ctx, claimID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rec.Status == model.StatusCompleted, nil
}

// LoadCheckpoint returns the stored checkpoint for a mailbox, or ErrNotFound
// on first run.
func (r *Repository) LoadCheckpoint(ctx context.Context, mailbox string) (*model.MailCheckpoint, error) {
	var cp model.MailCheckpoint
	result := r.db.WithContext(ctx).Where("mailbox = ?", mailbox).First(&cp)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, fmt.Errorf("database error loading checkpoint: %w", result.Error)
	}
	return &cp, nil
}

// SaveCheckpoint advances the mailbox checkpoint. Called only after a poll
// batch is fully enqueued.
func (r *Repository) SaveCheckpoint(ctx context.Context, mailbox string, messageCount uint32) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cp model.MailCheckpoint
		result := tx.Where("mailbox = ?", mailbox).First(&cp)

		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			cp = model.MailCheckpoint{
				Mailbox:            mailbox,
				MessageCount:       messageCount,
				LastConnectionTime: time.Now(),
			}
			if result := tx.Create(&cp); result.Error != nil {
				return fmt.Errorf("failed to create checkpoint: %w", result.Error)
			}
			return nil
		}
		if result.Error != nil {
			return fmt.Errorf("database error loading checkpoint: %w", result.Error)
		}

		cp.MessageCount = messageCount
		cp.LastConnectionTime = time.Now()
		if result := tx.Save(&cp); result.Error != nil {
			return fmt.Errorf("failed to update checkpoint: %w", result.Error)
		}
		return nil
	})
}
