// Package directory checks inbound senders against registered policyholders.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"claim-intake-go/internal/model"
)

// ErrNotFound reports that a sender has no registered policy. This is a
// terminal outcome for a submission, not a retryable failure.
var ErrNotFound = errors.New("policyholder not found")

// Validator decides whether a sender may enter the fulfillment pipeline.
type Validator interface {
	Validate(ctx context.Context, email string) (*model.Policyholder, error)
}

// DBValidator implements Validator against the policyholder table.
type DBValidator struct {
	db *gorm.DB
}

// NewDBValidator creates a validator backed by the given database.
func NewDBValidator(db *gorm.DB) *DBValidator {
	return &DBValidator{db: db}
}

// Validate looks up the sender address. Returns ErrNotFound when the sender
// is not registered; any other error is a database failure.
func (v *DBValidator) Validate(ctx context.Context, email string) (*model.Policyholder, error) {
	var holder model.Policyholder
	result := v.db.WithContext(ctx).Where("mail_id = ?", strings.ToLower(strings.TrimSpace(email))).First(&holder)
	if result.Error == nil {
		return &holder, nil
	}
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return nil, fmt.Errorf("database error looking up policyholder: %w", result.Error)
}

// Register creates a new policyholder record.
func (v *DBValidator) Register(ctx context.Context, holder *model.Policyholder) error {
	holder.MailID = strings.ToLower(strings.TrimSpace(holder.MailID))
	if result := v.db.WithContext(ctx).Create(holder); result.Error != nil {
		return fmt.Errorf("failed to create policyholder: %w", result.Error)
	}
	return nil
}
