package model

import (
	"encoding/json"
	"time"
)

// Fulfillment status values. A record moves pending -> completed and never
// back.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Fulfillment tracks the processing state of one insurance claim and the
// locations of its artifacts.
type Fulfillment struct {
	ID                   uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	FulfillmentID        string     `json:"fulfillment_id" gorm:"type:varchar(64);not null;uniqueIndex"`
	UserMail             string     `json:"user_mail" gorm:"type:varchar(255);not null;index"`
	ClaimID              string     `json:"claim_id" gorm:"type:varchar(64);not null;uniqueIndex"`
	MailContent          string     `json:"mail_content" gorm:"type:text"`
	MailContentS3URL     *string    `json:"mail_content_s3_url" gorm:"type:text"`
	AttachmentCount      int        `json:"attachment_count" gorm:"not null;default:0"`
	AttachmentS3URLs     string     `json:"-" gorm:"type:text"`
	LocalAttachmentPaths string     `json:"-" gorm:"type:text"`
	Status               string     `json:"fulfillment_status" gorm:"type:varchar(20);not null"`
	MissingItems         *string    `json:"missing_items" gorm:"type:text"`
	S3UploadTimestamp    *time.Time `json:"s3_upload_timestamp"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Fulfillment
func (Fulfillment) TableName() string {
	return "fulfillments"
}

// SetAttachmentURLs stores the uploaded attachment URLs as JSON.
func (f *Fulfillment) SetAttachmentURLs(urls []string) {
	f.AttachmentS3URLs = encodeStringList(urls)
}

// GetAttachmentURLs returns the uploaded attachment URLs.
func (f *Fulfillment) GetAttachmentURLs() []string {
	return decodeStringList(f.AttachmentS3URLs)
}

// SetLocalPaths stores the local attachment paths as JSON.
func (f *Fulfillment) SetLocalPaths(paths []string) {
	f.LocalAttachmentPaths = encodeStringList(paths)
}

// GetLocalPaths returns the local attachment paths.
func (f *Fulfillment) GetLocalPaths() []string {
	return decodeStringList(f.LocalAttachmentPaths)
}

func encodeStringList(items []string) string {
	if len(items) == 0 {
		return ""
	}
	data, err := json.Marshal(items)
	if err != nil {
		return ""
	}
	return string(data)
}

func decodeStringList(raw string) []string {
	if raw == "" {
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	return items
}
