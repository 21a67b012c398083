package model

import "time"

// MailCheckpoint records the last processed mailbox position so restarts do
// not re-ingest messages that were already seen.
type MailCheckpoint struct {
	ID                 uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Mailbox            string    `json:"mailbox" gorm:"type:varchar(255);not null;uniqueIndex"`
	MessageCount       uint32    `json:"message_count" gorm:"not null;default:0"`
	LastConnectionTime time.Time `json:"last_connection_time"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName specifies the table name for MailCheckpoint
func (MailCheckpoint) TableName() string {
	return "mail_checkpoints"
}
