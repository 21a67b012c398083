package model

import "time"

// Policyholder represents a registered user with an active insurance policy.
// Only mail from policyholders enters the fulfillment pipeline.
type Policyholder struct {
	ID               uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	MailID           string    `json:"mail_id" gorm:"type:varchar(255);not null;uniqueIndex"`
	PolicyType       string    `json:"policy_type" gorm:"type:varchar(100);not null"`
	PolicyIssuedDate time.Time `json:"policy_issued_date" gorm:"not null"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName specifies the table name for Policyholder
func (Policyholder) TableName() string {
	return "user_details"
}
