package handlers

import "time"

// PolicyholderRequest represents the request structure for registering users
type PolicyholderRequest struct {
	MailID           string `json:"mail_id" binding:"required,email"`
	PolicyType       string `json:"policy_type" binding:"required"`
	PolicyIssuedDate string `json:"policy_issued_date" binding:"required"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Database  string            `json:"database"`
	Intake    map[string]string `json:"intake,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
