package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentKeyDeterministic(t *testing.T) {
	key := ContentKey("ai_insurance_claim", "alice@example.com", "CLAIM_1A2B3C4D_20260823")
	assert.Equal(t,
		"ai_insurance_claim/alice@example.com/claims/CLAIM_1A2B3C4D_20260823/mail_content.txt",
		key)

	// Same inputs always map to the same key so retries overwrite.
	assert.Equal(t, key, ContentKey("ai_insurance_claim", "alice@example.com", "CLAIM_1A2B3C4D_20260823"))
}

func TestAttachmentKeyStripsDirectories(t *testing.T) {
	key := AttachmentKey("ai_insurance_claim", "alice@example.com", "CLAIM_1A2B3C4D_20260823",
		"/var/data/attachments/CLAIM_1A2B3C4D_20260823/1724400000_report.pdf")
	assert.Equal(t,
		"ai_insurance_claim/alice@example.com/claims/CLAIM_1A2B3C4D_20260823/attachments/1724400000_report.pdf",
		key)
}

func TestContentTypeFor(t *testing.T) {
	tests := map[string]string{
		"report.pdf":   "application/pdf",
		"photo.JPG":    "image/jpeg",
		"photo.jpeg":   "image/jpeg",
		"scan.png":     "image/png",
		"notes.txt":    "text/plain",
		"claim.docx":   "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"archive.zip":  "application/octet-stream",
		"no_extension": "application/octet-stream",
	}

	for filename, want := range tests {
		assert.Equal(t, want, contentTypeFor(filename), filename)
	}
}
