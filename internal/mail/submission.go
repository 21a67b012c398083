package mail

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ClaimSubmission is one inbound claim email, parsed and ready for
// processing. Attachments are already decoded and written under the claim's
// local folder; the struct only carries their paths.
type ClaimSubmission struct {
	MessageID       string
	Sender          string
	Subject         string
	Body            string
	ClaimID         string
	AttachmentPaths []string
	ReceivedAt      time.Time
}

// AttachmentCount returns the number of attachments in the submission.
func (s ClaimSubmission) AttachmentCount() int {
	return len(s.AttachmentPaths)
}

// claimRefPattern matches a claim reference such as CLAIM_1A2B3C4D_20260823
// in a subject line or message body.
var claimRefPattern = regexp.MustCompile(`CLAIM_[A-Z0-9]{8}_\d{8}`)

// NewClaimID generates a fresh claim identifier.
func NewClaimID() string {
	unique := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("CLAIM_%s_%s", unique, time.Now().Format("20060102"))
}

// ExtractClaimRef returns the claim reference embedded in the subject or
// body, if any. A reply that carries the reference is correlated back to the
// existing claim instead of opening a new one.
func ExtractClaimRef(subject, body string) (string, bool) {
	if ref := claimRefPattern.FindString(subject); ref != "" {
		return ref, true
	}
	if ref := claimRefPattern.FindString(body); ref != "" {
		return ref, true
	}
	return "", false
}

// ResolveClaimID correlates a submission to an existing claim when the mail
// references one, otherwise assigns a new claim identifier.
func ResolveClaimID(subject, body string) string {
	if ref, ok := ExtractClaimRef(subject, body); ok {
		return ref
	}
	return NewClaimID()
}
