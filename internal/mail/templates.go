package mail

import (
	"fmt"
	"strings"
)

// Outbound mail templates. Every subject carries the claim reference so a
// reply can be correlated back to the same claim on re-submission.

// UserNotFoundEmail builds the rejection mail for a sender who is not a
// registered policyholder.
func UserNotFoundEmail(claimID, userEmail string) (subject, body string) {
	subject = fmt.Sprintf("Insurance Claim %s - Registration Required", claimID)
	body = fmt.Sprintf(
		"Dear Customer,\n\n"+
			"Your email %s is not registered in our system, so we are unable to "+
			"process your insurance claim.\n\n"+
			"Claim Reference: %s\n\n"+
			"Please contact customer service to register your policy details.\n\n"+
			"Best regards,\nInsurance Claims Team",
		userEmail, claimID)
	return subject, body
}

// PendingFollowupEmail builds the follow-up mail requesting the items a
// claim submission is still missing.
func PendingFollowupEmail(claimID string, missingItems []string) (subject, body string) {
	subject = fmt.Sprintf("Insurance Claim %s - Additional Information Required", claimID)

	items := make([]string, 0, len(missingItems))
	for _, item := range missingItems {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if !strings.HasPrefix(item, "-") {
			item = "- " + item
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		items = []string{"- Required fulfillment items missing"}
	}

	body = fmt.Sprintf(
		"Dear Customer,\n\n"+
			"Thank you for submitting your insurance claim. We have reviewed your "+
			"submission and the following items are still required:\n\n"+
			"%s\n\n"+
			"Please reply to this email with the missing information and supporting "+
			"documents, keeping the claim reference %s in the subject line.\n\n"+
			"Best regards,\nInsurance Claims Team",
		strings.Join(items, "\n"), claimID)
	return subject, body
}
