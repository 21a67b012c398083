// Package assess wraps the AI collaborator that judges whether a claim
// submission contains everything needed to process it. The model is an
// opaque remote call with a bounded timeout; it can fail or return garbage,
// and callers must treat both as a recoverable outcome, never as a reason to
// drop a claim.
package assess

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"claim-intake-go/internal/config"
)

// Evidence is the package handed to the assessor: the claim's mail content
// plus an inventory of its attachments.
type Evidence struct {
	Sender          string
	Subject         string
	ClaimID         string
	Body            string
	AttachmentNames []string
	AttachmentSizes []int64
}

// Verdict is the assessor's structured answer.
type Verdict struct {
	Complete     bool
	MissingItems []string
	ClaimID      string
}

// Assessor produces a completeness verdict for a claim submission.
type Assessor interface {
	Assess(ctx context.Context, ev Evidence) (Verdict, error)
}

const systemPrompt = `You are an insurance claim intake assistant. Assess whether the customer's
email contains everything required to process a claim:
- REASON FOR CLAIM: a clear description of what happened.
- CLAIM AMOUNT: any monetary amount, in any currency or format.
- SUPPORTING PROOFS: attachments that support the claim (bills, photos, reports).

Answer with exactly these lines:
FULFILLMENT_STATUS: COMPLETED or PENDING
MISSING_ITEMS: one item per line prefixed with "-", or "none" when completed.`

// OpenAIAssessor implements Assessor over an OpenAI-compatible
// chat-completions endpoint.
type OpenAIAssessor struct {
	client *openai.Client
	cfg    *config.AssessorConfig
}

// NewOpenAIAssessor creates an assessor from the configured credentials.
func NewOpenAIAssessor(cfg *config.AssessorConfig) *OpenAIAssessor {
	return &OpenAIAssessor{
		client: openai.NewClient(cfg.APIKey),
		cfg:    cfg,
	}
}

// Assess sends the evidence to the model and parses its verdict. The call is
// bounded by the configured timeout.
func (a *OpenAIAssessor) Assess(ctx context.Context, ev Evidence) (Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.cfg.Model,
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(ev)},
		},
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("assessment request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Verdict{}, fmt.Errorf("assessment returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	logrus.Debugf("Assessment response for %s: %s", ev.ClaimID, raw)

	verdict, err := ParseVerdict(raw)
	if err != nil {
		return Verdict{}, err
	}
	verdict.ClaimID = ev.ClaimID
	return verdict, nil
}

// buildPrompt renders the evidence package into the user message.
func buildPrompt(ev Evidence) string {
	var b strings.Builder

	b.WriteString("CLAIM FULFILLMENT ASSESSMENT\n\n")
	b.WriteString("CUSTOMER DETAILS:\n")
	fmt.Fprintf(&b, "Email: %s\n", ev.Sender)
	fmt.Fprintf(&b, "Subject: %s\n", ev.Subject)
	fmt.Fprintf(&b, "Claim ID: %s\n\n", ev.ClaimID)

	b.WriteString("EMAIL CONTENT TO ANALYZE:\n")
	b.WriteString(ev.Body)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "ATTACHMENTS PROVIDED (%d):\n", len(ev.AttachmentNames))
	if len(ev.AttachmentNames) == 0 {
		b.WriteString("No attachments provided\n")
	}
	for i, name := range ev.AttachmentNames {
		var size int64
		if i < len(ev.AttachmentSizes) {
			size = ev.AttachmentSizes[i]
		}
		fmt.Fprintf(&b, "%d. %s (%s, %d bytes)\n", i+1, name, strings.ToLower(filepath.Ext(name)), size)
	}

	return b.String()
}
