package mail

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message"
	"github.com/sirupsen/logrus"

	"claim-intake-go/internal/config"
)

// Inbox lists new claim submissions that arrived after the stored mailbox
// checkpoint.
type Inbox interface {
	// ListNewSubmissions returns every submission beyond sinceCount along
	// with the current mailbox message count.
	ListNewSubmissions(ctx context.Context, sinceCount uint32) ([]ClaimSubmission, uint32, error)
	Close() error
}

// IMAPInbox implements Inbox against an IMAP server.
type IMAPInbox struct {
	cfg            *config.MailConfig
	client         *client.Client
	attachmentsDir string
}

// NewIMAPInbox connects and logs in to the IMAP server.
func NewIMAPInbox(cfg *config.MailConfig, attachmentsDir string) (*IMAPInbox, error) {
	c, err := dialIMAP(cfg)
	if err != nil {
		return nil, err
	}

	return &IMAPInbox{
		cfg:            cfg,
		client:         c,
		attachmentsDir: attachmentsDir,
	}, nil
}

func dialIMAP(cfg *config.MailConfig) (*client.Client, error) {
	c, err := client.DialTLS(fmt.Sprintf("%s:%d", cfg.IMAPHost, cfg.IMAPPort), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}

	if err := c.Login(cfg.IMAPUser, cfg.IMAPPassword); err != nil {
		c.Logout()
		return nil, fmt.Errorf("failed to login to IMAP server: %w", err)
	}

	return c, nil
}

// ListNewSubmissions selects the mailbox, compares its message count against
// sinceCount and fetches only the delta. Parse failures on individual
// messages are logged and skipped so one malformed mail cannot wedge the
// whole batch.
func (in *IMAPInbox) ListNewSubmissions(ctx context.Context, sinceCount uint32) ([]ClaimSubmission, uint32, error) {
	mbox, err := in.selectMailbox()
	if err != nil {
		return nil, 0, err
	}

	current := mbox.Messages
	if current <= sinceCount {
		return nil, current, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddRange(sinceCount+1, current)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchInternalDate, section.FetchItem()}

	messages := make(chan *imap.Message, current-sinceCount)
	done := make(chan error, 1)

	go func() {
		done <- in.client.Fetch(seqset, items, messages)
	}()

	var subs []ClaimSubmission
	for msg := range messages {
		sub, err := in.parseMessage(msg, section)
		if err != nil {
			logrus.Warnf("Failed to parse inbound message: %v", err)
			continue
		}
		subs = append(subs, sub)
	}

	if err := <-done; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch messages: %w", err)
	}

	return subs, current, nil
}

// selectMailbox selects the configured mailbox, redialing once if the
// connection has gone stale since the last poll cycle.
func (in *IMAPInbox) selectMailbox() (*imap.MailboxStatus, error) {
	mbox, err := in.client.Select(in.cfg.Mailbox, false)
	if err == nil {
		return mbox, nil
	}

	logrus.Warnf("IMAP select failed, reconnecting: %v", err)
	c, dialErr := dialIMAP(in.cfg)
	if dialErr != nil {
		return nil, fmt.Errorf("failed to reconnect to IMAP server: %w", dialErr)
	}
	in.client = c

	mbox, err = in.client.Select(in.cfg.Mailbox, false)
	if err != nil {
		return nil, fmt.Errorf("failed to select mailbox %s: %w", in.cfg.Mailbox, err)
	}
	return mbox, nil
}

func (in *IMAPInbox) parseMessage(msg *imap.Message, section *imap.BodySectionName) (ClaimSubmission, error) {
	sub := ClaimSubmission{
		ReceivedAt: msg.InternalDate,
	}
	if sub.ReceivedAt.IsZero() {
		sub.ReceivedAt = time.Now()
	}

	if msg.Envelope != nil {
		sub.MessageID = msg.Envelope.MessageId
		sub.Subject = msg.Envelope.Subject
		if len(msg.Envelope.From) > 0 {
			sub.Sender = msg.Envelope.From[0].Address()
		}
	}
	if sub.Sender == "" {
		return sub, fmt.Errorf("message has no sender address")
	}

	r := msg.GetBody(section)
	if r == nil {
		return sub, fmt.Errorf("failed to get message body")
	}

	entity, err := message.Read(r)
	if err != nil {
		return sub, fmt.Errorf("failed to read message: %w", err)
	}

	// The claim identifier must exist before attachments are saved because
	// it names the local folder; the body scan for an existing reference
	// happens after the parts are walked, so collect parts first.
	body, attachments, err := collectParts(entity)
	if err != nil {
		return sub, err
	}

	sub.Body = body
	sub.ClaimID = ResolveClaimID(sub.Subject, sub.Body)

	paths, err := in.saveAttachments(sub.ClaimID, attachments)
	if err != nil {
		return sub, err
	}
	sub.AttachmentPaths = paths

	return sub, nil
}

type rawAttachment struct {
	filename string
	data     []byte
}

// collectParts walks a MIME entity and returns the plain-text body plus any
// attachment parts.
func collectParts(entity *message.Entity) (string, []rawAttachment, error) {
	mr := entity.MultipartReader()
	if mr == nil {
		content, err := io.ReadAll(entity.Body)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read message body: %w", err)
		}
		return string(content), nil, nil
	}

	var body string
	var attachments []rawAttachment

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("failed to read part: %w", err)
		}

		disp, dispParams, _ := p.Header.ContentDisposition()
		if strings.EqualFold(disp, "attachment") {
			filename := dispParams["filename"]
			if filename == "" {
				_, ctParams, _ := p.Header.ContentType()
				filename = ctParams["name"]
			}
			if filename == "" {
				filename = "attachment"
			}

			data, err := io.ReadAll(p.Body)
			if err != nil {
				return "", nil, fmt.Errorf("failed to read attachment %s: %w", filename, err)
			}
			attachments = append(attachments, rawAttachment{filename: filename, data: data})
			continue
		}

		mediaType, _, _ := p.Header.ContentType()
		if mediaType == "text/plain" && body == "" {
			content, err := io.ReadAll(p.Body)
			if err != nil {
				return "", nil, fmt.Errorf("failed to read part body: %w", err)
			}
			body = string(content)
		}
	}

	return body, attachments, nil
}

// saveAttachments writes decoded attachments under the claim's local folder
// and returns their paths. Filenames are prefixed with a millisecond
// timestamp so colliding names from one sender stay distinct.
func (in *IMAPInbox) saveAttachments(claimID string, attachments []rawAttachment) ([]string, error) {
	if len(attachments) == 0 {
		return nil, nil
	}

	claimDir := filepath.Join(in.attachmentsDir, claimID)
	if err := os.MkdirAll(claimDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create claim folder %s: %w", claimDir, err)
	}

	var paths []string
	for _, att := range attachments {
		name := fmt.Sprintf("%d_%s", time.Now().UnixMilli(), filepath.Base(att.filename))
		path := filepath.Join(claimDir, name)
		if err := os.WriteFile(path, att.data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to save attachment %s: %w", att.filename, err)
		}
		paths = append(paths, path)
		logrus.Debugf("Saved attachment %s for claim %s", name, claimID)
	}

	return paths, nil
}

// Close logs out from the IMAP server.
func (in *IMAPInbox) Close() error {
	return in.client.Logout()
}
