package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/sirupsen/logrus"

	"claim-intake-go/internal/config"
)

// Sender dispatches outbound mail: follow-up requests for missing items and
// rejections for unregistered senders.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
	Close() error
}

// GmailSender implements Sender via the Gmail API.
type GmailSender struct {
	service   *gmail.Service
	userEmail string
}

// NewGmailSender creates a Gmail API sender from OAuth2 credentials.
func NewGmailSender(cfg *config.MailConfig) (*GmailSender, error) {
	ctx := context.Background()

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{gmail.GmailSendScope},
		Endpoint:     google.Endpoint,
	}

	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}

	tokenSource := oauth2Config.TokenSource(ctx, token)

	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &GmailSender{
		service:   service,
		userEmail: cfg.UserEmail,
	}, nil
}

// Send composes and sends a plain-text email. Rate-limit responses are
// retried with exponential backoff; other failures surface immediately.
func (s *GmailSender) Send(ctx context.Context, to, subject, body string) error {
	raw := s.composeMessage(to, subject, body)
	encoded := base64.URLEncoding.EncodeToString([]byte(raw))

	message := &gmail.Message{
		Raw: encoded,
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := s.service.Users.Messages.Send(s.userEmail, message).Context(ctx).Do()
		if err == nil {
			logrus.Infof("Sent email to %s: %s", to, subject)
			return nil
		}

		lastErr = err
		logrus.Warnf("Failed to send email (attempt %d/%d): %v", attempt, 3, err)

		if strings.Contains(err.Error(), "quota") || strings.Contains(err.Error(), "rate") {
			waitTime := time.Duration(attempt*attempt) * time.Second
			logrus.Infof("Rate limited, waiting %v before retry", waitTime)
			time.Sleep(waitTime)
		} else {
			break
		}
	}

	return fmt.Errorf("failed to send email after retries: %w", lastErr)
}

func (s *GmailSender) composeMessage(to, subject, body string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("From: %s\r\n", s.userEmail))
	b.WriteString(fmt.Sprintf("To: %s\r\n", to))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	b.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 7bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)

	return b.String()
}

// Close closes the sender (no-op for Gmail API)
func (s *GmailSender) Close() error {
	return nil
}
