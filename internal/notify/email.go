package notify

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	mailjet "github.com/mailjet/mailjet-apiv3-go/v4"

	"github.com/ladislavh/terminwatch/internal/slot"
)

const emailTimeout = 15 * time.Second

//go:embed templates/email_notification.html
var emailTemplateFS embed.FS

var emailTemplate = template.Must(
	template.ParseFS(emailTemplateFS, "templates/email_notification.html"))

// EmailSender sends batched slot notifications through Mailjet's
// transactional API. Both a rich HTML part and a plain-text fallback are
// rendered from the same slot list.
type EmailSender struct {
	client      *mailjet.Client
	senderEmail string
	senderName  string
	logger      *slog.Logger
}

// NewEmailSender creates a Mailjet-backed sender. endpoint may be empty to
// use the public Mailjet API. Returns nil when any credential is missing —
// the dispatcher treats a nil sender as "email channel unavailable".
func NewEmailSender(endpoint, apiKey, secretKey, senderEmail, senderName string, logger *slog.Logger) *EmailSender {
	if apiKey == "" || secretKey == "" || senderEmail == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	var client *mailjet.Client
	if endpoint != "" {
		client = mailjet.NewMailjetClient(apiKey, secretKey, endpoint)
	} else {
		client = mailjet.NewMailjetClient(apiKey, secretKey)
	}
	// The library's default client has no timeout; a hung send must not
	// stall a check cycle indefinitely.
	client.SetClient(&http.Client{Timeout: emailTimeout})

	return &EmailSender{
		client:      client,
		senderEmail: senderEmail,
		senderName:  senderName,
		logger:      logger,
	}
}

// Send delivers one email covering all slots to the recipient.
func (e *EmailSender) Send(ctx context.Context, recipient, doctorName, doctorURL string, slots []slot.Slot) error {
	sorted := sortedCopy(slots)

	htmlBody, err := emailHTML(doctorName, doctorURL, sorted)
	if err != nil {
		return fmt.Errorf("render email html: %w", err)
	}

	messages := mailjet.MessagesV31{
		Info: []mailjet.InfoMessagesV31{{
			From: &mailjet.RecipientV31{
				Email: e.senderEmail,
				Name:  e.senderName,
			},
			To: &mailjet.RecipientsV31{
				mailjet.RecipientV31{Email: recipient},
			},
			Subject:  emailSubject(doctorName, len(sorted)),
			TextPart: emailText(doctorName, doctorURL, sorted),
			HTMLPart: htmlBody,
		}},
	}

	if _, err := e.client.SendMailV31(&messages); err != nil {
		return fmt.Errorf("mailjet send: %w", err)
	}
	e.logger.Info("email notification sent", "recipient", recipient, "doctor", doctorName, "slots", len(sorted))
	return nil
}

// emailSubject: "1 nový termín u X" / "3 nových termínov u X".
func emailSubject(doctorName string, count int) string {
	if count == 1 {
		return fmt.Sprintf("1 nový termín u %s", doctorName)
	}
	return fmt.Sprintf("%d nových termínov u %s", count, doctorName)
}

// emailText builds the plain-text fallback body. Slots must be sorted.
func emailText(doctorName, doctorURL string, sorted []slot.Slot) string {
	var b strings.Builder
	b.WriteString(doctorName + "\n\n")
	if len(sorted) == 1 {
		b.WriteString("Nájdený 1 voľný termín:\n\n")
	} else {
		fmt.Fprintf(&b, "Nájdených %d voľných termínov:\n\n", len(sorted))
	}
	for _, s := range sorted {
		fmt.Fprintf(&b, "• %s %s\n", s.Date, s.Time)
	}
	fmt.Fprintf(&b, "\n\nObjednať sa: %s\n", doctorURL)
	return b.String()
}

// emailHTML renders the rich body from the embedded template.
func emailHTML(doctorName, doctorURL string, sorted []slot.Slot) (string, error) {
	var b strings.Builder
	err := emailTemplate.Execute(&b, struct {
		DoctorName string
		DoctorURL  string
		Slots      []slot.Slot
		Plural     bool
	}{
		DoctorName: doctorName,
		DoctorURL:  doctorURL,
		Slots:      sorted,
		Plural:     len(sorted) != 1,
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
