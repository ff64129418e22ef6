package notify

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/estudiolume/leads-api/internal/leads"
	"github.com/estudiolume/leads-api/pkg/logging"
)

// Reasons a lead notification was not sent.
const (
	ReasonNotConfigured = "not_configured"
	ReasonProviderError = "provider_error"
)

// Service emails the site owners when a lead is created. Sending is
// best-effort: it runs only after the lead is persisted and its failure
// never affects the submission response.
type Service struct {
	sender  EmailSender
	to      []string
	baseURL string
	logger  *logging.Logger
}

// NewService creates a lead notification service. sender may be nil when
// no provider is configured.
func NewService(sender EmailSender, to []string, baseURL string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		sender:  sender,
		to:      to,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		logger:  logger,
	}
}

// SendLeadCreated notifies every configured recipient about a new lead.
// It reports whether the notification went out and, if not, why.
func (s *Service) SendLeadCreated(ctx context.Context, lead *leads.Lead) (sent bool, reason string) {
	if s == nil || s.sender == nil || len(s.to) == 0 {
		if s != nil {
			s.logger.Info("lead notification skipped", "reason", ReasonNotConfigured)
		}
		return false, ReasonNotConfigured
	}

	subject := "New lead: " + lead.Name
	body := s.textBody(lead)
	htmlBody := s.htmlBody(lead)

	// Every recipient gets an attempt; one failure must not starve the rest.
	delivered := 0
	for _, recipient := range s.to {
		if err := s.sender.Send(ctx, EmailMessage{
			To:      recipient,
			Subject: subject,
			Body:    body,
			HTML:    htmlBody,
		}); err != nil {
			s.logger.Error("lead notification failed", "error", err, "lead_id", lead.ID, "to", recipient)
			continue
		}
		delivered++
	}

	if delivered == 0 {
		return false, ReasonProviderError
	}
	if delivered < len(s.to) {
		s.logger.Warn("lead notification partially sent",
			"lead_id", lead.ID, "delivered", delivered, "recipients", len(s.to))
		return true, ""
	}
	s.logger.Info("lead notification sent", "lead_id", lead.ID, "recipients", len(s.to))
	return true, ""
}

// adminLink builds a deep link into the admin panel for this lead.
func (s *Service) adminLink(leadID string) string {
	path := "/admin/leads?focus=" + url.QueryEscape(leadID)
	if s.baseURL == "" {
		return path
	}
	base := s.baseURL
	if !strings.HasPrefix(base, "http") {
		base = "https://" + base
	}
	return base + path
}

func (s *Service) textBody(lead *leads.Lead) string {
	company := lead.Company
	if company == "" {
		company = "-"
	}
	return strings.Join([]string{
		"New lead received.",
		"",
		"Name: " + lead.Name,
		"Email: " + lead.Email,
		"Phone: " + lead.Phone,
		"Company: " + company,
		"",
		"Message:",
		lead.Message,
		"",
		"Open in admin panel: " + s.adminLink(lead.ID),
	}, "\n")
}

func (s *Service) htmlBody(lead *leads.Lead) string {
	company := lead.Company
	if company == "" {
		company = "-"
	}
	link := s.adminLink(lead.ID)
	return fmt.Sprintf(`<div style="font-family:Arial,sans-serif;line-height:1.5;">
	<h2>New lead received</h2>
	<p><strong>Name:</strong> %s</p>
	<p><strong>Email:</strong> %s</p>
	<p><strong>Phone:</strong> %s</p>
	<p><strong>Company:</strong> %s</p>
	<p><strong>Message:</strong></p>
	<pre style="white-space:pre-wrap;">%s</pre>
	<p><a href="%s">Open in admin panel</a></p>
</div>`,
		html.EscapeString(lead.Name),
		html.EscapeString(lead.Email),
		html.EscapeString(lead.Phone),
		html.EscapeString(company),
		html.EscapeString(lead.Message),
		html.EscapeString(link),
	)
}
