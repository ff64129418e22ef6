package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/estudiolume/leads-api/internal/leads"
	"github.com/estudiolume/leads-api/pkg/logging"
)

type recordingSender struct {
	messages []EmailMessage
	err      error
	failTo   string
}

func (s *recordingSender) Send(_ context.Context, msg EmailMessage) error {
	if s.err != nil {
		return s.err
	}
	if s.failTo != "" && msg.To == s.failTo {
		return errors.New("mailbox rejected")
	}
	s.messages = append(s.messages, msg)
	return nil
}

func sampleLead() *leads.Lead {
	return &leads.Lead{
		ID:      "lead-123",
		Name:    "Joana Prado",
		Email:   "joana@example.com",
		Phone:   "11987654321",
		Message: "I would like a quote for a mural piece.",
		Status:  leads.StatusNew,
	}
}

func TestSendLeadCreated(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, []string{"owner@example.com", "studio@example.com"}, "https://estudiolume.com.br", logging.Default())

	sent, reason := svc.SendLeadCreated(context.Background(), sampleLead())

	assert.True(t, sent)
	assert.Empty(t, reason)
	assert.Len(t, sender.messages, 2)

	msg := sender.messages[0]
	assert.Equal(t, "owner@example.com", msg.To)
	assert.Equal(t, "New lead: Joana Prado", msg.Subject)
	assert.Contains(t, msg.Body, "joana@example.com")
	assert.Contains(t, msg.Body, "https://estudiolume.com.br/admin/leads?focus=lead-123")
	assert.NotEmpty(t, msg.HTML)
}

func TestSendLeadCreated_NotConfigured(t *testing.T) {
	tests := []struct {
		name string
		svc  *Service
	}{
		{"nil sender", NewService(nil, []string{"owner@example.com"}, "", logging.Default())},
		{"no recipients", NewService(&recordingSender{}, nil, "", logging.Default())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sent, reason := tt.svc.SendLeadCreated(context.Background(), sampleLead())
			assert.False(t, sent)
			assert.Equal(t, ReasonNotConfigured, reason)
		})
	}
}

func TestSendLeadCreated_ProviderError(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	svc := NewService(sender, []string{"owner@example.com"}, "", logging.Default())

	sent, reason := svc.SendLeadCreated(context.Background(), sampleLead())

	assert.False(t, sent)
	assert.Equal(t, ReasonProviderError, reason)
}

func TestSendLeadCreated_PartialFailure(t *testing.T) {
	// One rejected mailbox must not block the other recipients, and a
	// delivery that reached anyone counts as sent.
	sender := &recordingSender{failTo: "owner@example.com"}
	svc := NewService(sender, []string{"owner@example.com", "studio@example.com"}, "", logging.Default())

	sent, reason := svc.SendLeadCreated(context.Background(), sampleLead())

	assert.True(t, sent)
	assert.Empty(t, reason)
	assert.Len(t, sender.messages, 1)
	assert.Equal(t, "studio@example.com", sender.messages[0].To)
}

func TestHTMLBodyEscapes(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, []string{"owner@example.com"}, "", logging.Default())

	lead := sampleLead()
	lead.Name = `<script>alert("x")</script>`
	svc.SendLeadCreated(context.Background(), lead)

	html := sender.messages[0].HTML
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestAdminLink(t *testing.T) {
	tests := []struct {
		baseURL string
		leadID  string
		want    string
	}{
		{"https://estudiolume.com.br", "abc", "https://estudiolume.com.br/admin/leads?focus=abc"},
		{"https://estudiolume.com.br/", "abc", "https://estudiolume.com.br/admin/leads?focus=abc"},
		{"estudiolume.com.br", "abc", "https://estudiolume.com.br/admin/leads?focus=abc"},
		{"", "abc", "/admin/leads?focus=abc"},
		{"https://estudiolume.com.br", "a b&c", "https://estudiolume.com.br/admin/leads?focus=a+b%26c"},
	}
	for _, tt := range tests {
		svc := NewService(nil, nil, tt.baseURL, logging.Default())
		if got := svc.adminLink(tt.leadID); got != tt.want {
			t.Errorf("adminLink(%q, %q) = %q, want %q", tt.baseURL, tt.leadID, got, tt.want)
		}
	}
}

func TestTextBodyPlaceholderCompany(t *testing.T) {
	svc := NewService(nil, nil, "", logging.Default())
	body := svc.textBody(sampleLead())
	if !strings.Contains(body, "Company: -") {
		t.Errorf("expected placeholder for missing company:\n%s", body)
	}
}
