package leads

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Status is the moderation state of a lead.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusClosed    Status = "closed"
	StatusSpam      Status = "spam"
)

// ValidStatus reports whether s is one of the four moderation states.
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusNew, StatusContacted, StatusClosed, StatusSpam:
		return true
	}
	return false
}

// Field caps applied before validation so oversized payloads never reach
// storage.
const (
	maxNameLen    = 200
	maxEmailLen   = 200
	maxPhoneLen   = 40
	maxCompanyLen = 200
	maxMessageLen = 4000
	maxMetaLen    = 1000
)

// Structural check only: something, @, something, dot, something.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Metadata captures submission provenance that is never client-editable.
type Metadata struct {
	Source     string    `json:"source"`
	IP         string    `json:"ip"`
	ReceivedAt time.Time `json:"received_at"`
}

// Lead represents a contact-form submission.
type Lead struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Company     string    `json:"company,omitempty"`
	Message     string    `json:"message"`
	Status      Status    `json:"status"`
	Notes       *string   `json:"notes"`
	UTMSource   string    `json:"utm_source,omitempty"`
	UTMMedium   string    `json:"utm_medium,omitempty"`
	UTMCampaign string    `json:"utm_campaign,omitempty"`
	Referrer    string    `json:"referrer,omitempty"`
	PageURL     string    `json:"page_url,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	Metadata    Metadata  `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateLeadRequest represents the request body for submitting a lead.
type CreateLeadRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Company        string `json:"company"`
	Message        string `json:"message"`
	TurnstileToken string `json:"turnstileToken"`
	UTMSource      string `json:"utm_source"`
	UTMMedium      string `json:"utm_medium"`
	UTMCampaign    string `json:"utm_campaign"`
	Referrer       string `json:"referrer"`
	PageURL        string `json:"page_url"`
	UserAgent      string `json:"user_agent"`

	// Set server-side, never decoded from the client payload.
	Metadata Metadata `json:"-"`
}

// Normalize trims and caps every string field and lower-cases the email.
// It must run before Validate.
func (r *CreateLeadRequest) Normalize() {
	r.Name = truncate(strings.TrimSpace(r.Name), maxNameLen)
	r.Email = strings.ToLower(truncate(strings.TrimSpace(r.Email), maxEmailLen))
	r.Phone = truncate(strings.TrimSpace(r.Phone), maxPhoneLen)
	r.Company = truncate(strings.TrimSpace(r.Company), maxCompanyLen)
	r.Message = truncate(strings.TrimSpace(r.Message), maxMessageLen)
	r.TurnstileToken = strings.TrimSpace(r.TurnstileToken)
	r.UTMSource = truncate(strings.TrimSpace(r.UTMSource), maxMetaLen)
	r.UTMMedium = truncate(strings.TrimSpace(r.UTMMedium), maxMetaLen)
	r.UTMCampaign = truncate(strings.TrimSpace(r.UTMCampaign), maxMetaLen)
	r.Referrer = truncate(strings.TrimSpace(r.Referrer), maxMetaLen)
	r.PageURL = truncate(strings.TrimSpace(r.PageURL), maxMetaLen)
	r.UserAgent = truncate(strings.TrimSpace(r.UserAgent), maxMetaLen)
}

// Validate checks the normalized request field by field, in a fixed order,
// and returns the first failure.
func (r *CreateLeadRequest) Validate() error {
	if utf8.RuneCountInString(r.Name) < 2 {
		return ErrInvalidName
	}
	if !emailPattern.MatchString(r.Email) {
		return ErrInvalidEmail
	}
	if digits := countDigits(r.Phone); digits < 10 || digits > 15 {
		return ErrInvalidPhone
	}
	if utf8.RuneCountInString(r.Message) < 10 {
		return ErrInvalidMessage
	}
	if r.TurnstileToken == "" {
		return ErrMissingChallengeToken
	}
	return nil
}

// truncate caps s at max bytes without splitting a UTF-8 rune, so capped
// fields stay valid UTF-8 for storage.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
