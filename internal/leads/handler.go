package leads

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/estudiolume/leads-api/internal/http/middleware"
	"github.com/estudiolume/leads-api/internal/observability/metrics"
	"github.com/estudiolume/leads-api/pkg/logging"
)

// ChallengeVerifier confirms a client-supplied anti-spam token.
type ChallengeVerifier interface {
	Configured() bool
	Verify(ctx context.Context, token, remoteIP string) bool
}

// Notifier announces a newly created lead. Implementations must be safe
// to fail: the handler never propagates notification errors.
type Notifier interface {
	SendLeadCreated(ctx context.Context, lead *Lead) (sent bool, reason string)
}

// Handler handles the public lead submission endpoint
type Handler struct {
	repo     Repository
	verifier ChallengeVerifier
	notifier Notifier
	metrics  *metrics.LeadMetrics
	logger   *logging.Logger
}

// NewHandler creates a new leads handler. notifier and leadMetrics may be
// nil.
func NewHandler(repo Repository, verifier ChallengeVerifier, notifier Notifier, leadMetrics *metrics.LeadMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:     repo,
		verifier: verifier,
		notifier: notifier,
		metrics:  leadMetrics,
		logger:   logger,
	}
}

// Create handles POST /api/lead: validate, verify the challenge token,
// persist, then notify best-effort.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ip := middleware.ClientIP(r)

	if h.verifier == nil || !h.verifier.Configured() {
		h.logger.Error("lead intake misconfigured: challenge secret missing")
		h.metrics.ObserveSubmission("misconfigured")
		writeError(w, http.StatusInternalServerError, "server configuration is incomplete")
		return
	}

	var req CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.metrics.ObserveSubmission("bad_payload")
		writeError(w, http.StatusBadRequest, "a valid JSON payload is required")
		return
	}
	if req.UserAgent == "" {
		req.UserAgent = r.UserAgent()
	}
	req.Metadata = Metadata{
		Source:     "contact_form",
		IP:         ip,
		ReceivedAt: time.Now().UTC(),
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		h.metrics.ObserveSubmission("validation_failed")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Single attempt, fail closed: a submission is never accepted on doubt.
	if !h.verifier.Verify(r.Context(), req.TurnstileToken, ip) {
		h.metrics.ObserveSubmission("challenge_failed")
		writeError(w, http.StatusBadRequest, "anti-spam verification failed, please try again")
		return
	}

	lead, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create lead", "error", err)
		h.metrics.ObserveSubmission("persistence_error")
		writeError(w, http.StatusInternalServerError, "could not save your message, please try again")
		return
	}

	h.logger.Info("lead created", "id", lead.ID, "email", lead.Email)
	h.metrics.ObserveSubmission("created")

	h.notifyLeadCreated(r.Context(), lead)

	writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

// notifyLeadCreated is the best-effort boundary: the lead is already
// persisted, so notification failures are logged and swallowed.
func (h *Handler) notifyLeadCreated(ctx context.Context, lead *Lead) {
	if h.notifier == nil {
		h.metrics.ObserveNotification("skipped")
		return
	}
	sent, reason := h.notifier.SendLeadCreated(ctx, lead)
	if !sent {
		h.logger.Warn("lead notification not sent", "lead_id", lead.ID, "reason", reason)
		if reason == "not_configured" {
			h.metrics.ObserveNotification("skipped")
		} else {
			h.metrics.ObserveNotification("failed")
		}
		return
	}
	h.metrics.ObserveNotification("sent")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
