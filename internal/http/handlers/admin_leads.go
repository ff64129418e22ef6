package handlers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/estudiolume/leads-api/internal/leads"
	"github.com/estudiolume/leads-api/internal/observability/metrics"
	"github.com/estudiolume/leads-api/pkg/logging"
)

// AdminLeadsHandler handles the authenticated lead moderation endpoints.
// Authorization happens in middleware before any of these run.
type AdminLeadsHandler struct {
	repo    leads.Repository
	metrics *metrics.LeadMetrics
	logger  *logging.Logger
	now     func() time.Time
}

// NewAdminLeadsHandler creates a new admin leads handler.
func NewAdminLeadsHandler(repo leads.Repository, leadMetrics *metrics.LeadMetrics, logger *logging.Logger) *AdminLeadsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminLeadsHandler{
		repo:    repo,
		metrics: leadMetrics,
		logger:  logger,
		now:     time.Now,
	}
}

// ListResponse is the paginated admin listing payload.
type ListResponse struct {
	Items    []*leads.Lead `json:"items"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
	Total    int           `json:"total"`
}

// List returns a filtered, paginated page of leads.
// GET /api/admin/leads?page=&pageSize=&status=&days=&search=
func (h *AdminLeadsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r)

	items, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err)
		h.metrics.ObserveAdminRequest("list", "error")
		writeError(w, http.StatusInternalServerError, "could not load leads")
		return
	}

	h.metrics.ObserveAdminRequest("list", "ok")
	writeJSON(w, http.StatusOK, ListResponse{
		Items:    items,
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Total:    total,
	})
}

// UpdateRequest is the PATCH body for moderating a lead.
type UpdateRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// Update sets the status and notes of a lead and returns the updated
// record. Only these two fields are admin-writable.
// PATCH /api/admin/leads
func (h *AdminLeadsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "a valid JSON payload is required")
		return
	}

	req.ID = strings.TrimSpace(req.ID)
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	req.Notes = strings.TrimSpace(req.Notes)

	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "a lead id is required")
		return
	}
	if !leads.ValidStatus(req.Status) {
		writeError(w, http.StatusBadRequest, leads.ErrInvalidStatus.Error())
		return
	}

	lead, err := h.repo.UpdateStatus(r.Context(), req.ID, req.Status, req.Notes)
	if err != nil {
		if errors.Is(err, leads.ErrLeadNotFound) {
			h.metrics.ObserveAdminRequest("update", "not_found")
			writeError(w, http.StatusNotFound, leads.ErrLeadNotFound.Error())
			return
		}
		h.logger.Error("failed to update lead", "error", err, "id", req.ID)
		h.metrics.ObserveAdminRequest("update", "error")
		writeError(w, http.StatusInternalServerError, "could not update the lead")
		return
	}

	h.metrics.ObserveAdminRequest("update", "ok")
	writeJSON(w, http.StatusOK, map[string]*leads.Lead{"item": lead})
}

// csvHeader is the fixed export column set, in order.
var csvHeader = []string{
	"id", "created_at", "status", "name", "email", "phone", "company",
	"message", "utm_source", "utm_medium", "utm_campaign", "referrer",
	"page_url", "user_agent", "notes",
}

// Export streams the filtered leads as CSV, newest first.
// GET /api/admin/leads/export?status=&days=&search=
func (h *AdminLeadsHandler) Export(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r)

	items, err := h.repo.Export(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to export leads", "error", err)
		h.metrics.ObserveAdminRequest("export", "error")
		writeError(w, http.StatusInternalServerError, "could not export leads")
		return
	}

	filename := fmt.Sprintf("leads-%s.csv", h.now().Format("20060102-1504"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	writer := csv.NewWriter(w)
	_ = writer.Write(csvHeader)
	for _, lead := range items {
		notes := ""
		if lead.Notes != nil {
			notes = *lead.Notes
		}
		_ = writer.Write([]string{
			lead.ID,
			lead.CreatedAt.UTC().Format(time.RFC3339),
			string(lead.Status),
			lead.Name,
			lead.Email,
			lead.Phone,
			lead.Company,
			lead.Message,
			lead.UTMSource,
			lead.UTMMedium,
			lead.UTMCampaign,
			lead.Referrer,
			lead.PageURL,
			lead.UserAgent,
			notes,
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		h.logger.Error("csv write failed", "error", err)
	}

	h.metrics.ObserveAdminRequest("export", "ok")
}

// parseFilter reads the shared list/export query parameters. Days defaults
// to 30; unrecognized values are dropped by ListFilter.Normalize.
func parseFilter(r *http.Request) leads.ListFilter {
	params := r.URL.Query()

	page, _ := strconv.Atoi(params.Get("page"))
	pageSize, _ := strconv.Atoi(params.Get("pageSize"))

	days := 30
	if raw := params.Get("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			days = parsed
		} else {
			days = 0
		}
	}

	filter := leads.ListFilter{
		Status:   params.Get("status"),
		Days:     days,
		Search:   params.Get("search"),
		Page:     page,
		PageSize: pageSize,
	}
	filter.Normalize()
	return filter
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
