package leads

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage
type Repository interface {
	Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error)
	List(ctx context.Context, filter ListFilter) ([]*Lead, int, error)
	UpdateStatus(ctx context.Context, id string, status string, notes string) (*Lead, error)
	Export(ctx context.Context, filter ListFilter) ([]*Lead, error)
}

// ListFilter narrows and paginates lead queries. Call Normalize before
// handing it to a repository.
type ListFilter struct {
	Status   string
	Days     int
	Search   string
	Page     int
	PageSize int
}

// Normalize drops unrecognized filter values and clamps pagination:
// status must be a known state ("all" means no filter), days must be one
// of 7/30/90, search wildcards are stripped, page size defaults to 20 and
// is clamped to 100.
func (f *ListFilter) Normalize() {
	f.Status = strings.ToLower(strings.TrimSpace(f.Status))
	if f.Status == "all" || !ValidStatus(f.Status) {
		f.Status = ""
	}
	switch f.Days {
	case 7, 30, 90:
	default:
		f.Days = 0
	}
	f.Search = strings.TrimSpace(f.Search)
	f.Search = strings.NewReplacer("%", "", "_", "").Replace(f.Search)
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
}

func (f ListFilter) cutoff(now time.Time) time.Time {
	if f.Days == 0 {
		return time.Time{}
	}
	return now.Add(-time.Duration(f.Days) * 24 * time.Hour)
}

func (f ListFilter) matches(lead *Lead, now time.Time) bool {
	if f.Status != "" && lead.Status != Status(f.Status) {
		return false
	}
	if cutoff := f.cutoff(now); !cutoff.IsZero() && lead.CreatedAt.Before(cutoff) {
		return false
	}
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(lead.Name), term) &&
			!strings.Contains(strings.ToLower(lead.Email), term) &&
			!strings.Contains(strings.ToLower(lead.Phone), term) {
			return false
		}
	}
	return true
}

// InMemoryRepository stores leads in memory. It backs tests and local runs
// without a database.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
	now   func() time.Time
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*Lead),
		now:   time.Now,
	}
}

// Create stores a new lead with status "new" and no notes.
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	lead := &Lead{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Company:     req.Company,
		Message:     req.Message,
		Status:      StatusNew,
		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCampaign,
		Referrer:    req.Referrer,
		PageURL:     req.PageURL,
		UserAgent:   req.UserAgent,
		Metadata:    req.Metadata,
		CreatedAt:   r.now().UTC(),
	}

	r.mu.Lock()
	r.leads[lead.ID] = lead
	r.mu.Unlock()

	copied := *lead
	return &copied, nil
}

// List returns the filtered page plus the total match count.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, int, error) {
	filter.Normalize()

	matched := r.filtered(filter)
	total := len(matched)

	start := (filter.Page - 1) * filter.PageSize
	if start >= total {
		return []*Lead{}, total, nil
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// UpdateStatus sets the moderation state and notes of a lead.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id string, status string, notes string) (*Lead, error) {
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	lead.Status = Status(status)
	if notes == "" {
		lead.Notes = nil
	} else {
		n := notes
		lead.Notes = &n
	}

	copied := *lead
	return &copied, nil
}

// Export returns every matching lead, newest first.
func (r *InMemoryRepository) Export(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	filter.Normalize()
	return r.filtered(filter), nil
}

func (r *InMemoryRepository) filtered(filter ListFilter) []*Lead {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.now()
	matched := make([]*Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		if filter.matches(lead, now) {
			copied := *lead
			matched = append(matched, &copied)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched
}

var _ Repository = (*InMemoryRepository)(nil)
