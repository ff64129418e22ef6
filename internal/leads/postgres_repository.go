package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repository needs. pgxmock satisfies
// it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db  DB
	now func() time.Time
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{db: db, now: time.Now}
}

const leadColumns = `id, name, email, phone, company, message, status, notes,
		utm_source, utm_medium, utm_campaign, referrer, page_url, user_agent,
		metadata, created_at`

// Exports are bounded even when unpaginated.
const exportLimit = 10000

// Create inserts a new row with status "new" and empty notes. Contact and
// provenance fields are never updated after this insert.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	id := uuid.New()
	metadata, err := json.Marshal(req.Metadata)
	if err != nil {
		return nil, fmt.Errorf("leads: marshal metadata: %w", err)
	}

	query := `
		INSERT INTO leads (id, name, email, phone, company, message, status,
			utm_source, utm_medium, utm_campaign, referrer, page_url, user_agent, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		req.Name,
		req.Email,
		req.Phone,
		req.Company,
		req.Message,
		string(StatusNew),
		req.UTMSource,
		req.UTMMedium,
		req.UTMCampaign,
		req.Referrer,
		req.PageURL,
		req.UserAgent,
		metadata,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}

	return &Lead{
		ID:          id.String(),
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
		CreatedAt:   createdAt,
	}, nil
}

// List returns the filtered page plus the total match count, newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, int, error) {
	filter.Normalize()
	whereClause, args := r.buildWhere(filter)

	var total int
	countQuery := "SELECT count(*) FROM leads" + whereClause
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("leads: count failed: %w", err)
	}

	pageArgs := append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)
	pageQuery := fmt.Sprintf(
		"SELECT %s FROM leads%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		leadColumns, whereClause, len(args)+1, len(args)+2,
	)
	rows, err := r.db.Query(ctx, pageQuery, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("leads: select failed: %w", err)
	}
	defer rows.Close()

	items, err := scanLeads(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UpdateStatus sets the moderation state and notes of a lead. Empty notes
// are stored as NULL.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status string, notes string) (*Lead, error) {
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	var notesArg *string
	if notes != "" {
		notesArg = &notes
	}

	query := fmt.Sprintf(
		"UPDATE leads SET status = $2, notes = $3 WHERE id = $1 RETURNING %s",
		leadColumns,
	)
	lead, err := scanLead(r.db.QueryRow(ctx, query, id, status, notesArg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: update failed: %w", err)
	}
	return lead, nil
}

// Export returns every matching lead, newest first, without pagination.
func (r *PostgresRepository) Export(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	filter.Normalize()
	whereClause, args := r.buildWhere(filter)

	query := fmt.Sprintf(
		"SELECT %s FROM leads%s ORDER BY created_at DESC LIMIT %d",
		leadColumns, whereClause, exportLimit,
	)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("leads: export failed: %w", err)
	}
	defer rows.Close()

	return scanLeads(rows)
}

func (r *PostgresRepository) buildWhere(filter ListFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if cutoff := filter.cutoff(r.now()); !cutoff.IsZero() {
		args = append(args, cutoff)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)", n, n, n))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	clause := " WHERE " + conditions[0]
	for _, cond := range conditions[1:] {
		clause += " AND " + cond
	}
	return clause, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*Lead, error) {
	var lead Lead
	var status string
	var metadata []byte
	if err := row.Scan(
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Company,
		&lead.Message,
		&status,
		&lead.Notes,
		&lead.UTMSource,
		&lead.UTMMedium,
		&lead.UTMCampaign,
		&lead.Referrer,
		&lead.PageURL,
		&lead.UserAgent,
		&metadata,
		&lead.CreatedAt,
	); err != nil {
		return nil, err
	}
	lead.Status = Status(status)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &lead.Metadata); err != nil {
			return nil, fmt.Errorf("leads: unmarshal metadata: %w", err)
		}
	}
	return &lead, nil
}

func scanLeads(rows pgx.Rows) ([]*Lead, error) {
	items := []*Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		items = append(items, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: rows failed: %w", err)
	}
	return items, nil
}

var _ Repository = (*PostgresRepository)(nil)
