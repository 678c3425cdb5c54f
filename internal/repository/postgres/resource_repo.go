package postgres

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/family-office/internal/errs"
	"github.com/and161185/family-office/internal/model"
)

// ResourceRepo implements repository.ResourceRepository.
type ResourceRepo struct{ db *DB }

// NewResourceRepo constructs a resource repository.
func NewResourceRepo(db *DB) *ResourceRepo { return &ResourceRepo{db: db} }

// tables maps resource types to their table; identifiers are never taken from input.
var tables = map[model.ResourceType]string{
	model.ResourceDocuments:     "documents",
	model.ResourceContacts:      "contacts",
	model.ResourceEvents:        "events",
	model.ResourceSubscriptions: "subscriptions",
}

func collect[T any](ctx context.Context, db *DB, q string, teamID uuid.UUID, scan func(pgx.Rows, *T) error) ([]T, error) {
	rows, err := db.Pool.Query(ctx, q, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var v T
		if err := scan(rows, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListDocuments returns the team's documents, newest first.
func (r *ResourceRepo) ListDocuments(ctx context.Context, teamID uuid.UUID) ([]model.Document, error) {
	const q = `
SELECT id, team_id, title, category, file_url, notes, created_by, created_at
FROM documents WHERE team_id=$1 ORDER BY created_at DESC`
	return collect(ctx, r.db, q, teamID, func(rows pgx.Rows, d *model.Document) error {
		return rows.Scan(&d.ID, &d.TeamID, &d.Title, &d.Category, &d.FileURL, &d.Notes, &d.CreatedBy, &d.CreatedAt)
	})
}

// CreateDocument inserts d and fills CreatedAt.
func (r *ResourceRepo) CreateDocument(ctx context.Context, d *model.Document) error {
	const q = `
INSERT INTO documents (id, team_id, title, category, file_url, notes, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at`
	return mapErr(r.db.Pool.QueryRow(ctx, q, d.ID, d.TeamID, d.Title, d.Category, d.FileURL, d.Notes, d.CreatedBy).
		Scan(&d.CreatedAt))
}

// ListContacts returns the team's contacts, newest first.
func (r *ResourceRepo) ListContacts(ctx context.Context, teamID uuid.UUID) ([]model.Contact, error) {
	const q = `
SELECT id, team_id, name, email, phone, relationship, notes, created_by, created_at
FROM contacts WHERE team_id=$1 ORDER BY created_at DESC`
	return collect(ctx, r.db, q, teamID, func(rows pgx.Rows, c *model.Contact) error {
		return rows.Scan(&c.ID, &c.TeamID, &c.Name, &c.Email, &c.Phone, &c.Relationship, &c.Notes, &c.CreatedBy, &c.CreatedAt)
	})
}

// CreateContact inserts c and fills CreatedAt.
func (r *ResourceRepo) CreateContact(ctx context.Context, c *model.Contact) error {
	const q = `
INSERT INTO contacts (id, team_id, name, email, phone, relationship, notes, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING created_at`
	return mapErr(r.db.Pool.QueryRow(ctx, q, c.ID, c.TeamID, c.Name, c.Email, c.Phone, c.Relationship, c.Notes, c.CreatedBy).
		Scan(&c.CreatedAt))
}

// ListEvents returns the team's events in chronological order.
func (r *ResourceRepo) ListEvents(ctx context.Context, teamID uuid.UUID) ([]model.Event, error) {
	const q = `
SELECT id, team_id, title, starts_at, ends_at, location, notes, created_by, created_at
FROM events WHERE team_id=$1 ORDER BY starts_at`
	return collect(ctx, r.db, q, teamID, func(rows pgx.Rows, e *model.Event) error {
		return rows.Scan(&e.ID, &e.TeamID, &e.Title, &e.StartsAt, &e.EndsAt, &e.Location, &e.Notes, &e.CreatedBy, &e.CreatedAt)
	})
}

// CreateEvent inserts e and fills CreatedAt.
func (r *ResourceRepo) CreateEvent(ctx context.Context, e *model.Event) error {
	const q = `
INSERT INTO events (id, team_id, title, starts_at, ends_at, location, notes, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING created_at`
	return mapErr(r.db.Pool.QueryRow(ctx, q, e.ID, e.TeamID, e.Title, e.StartsAt, e.EndsAt, e.Location, e.Notes, e.CreatedBy).
		Scan(&e.CreatedAt))
}

// ListSubscriptions returns the team's subscriptions, newest first.
func (r *ResourceRepo) ListSubscriptions(ctx context.Context, teamID uuid.UUID) ([]model.Subscription, error) {
	const q = `
SELECT id, team_id, name, provider, amount_cents, currency, billing_cycle, renews_at, created_by, created_at
FROM subscriptions WHERE team_id=$1 ORDER BY created_at DESC`
	return collect(ctx, r.db, q, teamID, func(rows pgx.Rows, s *model.Subscription) error {
		return rows.Scan(&s.ID, &s.TeamID, &s.Name, &s.Provider, &s.AmountCents, &s.Currency, &s.BillingCycle, &s.RenewsAt, &s.CreatedBy, &s.CreatedAt)
	})
}

// CreateSubscription inserts s and fills CreatedAt.
func (r *ResourceRepo) CreateSubscription(ctx context.Context, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (id, team_id, name, provider, amount_cents, currency, billing_cycle, renews_at, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING created_at`
	return mapErr(r.db.Pool.QueryRow(ctx, q, s.ID, s.TeamID, s.Name, s.Provider, s.AmountCents, s.Currency, s.BillingCycle, s.RenewsAt, s.CreatedBy).
		Scan(&s.CreatedAt))
}

// Delete removes a record of type t scoped to teamID.
func (r *ResourceRepo) Delete(ctx context.Context, t model.ResourceType, teamID, id uuid.UUID) error {
	table, ok := tables[t]
	if !ok {
		return fmt.Errorf("resource type %q: %w", t, errs.ErrValidation)
	}
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM `+table+` WHERE id=$1 AND team_id=$2`, id, teamID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Count returns per-type record counts; every known type is present in the result.
func (r *ResourceRepo) Count(ctx context.Context, teamID uuid.UUID) (map[model.ResourceType]int64, error) {
	const q = `
SELECT 'documents', count(*) FROM documents WHERE team_id=$1
UNION ALL SELECT 'contacts', count(*) FROM contacts WHERE team_id=$1
UNION ALL SELECT 'events', count(*) FROM events WHERE team_id=$1
UNION ALL SELECT 'subscriptions', count(*) FROM subscriptions WHERE team_id=$1`
	rows, err := r.db.Pool.Query(ctx, q, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[model.ResourceType]int64, len(model.ResourceTypes))
	for _, t := range model.ResourceTypes {
		out[t] = 0
	}
	for rows.Next() {
		var (
			t string
			n int64
		)
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		out[model.ResourceType(t)] = n
	}
	return out, rows.Err()
}
