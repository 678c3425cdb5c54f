// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/family-office/internal/model"
)

// UserRepository stores accounts.
type UserRepository interface {
	// CreateWithTeam inserts a user, a team owned by them and the owner membership atomically.
	CreateWithTeam(ctx context.Context, u *model.User, t *model.Team) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail loads a user by (lower-cased) email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// MarkEmailVerified flips email_verified to true.
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
}

// TeamRepository answers tenancy questions.
type TeamRepository interface {
	// IsMember reports whether userID belongs to teamID.
	IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error)
	// PrimaryTeam returns the team the user joined first.
	PrimaryTeam(ctx context.Context, userID uuid.UUID) (*model.Team, error)
}

// VerificationRepository stores hashed email verification tokens.
type VerificationRepository interface {
	// Replace deletes the user's pending tokens and stores v.
	Replace(ctx context.Context, v model.EmailVerification) error
	// Consume deletes the token and returns its user if it had not expired at now.
	Consume(ctx context.Context, tokenHash []byte, now time.Time) (uuid.UUID, error)
}

// ResourceRepository stores the per-team business records.
type ResourceRepository interface {
	ListDocuments(ctx context.Context, teamID uuid.UUID) ([]model.Document, error)
	CreateDocument(ctx context.Context, d *model.Document) error
	ListContacts(ctx context.Context, teamID uuid.UUID) ([]model.Contact, error)
	CreateContact(ctx context.Context, c *model.Contact) error
	ListEvents(ctx context.Context, teamID uuid.UUID) ([]model.Event, error)
	CreateEvent(ctx context.Context, e *model.Event) error
	ListSubscriptions(ctx context.Context, teamID uuid.UUID) ([]model.Subscription, error)
	CreateSubscription(ctx context.Context, s *model.Subscription) error

	// Delete removes one record of type t that belongs to teamID.
	Delete(ctx context.Context, t model.ResourceType, teamID, id uuid.UUID) error
	// Count returns the number of records per type for teamID.
	Count(ctx context.Context, teamID uuid.UUID) (map[model.ResourceType]int64, error)
}
