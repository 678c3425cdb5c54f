// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// User is an account that signs in to the family office.
type User struct {
	ID            uuid.UUID // PK
	Email         string    // unique, lower-cased
	Name          string
	PwdHash       string // encoded argon2id hash; empty for identity-provider accounts
	EmailVerified bool
	CreatedAt     time.Time
}

// Team is the tenant boundary: every business record belongs to exactly one team.
type Team struct {
	ID        uuid.UUID
	Name      string
	OwnerID   uuid.UUID // FK -> users.id
	CreatedAt time.Time
}

// EmailVerification is a pending verification; only the token hash is stored.
type EmailVerification struct {
	TokenHash []byte
	UserID    uuid.UUID
	ExpiresAt time.Time
}

// ResourceType enumerates the business record kinds a team manages.
type ResourceType string

const (
	ResourceDocuments     ResourceType = "documents"
	ResourceContacts      ResourceType = "contacts"
	ResourceEvents        ResourceType = "events"
	ResourceSubscriptions ResourceType = "subscriptions"
)

// ResourceTypes lists every known resource type in display order.
var ResourceTypes = []ResourceType{ResourceDocuments, ResourceContacts, ResourceEvents, ResourceSubscriptions}

// Valid reports whether t is a known resource type.
func (t ResourceType) Valid() bool {
	for _, v := range ResourceTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Document is a reference to a stored file plus metadata. File bytes live elsewhere.
type Document struct {
	ID        uuid.UUID `json:"id"`
	TeamID    uuid.UUID `json:"teamId"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	FileURL   string    `json:"fileUrl"`
	Notes     string    `json:"notes"`
	CreatedBy uuid.UUID `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// Contact is a person or organisation the family deals with.
type Contact struct {
	ID           uuid.UUID `json:"id"`
	TeamID       uuid.UUID `json:"teamId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Relationship string    `json:"relationship"`
	Notes        string    `json:"notes"`
	CreatedBy    uuid.UUID `json:"createdBy"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Event is a dated entry on the family calendar.
type Event struct {
	ID        uuid.UUID  `json:"id"`
	TeamID    uuid.UUID  `json:"teamId"`
	Title     string     `json:"title"`
	StartsAt  time.Time  `json:"startsAt"`
	EndsAt    *time.Time `json:"endsAt,omitempty"`
	Location  string     `json:"location"`
	Notes     string     `json:"notes"`
	CreatedBy uuid.UUID  `json:"createdBy"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Subscription is a recurring payment.
type Subscription struct {
	ID           uuid.UUID  `json:"id"`
	TeamID       uuid.UUID  `json:"teamId"`
	Name         string     `json:"name"`
	Provider     string     `json:"provider"`
	AmountCents  int64      `json:"amountCents"`
	Currency     string     `json:"currency"`
	BillingCycle string     `json:"billingCycle"` // monthly | yearly | weekly
	RenewsAt     *time.Time `json:"renewsAt,omitempty"`
	CreatedBy    uuid.UUID  `json:"createdBy"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// TeamSummary counts records per resource type for the dashboard.
type TeamSummary struct {
	Team   Team
	Counts map[ResourceType]int64
}
