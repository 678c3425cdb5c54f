package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/family-office/internal/errs"
	"github.com/and161185/family-office/internal/model"
	"github.com/and161185/family-office/internal/repository"
)

// Actor is the authenticated caller of a resource operation.
type Actor struct {
	UserID        uuid.UUID
	EmailVerified bool
}

// Fields is a flat string form, as submitted by the web forms and the wizard.
type Fields map[string]string

// ResourceService defines team-scoped operations over business records.
type ResourceService interface {
	// List returns all records of type t in the team.
	List(ctx context.Context, a Actor, teamID uuid.UUID, t model.ResourceType) (any, error)
	// Create validates f, converts it to a record of type t and stores it.
	Create(ctx context.Context, a Actor, teamID uuid.UUID, t model.ResourceType, f Fields) (any, error)
	// Delete removes one record of type t. Like Create it needs a verified email.
	Delete(ctx context.Context, a Actor, teamID uuid.UUID, t model.ResourceType, id uuid.UUID) error
	// Summary counts the records of the actor's primary team.
	Summary(ctx context.Context, a Actor) (*model.TeamSummary, error)
}

type ResourceServiceImpl struct {
	repo  repository.ResourceRepository
	teams repository.TeamRepository
}

// NewResourceService constructs ResourceService.
func NewResourceService(repo repository.ResourceRepository, teams repository.TeamRepository) *ResourceServiceImpl {
	return &ResourceServiceImpl{repo: repo, teams: teams}
}

func (s *ResourceServiceImpl) authorize(ctx context.Context, a Actor, teamID uuid.UUID, t model.ResourceType) error {
	if a.UserID == uuid.Nil {
		return errs.ErrUnauthorized
	}
	if !t.Valid() {
		return fmt.Errorf("resource type %q: %w", t, errs.ErrNotFound)
	}
	ok, err := s.teams.IsMember(ctx, teamID, a.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.ErrForbidden
	}
	return nil
}

// List returns the team's records of type t.
func (s *ResourceServiceImpl) List(ctx context.Context, a Actor, teamID uuid.UUID, t model.ResourceType) (any, error) {
	if err := s.authorize(ctx, a, teamID, t); err != nil {
		return nil, err
	}
	switch t {
	case model.ResourceDocuments:
		return s.repo.ListDocuments(ctx, teamID)
	case model.ResourceContacts:
		return s.repo.ListContacts(ctx, teamID)
	case model.ResourceEvents:
		return s.repo.ListEvents(ctx, teamID)
	default:
		return s.repo.ListSubscriptions(ctx, teamID)
	}
}

// Create requires a verified email address.
func (s *ResourceServiceImpl) Create(ctx context.Context, a Actor, teamID uuid.UUID, t model.ResourceType, f Fields) (any, error) {
	if err := s.authorize(ctx, a, teamID, t); err != nil {
		return nil, err
	}
	if !a.EmailVerified {
		return nil, errs.ErrEmailUnverified
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	switch t {
	case model.ResourceDocuments:
		d, err := documentFrom(f)
		if err != nil {
			return nil, err
		}
		d.ID, d.TeamID, d.CreatedBy = id, teamID, a.UserID
		return d, s.repo.CreateDocument(ctx, d)
	case model.ResourceContacts:
		c, err := contactFrom(f)
		if err != nil {
			return nil, err
		}
		c.ID, c.TeamID, c.CreatedBy = id, teamID, a.UserID
		return c, s.repo.CreateContact(ctx, c)
	case model.ResourceEvents:
		e, err := eventFrom(f)
		if err != nil {
			return nil, err
		}
		e.ID, e.TeamID, e.CreatedBy = id, teamID, a.UserID
		return e, s.repo.CreateEvent(ctx, e)
	default:
		sub, err := subscriptionFrom(f)
		if err != nil {
			return nil, err
		}
		sub.ID, sub.TeamID, sub.CreatedBy = id, teamID, a.UserID
		return sub, s.repo.CreateSubscription(ctx, sub)
	}
}

// Delete removes a record scoped to the team.
func (s *ResourceServiceImpl) Delete(ctx context.Context, a Actor, teamID uuid.UUID, t model.ResourceType, id uuid.UUID) error {
	if err := s.authorize(ctx, a, teamID, t); err != nil {
		return err
	}
	if !a.EmailVerified {
		return errs.ErrEmailUnverified
	}
	if id == uuid.Nil {
		return fmt.Errorf("empty id: %w", errs.ErrValidation)
	}
	return s.repo.Delete(ctx, t, teamID, id)
}

// Summary returns per-type counts for the actor's primary team.
func (s *ResourceServiceImpl) Summary(ctx context.Context, a Actor) (*model.TeamSummary, error) {
	if a.UserID == uuid.Nil {
		return nil, errs.ErrUnauthorized
	}
	t, err := s.teams.PrimaryTeam(ctx, a.UserID)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.Count(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	return &model.TeamSummary{Team: *t, Counts: counts}, nil
}

func required(f Fields, key string) (string, error) {
	v := strings.TrimSpace(f[key])
	if v == "" {
		return "", fmt.Errorf("%s is required: %w", key, errs.ErrValidation)
	}
	return v, nil
}

func optionalTime(f Fields, key string) (*time.Time, error) {
	v := strings.TrimSpace(f[key])
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("%s: want RFC 3339 time: %w", key, errs.ErrValidation)
	}
	t = t.UTC()
	return &t, nil
}

func documentFrom(f Fields) (*model.Document, error) {
	title, err := required(f, "title")
	if err != nil {
		return nil, err
	}
	return &model.Document{
		Title:    title,
		Category: strings.TrimSpace(f["category"]),
		FileURL:  strings.TrimSpace(f["fileUrl"]),
		Notes:    f["notes"],
	}, nil
}

func contactFrom(f Fields) (*model.Contact, error) {
	name, err := required(f, "name")
	if err != nil {
		return nil, err
	}
	return &model.Contact{
		Name:         name,
		Email:        strings.TrimSpace(f["email"]),
		Phone:        strings.TrimSpace(f["phone"]),
		Relationship: strings.TrimSpace(f["relationship"]),
		Notes:        f["notes"],
	}, nil
}

func eventFrom(f Fields) (*model.Event, error) {
	title, err := required(f, "title")
	if err != nil {
		return nil, err
	}
	if _, err := required(f, "startsAt"); err != nil {
		return nil, err
	}
	starts, err := optionalTime(f, "startsAt")
	if err != nil {
		return nil, err
	}
	ends, err := optionalTime(f, "endsAt")
	if err != nil {
		return nil, err
	}
	if ends != nil && ends.Before(*starts) {
		return nil, fmt.Errorf("endsAt before startsAt: %w", errs.ErrValidation)
	}
	return &model.Event{
		Title:    title,
		StartsAt: *starts,
		EndsAt:   ends,
		Location: strings.TrimSpace(f["location"]),
		Notes:    f["notes"],
	}, nil
}

var billingCycles = map[string]bool{"weekly": true, "monthly": true, "yearly": true}

func subscriptionFrom(f Fields) (*model.Subscription, error) {
	name, err := required(f, "name")
	if err != nil {
		return nil, err
	}
	raw, err := required(f, "amount")
	if err != nil {
		return nil, err
	}
	cents, err := parseCents(raw)
	if err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(f["currency"]))
	if currency == "" {
		currency = "USD"
	}
	if len(currency) != 3 {
		return nil, fmt.Errorf("currency %q: %w", currency, errs.ErrValidation)
	}
	cycle := strings.ToLower(strings.TrimSpace(f["billingCycle"]))
	if cycle == "" {
		cycle = "monthly"
	}
	if !billingCycles[cycle] {
		return nil, fmt.Errorf("billingCycle %q: %w", cycle, errs.ErrValidation)
	}
	renews, err := optionalTime(f, "renewsAt")
	if err != nil {
		return nil, err
	}
	return &model.Subscription{
		Name:         name,
		Provider:     strings.TrimSpace(f["provider"]),
		AmountCents:  cents,
		Currency:     currency,
		BillingCycle: cycle,
		RenewsAt:     renews,
	}, nil
}

// parseCents converts a non-negative decimal amount with at most two
// fractional digits ("15", "15.9", "15.99") to cents.
func parseCents(s string) (int64, error) {
	bad := fmt.Errorf("amount %q: %w", s, errs.ErrValidation)
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" || len(frac) > 2 || (hasFrac && frac == "") {
		return 0, bad
	}
	for len(frac) < 2 {
		frac += "0"
	}
	for _, part := range []string{whole, frac} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return 0, bad
			}
		}
	}
	n, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return 0, bad
	}
	return n, nil
}
