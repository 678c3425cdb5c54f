package service

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/family-office/internal/errs"
	"github.com/and161185/family-office/internal/model"
	"github.com/and161185/family-office/internal/repository"
)

type fakeResources struct {
	docs    []model.Document
	conts   []model.Contact
	events  []model.Event
	subs    []model.Subscription
	deleted []uuid.UUID
	counts  map[model.ResourceType]int64
}

var _ repository.ResourceRepository = (*fakeResources)(nil)

func (f *fakeResources) ListDocuments(context.Context, uuid.UUID) ([]model.Document, error) {
	return f.docs, nil
}
func (f *fakeResources) CreateDocument(_ context.Context, d *model.Document) error {
	f.docs = append(f.docs, *d)
	return nil
}
func (f *fakeResources) ListContacts(context.Context, uuid.UUID) ([]model.Contact, error) {
	return f.conts, nil
}
func (f *fakeResources) CreateContact(_ context.Context, c *model.Contact) error {
	f.conts = append(f.conts, *c)
	return nil
}
func (f *fakeResources) ListEvents(context.Context, uuid.UUID) ([]model.Event, error) {
	return f.events, nil
}
func (f *fakeResources) CreateEvent(_ context.Context, e *model.Event) error {
	f.events = append(f.events, *e)
	return nil
}
func (f *fakeResources) ListSubscriptions(context.Context, uuid.UUID) ([]model.Subscription, error) {
	return f.subs, nil
}
func (f *fakeResources) CreateSubscription(_ context.Context, s *model.Subscription) error {
	f.subs = append(f.subs, *s)
	return nil
}
func (f *fakeResources) Delete(_ context.Context, _ model.ResourceType, _, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}
func (f *fakeResources) Count(context.Context, uuid.UUID) (map[model.ResourceType]int64, error) {
	return f.counts, nil
}

func newResources(t *testing.T) (*ResourceServiceImpl, *fakeResources, Actor, uuid.UUID) {
	t.Helper()
	users := newFakeUsers()
	owner := uuid.Must(uuid.NewV4())
	team := &model.Team{ID: uuid.Must(uuid.NewV4()), Name: "Smiths", OwnerID: owner}
	users.teams[owner] = team
	repo := &fakeResources{}
	return NewResourceService(repo, users), repo, Actor{UserID: owner, EmailVerified: true}, team.ID
}

func TestResources_Authorization(t *testing.T) {
	t.Parallel()
	svc, _, actor, team := newResources(t)
	ctx := context.Background()

	_, err := svc.List(ctx, Actor{}, team, model.ResourceDocuments)
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	_, err = svc.List(ctx, Actor{UserID: uuid.Must(uuid.NewV4())}, team, model.ResourceDocuments)
	require.ErrorIs(t, err, errs.ErrForbidden)

	_, err = svc.List(ctx, actor, uuid.Must(uuid.NewV4()), model.ResourceDocuments)
	require.ErrorIs(t, err, errs.ErrForbidden)

	_, err = svc.List(ctx, actor, team, model.ResourceType("pets"))
	require.ErrorIs(t, err, errs.ErrNotFound)

	unverified := Actor{UserID: actor.UserID}
	_, err = svc.List(ctx, unverified, team, model.ResourceContacts)
	require.NoError(t, err)
	_, err = svc.Create(ctx, unverified, team, model.ResourceContacts, Fields{"name": "x"})
	require.ErrorIs(t, err, errs.ErrEmailUnverified)
}

func TestResources_CreateEachType(t *testing.T) {
	t.Parallel()
	svc, repo, actor, team := newResources(t)
	ctx := context.Background()

	got, err := svc.Create(ctx, actor, team, model.ResourceDocuments, Fields{"title": " Will ", "category": "legal"})
	require.NoError(t, err)
	d := got.(*model.Document)
	require.Equal(t, "Will", d.Title)
	require.Equal(t, team, d.TeamID)
	require.Equal(t, actor.UserID, d.CreatedBy)
	require.NotEqual(t, uuid.Nil, d.ID)

	_, err = svc.Create(ctx, actor, team, model.ResourceContacts, Fields{"name": "Dr. Who", "phone": "555"})
	require.NoError(t, err)
	require.Equal(t, "555", repo.conts[0].Phone)

	_, err = svc.Create(ctx, actor, team, model.ResourceEvents, Fields{
		"title": "Board", "startsAt": "2026-05-01T09:00:00+02:00", "endsAt": "2026-05-01T10:00:00+02:00",
	})
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 5, 1, 7, 0, 0, 0, time.UTC), repo.events[0].StartsAt)

	got, err = svc.Create(ctx, actor, team, model.ResourceSubscriptions, Fields{"name": "Netflix", "amount": "15.99", "currency": "eur"})
	require.NoError(t, err)
	s := got.(*model.Subscription)
	require.Equal(t, int64(1599), s.AmountCents)
	require.Equal(t, "EUR", s.Currency)
	require.Equal(t, "monthly", s.BillingCycle)
	require.Nil(t, s.RenewsAt)
}

func TestResources_CreateValidation(t *testing.T) {
	t.Parallel()
	svc, _, actor, team := newResources(t)
	cases := []struct {
		name string
		t    model.ResourceType
		f    Fields
	}{
		{"document without title", model.ResourceDocuments, Fields{"title": "  "}},
		{"contact without name", model.ResourceContacts, Fields{}},
		{"event without start", model.ResourceEvents, Fields{"title": "x"}},
		{"event bad start", model.ResourceEvents, Fields{"title": "x", "startsAt": "tomorrow"}},
		{"event ends first", model.ResourceEvents, Fields{"title": "x", "startsAt": "2026-05-01T10:00:00Z", "endsAt": "2026-05-01T09:00:00Z"}},
		{"subscription bad amount", model.ResourceSubscriptions, Fields{"name": "x", "amount": "1.999"}},
		{"subscription bad cycle", model.ResourceSubscriptions, Fields{"name": "x", "amount": "1", "billingCycle": "daily"}},
		{"subscription bad currency", model.ResourceSubscriptions, Fields{"name": "x", "amount": "1", "currency": "dollars"}},
		{"subscription bad renewal", model.ResourceSubscriptions, Fields{"name": "x", "amount": "1", "renewsAt": "soon"}},
	}
	for _, tc := range cases {
		_, err := svc.Create(context.Background(), actor, team, tc.t, tc.f)
		require.ErrorIs(t, err, errs.ErrValidation, tc.name)
	}
}

func TestParseCents(t *testing.T) {
	t.Parallel()
	good := map[string]int64{"0": 0, "15": 1500, "15.9": 1590, "15.99": 1599, "0.05": 5, "1200.00": 120000}
	for in, want := range good {
		got, err := parseCents(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	for _, in := range []string{"", ".5", "5.", "-1", "1.234", "1,5", "1e3", "+3", "99999999999999999999"} {
		_, err := parseCents(in)
		require.ErrorIs(t, err, errs.ErrValidation, in)
	}
}

func TestResources_ListAndDelete(t *testing.T) {
	t.Parallel()
	svc, repo, actor, team := newResources(t)
	ctx := context.Background()
	repo.subs = []model.Subscription{{Name: "Gym"}}

	got, err := svc.List(ctx, actor, team, model.ResourceSubscriptions)
	require.NoError(t, err)
	require.Equal(t, repo.subs, got)

	id := uuid.Must(uuid.NewV4())
	require.NoError(t, svc.Delete(ctx, actor, team, model.ResourceEvents, id))
	require.Equal(t, []uuid.UUID{id}, repo.deleted)
	require.ErrorIs(t, svc.Delete(ctx, actor, team, model.ResourceEvents, uuid.Nil), errs.ErrValidation)
}

func TestResources_Summary(t *testing.T) {
	t.Parallel()
	svc, repo, actor, team := newResources(t)
	repo.counts = map[model.ResourceType]int64{model.ResourceDocuments: 2}

	sum, err := svc.Summary(context.Background(), actor)
	require.NoError(t, err)
	require.Equal(t, team, sum.Team.ID)
	require.Equal(t, int64(2), sum.Counts[model.ResourceDocuments])

	_, err = svc.Summary(context.Background(), Actor{UserID: uuid.Must(uuid.NewV4())})
	require.ErrorIs(t, err, errs.ErrNotFound)
	_, err = svc.Summary(context.Background(), Actor{})
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestResources_DeleteNeedsVerifiedEmail(t *testing.T) {
	t.Parallel()
	svc, repo, actor, team := newResources(t)
	actor.EmailVerified = false

	err := svc.Delete(context.Background(), actor, team, model.ResourceDocuments, uuid.Must(uuid.NewV4()))
	require.ErrorIs(t, err, errs.ErrEmailUnverified)
	require.Empty(t, repo.deleted)
}
