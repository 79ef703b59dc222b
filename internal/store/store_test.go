package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusmatch/campusmatch/pkg/match"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUserRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := &match.UserProfile{
		Name:           "Ada",
		Interests:      []string{"gym", "coding"},
		PreferredTimes: []string{"weekday evenings"},
		Location:       &match.GeoPoint{Lat: 47.6553, Lng: -122.3035},
		LocationText:   "North Campus",
	}
	require.NoError(t, s.CreateUser(ctx, u))
	require.Greater(t, u.ID, int64(0))

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Name, got.Name)
	assert.Equal(t, u.Interests, got.Interests)
	assert.Equal(t, u.PreferredTimes, got.PreferredTimes)
	require.NotNil(t, got.Location)
	assert.InDelta(t, 47.6553, got.Location.Lat, 1e-9)
	assert.Equal(t, "North Campus", got.LocationText)
}

func TestGetUserMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetUser(context.Background(), 999)
	assert.Error(t, err)
}

func TestGetUsersBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := &match.UserProfile{Name: "Ada"}
	b := &match.UserProfile{Name: "Ben"}
	require.NoError(t, s.CreateUser(ctx, a))
	require.NoError(t, s.CreateUser(ctx, b))

	profiles, err := s.GetUsers(ctx, []int64{a.ID, b.ID, 999})
	require.NoError(t, err)
	assert.Len(t, profiles, 2)
	assert.Equal(t, "Ada", profiles[a.ID].Name)

	empty, err := s.GetUsers(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestActivityRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := &match.UserProfile{Name: "Ada"}
	require.NoError(t, s.CreateUser(ctx, owner))

	a := &match.Activity{
		OwnerID:      owner.ID,
		Title:        "Evening Gym Workout",
		Description:  "casual session",
		Times:        []string{"weekday evenings"},
		MaxPeople:    6,
		LocationText: "IMA Building",
		LocationName: "IMA",
	}
	require.NoError(t, s.CreateActivity(ctx, a))
	require.Greater(t, a.ID, int64(0))

	got, err := s.GetActivity(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Title, got.Title)
	assert.Equal(t, a.Times, got.Times)
	assert.Equal(t, match.StatusActive, got.Status)
	assert.Equal(t, 1, got.CurrentPeople) // owner counts as a member
	assert.Nil(t, got.Location)
}

func TestListJoinableFiltering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ada := &match.UserProfile{Name: "Ada"}
	ben := &match.UserProfile{Name: "Ben"}
	require.NoError(t, s.CreateUser(ctx, ada))
	require.NoError(t, s.CreateUser(ctx, ben))

	joinable := &match.Activity{OwnerID: ada.ID, Title: "Joinable", MaxPeople: 6}
	own := &match.Activity{OwnerID: ben.ID, Title: "Own", MaxPeople: 6}
	full := &match.Activity{OwnerID: ada.ID, Title: "Full", MaxPeople: 2, CurrentPeople: 2}
	closed := &match.Activity{OwnerID: ada.ID, Title: "Closed", MaxPeople: 6, Status: match.StatusClosed}
	requested := &match.Activity{OwnerID: ada.ID, Title: "Requested", MaxPeople: 6}

	for _, a := range []*match.Activity{joinable, own, full, closed, requested} {
		require.NoError(t, s.CreateActivity(ctx, a))
	}
	require.NoError(t, s.AddParticipation(ctx, ben.ID, requested.ID))

	got, err := s.ListJoinable(ctx, ben.ID, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Joinable", got[0].Title)
}

func TestParticipationLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ada := &match.UserProfile{Name: "Ada"}
	ben := &match.UserProfile{Name: "Ben"}
	require.NoError(t, s.CreateUser(ctx, ada))
	require.NoError(t, s.CreateUser(ctx, ben))

	a := &match.Activity{OwnerID: ada.ID, Title: "Gym", MaxPeople: 3}
	require.NoError(t, s.CreateActivity(ctx, a))

	require.NoError(t, s.AddParticipation(ctx, ben.ID, a.ID))

	// Approving bumps the member count.
	require.NoError(t, s.SetParticipationStatus(ctx, ben.ID, a.ID, match.ParticipationApproved))
	got, err := s.GetActivity(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentPeople)

	// Approving again is a no-op for the counter.
	require.NoError(t, s.SetParticipationStatus(ctx, ben.ID, a.ID, match.ParticipationApproved))
	got, err = s.GetActivity(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentPeople)

	// Declining an approved member frees the seat.
	require.NoError(t, s.SetParticipationStatus(ctx, ben.ID, a.ID, match.ParticipationDeclined))
	got, err = s.GetActivity(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentPeople)

	recs, err := s.ListParticipations(ctx, ParticipationOpts{UserID: ben.ID})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, match.ParticipationDeclined, recs[0].Status)
}

func TestApproveFullActivityFails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ada := &match.UserProfile{Name: "Ada"}
	ben := &match.UserProfile{Name: "Ben"}
	require.NoError(t, s.CreateUser(ctx, ada))
	require.NoError(t, s.CreateUser(ctx, ben))

	a := &match.Activity{OwnerID: ada.ID, Title: "Duo", MaxPeople: 2, CurrentPeople: 2}
	require.NoError(t, s.CreateActivity(ctx, a))
	require.NoError(t, s.AddParticipation(ctx, ben.ID, a.ID))

	err := s.SetParticipationStatus(ctx, ben.ID, a.ID, match.ParticipationApproved)
	assert.ErrorContains(t, err, "full")
}

func TestConnectionsSymmetric(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ada := &match.UserProfile{Name: "Ada"}
	ben := &match.UserProfile{Name: "Ben"}
	require.NoError(t, s.CreateUser(ctx, ada))
	require.NoError(t, s.CreateUser(ctx, ben))

	require.NoError(t, s.AddConnection(ctx, ben.ID, ada.ID))
	// Duplicate in either direction is a no-op.
	require.NoError(t, s.AddConnection(ctx, ada.ID, ben.ID))

	fromAda, err := s.ListConnections(ctx, ada.ID)
	require.NoError(t, err)
	assert.True(t, fromAda[ben.ID])

	fromBen, err := s.ListConnections(ctx, ben.ID)
	require.NoError(t, err)
	assert.True(t, fromBen[ada.ID])

	assert.Error(t, s.AddConnection(ctx, ada.ID, ada.ID))
}

func TestExpireActivities(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ada := &match.UserProfile{Name: "Ada"}
	require.NoError(t, s.CreateUser(ctx, ada))

	old := &match.Activity{
		OwnerID:   ada.ID,
		Title:     "Old",
		MaxPeople: 6,
		CreatedAt: time.Now().UTC().Add(-90 * 24 * time.Hour),
	}
	fresh := &match.Activity{OwnerID: ada.ID, Title: "Fresh", MaxPeople: 6}
	require.NoError(t, s.CreateActivity(ctx, old))
	require.NoError(t, s.CreateActivity(ctx, fresh))

	n, err := s.ExpireActivities(ctx, time.Now().UTC().Add(-60*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	counts, err := s.CountActivitiesByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[match.StatusActive])
	assert.Equal(t, 1, counts[match.StatusClosed])
}

func TestUpsertImported(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ada := &match.UserProfile{Name: "Ada"}
	require.NoError(t, s.CreateUser(ctx, ada))

	a := &match.Activity{OwnerID: ada.ID, Title: "Club Fair", MaxPeople: 20}
	require.NoError(t, s.UpsertImported(ctx, "feed:events:guid-1", a))

	// Same external id refreshes the entry instead of duplicating it.
	b := &match.Activity{OwnerID: ada.ID, Title: "Club Fair (updated)", MaxPeople: 20}
	require.NoError(t, s.UpsertImported(ctx, "feed:events:guid-1", b))

	activities, err := s.ListActivities(ctx, ListOpts{OwnerID: ada.ID})
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "Club Fair (updated)", activities[0].Title)

	err = s.UpsertImported(ctx, "", a)
	assert.Error(t, err)
}
