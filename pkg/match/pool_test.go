package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCandidatePoolFiltering(t *testing.T) {
	user := UserProfile{ID: 1}

	activities := []Activity{
		{ID: 1, OwnerID: 2, Status: StatusActive, MaxPeople: 6, CurrentPeople: 2},  // joinable
		{ID: 2, OwnerID: 1, Status: StatusActive, MaxPeople: 6, CurrentPeople: 2},  // own
		{ID: 3, OwnerID: 3, Status: StatusClosed, MaxPeople: 6, CurrentPeople: 2},  // closed
		{ID: 4, OwnerID: 4, Status: StatusActive, MaxPeople: 4, CurrentPeople: 4},  // full
		{ID: 5, OwnerID: 5, Status: StatusActive, MaxPeople: 6, CurrentPeople: 2},  // pending request
		{ID: 6, OwnerID: 6, Status: StatusActive, MaxPeople: 6, CurrentPeople: 2},  // approved request
		{ID: 7, OwnerID: 7, Status: StatusActive, MaxPeople: 6, CurrentPeople: 2},  // declined request
	}

	records := []ParticipationRecord{
		{UserID: 1, ActivityID: 5, Status: ParticipationPending},
		{UserID: 1, ActivityID: 6, Status: ParticipationApproved},
		{UserID: 1, ActivityID: 7, Status: ParticipationDeclined},
		{UserID: 2, ActivityID: 1, Status: ParticipationApproved}, // someone else's
	}

	pool := NewCandidatePool(user, activities, records)

	require.Equal(t, 2, pool.Len())
	ids := make([]int64, 0, pool.Len())
	for _, a := range pool.Activities() {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []int64{1, 7}, ids)
}

func TestNewCandidatePoolPreservesOrder(t *testing.T) {
	user := UserProfile{ID: 1}
	activities := []Activity{
		{ID: 9, OwnerID: 2, Status: StatusActive, MaxPeople: 4, CurrentPeople: 1},
		{ID: 3, OwnerID: 2, Status: StatusActive, MaxPeople: 4, CurrentPeople: 1},
		{ID: 6, OwnerID: 2, Status: StatusActive, MaxPeople: 4, CurrentPeople: 1},
	}

	pool := NewCandidatePool(user, activities, nil)
	require.Equal(t, 3, pool.Len())
	assert.Equal(t, int64(9), pool.Activities()[0].ID)
	assert.Equal(t, int64(3), pool.Activities()[1].ID)
	assert.Equal(t, int64(6), pool.Activities()[2].ID)
}

func TestPoolOfPassesThrough(t *testing.T) {
	activities := []Activity{{ID: 1}, {ID: 2}}
	pool := PoolOf(activities)
	assert.Equal(t, activities, pool.Activities())
}
