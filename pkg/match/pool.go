package match

// CandidatePool is a set of activities that passed eligibility filtering and
// may be scored for one user. The engine only accepts a CandidatePool, so an
// unfiltered activity list cannot reach the scorer by accident.
type CandidatePool struct {
	activities []Activity
}

// NewCandidatePool filters activities down to those the user can actually
// join: active with free capacity, not owned by the user, and without a
// pending or approved join request from the user. Declined requests do not
// block an activity from reappearing.
func NewCandidatePool(user UserProfile, activities []Activity, userRecords []ParticipationRecord) CandidatePool {
	requested := make(map[int64]bool, len(userRecords))
	for _, rec := range userRecords {
		if rec.UserID != user.ID {
			continue
		}
		if rec.Status == ParticipationPending || rec.Status == ParticipationApproved {
			requested[rec.ActivityID] = true
		}
	}

	var eligible []Activity
	for _, a := range activities {
		if !a.Available() {
			continue
		}
		if a.OwnerID == user.ID {
			continue
		}
		if requested[a.ID] {
			continue
		}
		eligible = append(eligible, a)
	}

	return CandidatePool{activities: eligible}
}

// PoolOf wraps already-filtered activities without re-checking eligibility.
// Callers that assemble candidates through their own query (for example a
// store-level joinable query) use this to assert the filtering happened.
func PoolOf(activities []Activity) CandidatePool {
	return CandidatePool{activities: activities}
}

// Activities returns the eligible activities in their original order.
func (p CandidatePool) Activities() []Activity {
	return p.activities
}

// Len returns the number of eligible activities.
func (p CandidatePool) Len() int {
	return len(p.activities)
}
