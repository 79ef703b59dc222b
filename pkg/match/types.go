package match

import (
	"time"
)

// ActivityStatus is the lifecycle state of an activity.
type ActivityStatus string

const (
	StatusActive    ActivityStatus = "active"
	StatusClosed    ActivityStatus = "closed"
	StatusCancelled ActivityStatus = "cancelled"
)

// ParticipationStatus is the state of a join request.
type ParticipationStatus string

const (
	ParticipationPending  ParticipationStatus = "pending"
	ParticipationApproved ParticipationStatus = "approved"
	ParticipationDeclined ParticipationStatus = "declined"
)

// GeoPoint is a latitude/longitude pair in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// UserProfile is the slice of a user the engine scores against.
// All optional fields may be empty or nil; scoring degrades
// gracefully instead of erroring.
type UserProfile struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Interests      []string  `json:"interests"`
	PreferredTimes []string  `json:"preferred_times"`
	Location       *GeoPoint `json:"location,omitempty"`
	LocationText   string    `json:"location_text"`
}

// Activity is a joinable campus activity.
type Activity struct {
	ID            int64          `json:"id"`
	OwnerID       int64          `json:"owner_id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Times         []string       `json:"times"`
	MaxPeople     int            `json:"max_people"`
	CurrentPeople int            `json:"current_people"`
	Status        ActivityStatus `json:"status"`
	Location      *GeoPoint      `json:"location,omitempty"`
	LocationText  string         `json:"location_text"`
	LocationName  string         `json:"location_name"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Available reports whether the activity can still accept members.
func (a Activity) Available() bool {
	return a.Status == StatusActive && a.CurrentPeople < a.MaxPeople
}

// ParticipationRecord links a user to an activity they requested to join.
type ParticipationRecord struct {
	UserID     int64               `json:"user_id"`
	ActivityID int64               `json:"activity_id"`
	Status     ParticipationStatus `json:"status"`
}

// ScoringContext carries the auxiliary data the engine needs beyond the
// candidate pool: who the user is connected to, who already joined each
// candidate, and the joiners' interest profiles. The caller materializes
// all of it up front; the engine performs no I/O.
type ScoringContext struct {
	// Connections is the set of user ids connected to the requesting user.
	Connections map[int64]bool
	// Participations holds approved records for the candidate activities.
	Participations []ParticipationRecord
	// Profiles maps participant ids to their profiles. A participant
	// without a profile entry contributes nothing to collaborative scoring.
	Profiles map[int64]UserProfile
}

// Recommendation is one ranked engine result.
type Recommendation struct {
	Activity Activity `json:"activity"`
	Score    float64  `json:"score"`
	Reasons  []string `json:"reasons"`
}
