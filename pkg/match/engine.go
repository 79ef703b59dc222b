package match

import (
	"sort"
	"strings"
	"time"
)

// Reason strings surfaced to the UI alongside scores.
const (
	ReasonInterests    = "Matches your interests"
	ReasonPeers        = "Popular with users like you"
	ReasonVeryClose    = "Very close to your location"
	ReasonNear         = "Near your location"
	ReasonReasonable   = "Within reasonable distance"
	ReasonPreferredLoc = "Near your preferred location"
	ReasonSchedule     = "Fits your schedule"
	ReasonConnection   = "Created by someone you know"
	ReasonFallback     = "Might interest you"
)

const defaultLimit = 10

// Engine ranks candidate activities for a user. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	weights Weights
	now     func() time.Time
}

// NewEngine creates a scoring engine. A zero Weights value falls back to
// DefaultWeights.
func NewEngine(w Weights) *Engine {
	if w == (Weights{}) {
		w = DefaultWeights()
	}
	return &Engine{
		weights: w,
		now:     time.Now,
	}
}

// Recommend scores every activity in the pool for the user and returns up
// to limit results ordered by descending score. Ties keep the pool order.
// An empty pool yields an empty (nil) result, never an error.
func (e *Engine) Recommend(user UserProfile, pool CandidatePool, sc ScoringContext, limit int) []Recommendation {
	if limit <= 0 {
		limit = defaultLimit
	}

	userTokens := tokenize(strings.Join(user.Interests, " "))
	now := e.now()

	var recs []Recommendation
	for _, a := range pool.Activities() {
		recs = append(recs, e.scoreActivity(user, a, sc, userTokens, now))
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})

	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

// scoreActivity combines the seven signals into one clamped 0-100 score.
func (e *Engine) scoreActivity(user UserProfile, a Activity, sc ScoringContext, userTokens []string, now time.Time) Recommendation {
	var score float64
	var reasons []string

	// 1. Content similarity: user interests vs title+description.
	similarity := tfidfCosine(userTokens, tokenize(a.Title+" "+a.Description))
	score += similarity * e.weights.Content
	if similarity > 0.3 {
		reasons = append(reasons, ReasonInterests)
	}

	// 2. Collaborative filtering: best interest overlap with anyone who
	// already joined.
	peer := e.peerSimilarity(user, a, sc)
	score += peer * e.weights.Collaborative
	if peer > 0.5 {
		reasons = append(reasons, ReasonPeers)
	}

	// 3. Location: flat points from the tier table.
	locPoints, locReason := e.locationPoints(user, a)
	score += locPoints
	if locReason != "" {
		reasons = append(reasons, locReason)
	}

	// 4. Time preference overlap.
	timeFactor := timeOverlap(user.PreferredTimes, a.Times)
	score += timeFactor * e.weights.Time
	if timeFactor > 0.5 {
		reasons = append(reasons, ReasonSchedule)
	}

	// 5. Social graph: owner is a connection.
	if sc.Connections[a.OwnerID] {
		score += e.weights.Social
		reasons = append(reasons, ReasonConnection)
	}

	// 6. Recency. Silent tiebreaker, no reason text.
	score += recencyFactor(now, a.CreatedAt) * e.weights.Recency

	// 7. Availability: fraction of seats still open. Also silent.
	if a.MaxPeople > 0 {
		open := float64(a.MaxPeople-a.CurrentPeople) / float64(a.MaxPeople)
		score += open * e.weights.Availability
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	if len(reasons) == 0 {
		reasons = []string{ReasonFallback}
	}

	return Recommendation{Activity: a, Score: score, Reasons: reasons}
}

// peerSimilarity returns the maximum Jaccard similarity between the user's
// interests and those of any approved participant of the activity.
func (e *Engine) peerSimilarity(user UserProfile, a Activity, sc ScoringContext) float64 {
	best := 0.0
	for _, rec := range sc.Participations {
		if rec.ActivityID != a.ID || rec.Status != ParticipationApproved {
			continue
		}
		profile, ok := sc.Profiles[rec.UserID]
		if !ok {
			continue
		}
		if sim := jaccardSimilarity(user.Interests, profile.Interests); sim > best {
			best = sim
		}
	}
	return best
}

// locationPoints evaluates the three location tiers in priority order and
// returns the awarded points with the matching reason text.
func (e *Engine) locationPoints(user UserProfile, a Activity) (float64, string) {
	loc := e.weights.Location

	// Coordinates on both sides win over any text label.
	if user.Location != nil && a.Location != nil {
		km := haversineKm(*user.Location, *a.Location)
		switch {
		case km <= 0.5:
			return loc.VeryClose, ReasonVeryClose
		case km <= 1:
			return loc.Close, ReasonVeryClose
		case km <= 2:
			return loc.Near, ReasonNear
		case km <= 5:
			return loc.Walkable, ReasonReasonable
		default:
			return 0, ""
		}
	}

	if user.LocationText != "" && a.LocationText != "" && user.LocationText == a.LocationText {
		return loc.TextMatch, ReasonPreferredLoc
	}

	if user.LocationText != "" && a.LocationName != "" &&
		strings.EqualFold(user.LocationText, a.LocationName) {
		return loc.TextMatch, ReasonPreferredLoc
	}

	return 0, ""
}

// timeOverlap returns the fraction of activity time labels that match a
// preferred time label. Matching is bidirectional substring containment on
// lowercased labels, so "morning" matches "Weekday Mornings". Either side
// empty is treated as neutral 0.5 rather than a mismatch.
func timeOverlap(preferred, scheduled []string) float64 {
	if len(preferred) == 0 || len(scheduled) == 0 {
		return 0.5
	}

	prefs := make([]string, len(preferred))
	for i, p := range preferred {
		prefs[i] = strings.ToLower(p)
	}

	matched := 0
	for _, s := range scheduled {
		slot := strings.ToLower(s)
		for _, p := range prefs {
			if strings.Contains(slot, p) || strings.Contains(p, slot) {
				matched++
				break
			}
		}
	}

	return float64(matched) / float64(len(scheduled))
}

// recencyFactor decays with activity age: full weight inside a week, half
// inside a month, a fifth after that.
func recencyFactor(now, createdAt time.Time) float64 {
	days := now.Sub(createdAt).Hours() / 24
	switch {
	case days <= 7:
		return 1
	case days <= 30:
		return 0.5
	default:
		return 0.2
	}
}
