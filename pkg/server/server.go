package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/campusmatch/campusmatch/internal/store"
	"github.com/campusmatch/campusmatch/pkg/match"
)

// Server provides the HTTP API.
type Server struct {
	store          store.Store
	engine         *match.Engine
	candidateLimit int
	defaultLimit   int
	port           int
}

// New creates a new HTTP server.
func New(s store.Store, engine *match.Engine, candidateLimit, defaultLimit, port int) *Server {
	if port == 0 {
		port = 8080
	}
	if candidateLimit <= 0 {
		candidateLimit = 200
	}
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &Server{
		store:          s,
		engine:         engine,
		candidateLimit: candidateLimit,
		defaultLimit:   defaultLimit,
		port:           port,
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/recommendations", s.handleRecommendations)
	mux.HandleFunc("/api/v1/activities", s.handleActivities)
	mux.HandleFunc("/api/v1/users", s.handleUsers)
	mux.HandleFunc("/api/v1/participations", s.handleParticipations)
	mux.HandleFunc("/api/v1/connections", s.handleConnections)
	mux.HandleFunc("/api/v1/stats", s.handleStats)

	addr := fmt.Sprintf(":%d", s.port)
	fmt.Printf("campusmatch server listening on %s\n", addr)
	return http.ListenAndServe(addr, requestID(mux))
}

// requestID tags every response with an id clients can quote when
// reporting problems.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id is required"})
		return
	}

	limit := s.defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	recs, err := s.RecommendForUser(r.Context(), userID, limit)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  recs,
		"count": len(recs),
	})
}

// RecommendForUser assembles the candidate pool and scoring context from
// the store and runs the engine. Used by the HTTP handler and the CLI.
func (s *Server) RecommendForUser(ctx context.Context, userID int64, limit int) ([]match.Recommendation, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user %d not found: %w", userID, err)
	}

	candidates, err := s.store.ListJoinable(ctx, userID, s.candidateLimit)
	if err != nil {
		return nil, err
	}

	connections, err := s.store.ListConnections(ctx, userID)
	if err != nil {
		return nil, err
	}

	approved, err := s.store.ListParticipations(ctx, store.ParticipationOpts{
		Status: match.ParticipationApproved,
	})
	if err != nil {
		return nil, err
	}

	ids := make(map[int64]bool, len(approved))
	var participantIDs []int64
	for _, rec := range approved {
		if !ids[rec.UserID] {
			ids[rec.UserID] = true
			participantIDs = append(participantIDs, rec.UserID)
		}
	}

	profiles, err := s.store.GetUsers(ctx, participantIDs)
	if err != nil {
		return nil, err
	}

	sc := match.ScoringContext{
		Connections:    connections,
		Participations: approved,
		Profiles:       profiles,
	}

	return s.engine.Recommend(*user, match.PoolOf(candidates), sc, limit), nil
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		opts := store.ListOpts{Limit: 100}
		if v := r.URL.Query().Get("owner_id"); v != "" {
			if id, err := strconv.ParseInt(v, 10, 64); err == nil {
				opts.OwnerID = id
			}
		}
		if v := r.URL.Query().Get("status"); v != "" {
			opts.Status = match.ActivityStatus(v)
		}

		activities, err := s.store.ListActivities(r.Context(), opts)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"data":  activities,
			"count": len(activities),
		})

	case http.MethodPost:
		var a match.Activity
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
			return
		}
		if a.OwnerID <= 0 || a.Title == "" || a.MaxPeople < 2 {
			writeJSON(w, http.StatusBadRequest,
				map[string]string{"error": "owner_id, title and max_people >= 2 are required"})
			return
		}
		if err := s.store.CreateActivity(r.Context(), &a); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusCreated, a)

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id is required"})
			return
		}
		user, err := s.store.GetUser(r.Context(), id)
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, user)

	case http.MethodPost:
		var u match.UserProfile
		if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
			return
		}
		if u.Name == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
			return
		}
		if err := s.store.CreateUser(r.Context(), &u); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusCreated, u)

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (s *Server) handleParticipations(w http.ResponseWriter, r *http.Request) {
	type participationReq struct {
		UserID     int64                     `json:"user_id"`
		ActivityID int64                     `json:"activity_id"`
		Status     match.ParticipationStatus `json:"status"`
	}

	switch r.Method {
	case http.MethodPost:
		var req participationReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
			return
		}
		if req.UserID <= 0 || req.ActivityID <= 0 {
			writeJSON(w, http.StatusBadRequest,
				map[string]string{"error": "user_id and activity_id are required"})
			return
		}
		if err := s.store.AddParticipation(r.Context(), req.UserID, req.ActivityID); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"status": "pending"})

	case http.MethodPut:
		var req participationReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
			return
		}
		switch req.Status {
		case match.ParticipationApproved, match.ParticipationDeclined, match.ParticipationPending:
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		if err := s.store.SetParticipationStatus(r.Context(), req.UserID, req.ActivityID, req.Status); err != nil {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": string(req.Status)})

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		UserA int64 `json:"user_a"`
		UserB int64 `json:"user_b"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	if req.UserA <= 0 || req.UserB <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_a and user_b are required"})
		return
	}

	if err := s.store.AddConnection(r.Context(), req.UserA, req.UserB); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "connected"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	counts, err := s.store.CountActivitiesByStatus(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"activities": counts})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
