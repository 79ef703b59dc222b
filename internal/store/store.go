package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/campusmatch/campusmatch/pkg/match"
)

// ListOpts controls activity listing.
type ListOpts struct {
	OwnerID int64
	Status  match.ActivityStatus
	Limit   int
}

// ParticipationOpts controls participation listing.
type ParticipationOpts struct {
	UserID     int64
	ActivityID int64
	Status     match.ParticipationStatus
}

// Store is the persistence interface.
type Store interface {
	CreateUser(ctx context.Context, u *match.UserProfile) error
	GetUser(ctx context.Context, id int64) (*match.UserProfile, error)
	GetUsers(ctx context.Context, ids []int64) (map[int64]match.UserProfile, error)

	CreateActivity(ctx context.Context, a *match.Activity) error
	UpsertImported(ctx context.Context, externalID string, a *match.Activity) error
	GetActivity(ctx context.Context, id int64) (*match.Activity, error)
	ListActivities(ctx context.Context, opts ListOpts) ([]match.Activity, error)
	ListJoinable(ctx context.Context, userID int64, limit int) ([]match.Activity, error)
	ExpireActivities(ctx context.Context, olderThan time.Time) (int64, error)
	CountActivitiesByStatus(ctx context.Context) (map[match.ActivityStatus]int, error)

	AddParticipation(ctx context.Context, userID, activityID int64) error
	SetParticipationStatus(ctx context.Context, userID, activityID int64, status match.ParticipationStatus) error
	ListParticipations(ctx context.Context, opts ParticipationOpts) ([]match.ParticipationRecord, error)

	AddConnection(ctx context.Context, a, b int64) error
	ListConnections(ctx context.Context, userID int64) (map[int64]bool, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type userRow struct {
	ID             int64           `db:"id"`
	Name           string          `db:"name"`
	Interests      string          `db:"interests"`
	PreferredTimes string          `db:"preferred_times"`
	Lat            sql.NullFloat64 `db:"lat"`
	Lng            sql.NullFloat64 `db:"lng"`
	LocationText   string          `db:"location_text"`
	CreatedAt      time.Time       `db:"created_at"`
}

func (r userRow) toProfile() match.UserProfile {
	u := match.UserProfile{
		ID:           r.ID,
		Name:         r.Name,
		LocationText: r.LocationText,
	}
	json.Unmarshal([]byte(r.Interests), &u.Interests)
	json.Unmarshal([]byte(r.PreferredTimes), &u.PreferredTimes)
	if r.Lat.Valid && r.Lng.Valid {
		u.Location = &match.GeoPoint{Lat: r.Lat.Float64, Lng: r.Lng.Float64}
	}
	return u
}

type activityRow struct {
	ID            int64           `db:"id"`
	OwnerID       int64           `db:"owner_id"`
	ExternalID    string          `db:"external_id"`
	Title         string          `db:"title"`
	Description   string          `db:"description"`
	Times         string          `db:"times"`
	MaxPeople     int             `db:"max_people"`
	CurrentPeople int             `db:"current_people"`
	Status        string          `db:"status"`
	Lat           sql.NullFloat64 `db:"lat"`
	Lng           sql.NullFloat64 `db:"lng"`
	LocationText  string          `db:"location_text"`
	LocationName  string          `db:"location_name"`
	CreatedAt     time.Time       `db:"created_at"`
}

func (r activityRow) toActivity() match.Activity {
	a := match.Activity{
		ID:            r.ID,
		OwnerID:       r.OwnerID,
		Title:         r.Title,
		Description:   r.Description,
		MaxPeople:     r.MaxPeople,
		CurrentPeople: r.CurrentPeople,
		Status:        match.ActivityStatus(r.Status),
		LocationText:  r.LocationText,
		LocationName:  r.LocationName,
		CreatedAt:     r.CreatedAt,
	}
	json.Unmarshal([]byte(r.Times), &a.Times)
	if r.Lat.Valid && r.Lng.Valid {
		a.Location = &match.GeoPoint{Lat: r.Lat.Float64, Lng: r.Lng.Float64}
	}
	return a
}

func geoColumns(p *match.GeoPoint) (sql.NullFloat64, sql.NullFloat64) {
	if p == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: p.Lat, Valid: true},
		sql.NullFloat64{Float64: p.Lng, Valid: true}
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u *match.UserProfile) error {
	interests, _ := json.Marshal(u.Interests)
	times, _ := json.Marshal(u.PreferredTimes)
	lat, lng := geoColumns(u.Location)

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (name, interests, preferred_times, lat, lng, location_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, u.Name, string(interests), string(times), lat, lng, u.LocationText, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("create user %q: %w", u.Name, err)
	}
	u.ID, _ = res.LastInsertId()
	return nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, id int64) (*match.UserProfile, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM users WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	u := row.toProfile()
	return &u, nil
}

func (s *SQLiteStore) GetUsers(ctx context.Context, ids []int64) (map[int64]match.UserProfile, error) {
	profiles := make(map[int64]match.UserProfile, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}

	query, args, err := sqlx.In("SELECT * FROM users WHERE id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("build users query: %w", err)
	}

	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}

	for _, r := range rows {
		profiles[r.ID] = r.toProfile()
	}
	return profiles, nil
}

func (s *SQLiteStore) CreateActivity(ctx context.Context, a *match.Activity) error {
	times, _ := json.Marshal(a.Times)
	lat, lng := geoColumns(a.Location)

	if a.Status == "" {
		a.Status = match.StatusActive
	}
	if a.CurrentPeople == 0 {
		a.CurrentPeople = 1 // the owner counts as a member
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (owner_id, external_id, title, description, times, max_people,
			current_people, status, lat, lng, location_text, location_name, created_at)
		VALUES (?, '', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.OwnerID, a.Title, a.Description, string(times), a.MaxPeople,
		a.CurrentPeople, a.Status, lat, lng, a.LocationText, a.LocationName, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create activity %q: %w", a.Title, err)
	}
	a.ID, _ = res.LastInsertId()
	return nil
}

// UpsertImported inserts or refreshes a feed-imported activity keyed by its
// external id. Membership counters are never overwritten on refresh.
func (s *SQLiteStore) UpsertImported(ctx context.Context, externalID string, a *match.Activity) error {
	if externalID == "" {
		return fmt.Errorf("upsert imported activity %q: empty external id", a.Title)
	}

	times, _ := json.Marshal(a.Times)
	lat, lng := geoColumns(a.Location)

	if a.Status == "" {
		a.Status = match.StatusActive
	}
	if a.CurrentPeople == 0 {
		a.CurrentPeople = 1
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (owner_id, external_id, title, description, times, max_people,
			current_people, status, lat, lng, location_text, location_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_id) WHERE external_id != '' DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			times = excluded.times,
			location_text = excluded.location_text,
			location_name = excluded.location_name
	`, a.OwnerID, externalID, a.Title, a.Description, string(times), a.MaxPeople,
		a.CurrentPeople, a.Status, lat, lng, a.LocationText, a.LocationName, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert imported activity %s: %w", externalID, err)
	}
	return nil
}

func (s *SQLiteStore) GetActivity(ctx context.Context, id int64) (*match.Activity, error) {
	var row activityRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM activities WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get activity %d: %w", id, err)
	}
	a := row.toActivity()
	return &a, nil
}

func (s *SQLiteStore) ListActivities(ctx context.Context, opts ListOpts) ([]match.Activity, error) {
	query := "SELECT * FROM activities WHERE 1=1"
	var args []any

	if opts.OwnerID > 0 {
		query += " AND owner_id = ?"
		args = append(args, opts.OwnerID)
	}
	if opts.Status != "" {
		query += " AND status = ?"
		args = append(args, opts.Status)
	}

	query += " ORDER BY created_at DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ?"
	args = append(args, limit)

	var rows []activityRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	activities := make([]match.Activity, len(rows))
	for i, r := range rows {
		activities[i] = r.toActivity()
	}
	return activities, nil
}

// ListJoinable returns activities the user could request to join: active
// with free seats, not their own, and without a pending or approved request
// from them. This is the candidate set handed to the scoring engine.
func (s *SQLiteStore) ListJoinable(ctx context.Context, userID int64, limit int) ([]match.Activity, error) {
	if limit <= 0 {
		limit = 200
	}

	var rows []activityRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM activities
		WHERE status = 'active'
		  AND current_people < max_people
		  AND owner_id != ?
		  AND id NOT IN (
			SELECT activity_id FROM participations
			WHERE user_id = ? AND status IN ('pending', 'approved')
		  )
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list joinable for user %d: %w", userID, err)
	}

	activities := make([]match.Activity, len(rows))
	for i, r := range rows {
		activities[i] = r.toActivity()
	}
	return activities, nil
}

// ExpireActivities closes active activities created before the cutoff and
// returns how many were closed.
func (s *SQLiteStore) ExpireActivities(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE activities SET status = 'closed' WHERE status = 'active' AND created_at < ?",
		olderThan)
	if err != nil {
		return 0, fmt.Errorf("expire activities: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *SQLiteStore) CountActivitiesByStatus(ctx context.Context) (map[match.ActivityStatus]int, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT status, COUNT(*) as cnt FROM activities GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count activities by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[match.ActivityStatus]int)
	for rows.Next() {
		var status string
		var cnt int
		if err := rows.Scan(&status, &cnt); err != nil {
			return nil, err
		}
		counts[match.ActivityStatus(status)] = cnt
	}
	return counts, nil
}

func (s *SQLiteStore) AddParticipation(ctx context.Context, userID, activityID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO participations (user_id, activity_id, status, created_at)
		VALUES (?, ?, 'pending', ?)
	`, userID, activityID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("add participation user=%d activity=%d: %w", userID, activityID, err)
	}
	return nil
}

// SetParticipationStatus moves a join request between pending, approved and
// declined, keeping the activity's member counter in step.
func (s *SQLiteStore) SetParticipationStatus(ctx context.Context, userID, activityID int64, status match.ParticipationStatus) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var old string
	err = tx.GetContext(ctx, &old,
		"SELECT status FROM participations WHERE user_id = ? AND activity_id = ?",
		userID, activityID)
	if err != nil {
		return fmt.Errorf("get participation user=%d activity=%d: %w", userID, activityID, err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE participations SET status = ? WHERE user_id = ? AND activity_id = ?",
		status, userID, activityID); err != nil {
		return fmt.Errorf("update participation user=%d activity=%d: %w", userID, activityID, err)
	}

	wasApproved := match.ParticipationStatus(old) == match.ParticipationApproved
	if status == match.ParticipationApproved && !wasApproved {
		res, err := tx.ExecContext(ctx, `
			UPDATE activities SET current_people = current_people + 1
			WHERE id = ? AND current_people < max_people
		`, activityID)
		if err != nil {
			return fmt.Errorf("bump member count activity=%d: %w", activityID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("approve participation activity=%d: activity is full", activityID)
		}
	} else if status != match.ParticipationApproved && wasApproved {
		if _, err := tx.ExecContext(ctx, `
			UPDATE activities SET current_people = current_people - 1
			WHERE id = ? AND current_people > 1
		`, activityID); err != nil {
			return fmt.Errorf("drop member count activity=%d: %w", activityID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) ListParticipations(ctx context.Context, opts ParticipationOpts) ([]match.ParticipationRecord, error) {
	query := "SELECT user_id, activity_id, status FROM participations WHERE 1=1"
	var args []any

	if opts.UserID > 0 {
		query += " AND user_id = ?"
		args = append(args, opts.UserID)
	}
	if opts.ActivityID > 0 {
		query += " AND activity_id = ?"
		args = append(args, opts.ActivityID)
	}
	if opts.Status != "" {
		query += " AND status = ?"
		args = append(args, opts.Status)
	}

	query += " ORDER BY id"

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}
	defer rows.Close()

	var records []match.ParticipationRecord
	for rows.Next() {
		var rec match.ParticipationRecord
		var status string
		if err := rows.Scan(&rec.UserID, &rec.ActivityID, &status); err != nil {
			return nil, err
		}
		rec.Status = match.ParticipationStatus(status)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// AddConnection stores an undirected link between two users. The pair is
// normalized so each link is stored once.
func (s *SQLiteStore) AddConnection(ctx context.Context, a, b int64) error {
	if a == b {
		return fmt.Errorf("add connection: user %d cannot connect to themselves", a)
	}
	if a > b {
		a, b = b, a
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO connections (user_a, user_b) VALUES (?, ?)
		ON CONFLICT(user_a, user_b) DO NOTHING
	`, a, b)
	if err != nil {
		return fmt.Errorf("add connection %d-%d: %w", a, b, err)
	}
	return nil
}

func (s *SQLiteStore) ListConnections(ctx context.Context, userID int64) (map[int64]bool, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT user_a, user_b FROM connections WHERE user_a = ? OR user_b = ?",
		userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list connections for user %d: %w", userID, err)
	}
	defer rows.Close()

	connected := make(map[int64]bool)
	for rows.Next() {
		var a, b int64
		if err := rows.Scan(&a, &b); err != nil {
			return nil, err
		}
		if a == userID {
			connected[b] = true
		} else {
			connected[a] = true
		}
	}
	return connected, rows.Err()
}
