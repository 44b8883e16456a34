package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Zaphkiel07/Pawtine2/internal/domain"
	"github.com/Zaphkiel07/Pawtine2/internal/shared"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		timezone TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS dogs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		name TEXT NOT NULL,
		breed TEXT,
		age_months INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_dogs_user ON dogs(user_id, created_at);

	CREATE TABLE IF NOT EXISTS routines (
		id TEXT PRIMARY KEY,
		dog_id TEXT NOT NULL REFERENCES dogs(id),
		type TEXT NOT NULL CHECK (type IN ('feed', 'walk', 'water', 'custom')),
		label TEXT NOT NULL,
		scheduled_time INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'paused')),
		created_at INTEGER NOT NULL,
		last_completed_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_routines_dog ON routines(dog_id, status, scheduled_time);

	CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		routine_id TEXT NOT NULL REFERENCES routines(id),
		occurred_on TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('done', 'missed', 'snoozed')),
		notes TEXT,
		created_at INTEGER NOT NULL,
		UNIQUE (routine_id, occurred_on)
	);
	CREATE INDEX IF NOT EXISTS idx_history_day ON history(occurred_on);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Backend implements Repository.
func (s *SQLiteStore) Backend() string { return "sqlite" }

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// GetUser retrieves a user by their user ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `SELECT id, email, name, timezone, created_at FROM users WHERE id = ?`

	var user domain.User
	var createdAt int64
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID, &user.Email, &user.Name, &user.Timezone, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}
	user.CreatedAt = decodeTime(createdAt)
	return &user, nil
}

// UpsertUser creates or updates a user record.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
	INSERT INTO users (id, email, name, timezone, created_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		email = excluded.email,
		name = excluded.name,
		timezone = excluded.timezone`

	return s.write(ctx, "upsert user", func() error {
		_, err := s.db.ExecContext(ctx, query,
			user.ID, user.Email, user.Name, user.Timezone, encodeTime(user.CreatedAt),
		)
		return err
	})
}

// GetDogByUser returns the user's earliest dog.
func (s *SQLiteStore) GetDogByUser(ctx context.Context, userID string) (*domain.Dog, error) {
	query := `
		SELECT id, user_id, name, breed, age_months, created_at
		FROM dogs WHERE user_id = ?
		ORDER BY created_at ASC, id ASC LIMIT 1`

	var dog domain.Dog
	var breed sql.NullString
	var age sql.NullInt64
	var createdAt int64
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&dog.ID, &dog.UserID, &dog.Name, &breed, &age, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan dog row: %w", err)
	}
	if breed.Valid {
		dog.Breed = &breed.String
	}
	if age.Valid {
		n := int(age.Int64)
		dog.AgeMonths = &n
	}
	dog.CreatedAt = decodeTime(createdAt)
	return &dog, nil
}

// UpsertDog creates or updates a dog by ID.
func (s *SQLiteStore) UpsertDog(ctx context.Context, dog *domain.Dog) error {
	query := `
	INSERT INTO dogs (id, user_id, name, breed, age_months, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		breed = excluded.breed,
		age_months = excluded.age_months`

	var breed, age interface{}
	if dog.Breed != nil {
		breed = *dog.Breed
	}
	if dog.AgeMonths != nil {
		age = *dog.AgeMonths
	}

	return s.write(ctx, "upsert dog", func() error {
		_, err := s.db.ExecContext(ctx, query,
			dog.ID, dog.UserID, dog.Name, breed, age, encodeTime(dog.CreatedAt),
		)
		return err
	})
}

// CreateRoutine inserts a new routine.
func (s *SQLiteStore) CreateRoutine(ctx context.Context, routine *domain.Routine) error {
	return s.write(ctx, "create routine", func() error {
		return insertRoutine(ctx, s.db, routine)
	})
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertRoutine(ctx context.Context, db execer, r *domain.Routine) error {
	query := `
	INSERT INTO routines (id, dog_id, type, label, scheduled_time, status, created_at, last_completed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	var lastCompleted interface{}
	if r.LastCompletedAt != nil {
		lastCompleted = encodeTime(*r.LastCompletedAt)
	}
	_, err := db.ExecContext(ctx, query,
		r.ID, r.DogID, string(r.Type), r.Label, encodeTime(r.ScheduledTime),
		string(r.Status), encodeTime(r.CreatedAt), lastCompleted,
	)
	return err
}

const routineColumns = `id, dog_id, type, label, scheduled_time, status, created_at, last_completed_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRoutine(row rowScanner) (*domain.Routine, error) {
	var r domain.Routine
	var typ, status string
	var scheduled, createdAt int64
	var lastCompleted sql.NullInt64
	if err := row.Scan(&r.ID, &r.DogID, &typ, &r.Label, &scheduled, &status, &createdAt, &lastCompleted); err != nil {
		return nil, err
	}
	r.Type = domain.RoutineType(typ)
	r.Status = domain.RoutineStatus(status)
	r.ScheduledTime = decodeTime(scheduled)
	r.CreatedAt = decodeTime(createdAt)
	if lastCompleted.Valid {
		ts := decodeTime(lastCompleted.Int64)
		r.LastCompletedAt = &ts
	}
	return &r, nil
}

// GetRoutine returns a routine by ID.
func (s *SQLiteStore) GetRoutine(ctx context.Context, routineID string) (*domain.Routine, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+routineColumns+` FROM routines WHERE id = ?`, routineID)
	r, err := scanRoutine(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoutineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan routine row: %w", err)
	}
	return r, nil
}

// ListRoutines returns routines matching filter ordered by scheduled_time.
func (s *SQLiteStore) ListRoutines(ctx context.Context, filter RoutineFilter) ([]domain.Routine, error) {
	var where []string
	var args []interface{}
	if filter.DogID != "" {
		where = append(where, "dog_id = ?")
		args = append(args, filter.DogID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.From != nil {
		where = append(where, "scheduled_time >= ?")
		args = append(args, encodeTime(*filter.From))
	}
	if filter.To != nil {
		where = append(where, "scheduled_time <= ?")
		args = append(args, encodeTime(*filter.To))
	}

	query := `SELECT ` + routineColumns + ` FROM routines`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY scheduled_time ASC, created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query routines: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close routine rows", "error", closeErr)
		}
	}()

	routines := []domain.Routine{}
	for rows.Next() {
		r, err := scanRoutine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan routine row: %w", err)
		}
		routines = append(routines, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate routines: %w", err)
	}
	return routines, nil
}

// UpdateRoutine applies patch to a routine.
func (s *SQLiteStore) UpdateRoutine(ctx context.Context, routineID string, patch RoutinePatch) (*domain.Routine, error) {
	var sets []string
	var args []interface{}
	if patch.Label != nil {
		sets = append(sets, "label = ?")
		args = append(args, *patch.Label)
	}
	if patch.ScheduledTime != nil {
		sets = append(sets, "scheduled_time = ?")
		args = append(args, encodeTime(*patch.ScheduledTime))
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if len(sets) == 0 {
		return s.GetRoutine(ctx, routineID)
	}

	query := `UPDATE routines SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	args = append(args, routineID)

	var affected int64
	err := s.write(ctx, "update routine", func() error {
		result, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrRoutineNotFound
	}
	return s.GetRoutine(ctx, routineID)
}

// ReplaceActiveRoutines pauses the dog's active routines and inserts the new set.
func (s *SQLiteStore) ReplaceActiveRoutines(ctx context.Context, dogID string, routines []domain.Routine) error {
	return s.write(ctx, "replace routines", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`UPDATE routines SET status = ? WHERE dog_id = ? AND status = ?`,
			string(domain.StatusPaused), dogID, string(domain.StatusActive),
		); err != nil {
			return err
		}
		for i := range routines {
			if err := insertRoutine(ctx, tx, &routines[i]); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// CompleteRoutine upserts today's done entry and touches last_completed_at in one transaction.
func (s *SQLiteStore) CompleteRoutine(ctx context.Context, routineID, day string, at time.Time) (*domain.HistoryEntry, error) {
	var entry *domain.HistoryEntry
	err := s.write(ctx, "complete routine", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		result, err := tx.ExecContext(ctx,
			`UPDATE routines SET last_completed_at = ? WHERE id = ?`, encodeTime(at), routineID)
		if err != nil {
			return err
		}
		if n, err := result.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrRoutineNotFound
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO history (id, routine_id, occurred_on, status, notes, created_at)
			VALUES (?, ?, ?, ?, NULL, ?)
			ON CONFLICT(routine_id, occurred_on) DO UPDATE SET
				status = excluded.status,
				created_at = excluded.created_at`,
			uuid.NewString(), routineID, day, string(domain.HistoryDone), encodeTime(at),
		); err != nil {
			return err
		}

		row := tx.QueryRowContext(ctx, `
			SELECT id, routine_id, occurred_on, status, notes, created_at
			FROM history WHERE routine_id = ? AND occurred_on = ?`, routineID, day)
		entry, err = scanHistory(row)
		if err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func scanHistory(row rowScanner) (*domain.HistoryEntry, error) {
	var h domain.HistoryEntry
	var status string
	var notes sql.NullString
	var createdAt int64
	if err := row.Scan(&h.ID, &h.RoutineID, &h.OccurredOn, &status, &notes, &createdAt); err != nil {
		return nil, err
	}
	h.Status = domain.HistoryStatus(status)
	if notes.Valid {
		h.Notes = &notes.String
	}
	h.CreatedAt = decodeTime(createdAt)
	return &h, nil
}

// HistoryForDay returns entries recorded on day for the given routines.
func (s *SQLiteStore) HistoryForDay(ctx context.Context, routineIDs []string, day string) ([]domain.HistoryEntry, error) {
	entries := []domain.HistoryEntry{}
	if len(routineIDs) == 0 {
		return entries, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(routineIDs)), ",")
	args := make([]interface{}, 0, len(routineIDs)+1)
	args = append(args, day)
	for _, id := range routineIDs {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, routine_id, occurred_on, status, notes, created_at
		FROM history WHERE occurred_on = ? AND routine_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close history rows", "error", closeErr)
		}
	}()

	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entries = append(entries, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// WeeklySummary joins the week's history with routine type and label.
func (s *SQLiteStore) WeeklySummary(ctx context.Context, dogID, weekStart string) ([]domain.WeeklyRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT h.routine_id, r.type, r.label, h.status, h.occurred_on
		FROM history h JOIN routines r ON r.id = h.routine_id
		WHERE r.dog_id = ?
		  AND h.occurred_on >= ?
		  AND h.occurred_on < date(?, '+7 days')
		ORDER BY h.occurred_on ASC, r.scheduled_time ASC`, dogID, weekStart, weekStart)
	if err != nil {
		return nil, fmt.Errorf("query weekly summary: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close weekly summary rows", "error", closeErr)
		}
	}()

	summary := []domain.WeeklyRow{}
	for rows.Next() {
		var row domain.WeeklyRow
		var typ, status string
		if err := rows.Scan(&row.RoutineID, &typ, &row.Label, &status, &row.Day); err != nil {
			return nil, fmt.Errorf("scan weekly row: %w", err)
		}
		row.Type = domain.RoutineType(typ)
		row.Status = domain.HistoryStatus(status)
		summary = append(summary, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weekly summary: %w", err)
	}
	return summary, nil
}

// write retries fn on SQLite lock contention and wraps failures with op.
func (s *SQLiteStore) write(ctx context.Context, op string, fn func() error) error {
	err := shared.RetrySQLite(ctx, op, shared.DefaultRetryPolicy, fn)
	if err == nil || errors.Is(err, ErrRoutineNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Timestamps are stored as Unix nanoseconds so values round-trip exactly.
func encodeTime(t time.Time) int64 {
	return t.UnixNano()
}

func decodeTime(n int64) time.Time {
	return time.Unix(0, n)
}
