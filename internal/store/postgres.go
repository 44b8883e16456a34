package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Zaphkiel07/Pawtine2/internal/domain"
)

//go:embed postgres_schema.sql
var postgresSchema string

// pgUndefinedFunction is SQLSTATE 42883.
const pgUndefinedFunction = "42883"

// PostgresOptions configures NewPostgres.
type PostgresOptions struct {
	DSN         string
	MaxConns    int32
	AutoMigrate bool
}

// PostgresStore implements Repository on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to Postgres and optionally applies the schema.
func NewPostgres(ctx context.Context, opts PostgresOptions) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	cfg.MinConns = 1

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if opts.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return store, nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range splitStatements(postgresSchema) {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// splitStatements splits on "-- statement" markers so dollar quoted bodies stay intact.
func splitStatements(schema string) []string {
	var out []string
	for _, part := range strings.Split(schema, "-- statement") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// Backend implements Repository.
func (s *PostgresStore) Backend() string { return "postgres" }

// Ping verifies database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// GetUser retrieves a user by ID.
func (s *PostgresStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, timezone, created_at FROM users WHERE id = $1`, userID,
	).Scan(&user.ID, &user.Email, &user.Name, &user.Timezone, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// UpsertUser creates or updates a user record.
func (s *PostgresStore) UpsertUser(ctx context.Context, user *domain.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, name, timezone, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			timezone = EXCLUDED.timezone`,
		user.ID, user.Email, user.Name, user.Timezone, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// GetDogByUser returns the user's earliest dog.
func (s *PostgresStore) GetDogByUser(ctx context.Context, userID string) (*domain.Dog, error) {
	var dog domain.Dog
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, name, breed, age_months, created_at
		FROM dogs WHERE user_id = $1
		ORDER BY created_at ASC, id ASC LIMIT 1`, userID,
	).Scan(&dog.ID, &dog.UserID, &dog.Name, &dog.Breed, &dog.AgeMonths, &dog.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get dog: %w", err)
	}
	return &dog, nil
}

// UpsertDog creates or updates a dog by ID.
func (s *PostgresStore) UpsertDog(ctx context.Context, dog *domain.Dog) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO dogs (id, user_id, name, breed, age_months, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			breed = EXCLUDED.breed,
			age_months = EXCLUDED.age_months`,
		dog.ID, dog.UserID, dog.Name, dog.Breed, dog.AgeMonths, dog.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert dog: %w", err)
	}
	return nil
}

const pgRoutineColumns = `id, dog_id, type, label, scheduled_time, status, created_at, last_completed_at`

func scanPgRoutine(row pgx.Row) (*domain.Routine, error) {
	var r domain.Routine
	var typ, status string
	if err := row.Scan(&r.ID, &r.DogID, &typ, &r.Label, &r.ScheduledTime, &status, &r.CreatedAt, &r.LastCompletedAt); err != nil {
		return nil, err
	}
	r.Type = domain.RoutineType(typ)
	r.Status = domain.RoutineStatus(status)
	return &r, nil
}

// CreateRoutine inserts a new routine.
func (s *PostgresStore) CreateRoutine(ctx context.Context, r *domain.Routine) error {
	if err := insertPgRoutine(ctx, s.pool, r); err != nil {
		return fmt.Errorf("create routine: %w", err)
	}
	return nil
}

type pgExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertPgRoutine(ctx context.Context, db pgExecer, r *domain.Routine) error {
	_, err := db.Exec(ctx, `
		INSERT INTO routines (`+pgRoutineColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.DogID, string(r.Type), r.Label, r.ScheduledTime, string(r.Status), r.CreatedAt, r.LastCompletedAt,
	)
	return err
}

// GetRoutine returns a routine by ID.
func (s *PostgresStore) GetRoutine(ctx context.Context, routineID string) (*domain.Routine, error) {
	r, err := scanPgRoutine(s.pool.QueryRow(ctx, `SELECT `+pgRoutineColumns+` FROM routines WHERE id = $1`, routineID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRoutineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get routine: %w", err)
	}
	return r, nil
}

// ListRoutines returns routines matching filter ordered by scheduled_time.
func (s *PostgresStore) ListRoutines(ctx context.Context, filter RoutineFilter) ([]domain.Routine, error) {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.DogID != "" {
		where = append(where, "dog_id = "+arg(filter.DogID))
	}
	if filter.Status != "" {
		where = append(where, "status = "+arg(string(filter.Status)))
	}
	if filter.From != nil {
		where = append(where, "scheduled_time >= "+arg(*filter.From))
	}
	if filter.To != nil {
		where = append(where, "scheduled_time <= "+arg(*filter.To))
	}

	query := `SELECT ` + pgRoutineColumns + ` FROM routines`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY scheduled_time ASC, created_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query routines: %w", err)
	}
	defer rows.Close()

	routines := []domain.Routine{}
	for rows.Next() {
		r, err := scanPgRoutine(rows)
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

// UpdateRoutine applies patch and returns the stored routine.
func (s *PostgresStore) UpdateRoutine(ctx context.Context, routineID string, patch RoutinePatch) (*domain.Routine, error) {
	if patch.Empty() {
		return s.GetRoutine(ctx, routineID)
	}

	var sets []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if patch.Label != nil {
		sets = append(sets, "label = "+arg(*patch.Label))
	}
	if patch.ScheduledTime != nil {
		sets = append(sets, "scheduled_time = "+arg(*patch.ScheduledTime))
	}
	if patch.Status != nil {
		sets = append(sets, "status = "+arg(string(*patch.Status)))
	}
	query := `UPDATE routines SET ` + strings.Join(sets, ", ") +
		` WHERE id = ` + arg(routineID) + ` RETURNING ` + pgRoutineColumns

	r, err := scanPgRoutine(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRoutineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update routine: %w", err)
	}
	return r, nil
}

// ReplaceActiveRoutines pauses the dog's active routines and inserts routines.
func (s *PostgresStore) ReplaceActiveRoutines(ctx context.Context, dogID string, routines []domain.Routine) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`UPDATE routines SET status = 'paused' WHERE dog_id = $1 AND status = 'active'`, dogID,
		); err != nil {
			return err
		}
		for i := range routines {
			if err := insertPgRoutine(ctx, tx, &routines[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace routines: %w", err)
	}
	return nil
}

// CompleteRoutine upserts the day's done entry and touches last_completed_at.
func (s *PostgresStore) CompleteRoutine(ctx context.Context, routineID, day string, at time.Time) (*domain.HistoryEntry, error) {
	var entry domain.HistoryEntry
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE routines SET last_completed_at = $1 WHERE id = $2`, at, routineID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrRoutineNotFound
		}

		var status string
		return tx.QueryRow(ctx, `
			INSERT INTO history (id, routine_id, occurred_on, status, created_at)
			VALUES ($1, $2, $3::date, 'done', $4)
			ON CONFLICT (routine_id, occurred_on) DO UPDATE SET
				status = EXCLUDED.status,
				created_at = EXCLUDED.created_at
			RETURNING id, routine_id, occurred_on::text, status, notes, created_at`,
			uuid.NewString(), routineID, day, at,
		).Scan(&entry.ID, &entry.RoutineID, &entry.OccurredOn, &status, &entry.Notes, &entry.CreatedAt)
	})
	if errors.Is(err, ErrRoutineNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("complete routine: %w", err)
	}
	entry.Status = domain.HistoryDone
	return &entry, nil
}

// HistoryForDay returns entries recorded on day for the given routines.
func (s *PostgresStore) HistoryForDay(ctx context.Context, routineIDs []string, day string) ([]domain.HistoryEntry, error) {
	entries := []domain.HistoryEntry{}
	if len(routineIDs) == 0 {
		return entries, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, routine_id, occurred_on::text, status, notes, created_at
		FROM history WHERE occurred_on = $1::date AND routine_id = ANY($2)`, day, routineIDs)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var h domain.HistoryEntry
		var status string
		if err := rows.Scan(&h.ID, &h.RoutineID, &h.OccurredOn, &status, &h.Notes, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		h.Status = domain.HistoryStatus(status)
		entries = append(entries, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// WeeklySummary calls get_weekly_routine_summary, falling back to a client side
// join when the function is not installed.
func (s *PostgresStore) WeeklySummary(ctx context.Context, dogID, weekStart string) ([]domain.WeeklyRow, error) {
	summary, err := s.collectWeekly(ctx, `
		SELECT routine_id, type, label, status, day
		FROM get_weekly_routine_summary($1, $2::date)`, dogID, weekStart)
	if err == nil {
		return summary, nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUndefinedFunction {
		return nil, fmt.Errorf("weekly summary: %w", err)
	}
	slog.Warn("get_weekly_routine_summary missing, using fallback query", "dog_id", dogID)

	summary, err = s.collectWeekly(ctx, `
		SELECT h.routine_id, r.type, r.label, h.status, h.occurred_on::text
		FROM history h JOIN routines r ON r.id = h.routine_id
		WHERE r.dog_id = $1
		  AND h.occurred_on >= $2::date
		  AND h.occurred_on < $2::date + 7
		ORDER BY h.occurred_on ASC, r.scheduled_time ASC`, dogID, weekStart)
	if err != nil {
		return nil, fmt.Errorf("weekly summary fallback: %w", err)
	}
	return summary, nil
}

func (s *PostgresStore) collectWeekly(ctx context.Context, query string, args ...any) ([]domain.WeeklyRow, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := []domain.WeeklyRow{}
	for rows.Next() {
		var row domain.WeeklyRow
		var typ, status string
		if err := rows.Scan(&row.RoutineID, &typ, &row.Label, &status, &row.Day); err != nil {
			return nil, err
		}
		row.Type = domain.RoutineType(typ)
		row.Status = domain.HistoryStatus(status)
		summary = append(summary, row)
	}
	return summary, rows.Err()
}
