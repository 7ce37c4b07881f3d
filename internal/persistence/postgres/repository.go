// Package postgres provides the pgx-backed persistence gateway for users,
// exercise records, and outbox events.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/exerciselog/internal/domain"
	"example.com/exerciselog/internal/events"
	"example.com/exerciselog/internal/observability"
)

const uniqueViolation = "23505"

// Repository provides Postgres-backed persistence for users and exercises.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateUser persists the user and records a registration event inside a
// single transaction. A username collision surfaces as ErrDuplicateUsername.
func (r *Repository) CreateUser(ctx context.Context, user domain.User) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const insertUser = `INSERT INTO users (user_id, username, created_at) VALUES ($1,$2,$3)`

	if _, err = tx.Exec(ctx, insertUser, user.ID, user.Username, user.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			err = fmt.Errorf("insert user %q: %w", user.Username, domain.ErrDuplicateUsername)
		}
		return err
	}

	if err = insertOutbox(ctx, tx, "user", user.ID, "user.registered", user.ID, events.UserRegistered{
		UserID:       user.ID,
		Username:     user.Username,
		RegisteredAt: user.CreatedAt,
	}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordUserRegistered()
	return nil
}

// FindUserByID returns the user or nil when absent.
func (r *Repository) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT user_id, username, created_at FROM users WHERE user_id=$1`
	return r.findUser(ctx, query, id)
}

// FindUserByUsername returns the user or nil when absent.
func (r *Repository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `SELECT user_id, username, created_at FROM users WHERE username=$1`
	return r.findUser(ctx, query, username)
}

func (r *Repository) findUser(ctx context.Context, query string, arg string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, query, arg)

	var user domain.User
	if err := row.Scan(&user.ID, &user.Username, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// ListUsers returns all users in insertion order.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	const query = `SELECT user_id, username, created_at FROM users ORDER BY created_at, user_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Username, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateExercise persists the record and an exercise.logged event inside a
// single transaction.
func (r *Repository) CreateExercise(ctx context.Context, record domain.ExerciseRecord) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const insertExercise = `INSERT INTO exercises (exercise_id, user_id, username, description, duration_min, logged_at, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	if _, err = tx.Exec(ctx, insertExercise,
		record.ID,
		record.UserID,
		record.Username,
		record.Description,
		record.Duration,
		record.Date,
		record.CreatedAt,
	); err != nil {
		return err
	}

	if err = insertOutbox(ctx, tx, "exercise", record.ID, "exercise.logged", record.UserID, events.ExerciseLogged{
		ExerciseID:  record.ID,
		UserID:      record.UserID,
		Username:    record.Username,
		Description: record.Description,
		Duration:    record.Duration,
		Date:        record.Date,
	}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordExercisePersisted(record.CreatedAt)
	return nil
}

// ListExercises returns records matching the filter ordered ascending by
// date. From/To merge into one range predicate; Limit <= 0 applies no cap.
func (r *Repository) ListExercises(ctx context.Context, filter domain.LogFilter) ([]domain.ExerciseRecord, error) {
	query := `SELECT exercise_id, user_id, username, description, duration_min, logged_at, created_at
        FROM exercises WHERE user_id=$1`
	args := []interface{}{filter.UserID}

	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(` AND logged_at >= $%d`, len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(` AND logged_at <= $%d`, len(args))
	}

	query += ` ORDER BY logged_at ASC, exercise_id ASC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.ExerciseRecord, 0)
	for rows.Next() {
		var record domain.ExerciseRecord
		if err := rows.Scan(&record.ID, &record.UserID, &record.Username, &record.Description, &record.Duration, &record.Date, &record.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func insertOutbox(ctx context.Context, tx pgx.Tx, aggregateType, aggregateID, eventType, partitionKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, partition_key, payload)
        VALUES ($1,$2,$3,$4,$5,$6)`

	_, err = tx.Exec(ctx, stmt, aggregateType, aggregateID, eventType, meta.Topic, partitionKey, body)
	return err
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic string
}

var eventCatalog = map[string]EventMetadata{
	"user.registered": {Topic: "user_events"},
	"exercise.logged": {Topic: "exercise_events"},
}
