// Package domain defines the business logic for the exercise log service.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUserNotFound is returned when a referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUsername signals the storage uniqueness constraint fired.
	ErrDuplicateUsername = errors.New("username already registered")
)

// UserRepository captures persistence operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	FindUserByID(ctx context.Context, id string) (*User, error)
	FindUserByUsername(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// ExerciseRepository captures persistence operations for exercise records.
type ExerciseRepository interface {
	CreateExercise(ctx context.Context, record ExerciseRecord) error
	ListExercises(ctx context.Context, filter LogFilter) ([]ExerciseRecord, error)
}

// Repository combines both record kinds, matching the Postgres gateway.
type Repository interface {
	UserRepository
	ExerciseRepository
}

// Service orchestrates user registration, exercise logging, and log queries.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterUser returns the existing user for the username or creates a new
// one. Concurrent registrations racing on the same username lose to the
// unique index; the conflict is read back as the pre-existing user so the
// call stays idempotent.
func (s *Service) RegisterUser(ctx context.Context, username string) (*User, error) {
	existing, err := s.repo.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	user := User{
		ID:        uuid.NewString(),
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			winner, findErr := s.repo.FindUserByUsername(ctx, username)
			if findErr != nil {
				return nil, findErr
			}
			if winner == nil {
				return nil, fmt.Errorf("username %q conflicted but is absent: %w", username, err)
			}
			return winner, nil
		}
		return nil, err
	}

	return &user, nil
}

// ListUsers returns all registered users in store order.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// LogExerciseInput carries the validated payload from the API layer. A zero
// Date means the record is stamped with the current time.
type LogExerciseInput struct {
	UserID      string
	Description string
	Duration    int
	Date        time.Time
}

// LogExercise validates the user reference and persists one exercise record.
func (s *Service) LogExercise(ctx context.Context, input LogExerciseInput) (*ExerciseRecord, error) {
	user, err := s.repo.FindUserByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	now := time.Now().UTC()
	date := input.Date
	if date.IsZero() {
		date = now
	}

	record := ExerciseRecord{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Username:    user.Username,
		Description: input.Description,
		Duration:    input.Duration,
		Date:        date,
		CreatedAt:   now,
	}

	if err := s.repo.CreateExercise(ctx, record); err != nil {
		return nil, err
	}

	return &record, nil
}

// QueryLogs fetches exercise records matching the filter, sorted ascending by
// date. The user reference is deliberately not checked for existence: unknown
// ids yield an empty log, not an error.
func (s *Service) QueryLogs(ctx context.Context, filter LogFilter) ([]ExerciseRecord, error) {
	return s.repo.ListExercises(ctx, filter)
}
