package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRegisterUserCreatesOnce(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo)

	first, err := service.RegisterUser(context.Background(), "alice")
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	require.Equal(t, "alice", first.Username)

	second, err := service.RegisterUser(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Len(t, repo.users, 1)
}

func TestRegisterUserMapsConflictToExistingUser(t *testing.T) {
	repo := newFakeRepo()
	winner := User{ID: "u-1", Username: "alice", CreatedAt: time.Now().UTC()}

	// Simulate losing the find-then-create race: the lookup misses, the
	// insert hits the unique index, and the winner is visible afterwards.
	repo.hideOnFirstFind = true
	repo.users["alice"] = winner
	repo.createUserErr = ErrDuplicateUsername

	user, err := NewService(repo).RegisterUser(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, "u-1", user.ID)
}

func TestLogExerciseUnknownUser(t *testing.T) {
	repo := newFakeRepo()

	_, err := NewService(repo).LogExercise(context.Background(), LogExerciseInput{
		UserID:      "missing",
		Description: "swim",
		Duration:    20,
	})
	require.ErrorIs(t, err, ErrUserNotFound)
	require.Empty(t, repo.exercises, "no record may be created for unknown users")
}

func TestLogExerciseDefaultsDateAndDenormalizesUsername(t *testing.T) {
	repo := newFakeRepo()
	repo.users["bob"] = User{ID: "u-2", Username: "bob"}

	before := time.Now().UTC()
	record, err := NewService(repo).LogExercise(context.Background(), LogExerciseInput{
		UserID:      "u-2",
		Description: "run",
		Duration:    1,
	})
	require.NoError(t, err)

	require.Equal(t, "bob", record.Username)
	require.Equal(t, 1, record.Duration)
	require.False(t, record.Date.Before(before))
	require.False(t, record.Date.After(time.Now().UTC()))
	require.Len(t, repo.exercises, 1)
}

func TestLogExerciseKeepsProvidedDate(t *testing.T) {
	repo := newFakeRepo()
	repo.users["bob"] = User{ID: "u-2", Username: "bob"}

	date := time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC)
	record, err := NewService(repo).LogExercise(context.Background(), LogExerciseInput{
		UserID:      "u-2",
		Description: "row",
		Duration:    45,
		Date:        date,
	})
	require.NoError(t, err)
	require.Equal(t, date, record.Date)
	require.Equal(t, "Mon Jun 01 2020", record.CalendarDate())
}

type fakeRepo struct {
	users           map[string]User // keyed by username
	exercises       []ExerciseRecord
	createUserErr   error
	hideOnFirstFind bool
	findCalls       int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]User)}
}

func (f *fakeRepo) CreateUser(ctx context.Context, user User) error {
	if f.createUserErr != nil {
		return f.createUserErr
	}
	if _, exists := f.users[user.Username]; exists {
		return ErrDuplicateUsername
	}
	f.users[user.Username] = user
	return nil
}

func (f *fakeRepo) FindUserByID(ctx context.Context, id string) (*User, error) {
	for _, user := range f.users {
		if user.ID == id {
			u := user
			return &u, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) FindUserByUsername(ctx context.Context, username string) (*User, error) {
	f.findCalls++
	if f.hideOnFirstFind && f.findCalls == 1 {
		return nil, nil
	}
	if user, ok := f.users[username]; ok {
		u := user
		return &u, nil
	}
	return nil, nil
}

func (f *fakeRepo) ListUsers(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(f.users))
	for _, user := range f.users {
		out = append(out, user)
	}
	return out, nil
}

func (f *fakeRepo) CreateExercise(ctx context.Context, record ExerciseRecord) error {
	f.exercises = append(f.exercises, record)
	return nil
}

func (f *fakeRepo) ListExercises(ctx context.Context, filter LogFilter) ([]ExerciseRecord, error) {
	out := make([]ExerciseRecord, 0)
	for _, record := range f.exercises {
		if record.UserID != filter.UserID {
			continue
		}
		if filter.From != nil && record.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && record.Date.After(*filter.To) {
			continue
		}
		out = append(out, record)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
