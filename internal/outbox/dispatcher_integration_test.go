//go:build integration

package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"

	"example.com/exerciselog/internal/domain"
	persistence "example.com/exerciselog/internal/persistence/postgres"
)

type captureProducer struct {
	byTopic map[string][]kafka.Message
	err     error
}

func (c *captureProducer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	if c.err != nil {
		return c.err
	}
	if c.byTopic == nil {
		c.byTopic = make(map[string][]kafka.Message)
	}
	c.byTopic[topic] = append(c.byTopic[topic], msgs...)
	return nil
}

func TestDispatcherPublishesAndMarksRows(t *testing.T) {
	ctx := context.Background()
	pool := startPostgres(t, ctx)

	repo := persistence.NewRepository(pool)
	user := domain.User{ID: uuid.NewString(), Username: "alice", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.CreateUser(ctx, user))

	producer := &captureProducer{}
	dispatcher := NewDispatcher(pool, producer, zap.NewNop().Sugar(), time.Second, 10)

	require.NoError(t, dispatcher.processBatch(ctx))

	require.Len(t, producer.byTopic["user_events"], 1)

	var payload struct {
		UserID   string `json:"user_id"`
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(producer.byTopic["user_events"][0].Value, &payload))
	require.Equal(t, user.ID, payload.UserID)
	require.Equal(t, "alice", payload.Username)

	var unpublished int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`).Scan(&unpublished))
	require.Zero(t, unpublished)
}

func TestDispatcherKeepsRowsOnDeliveryFailure(t *testing.T) {
	ctx := context.Background()
	pool := startPostgres(t, ctx)

	repo := persistence.NewRepository(pool)
	user := domain.User{ID: uuid.NewString(), Username: "bob", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.CreateUser(ctx, user))

	producer := &captureProducer{err: context.DeadlineExceeded}
	dispatcher := NewDispatcher(pool, producer, zap.NewNop().Sugar(), time.Second, 10)

	require.Error(t, dispatcher.processBatch(ctx))

	var unpublished int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`).Scan(&unpublished))
	require.Equal(t, 1, unpublished, "failed batch stays for the next poll")
}

func startPostgres(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("exerciselog"),
		postgrescontainer.WithUsername("postgres"),
		postgrescontainer.WithPassword("postgres"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, pingErr := pgxpool.New(ctx, connStr)
		if pingErr == nil {
			pingErr = pool.Ping(ctx)
			pool.Close()
		}
		if pingErr == nil {
			break
		}
		require.False(t, time.Now().After(deadline), "database did not become ready: %v", pingErr)
		time.Sleep(time.Second)
	}

	require.NoError(t, persistence.Migrate(connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}
