package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"transcribe-api/entities"
)

// setupPostgresRepo starts a PostgreSQL container. Skipped unless TEST_INTEGRATION is set.
func setupPostgresRepo(t *testing.T) RecordingRepository {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION is not set")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("transcribe_test"),
		postgres.WithUsername("transcribe"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Connect(ctx, dsn, logger.Silent)
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db), "schema creation must be idempotent")
	t.Cleanup(func() { _ = Close(db) })

	return NewRepo(db)
}

func TestPostgresRecordingLifecycle(t *testing.T) {
	repo := setupPostgresRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateRecording(ctx, newRecording("3f7c1d2e-0000-4000-8000-000000000001", time.Now().UTC())))
	id := "3f7c1d2e-0000-4000-8000-000000000001"

	require.NoError(t, repo.SaveAnalysis(ctx, id, AnalysisUpdate{
		Transcript: "Hello world. This is a test.",
		Summary:    "Two short sentences.",
		Segments:   []entities.Segment{{Timestamp: "00:00", Text: "Hello world."}, {Timestamp: "02:19", Text: "This is a test."}},
	}))

	durations, err := repo.LastSegmentTimestamps(ctx, []string{id})
	require.NoError(t, err)
	assert.Equal(t, "02:19", durations[id])

	recording, err := repo.FindRecordingById(ctx, id, FindOptions{WithAudio: true, WithSegments: true})
	require.NoError(t, err)
	assert.Len(t, recording.Segments, 2)
	assert.Equal(t, []byte("ID3-fake-audio"), recording.AudioData)

	require.NoError(t, repo.DeleteRecording(ctx, id))
	segments, err := repo.GetSegmentsByRecordingId(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, segments)
	assert.ErrorIs(t, repo.DeleteRecording(ctx, id), gorm.ErrRecordNotFound)
}
