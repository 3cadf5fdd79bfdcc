package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"transcribe-api/entities"
)

func setupTestRepo(t *testing.T) RecordingRepository {
	t.Helper()
	ctx := context.Background()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
	db, err := Connect(ctx, dsn, logger.Silent)
	require.NoError(t, err, "failed to open sqlite db")
	require.NoError(t, Migrate(ctx, db), "failed to migrate db")
	t.Cleanup(func() { _ = Close(db) })

	return NewRepo(db)
}

func newRecording(id string, createdAt time.Time) *entities.Recording {
	return &entities.Recording{
		ID:               id,
		Title:            "Recording " + id,
		OriginalFilename: id + ".mp3",
		AudioData:        []byte("ID3-fake-audio"),
		AudioMimeType:    "audio/mpeg",
		CreatedAt:        createdAt,
	}
}

func TestCreateAndFindRecording(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateRecording(ctx, newRecording("rec-1", time.Now().UTC())))

	withoutAudio, err := repo.FindRecordingById(ctx, "rec-1", FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Recording rec-1", withoutAudio.Title)
	assert.Equal(t, "audio/mpeg", withoutAudio.AudioMimeType)
	assert.Empty(t, withoutAudio.AudioData, "audio must not be loaded unless asked for")
	assert.Empty(t, withoutAudio.Transcript)
	assert.Empty(t, withoutAudio.Summary)

	withAudio, err := repo.FindRecordingById(ctx, "rec-1", FindOptions{WithAudio: true})
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3-fake-audio"), withAudio.AudioData)
	assert.True(t, withAudio.HasAudio())
}

func TestFindRecordingNotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.FindRecordingById(context.Background(), "missing", FindOptions{WithSegments: true})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListRecordingsNewestFirst(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateRecording(ctx, newRecording("middle", base.Add(time.Minute))))
	require.NoError(t, repo.CreateRecording(ctx, newRecording("oldest", base)))
	require.NoError(t, repo.CreateRecording(ctx, newRecording("newest", base.Add(time.Hour))))

	recordings, err := repo.ListRecordings(ctx)
	require.NoError(t, err)
	require.Len(t, recordings, 3)

	ids := []string{recordings[0].ID, recordings[1].ID, recordings[2].ID}
	assert.Equal(t, []string{"newest", "middle", "oldest"}, ids)
	for i := 1; i < len(recordings); i++ {
		assert.True(t, recordings[i-1].CreatedAt.After(recordings[i].CreatedAt))
	}
	assert.Empty(t, recordings[0].AudioData)
}

func TestSaveAnalysisReplacesSegments(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateRecording(ctx, newRecording("rec-1", time.Now().UTC())))

	err := repo.SaveAnalysis(ctx, "rec-1", AnalysisUpdate{
		Transcript: "One. Two. Three.",
		Summary:    "three words",
		Title:      "Counting",
		Segments: []entities.Segment{
			{Timestamp: "00:00", Text: "One."},
			{Timestamp: "01:40", Text: "Two."},
			{Timestamp: "03:20", Text: "Three."},
		},
	})
	require.NoError(t, err)

	err = repo.SaveAnalysis(ctx, "rec-1", AnalysisUpdate{
		Transcript: "Only one now.",
		Summary:    "shorter",
		Segments:   []entities.Segment{{Timestamp: "00:00", Text: "Only one now."}},
	})
	require.NoError(t, err)

	recording, err := repo.FindRecordingById(ctx, "rec-1", FindOptions{WithSegments: true})
	require.NoError(t, err)
	assert.Equal(t, "Only one now.", recording.Transcript)
	assert.Equal(t, "shorter", recording.Summary)
	assert.Equal(t, "Counting", recording.Title, "empty title keeps the stored one")
	require.Len(t, recording.Segments, 1)
	assert.Equal(t, "Only one now.", recording.Segments[0].Text)
}

func TestSaveAnalysisKeepsSegmentOrder(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateRecording(ctx, newRecording("rec-1", time.Now().UTC())))

	texts := []string{"c", "a", "b", "d"}
	segments := make([]entities.Segment, 0, len(texts))
	for _, text := range texts {
		segments = append(segments, entities.Segment{Timestamp: "00:00", Text: text})
	}
	require.NoError(t, repo.SaveAnalysis(ctx, "rec-1", AnalysisUpdate{Transcript: "x", Summary: "y", Segments: segments}))

	stored, err := repo.GetSegmentsByRecordingId(ctx, "rec-1")
	require.NoError(t, err)
	got := make([]string, 0, len(stored))
	for _, s := range stored {
		got = append(got, s.Text)
	}
	assert.Equal(t, texts, got)
}

func TestSaveAnalysisUnknownRecording(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.SaveAnalysis(context.Background(), "missing", AnalysisUpdate{Transcript: "a", Summary: "b"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeleteRecordingRemovesSegments(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateRecording(ctx, newRecording("rec-1", time.Now().UTC())))
	require.NoError(t, repo.SaveAnalysis(ctx, "rec-1", AnalysisUpdate{
		Transcript: "A. B.",
		Summary:    "s",
		Segments:   []entities.Segment{{Timestamp: "00:00", Text: "A."}, {Timestamp: "02:30", Text: "B."}},
	}))

	require.NoError(t, repo.DeleteRecording(ctx, "rec-1"))

	segments, err := repo.GetSegmentsByRecordingId(ctx, "rec-1")
	require.NoError(t, err)
	assert.Empty(t, segments)

	_, err = repo.FindRecordingById(ctx, "rec-1", FindOptions{})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.ErrorIs(t, repo.DeleteRecording(ctx, "rec-1"), gorm.ErrRecordNotFound, "second delete reports not found")
}

func TestLastSegmentTimestamps(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, repo.CreateRecording(ctx, newRecording("analyzed", now)))
	require.NoError(t, repo.CreateRecording(ctx, newRecording("fresh", now)))
	require.NoError(t, repo.SaveAnalysis(ctx, "analyzed", AnalysisUpdate{
		Transcript: "A. B.",
		Summary:    "s",
		Segments:   []entities.Segment{{Timestamp: "00:00", Text: "A."}, {Timestamp: "02:30", Text: "B."}},
	}))

	durations, err := repo.LastSegmentTimestamps(ctx, []string{"analyzed", "fresh"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"analyzed": "02:30"}, durations)

	empty, err := repo.LastSegmentTimestamps(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTransactionRollsBack(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateRecording(ctx, newRecording("rec-1", time.Now().UTC())))

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(ctx context.Context) error {
		if err := repo.SaveAnalysis(ctx, "rec-1", AnalysisUpdate{
			Transcript: "lost",
			Summary:    "lost",
			Segments:   []entities.Segment{{Timestamp: "00:00", Text: "lost"}},
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	recording, err := repo.FindRecordingById(ctx, "rec-1", FindOptions{WithSegments: true})
	require.NoError(t, err)
	assert.Empty(t, recording.Transcript)
	assert.Empty(t, recording.Segments)
}
