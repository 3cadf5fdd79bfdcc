package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"transcribe-api/constant"
	"transcribe-api/dto"
	"transcribe-api/entities"
	"transcribe-api/pkg/storage"
	"transcribe-api/repository"
)

type UploadInput struct {
	Filename  string
	MediaType string
	Size      int64
	Body      io.Reader
}

type RecordingService interface {
	Upload(ctx context.Context, in UploadInput) (*entities.Recording, error)
	List(ctx context.Context) ([]dto.RecordingListItem, error)
	Get(ctx context.Context, id string) (*dto.RecordingDetail, error)
	Delete(ctx context.Context, id string) error
	Audio(ctx context.Context, id string) (*entities.Recording, error)
	SummaryDocument(ctx context.Context, id string) (*entities.Recording, []byte, error)
}

type recordingService struct {
	repo           repository.RecordingRepository
	archive        storage.Archive
	maxUploadBytes int64
	now            func() time.Time
}

func NewRecordingService(repo repository.RecordingRepository, archive storage.Archive, maxUploadBytes int64) RecordingService {
	return &recordingService{
		repo:           repo,
		archive:        archive,
		maxUploadBytes: maxUploadBytes,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// NormalizeMediaType strips parameters and lower-cases the type. It returns "" when the
// type is not an accepted audio format.
func NormalizeMediaType(mediaType string) string {
	parsed, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return ""
	}
	if !constant.AllowedAudioTypes[parsed] {
		return ""
	}
	return parsed
}

func DefaultTitle(at time.Time) string {
	return constant.DefaultTitlePrefix + at.Format(constant.DefaultTitleLayout)
}

func (s *recordingService) Upload(ctx context.Context, in UploadInput) (*entities.Recording, error) {
	mediaType := NormalizeMediaType(in.MediaType)
	if mediaType == "" {
		zerolog.Ctx(ctx).Warn().Str("media_type", in.MediaType).Msg("rejected upload")
		return nil, ErrInvalidMediaType
	}
	if s.maxUploadBytes > 0 && in.Size > s.maxUploadBytes {
		return nil, ErrFileTooLarge
	}

	body := in.Body
	if s.maxUploadBytes > 0 {
		body = io.LimitReader(in.Body, s.maxUploadBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Join(ErrStorageFailure, fmt.Errorf("read upload: %w", err))
	}
	if len(data) == 0 {
		return nil, errors.Join(ErrStorageFailure, ErrEmptyAudio)
	}
	if s.maxUploadBytes > 0 && int64(len(data)) > s.maxUploadBytes {
		return nil, ErrFileTooLarge
	}

	now := s.now()
	recording := &entities.Recording{
		ID:               uuid.NewString(),
		Title:            DefaultTitle(now),
		OriginalFilename: cleanFilename(in.Filename),
		AudioData:        data,
		AudioMimeType:    mediaType,
		CreatedAt:        now,
	}
	if err := s.repo.CreateRecording(ctx, recording); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to store recording")
		return nil, storageError(err)
	}

	zerolog.Ctx(ctx).Info().
		Str("recording_id", recording.ID).
		Str("media_type", mediaType).
		Int("size_bytes", len(data)).
		Msg("recording uploaded")
	return recording, nil
}

func (s *recordingService) List(ctx context.Context) ([]dto.RecordingListItem, error) {
	recordings, err := s.repo.ListRecordings(ctx)
	if err != nil {
		return nil, storageError(err)
	}

	ids := make([]string, 0, len(recordings))
	for _, r := range recordings {
		ids = append(ids, r.ID)
	}
	durations, err := s.repo.LastSegmentTimestamps(ctx, ids)
	if err != nil {
		return nil, storageError(err)
	}

	items := make([]dto.RecordingListItem, 0, len(recordings))
	for _, r := range recordings {
		items = append(items, r.ToListItem(durations[r.ID]))
	}
	return items, nil
}

func (s *recordingService) Get(ctx context.Context, id string) (*dto.RecordingDetail, error) {
	recording, err := s.repo.FindRecordingById(ctx, id, repository.FindOptions{WithSegments: true})
	if err != nil {
		return nil, storageError(err)
	}
	detail := recording.ToDetail()
	return &detail, nil
}

func (s *recordingService) Delete(ctx context.Context, id string) error {
	err := s.repo.Transaction(ctx, func(ctx context.Context) error {
		if err := s.repo.DeleteRecording(ctx, id); err != nil {
			return err
		}
		return s.archive.RemoveSummary(ctx, id)
	})
	if err != nil {
		return storageError(err)
	}

	zerolog.Ctx(ctx).Info().Str("recording_id", id).Msg("recording deleted")
	return nil
}

func (s *recordingService) Audio(ctx context.Context, id string) (*entities.Recording, error) {
	recording, err := s.repo.FindRecordingById(ctx, id, repository.FindOptions{WithAudio: true})
	if err != nil {
		return nil, storageError(err)
	}
	if !recording.HasAudio() {
		return nil, fmt.Errorf("%w: no audio stored", ErrNotFound)
	}
	return recording, nil
}

func (s *recordingService) SummaryDocument(ctx context.Context, id string) (*entities.Recording, []byte, error) {
	recording, err := s.repo.FindRecordingById(ctx, id, repository.FindOptions{})
	if err != nil {
		return nil, nil, storageError(err)
	}
	if !recording.IsAnalyzed() {
		return nil, nil, fmt.Errorf("%w: processed text not found", ErrNotFound)
	}
	return recording, SummaryDocument(recording), nil
}

func cleanFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "audio"
	}
	return name
}
