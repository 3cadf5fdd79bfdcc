package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"transcribe-api/constant"
	"transcribe-api/dto"
	"transcribe-api/entities"
	"transcribe-api/pkg/rabbitmq"
	"transcribe-api/pkg/storage"
	"transcribe-api/repository"
)

// Provider is the remote speech-to-text and completion service.
type Provider interface {
	Transcribe(ctx context.Context, audio []byte, filename, mediaType string) (string, error)
	Complete(ctx context.Context, prompt, transcript string) (string, error)
}

type AnalyzeInput struct {
	RecordingId string
	Title       string
	Prompt      string
}

type AnalysisService interface {
	Analyze(ctx context.Context, in AnalyzeInput) (*entities.Recording, error)
	Enqueue(ctx context.Context, in AnalyzeInput) error
}

type analysisService struct {
	repo            repository.RecordingRepository
	provider        Provider
	archive         storage.Archive
	publisher       rabbitmq.Publisher
	assumedDuration time.Duration
}

// NewAnalysisService wires the orchestrator. publisher may be nil, in which case Enqueue
// reports ErrAsyncUnavailable.
func NewAnalysisService(
	repo repository.RecordingRepository,
	provider Provider,
	archive storage.Archive,
	publisher rabbitmq.Publisher,
	assumedDuration time.Duration,
) AnalysisService {
	if assumedDuration <= 0 {
		assumedDuration = constant.DefaultDuration
	}
	return &analysisService{
		repo:            repo,
		provider:        provider,
		archive:         archive,
		publisher:       publisher,
		assumedDuration: assumedDuration,
	}
}

// Analyze transcribes the stored audio, asks for an analysis of the transcript and
// writes transcript, summary, title, segments and the archived document in one
// transaction. Nothing is written when any step fails.
func (s *analysisService) Analyze(ctx context.Context, in AnalyzeInput) (*entities.Recording, error) {
	log := zerolog.Ctx(ctx).With().Str("recording_id", in.RecordingId).Logger()
	ctx = log.WithContext(ctx)

	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		prompt = constant.DefaultPrompt
	}

	recording, err := s.repo.FindRecordingById(ctx, in.RecordingId, repository.FindOptions{WithAudio: true})
	if err != nil {
		return nil, storageError(err)
	}
	if !recording.HasAudio() {
		return nil, errors.Join(ErrNotFound, ErrEmptyAudio)
	}

	log.Info().Str("media_type", recording.AudioMimeType).Int("size_bytes", len(recording.AudioData)).Msg("transcribing audio")
	transcript, err := s.provider.Transcribe(ctx, recording.AudioData, recording.OriginalFilename, recording.AudioMimeType)
	if err != nil {
		log.Error().Err(err).Msg("transcription failed")
		return nil, upstreamError(constant.UpstreamStageTranscription, err)
	}

	log.Info().Int("transcript_chars", len(transcript)).Msg("analyzing transcript")
	summary, err := s.provider.Complete(ctx, prompt, transcript)
	if err != nil {
		log.Error().Err(err).Msg("analysis failed")
		return nil, upstreamError(constant.UpstreamStageAnalysis, err)
	}

	recording.Transcript = transcript
	recording.Summary = summary
	if title := strings.TrimSpace(in.Title); title != "" {
		recording.Title = title
	}
	segments := BuildSegments(transcript, s.assumedDuration)

	err = s.repo.Transaction(ctx, func(ctx context.Context) error {
		if err := s.repo.SaveAnalysis(ctx, recording.ID, repository.AnalysisUpdate{
			Transcript: transcript,
			Summary:    summary,
			Title:      strings.TrimSpace(in.Title),
			Segments:   segments,
		}); err != nil {
			return err
		}
		return s.archive.PutSummary(ctx, recording.ID, SummaryDocument(recording))
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to save analysis")
		return nil, storageError(err)
	}

	recording.Segments = segments
	log.Info().Int("segments", len(segments)).Msg("recording analyzed")
	return recording, nil
}

func (s *analysisService) Enqueue(ctx context.Context, in AnalyzeInput) error {
	if s.publisher == nil {
		return ErrAsyncUnavailable
	}
	if _, err := s.repo.FindRecordingById(ctx, in.RecordingId, repository.FindOptions{}); err != nil {
		return storageError(err)
	}

	err := s.publisher.Publish(ctx, dto.AnalysisMessage{
		RecordingId: in.RecordingId,
		Title:       in.Title,
		Prompt:      in.Prompt,
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("recording_id", in.RecordingId).Msg("failed to publish analysis request")
		return errors.Join(ErrAsyncUnavailable, err)
	}

	zerolog.Ctx(ctx).Info().Str("recording_id", in.RecordingId).Msg("analysis queued")
	return nil
}
