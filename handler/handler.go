package handler

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"transcribe-api/dto"
	"transcribe-api/service"
)

type ServiceDependencies struct {
	AnalysisService service.AnalysisService
}

// AnalysisJobHandler runs one queued analysis request.
func AnalysisJobHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var analysisMsg dto.AnalysisMessage
	if err := json.Unmarshal(msg.Body, &analysisMsg); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal analysis message")
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("message_id", msg.MessageId).
		Str("recording_id", analysisMsg.RecordingId).
		Msg("received analysis message")

	_, err := deps.AnalysisService.Analyze(ctx, service.AnalyzeInput{
		RecordingId: analysisMsg.RecordingId,
		Title:       analysisMsg.Title,
		Prompt:      analysisMsg.Prompt,
	})
	if err != nil {
		return err
	}

	return nil
}
