package handler

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"transcribe-api/entities"
	"transcribe-api/service"
)

type fakeAnalysisService struct {
	err   error
	calls []service.AnalyzeInput
}

func (f *fakeAnalysisService) Analyze(_ context.Context, in service.AnalyzeInput) (*entities.Recording, error) {
	f.calls = append(f.calls, in)
	if f.err != nil {
		return nil, f.err
	}
	return &entities.Recording{ID: in.RecordingId}, nil
}

func (f *fakeAnalysisService) Enqueue(context.Context, service.AnalyzeInput) error {
	return nil
}

func TestAnalysisJobHandler(t *testing.T) {
	analysis := &fakeAnalysisService{}
	msg := amqp.Delivery{MessageId: "m-1", Body: []byte(`{"recordingId":"rec-1","title":"Standup","prompt":"List actions"}`)}

	err := AnalysisJobHandler(context.Background(), msg, ServiceDependencies{AnalysisService: analysis})
	require.NoError(t, err)
	assert.Equal(t, []service.AnalyzeInput{{RecordingId: "rec-1", Title: "Standup", Prompt: "List actions"}}, analysis.calls)
}

func TestAnalysisJobHandlerErrors(t *testing.T) {
	analysis := &fakeAnalysisService{err: service.ErrNotFound}
	deps := ServiceDependencies{AnalysisService: analysis}

	err := AnalysisJobHandler(context.Background(), amqp.Delivery{Body: []byte(`{`)}, deps)
	assert.Error(t, err)
	assert.Empty(t, analysis.calls, "malformed messages never reach the service")

	err = AnalysisJobHandler(context.Background(), amqp.Delivery{Body: []byte(`{"recordingId":"gone"}`)}, deps)
	assert.True(t, errors.Is(err, service.ErrNotFound))
}
