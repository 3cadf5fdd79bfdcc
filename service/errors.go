package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"transcribe-api/constant"
	"transcribe-api/pkg/azureopenai"
)

var (
	ErrInvalidMediaType = errors.New("invalid file type. Supported formats: mp3, wav, ogg, m4a")
	ErrFileTooLarge     = errors.New("audio file exceeds the maximum upload size")
	ErrEmptyAudio       = errors.New("audio file is empty")
	ErrNotFound         = errors.New("recording not found")
	ErrStorageFailure   = errors.New("storage failure")
	ErrAsyncUnavailable = errors.New("asynchronous analysis is not available")
)

// UpstreamError is a failed call to the transcription or completion deployment.
// StatusCode is zero when no HTTP response was received.
type UpstreamError struct {
	Stage      constant.UpstreamStage
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("upstream %s failed: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("upstream %s failed with status %d: %s", e.Stage, e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func upstreamError(stage constant.UpstreamStage, err error) error {
	ue := &UpstreamError{Stage: stage, Err: err}
	var apiErr *azureopenai.APIError
	if errors.As(err, &apiErr) {
		ue.StatusCode = apiErr.StatusCode
		ue.Body = apiErr.Body
	} else {
		ue.Body = err.Error()
	}
	return ue
}

// storageError maps a missing row to ErrNotFound and anything else to ErrStorageFailure.
func storageError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return errors.Join(ErrStorageFailure, err)
}
