package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"transcribe-api/constant"
	"transcribe-api/dto"
	"transcribe-api/service"
)

// writeError maps the service error taxonomy onto a status code and the JSON error body.
func writeError(c *gin.Context, err error) {
	status, body := errorResponse(err)
	_ = c.Error(err)

	event := zerolog.Ctx(c.Request.Context()).Warn()
	if status >= http.StatusInternalServerError {
		event = zerolog.Ctx(c.Request.Context()).Error()
	}
	event.Err(err).Int("status", status).Str("code", body.Code).Msg("request failed")

	c.AbortWithStatusJSON(status, body)
}

func errorResponse(err error) (int, dto.ErrorResponse) {
	var upstream *service.UpstreamError
	switch {
	case errors.As(err, &upstream):
		return upstreamStatus(upstream), dto.ErrorResponse{Code: upstreamCode(upstream), Detail: upstreamDetail(upstream)}
	case errors.Is(err, service.ErrInvalidMediaType):
		return http.StatusBadRequest, dto.ErrorResponse{Code: "INVALID_MEDIA_TYPE", Detail: service.ErrInvalidMediaType.Error()}
	case errors.Is(err, service.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, dto.ErrorResponse{Code: "FILE_TOO_LARGE", Detail: err.Error()}
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Detail: err.Error()}
	case errors.Is(err, service.ErrAsyncUnavailable):
		return http.StatusServiceUnavailable, dto.ErrorResponse{Code: "ASYNC_UNAVAILABLE", Detail: err.Error()}
	default:
		return http.StatusInternalServerError, dto.ErrorResponse{Code: "STORAGE_FAILURE", Detail: err.Error()}
	}
}

// upstreamStatus proxies 4xx/5xx answers. Anything else, including timeouts and
// malformed responses, is a gateway failure.
func upstreamStatus(e *service.UpstreamError) int {
	if e.StatusCode >= 400 && e.StatusCode <= 599 {
		return e.StatusCode
	}
	if errors.Is(e.Err, context.DeadlineExceeded) || isTimeout(e.Err) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func upstreamCode(e *service.UpstreamError) string {
	if e.Stage == constant.UpstreamStageTranscription {
		return "UPSTREAM_TRANSCRIPTION_ERROR"
	}
	return "UPSTREAM_ANALYSIS_ERROR"
}

func upstreamDetail(e *service.UpstreamError) string {
	if e.Stage == constant.UpstreamStageTranscription {
		return "Azure Transcription API error: " + e.Body
	}
	return "Azure Chat API error: " + e.Body
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
