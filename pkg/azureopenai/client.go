package azureopenai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"transcribe-api/config"
	"transcribe-api/constant"
	"transcribe-api/pkg/metrics"
)

// APIError is a non-2xx answer from Azure. Body is kept verbatim.
type APIError struct {
	Stage      constant.UpstreamStage
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("azure %s: http %d: %s", e.Stage, e.StatusCode, e.Body)
}

var ErrEmptyCompletion = errors.New("completion returned no choices")

type Client struct {
	cfg        config.Azure
	httpClient *http.Client
}

func NewClient(cfg config.Azure) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constant.DefaultUpstreamWait
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Model       string        `json:"model,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Transcribe uploads the audio as multipart field "file" and returns the recognised text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename, mediaType string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filename)))
	header.Set("Content-Type", mediaType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	endpoint := c.deploymentURL(c.cfg.TranscribeDeployment, "audio/transcriptions")
	respBody, err := c.do(ctx, constant.UpstreamStageTranscription, endpoint, mw.FormDataContentType(), &body)
	if err != nil {
		return "", err
	}

	var tr transcriptionResponse
	if err := json.Unmarshal(respBody, &tr); err != nil {
		return "", fmt.Errorf("decode transcription response: %w", err)
	}
	return tr.Text, nil
}

// Complete sends prompt and transcript to the chat deployment and returns the first choice.
func (c *Client) Complete(ctx context.Context, prompt, transcript string) (string, error) {
	payload := chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: constant.SystemPrompt},
			{Role: "user", Content: fmt.Sprintf("%s\n\nTranscript: %s", prompt, transcript)},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Model:       c.cfg.ChatModel,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	endpoint := c.deploymentURL(c.cfg.ChatDeployment, "chat/completions")
	respBody, err := c.do(ctx, constant.UpstreamStageAnalysis, endpoint, "application/json", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}

	var cr chatResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return cr.Choices[0].Message.Content, nil
}

func (c *Client) do(ctx context.Context, stage constant.UpstreamStage, endpoint, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveUpstream(stage.String(), "error", time.Since(start))
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	metrics.ObserveUpstream(stage.String(), fmt.Sprint(resp.StatusCode), time.Since(start))
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("stage", stage.String()).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("azure response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Stage: stage, StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

func (c *Client) deploymentURL(deployment, operation string) string {
	q := url.Values{}
	q.Set("api-version", c.cfg.APIVersion)
	return fmt.Sprintf("%s/openai/deployments/%s/%s?%s", c.cfg.Endpoint, url.PathEscape(deployment), operation, q.Encode())
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
