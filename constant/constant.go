package constant

import "time"

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}

type UpstreamStage string

const (
	UpstreamStageTranscription UpstreamStage = "transcription"
	UpstreamStageAnalysis      UpstreamStage = "analysis"
)

func (s UpstreamStage) String() string {
	return string(s)
}

// AllowedAudioTypes lists the media types accepted by the upload endpoint.
var AllowedAudioTypes = map[string]bool{
	"audio/mpeg":  true,
	"audio/mp3":   true,
	"audio/wav":   true,
	"audio/ogg":   true,
	"audio/m4a":   true,
	"audio/mp4":   true,
	"audio/x-m4a": true,
}

const (
	DefaultPrompt       = "Please analyze this text and provide insights:"
	DefaultTitleLayout  = "2006-01-02 15:04:05"
	DefaultTitlePrefix  = "Recording "
	SystemPrompt        = "You are a helpful assistant analyzing transcribed audio."
	DefaultAPIVersion   = "2024-12-01-preview"
	DefaultChatModel    = "gpt-4"
	DefaultMaxTokens    = 800
	DefaultTemperature  = 0.7
	DefaultUpstreamWait = 30 * time.Second
	DefaultDuration     = 5 * time.Minute
	EmptyDuration       = "00:00"
)

const (
	AnalysisExchange   = "analysis_exchange"
	AnalysisQueue      = "analysis_queue"
	AnalysisRoutingKey = "analysis.request"
)
