package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"transcribe-api/constant"
)

type Config struct {
	App      App       `yaml:"app"`
	Server   Server    `yaml:"server"`
	Database Database  `yaml:"database"`
	Azure    Azure     `yaml:"azure"`
	Analysis Analysis  `yaml:"analysis"`
	Queue    *RabbitMQ `yaml:"rabbitmq"`
	Storage  Storage   `yaml:"minio"`
	CORS     CORS      `yaml:"cors"`
}

type App struct {
	Environment string `yaml:"environment"`
	Name        string `yaml:"name"`
}

type Server struct {
	HttpPort       string `yaml:"port"`
	Workers        int    `yaml:"workers"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

type Database struct {
	URL string `yaml:"url"`
}

// Azure holds the credentials and tuning of the Azure OpenAI deployments.
type Azure struct {
	APIKey               string        `yaml:"api_key"`
	Endpoint             string        `yaml:"endpoint"`
	TranscribeDeployment string        `yaml:"transcribe_deployment"`
	ChatDeployment       string        `yaml:"chat_deployment"`
	APIVersion           string        `yaml:"api_version"`
	ChatModel            string        `yaml:"chat_model"`
	MaxTokens            int           `yaml:"max_tokens"`
	Temperature          float64       `yaml:"temperature"`
	Timeout              time.Duration `yaml:"timeout"`
}

type Analysis struct {
	AssumedDuration time.Duration `yaml:"assumed_duration"`
}

type Storage struct {
	URL             string `yaml:"url"`
	AccessID        string `yaml:"access_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	Secure          bool   `yaml:"secure"`
}

// Enabled reports whether a summary archive bucket is configured.
func (s Storage) Enabled() bool {
	return s.URL != "" && s.Bucket != ""
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Load reads config.yaml from path (optional), a sibling .env file (optional) and the
// process environment. Environment variables win; nested keys map to upper snake case,
// e.g. azure.api_key -> AZURE_API_KEY.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(path, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{
		App: App{
			Environment: v.GetString("app.environment"),
			Name:        v.GetString("app.name"),
		},
		Server: Server{
			HttpPort:       v.GetString("server.port"),
			Workers:        v.GetInt("server.workers"),
			MaxUploadBytes: v.GetInt64("server.max_upload_bytes"),
		},
		Database: Database{
			URL: v.GetString("database.url"),
		},
		Azure: Azure{
			APIKey:               v.GetString("azure.api_key"),
			Endpoint:             strings.TrimRight(v.GetString("azure.endpoint"), "/"),
			TranscribeDeployment: v.GetString("azure.transcribe_deployment"),
			ChatDeployment:       v.GetString("azure.chat_deployment"),
			APIVersion:           v.GetString("azure.api_version"),
			ChatModel:            v.GetString("azure.chat_model"),
			MaxTokens:            v.GetInt("azure.max_tokens"),
			Temperature:          v.GetFloat64("azure.temperature"),
			Timeout:              v.GetDuration("azure.timeout"),
		},
		Analysis: Analysis{
			AssumedDuration: v.GetDuration("analysis.assumed_duration"),
		},
		Queue: &RabbitMQ{
			Host: v.GetString("rabbitmq.host"),
			Port: v.GetInt("rabbitmq.port"),
			User: v.GetString("rabbitmq.user"),
			Pass: v.GetString("rabbitmq.pass"),
			Kind: v.GetString("rabbitmq.kind"),
		},
		Storage: Storage{
			URL:             v.GetString("minio.url"),
			AccessID:        v.GetString("minio.access_id"),
			SecretAccessKey: v.GetString("minio.secret_access_key"),
			Bucket:          v.GetString("minio.bucket"),
			Secure:          v.GetBool("minio.secure"),
		},
		CORS: CORS{
			AllowedOrigins: splitList(v.GetStringSlice("cors.allowed_origins")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url (DATABASE_URL) is required"))
	}
	if c.Azure.APIKey == "" || c.Azure.Endpoint == "" {
		errs = append(errs, errors.New("missing required Azure configuration (AZURE_API_KEY, AZURE_ENDPOINT)"))
	}
	if c.Azure.TranscribeDeployment == "" || c.Azure.ChatDeployment == "" {
		errs = append(errs, errors.New("missing Azure deployments (AZURE_TRANSCRIBE_DEPLOYMENT, AZURE_CHAT_DEPLOYMENT)"))
	}
	if c.Analysis.AssumedDuration <= 0 {
		errs = append(errs, errors.New("analysis.assumed_duration must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == constant.EnvironmentProduction.String()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", constant.EnvironmentDevelop.String())
	v.SetDefault("app.name", "transcribe-api")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.workers", 2)
	v.SetDefault("server.max_upload_bytes", 25<<20)
	v.SetDefault("azure.api_version", constant.DefaultAPIVersion)
	v.SetDefault("azure.chat_model", constant.DefaultChatModel)
	v.SetDefault("azure.max_tokens", constant.DefaultMaxTokens)
	v.SetDefault("azure.temperature", constant.DefaultTemperature)
	v.SetDefault("azure.timeout", constant.DefaultUpstreamWait)
	v.SetDefault("analysis.assumed_duration", constant.DefaultDuration)
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.kind", "direct")
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5174"})
}

// splitList accepts both yaml lists and comma separated env values.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
