package server

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"transcribe-api/config"
	"transcribe-api/constant"
	"transcribe-api/handler"
	"transcribe-api/pkg/azureopenai"
	"transcribe-api/pkg/rabbitmq"
	"transcribe-api/pkg/storage"
	"transcribe-api/repository"
	"transcribe-api/service"
)

var analysisTopology = rabbitmq.Topology{
	Exchange:   constant.AnalysisExchange,
	Queue:      constant.AnalysisQueue,
	RoutingKey: constant.AnalysisRoutingKey,
}

// App holds the long-lived dependencies shared by the http server and the queue worker.
type App struct {
	Config     *config.Config
	DB         *gorm.DB
	Repo       repository.RecordingRepository
	Recordings service.RecordingService
	Analysis   service.AnalysisService
	Queue      *amqp.Connection
}

// NewApp connects to the database (creating the schema), the optional archive bucket and
// the optional broker. A broker that cannot be reached only disables async analysis.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := repository.Connect(ctx, cfg.Database.URL, gormLogLevel(cfg))
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(ctx, db); err != nil {
		return nil, err
	}

	archive, err := storage.NewArchive(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	var conn *amqp.Connection
	var publisher rabbitmq.Publisher
	if cfg.Queue.Enabled() {
		conn, err = config.NewRabbitMQConn(ctx, cfg.Queue)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("NewRabbitMQConn")
		} else if publisher, err = rabbitmq.NewPublisher(conn, cfg.Queue, analysisTopology); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("NewPublisher")
			publisher = nil
		}
	} else {
		zerolog.Ctx(ctx).Info().Msg("rabbitmq not configured, async analysis disabled")
	}

	repo := repository.NewRepo(db)
	provider := azureopenai.NewClient(cfg.Azure)

	return &App{
		Config:     cfg,
		DB:         db,
		Repo:       repo,
		Recordings: service.NewRecordingService(repo, archive, cfg.Server.MaxUploadBytes),
		Analysis:   service.NewAnalysisService(repo, provider, archive, publisher, cfg.Analysis.AssumedDuration),
		Queue:      conn,
	}, nil
}

func (a *App) StartConsumer(ctx context.Context) {
	if a.Queue == nil {
		return
	}
	deps := handler.ServiceDependencies{AnalysisService: a.Analysis}
	consumer := rabbitmq.NewConsumer(a.Queue, a.Config.Queue, analysisTopology, a.Config.Server.Workers, handler.AnalysisJobHandler)
	go func() {
		if err := consumer.Consume(ctx, deps); err != nil && ctx.Err() == nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("analysis consumer error")
		}
	}()
}

func (a *App) Close(ctx context.Context) {
	if err := repository.Close(a.DB); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to close database")
	}
}

func gormLogLevel(cfg *config.Config) logger.LogLevel {
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		return logger.Info
	}
	return logger.Warn
}
