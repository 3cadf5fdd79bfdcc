package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"transcribe-api/config"
	"transcribe-api/constant"
	"transcribe-api/handler"
	"transcribe-api/pkg/metrics"
	"transcribe-api/repository"
)

func RunHttp(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.IsProduction()).Send()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := NewApp(ctx, cfg)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to initialise application")
		return err
	}
	defer app.Close(ctx)

	app.StartConsumer(ctx)

	r := NewRouter(ctx, cfg, handler.NewHttpHandler(app.Recordings, app.Analysis))

	srv := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Str("addr", srv.Addr).Msg("start http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Err(err).Msg("http server failed")
			cancel()
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("graceful shutdown failed")
	}

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
	return nil
}

// RunWorker consumes the analysis queue without serving http.
func RunWorker(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !cfg.Queue.Enabled() {
		return errors.New("rabbitmq.host is required to run the worker")
	}

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close(ctx)
	if app.Queue == nil {
		return errors.New("rabbitmq is unreachable")
	}

	app.StartConsumer(ctx)
	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("worker stopped")
	return nil
}

// RunMigrate creates the schema and exits.
func RunMigrate(cfg *config.Config) error {
	ctx := setupLogger(cfg)
	db, err := repository.Connect(ctx, cfg.Database.URL, gormLogLevel(cfg))
	if err != nil {
		return err
	}
	defer repository.Close(db)
	return repository.Migrate(ctx, db)
}

// NewRouter builds the gin engine with middleware, service endpoints and the API routes.
func NewRouter(ctx context.Context, cfg *config.Config, h *handler.HttpHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(zerolog.Ctx(ctx)), metrics.Middleware(), CORS(cfg.CORS.AllowedOrigins))
	r.MaxMultipartMemory = 32 << 20

	addRoot(r)
	addHealth(r)
	r.GET("/metrics", metrics.Handler())
	h.RegisterRoutes(r)
	return r
}

func addRoot(r *gin.Engine) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "API connected to database!",
		})
	})
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Log to standard output
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("app", cfg.App.Name).Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}
