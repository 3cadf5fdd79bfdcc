package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
	"transcribe-api/entities"
)

// Connect opens PostgreSQL for postgres:// URLs and SQLite (pure Go driver) for anything
// else, which keeps local runs and tests free of a database server.
func Connect(ctx context.Context, dsn string, logLevel logger.LogLevel) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:  logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}

	if isPostgres(dsn) {
		zerolog.Ctx(ctx).Info().Msg("connecting to PostgreSQL")
		sqlDB, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		return gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormCfg)
	}

	zerolog.Ctx(ctx).Info().Str("dsn", dsn).Msg("using SQLite")
	db, err := gorm.Open(gormsqlite.New(gormsqlite.Config{
		DriverName: "sqlite",
		DSN:        dsn,
	}), gormCfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// single writer; also keeps shared in-memory databases alive between queries
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Migrate creates the tables and indexes when they are absent. Safe to run on every start.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&entities.Recording{}, &entities.Segment{}); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Msg("database schema ready")
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
