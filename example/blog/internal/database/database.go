package database

import (
	"context"
	"fmt"

	"github.com/kroma-labs/marginalia-go/comment"
	"github.com/kroma-labs/marginalia-go/example/blog/internal/config"
	marginaliasqlx "github.com/kroma-labs/marginalia-go/sqlx"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	_ "modernc.org/sqlite" // Register sqlite driver
)

const pkgPath = "github.com/kroma-labs/marginalia-go/example/blog/internal/database"

// DB is the blog's database. Every statement it runs ends with the comment
// of the request it runs for.
type DB struct {
	*marginaliasqlx.DB
}

// New connects to dsn and applies the schema.
func New(ctx context.Context, dsn string, logger zerolog.Logger) (*DB, error) {
	db, err := marginaliasqlx.Connect(ctx, config.DriverName, dsn, Options(logger)...)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(config.DefaultMaxOpen)
	db.SetMaxIdleConns(config.DefaultMaxIdle)
	db.SetConnMaxLifetime(config.DefaultMaxLifetime)
	db.SetConnMaxIdleTime(config.DefaultMaxIdleTime)

	if err := marginaliasqlx.RecordPoolMetrics(db, otel.GetMeterProvider().Meter(config.ServiceName)); err != nil {
		logger.Warn().Err(err).Msg("failed to register pool metrics")
	}

	wrapped := &DB{DB: db}
	if err := wrapped.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return wrapped, nil
}

// Options returns the wrapper options the blog opens its database with. The
// "line" component names the caller of this package, usually a handler.
func Options(logger zerolog.Logger) []marginaliasqlx.Option {
	return []marginaliasqlx.Option{
		marginaliasqlx.WithApplication(config.Application),
		marginaliasqlx.WithDBSystem(config.DefaultDBSystem),
		marginaliasqlx.WithDBName(config.DefaultDBName),
		marginaliasqlx.WithInstanceName(config.DefaultInstance),
		marginaliasqlx.WithLogger(logger),
		marginaliasqlx.WithCommentOptions(
			comment.WithDBDriver(config.DriverName),
			comment.WithCaller(pkgPath),
			comment.WithTraceContext(),
		),
	}
}
