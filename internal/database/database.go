package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/welldanyogia/webrana-support-assistant/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connection pool configuration
const (
	DefaultMaxIdleConns    = 10
	DefaultMaxOpenConns    = 50
	DefaultConnMaxLifetime = time.Hour
	DefaultConnMaxIdleTime = 10 * time.Minute
)

const sqliteScheme = "sqlite://"

// Options controls how Connect opens the store
type Options struct {
	// Production enforces TLS for postgres connections
	Production bool
	// LogLevel is the gorm logger level, defaults to Warn
	LogLevel logger.LogLevel
	Logger   *slog.Logger
}

// Connect opens the message store. URLs starting with sqlite:// use the
// embedded sqlite driver, everything else is handed to postgres.
func Connect(databaseURL string, opts Options) (*gorm.DB, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	dialector, kind, err := openDialector(databaseURL, opts.Production)
	if err != nil {
		return nil, err
	}

	level := opts.LogLevel
	if level == 0 {
		level = logger.Warn
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	switch kind {
	case "postgres":
		if err := configureConnectionPool(db); err != nil {
			return nil, err
		}
	case "sqlite":
		// sqlite allows one writer; in-memory databases are per connection
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Info("Connected to database successfully", slog.String("driver", kind))
	return db, nil
}

func openDialector(databaseURL string, production bool) (gorm.Dialector, string, error) {
	if databaseURL == "" {
		return nil, "", fmt.Errorf("database URL is empty")
	}
	if strings.HasPrefix(databaseURL, sqliteScheme) {
		if production {
			return nil, "", fmt.Errorf("sqlite cannot be used in production")
		}
		return sqlite.Open(strings.TrimPrefix(databaseURL, sqliteScheme)), "sqlite", nil
	}
	if production {
		if err := validateSSLMode(databaseURL); err != nil {
			return nil, "", err
		}
	}
	return postgres.Open(databaseURL), "postgres", nil
}

// validateSSLMode ensures SSL is enabled in production
func validateSSLMode(databaseURL string) error {
	if strings.Contains(databaseURL, "sslmode=disable") {
		return fmt.Errorf("SSL mode cannot be disabled in production")
	}
	return nil
}

// configureConnectionPool sets up connection pool limits
func configureConnectionPool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(DefaultMaxIdleConns)
	sqlDB.SetMaxOpenConns(DefaultMaxOpenConns)
	sqlDB.SetConnMaxLifetime(DefaultConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(DefaultConnMaxIdleTime)

	return nil
}

// Migrate runs auto-migration for all models
func Migrate(db *gorm.DB, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	log.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.SupportMessage{},
		&models.KnowledgeEntry{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations completed successfully")
	return nil
}

// Ping checks that the database answers within ctx
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
