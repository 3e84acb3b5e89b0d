/*
Package gormdb is the relational persistence layer: GORM repositories for
the order, delivery and payment aggregates, the transactional outbox, the
unit of work and read-only directory lookups.

Repositories never use GORM associations. Each aggregate is loaded and saved
explicitly so that its boundary stays visible in the code.
*/
package gormdb

import (
	"context"
	"fmt"
	"time"

	"savoria/config"
	"savoria/pkg/logger"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 10
	DefaultConnMaxLifetime = 10 * time.Minute
	DefaultConnMaxIdleTime = 5 * time.Minute
)

// Options is the connection part of config.DatabaseConfig.
type Options struct {
	Driver          string
	Host            string
	Port            string
	Username        string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	LogLevel        string
	SlowQuery       time.Duration
}

func OptionsFromConfig(c config.DatabaseConfig) Options {
	return Options{
		Driver:          c.Type,
		Host:            c.Host,
		Port:            c.Port,
		Username:        c.Username,
		Password:        c.Password,
		Database:        c.Database,
		SSLMode:         c.SSLMode,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		LogLevel:        c.LogLevel,
		SlowQuery:       c.SlowQuery,
	}
}

// DSN builds the driver specific data source name.
func (o *Options) DSN() string {
	switch o.Driver {
	case "postgres":
		sslMode := o.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			o.Host, o.Port, o.Username, o.Password, o.Database, sslMode)
	case "sqlite":
		return o.Database + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4&collation=utf8mb4_unicode_ci&readTimeout=10s&writeTimeout=10s",
			o.Username, o.Password, o.Host, o.Port, o.Database)
	}
}

func (o *Options) dialector() (gorm.Dialector, error) {
	switch o.Driver {
	case "mysql", "":
		return mysql.Open(o.DSN()), nil
	case "postgres":
		return postgres.Open(o.DSN()), nil
	case "sqlite":
		return sqlite.Open(o.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", o.Driver)
	}
}

func (o *Options) parseLogLevel() gormlogger.LogLevel {
	switch o.LogLevel {
	case "debug", "info":
		return gormlogger.Info
	case "warn":
		return gormlogger.Warn
	case "error":
		return gormlogger.Error
	case "silent":
		return gormlogger.Silent
	default:
		return gormlogger.Warn
	}
}

func (o *Options) applyDefaults() {
	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = DefaultMaxOpenConns
	}
	if o.MaxIdleConns <= 0 {
		o.MaxIdleConns = DefaultMaxIdleConns
	}
	if o.MaxIdleConns > o.MaxOpenConns {
		o.MaxIdleConns = o.MaxOpenConns
	}
	if o.ConnMaxLifetime <= 0 {
		o.ConnMaxLifetime = DefaultConnMaxLifetime
	}
	if o.ConnMaxIdleTime <= 0 {
		o.ConnMaxIdleTime = DefaultConnMaxIdleTime
	}
	// sqlite has one writer; an in-memory database also exists per connection
	if o.Driver == "sqlite" {
		o.MaxOpenConns = 1
		o.MaxIdleConns = 1
	}
}

func (o *Options) Connect() (*gorm.DB, error) {
	o.applyDefaults()
	dialector, err := o.dialector()
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.NewGormLogger(o.parseLogLevel(), o.SlowQuery),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(o.MaxOpenConns)
	sqlDB.SetMaxIdleConns(o.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(o.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(o.ConnMaxIdleTime)

	logger.Info("Database connected",
		zap.String("driver", o.Driver),
		zap.String("host", o.Host),
		zap.String("database", o.Database),
		zap.Int("max_open_conns", o.MaxOpenConns),
		zap.Int("max_idle_conns", o.MaxIdleConns),
		zap.Duration("conn_max_lifetime", o.ConnMaxLifetime),
	)

	return db, nil
}

// Ping checks the connection of an open database.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
