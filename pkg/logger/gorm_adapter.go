package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSlowQuery = 200 * time.Millisecond

// GormLogger routes GORM output into the process logger under the "gorm"
// name. Missing rows are not logged: repositories turn them into NotFound
// errors and the caller decides whether that matters.
type GormLogger struct {
	level     gormlogger.LogLevel
	slowQuery time.Duration
}

// NewGormLogger slowQuery <= 0 falls back to 200ms.
func NewGormLogger(level gormlogger.LogLevel, slowQuery time.Duration) *GormLogger {
	if slowQuery <= 0 {
		slowQuery = defaultSlowQuery
	}
	return &GormLogger{level: level, slowQuery: slowQuery}
}

func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

// resolved per call so a logger created before Init still ends up in the
// configured sink
func (g *GormLogger) zap(ctx context.Context) *zap.Logger {
	return FromContext(ctx).Named("gorm").WithOptions(zap.AddCallerSkip(3))
}

func (g *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Info {
		g.zap(ctx).Info(fmt.Sprintf(msg, args...))
	}
}

func (g *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Warn {
		g.zap(ctx).Warn(fmt.Sprintf(msg, args...))
	}
}

func (g *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Error {
		g.zap(ctx).Error(fmt.Sprintf(msg, args...))
	}
}

func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound) && g.level >= gormlogger.Error:
		sql, rows := fc()
		g.zap(ctx).Error("query failed", zap.String("sql", sql), zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed), zap.Error(err))
	case elapsed > g.slowQuery && g.level >= gormlogger.Warn:
		sql, rows := fc()
		g.zap(ctx).Warn("slow query", zap.String("sql", sql), zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed), zap.Duration("threshold", g.slowQuery))
	case g.level >= gormlogger.Info:
		sql, rows := fc()
		g.zap(ctx).Debug("query", zap.String("sql", sql), zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed))
	}
}
