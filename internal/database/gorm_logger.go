package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SlowQueryThreshold is the duration above which a statement is logged at
// Warn even when Debug is off.
const SlowQueryThreshold = 250 * time.Millisecond

const maxSQLLength = 200

// gormLogger sends GORM output to the default slog logger, resolved per
// call so log.Configure applies to databases opened earlier.
type gormLogger struct {
	slow time.Duration
}

func (l gormLogger) log() *slog.Logger {
	return slog.Default().With(slog.String("component", "database"))
}

// LogMode is a no-op; slog levels decide what is emitted.
func (l gormLogger) LogMode(logger.LogLevel) logger.Interface { return l }

func (l gormLogger) Info(ctx context.Context, msg string, args ...any) {
	l.log().InfoContext(ctx, fmt.Sprintf(msg, args...))
}

func (l gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.log().WarnContext(ctx, fmt.Sprintf(msg, args...))
}

func (l gormLogger) Error(ctx context.Context, msg string, args ...any) {
	l.log().ErrorContext(ctx, fmt.Sprintf(msg, args...))
}

// Trace runs after every statement. gorm.ErrRecordNotFound is an ordinary
// empty First and is not an error here.
func (l gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	lg := l.log()

	level := slog.LevelDebug
	msg := "query"
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		level, msg = slog.LevelError, "query failed"
	case l.slow > 0 && elapsed > l.slow:
		level, msg = slog.LevelWarn, "slow query"
	}
	if !lg.Enabled(ctx, level) {
		return
	}

	sql, rows := fc()
	attrs := []slog.Attr{
		slog.String("sql", truncateSQL(sql)),
		slog.Int64("rows", rows),
		slog.Duration("duration", elapsed),
	}
	if level == slog.LevelError {
		attrs = append(attrs, slog.Any("error", err))
	}
	lg.LogAttrs(ctx, level, msg, attrs...)
}

// truncateSQL keeps the head and tail of long statements.
func truncateSQL(sql string) string {
	if len(sql) <= maxSQLLength {
		return sql
	}
	half := (maxSQLLength - 3) / 2
	return sql[:half] + "..." + sql[len(sql)-half:]
}
