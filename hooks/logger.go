// Package hooks provides observability hooks for storekit: structured
// query logging, Prometheus metrics with pool statistics, and
// OpenTelemetry spans.
package hooks

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// maxLoggedQueryLen bounds the query text attached to log records and
// spans.
const maxLoggedQueryLen = 500

// LoggerHook logs queries through slog. With logAll every query is
// logged at debug level; independently, queries slower than
// slowThreshold are logged at warn level, and failed queries at error
// level.
type LoggerHook struct {
	logger        *slog.Logger
	logAll        bool
	slowThreshold time.Duration
}

func NewLoggerHook(logger *slog.Logger, logAll bool, slowThreshold time.Duration) *LoggerHook {
	return &LoggerHook{
		logger:        logger,
		logAll:        logAll,
		slowThreshold: slowThreshold,
	}
}

func (h *LoggerHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *LoggerHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	duration := time.Since(event.StartTime)
	slow := h.slowThreshold > 0 && duration >= h.slowThreshold

	if !h.logAll && !slow && event.Err == nil {
		return
	}

	attrs := []slog.Attr{
		slog.String("operation", OperationType(event.Query)),
		slog.Duration("duration", duration),
		slog.String("query", truncateQuery(event.Query)),
	}
	if rows, ok := rowsAffected(event); ok {
		attrs = append(attrs, slog.Int64("rows", rows))
	}

	switch {
	case event.Err != nil:
		attrs = append(attrs, slog.String("error", event.Err.Error()))
		h.logger.LogAttrs(ctx, slog.LevelError, "query failed", attrs...)
	case slow:
		attrs = append(attrs, slog.Duration("threshold", h.slowThreshold))
		h.logger.LogAttrs(ctx, slog.LevelWarn, "slow query", attrs...)
	default:
		h.logger.LogAttrs(ctx, slog.LevelDebug, "query", attrs...)
	}
}

// rowsAffected extracts the affected-row count from a finished write,
// when the driver reports one.
func rowsAffected(event *bun.QueryEvent) (int64, bool) {
	if event.Result == nil || event.Err != nil {
		return 0, false
	}
	rows, err := event.Result.RowsAffected()
	if err != nil {
		return 0, false
	}
	return rows, true
}

func truncateQuery(query string) string {
	if len(query) > maxLoggedQueryLen {
		return query[:maxLoggedQueryLen] + "..."
	}
	return query
}

// OperationType extracts the statement verb from a query for use as a
// low-cardinality label.
func OperationType(query string) string {
	query = strings.TrimSpace(strings.ToUpper(query))
	switch {
	case strings.HasPrefix(query, "SELECT"):
		return "select"
	case strings.HasPrefix(query, "INSERT"):
		return "insert"
	case strings.HasPrefix(query, "UPDATE"):
		return "update"
	case strings.HasPrefix(query, "DELETE"):
		return "delete"
	case strings.HasPrefix(query, "CREATE"):
		return "create"
	case strings.HasPrefix(query, "DROP"):
		return "drop"
	case strings.HasPrefix(query, "ALTER"):
		return "alter"
	case strings.HasPrefix(query, "TRUNCATE"):
		return "truncate"
	case strings.HasPrefix(query, "BEGIN"):
		return "begin"
	case strings.HasPrefix(query, "COMMIT"):
		return "commit"
	case strings.HasPrefix(query, "ROLLBACK"):
		return "rollback"
	case strings.HasPrefix(query, "SAVEPOINT"):
		return "savepoint"
	case strings.HasPrefix(query, "RELEASE"):
		return "release"
	default:
		return "other"
	}
}
