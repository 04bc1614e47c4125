package chread

import (
	"context"
	"crypto/tls"
	"fmt"
	"math"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
)

// Reader provides read access to the ClickHouse chat_events table.
type Reader struct {
	conn   driver.Conn
	logger *zap.Logger
}

// NewReader opens a ClickHouse connection for read queries.
func NewReader(dsn string, logger *zap.Logger) (*Reader, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}
	if opts.TLS == nil {
		opts.TLS = &tls.Config{}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}

	return &Reader{conn: conn, logger: logger}, nil
}

// Close closes the ClickHouse connection.
func (r *Reader) Close() error {
	return r.conn.Close()
}

// HistoryRow represents a single row from the chat_events table.
type HistoryRow struct {
	RequestID    string    `json:"request_id"`
	UserID       string    `json:"-"`
	Timestamp    time.Time `json:"timestamp"`
	Message      string    `json:"message"`
	Response     string    `json:"response"`
	ToolNames    []string  `json:"tool_names"`
	ToolOutcomes []string  `json:"tool_outcomes"`
	LatencyMs    float32   `json:"latency_ms"`
	Source       string    `json:"source"`
}

// ListHistory returns a user's chat exchanges newest first, plus the total count.
func (r *Reader) ListHistory(ctx context.Context, userID string, page, pageSize int) ([]HistoryRow, int, error) {
	var total uint64
	err := r.conn.QueryRow(ctx,
		"SELECT count() FROM chat_events WHERE user_id = @user_id",
		clickhouse.Named("user_id", userID),
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("ListHistory count: %w", err)
	}

	offset := (page - 1) * pageSize
	rows, err := r.conn.Query(ctx,
		"SELECT request_id, user_id, timestamp, message, response, "+
			"tool_names, tool_outcomes, latency_ms, source "+
			"FROM chat_events WHERE user_id = @user_id "+
			"ORDER BY timestamp DESC "+
			"LIMIT @limit OFFSET @offset",
		clickhouse.Named("user_id", userID),
		clickhouse.Named("limit", uint32(pageSize)),
		clickhouse.Named("offset", uint32(offset)),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("ListHistory query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []HistoryRow
	for rows.Next() {
		var e HistoryRow
		if err := rows.Scan(
			&e.RequestID, &e.UserID, &e.Timestamp, &e.Message, &e.Response,
			&e.ToolNames, &e.ToolOutcomes, &e.LatencyMs, &e.Source,
		); err != nil {
			return nil, 0, fmt.Errorf("ListHistory scan: %w", err)
		}
		events = append(events, e)
	}

	return events, int(total), rows.Err()
}

// ToolCount holds a tool name and its invocation count.
type ToolCount struct {
	Tool  string `json:"tool"`
	Count int    `json:"count"`
}

// LatencyStats holds latency percentiles.
type LatencyStats struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// UsageStats aggregates a user's chat activity over a time range.
type UsageStats struct {
	TotalChats         int          `json:"total_chats"`
	ToolCallsTotal     int          `json:"tool_calls_total"`
	ToolCallsFailed    int          `json:"tool_calls_failed"`
	TopTools           []ToolCount  `json:"top_tools"`
	LatencyPercentiles LatencyStats `json:"latency_percentiles"`
}

// GetUsageStats returns aggregated chat usage for a user over the given number of days.
func (r *Reader) GetUsageStats(ctx context.Context, userID string, days int) (*UsageStats, error) {
	rangeStart := time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	baseArgs := []any{
		clickhouse.Named("user_id", userID),
		clickhouse.Named("range_start", rangeStart),
	}

	result := &UsageStats{}

	var totalChats, toolCalls, succeeded uint64
	err := r.conn.QueryRow(ctx,
		"SELECT count() as total_chats, "+
			"sum(length(tool_names)) as tool_calls, "+
			"sum(countEqual(tool_outcomes, 'ok')) as succeeded "+
			"FROM chat_events "+
			"WHERE user_id = @user_id AND timestamp >= @range_start",
		baseArgs...,
	).Scan(&totalChats, &toolCalls, &succeeded)
	if err != nil {
		return nil, fmt.Errorf("GetUsageStats summary: %w", err)
	}
	result.TotalChats = int(totalChats)
	result.ToolCallsTotal = int(toolCalls)
	result.ToolCallsFailed = int(toolCalls) - int(succeeded)

	toolRows, err := r.conn.Query(ctx,
		"SELECT arrayJoin(tool_names) as tool, count() as count "+
			"FROM chat_events "+
			"WHERE user_id = @user_id AND timestamp >= @range_start "+
			"GROUP BY tool ORDER BY count DESC LIMIT 10",
		baseArgs...,
	)
	if err != nil {
		return nil, fmt.Errorf("GetUsageStats top_tools: %w", err)
	}
	defer func() { _ = toolRows.Close() }()
	for toolRows.Next() {
		var tool string
		var count uint64
		if err := toolRows.Scan(&tool, &count); err != nil {
			return nil, fmt.Errorf("GetUsageStats top_tools scan: %w", err)
		}
		result.TopTools = append(result.TopTools, ToolCount{Tool: tool, Count: int(count)})
	}

	var p50, p95, p99 float64
	err = r.conn.QueryRow(ctx,
		"SELECT quantile(0.5)(latency_ms) as p50, "+
			"quantile(0.95)(latency_ms) as p95, "+
			"quantile(0.99)(latency_ms) as p99 "+
			"FROM chat_events "+
			"WHERE user_id = @user_id AND timestamp >= @range_start",
		baseArgs...,
	).Scan(&p50, &p95, &p99)
	if err != nil {
		return nil, fmt.Errorf("GetUsageStats latency: %w", err)
	}
	result.LatencyPercentiles = LatencyStats{
		P50: safeFloat(p50), P95: safeFloat(p95), P99: safeFloat(p99),
	}

	// Ensure slices are non-nil for JSON serialization
	if result.TopTools == nil {
		result.TopTools = []ToolCount{}
	}

	return result, nil
}

// safeFloat replaces NaN/Inf with 0.0.
// ClickHouse returns NaN for quantile() on empty result sets.
func safeFloat(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0.0
	}
	return f
}
