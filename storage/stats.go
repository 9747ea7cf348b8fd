package storage

import (
	"fmt"
)

// DailyStats represents statistics for a single day
type DailyStats struct {
	Date          string `json:"date"`
	TotalRewrites int    `json:"totalRewrites"`
	SuccessCount  int    `json:"successCount"`
	FailureCount  int    `json:"failureCount"`
}

// OverallStats represents overall statistics
type OverallStats struct {
	TotalRewrites     int     `json:"totalRewrites"`
	SuccessCount      int     `json:"successCount"`
	FailureCount      int     `json:"failureCount"`
	PastedCount       int     `json:"pastedCount"`
	TotalInputChars   int64   `json:"totalInputChars"`
	TotalOutputChars  int64   `json:"totalOutputChars"`
	AvgCaptureMs      float64 `json:"avgCaptureMs"`
	AvgImproveMs      float64 `json:"avgImproveMs"`
	AvgTotalLatencyMs float64 `json:"avgTotalLatencyMs"`
}

// GetDailyStats retrieves statistics grouped by date for the last N days
func (db *DB) GetDailyStats(days int) ([]DailyStats, error) {
	query := `
		SELECT
			DATE(timestamp) as date,
			COUNT(*) as total_rewrites,
			COALESCE(SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END), 0) as success_count,
			COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0) as failure_count
		FROM rewrites
		WHERE timestamp >= datetime('now', '-' || ? || ' days')
		GROUP BY DATE(timestamp)
		ORDER BY date DESC
	`

	rows, err := db.conn.Query(query, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily stats: %w", err)
	}
	defer rows.Close()

	stats := []DailyStats{}
	for rows.Next() {
		var s DailyStats
		if err := rows.Scan(&s.Date, &s.TotalRewrites, &s.SuccessCount, &s.FailureCount); err != nil {
			return nil, fmt.Errorf("failed to scan daily stats: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// GetOverallStats retrieves overall statistics for the last N days
func (db *DB) GetOverallStats(days int) (*OverallStats, error) {
	query := `
		SELECT
			COUNT(*) as total_rewrites,
			COALESCE(SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END), 0) as success_count,
			COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0) as failure_count,
			COALESCE(SUM(CASE WHEN pasted = 1 THEN 1 ELSE 0 END), 0) as pasted_count,
			COALESCE(SUM(input_chars), 0) as total_input_chars,
			COALESCE(SUM(output_chars), 0) as total_output_chars,
			COALESCE(AVG(capture_latency_ms), 0) as avg_capture_ms,
			COALESCE(AVG(improve_latency_ms), 0) as avg_improve_ms,
			COALESCE(AVG(total_latency_ms), 0) as avg_total_latency_ms
		FROM rewrites
		WHERE timestamp >= datetime('now', '-' || ? || ' days')
	`

	var stats OverallStats
	err := db.conn.QueryRow(query, days).Scan(
		&stats.TotalRewrites,
		&stats.SuccessCount,
		&stats.FailureCount,
		&stats.PastedCount,
		&stats.TotalInputChars,
		&stats.TotalOutputChars,
		&stats.AvgCaptureMs,
		&stats.AvgImproveMs,
		&stats.AvgTotalLatencyMs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query overall stats: %w", err)
	}

	return &stats, nil
}
