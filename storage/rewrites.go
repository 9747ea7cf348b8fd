package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// ErrNotFound is returned when a rewrite id does not exist
var ErrNotFound = errors.New("rewrite not found")

// Rewrite is one finished capture/improve/write run
type Rewrite struct {
	ID               int64     `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	CaptureLatencyMs int64     `json:"captureLatencyMs"`
	ImproveLatencyMs int64     `json:"improveLatencyMs"`
	TotalLatencyMs   int64     `json:"totalLatencyMs"`
	Provider         string    `json:"provider"`
	Model            string    `json:"model"`
	InputText        string    `json:"inputText"`
	OutputText       string    `json:"outputText"`
	Pasted           bool      `json:"pasted"`
	Success          bool      `json:"success"`
	ErrorMessage     string    `json:"errorMessage,omitempty"`
}

// SaveRewrite stores r and sets its ID
func (db *DB) SaveRewrite(r *Rewrite) error {
	query := `
		INSERT INTO rewrites (
			capture_latency_ms, improve_latency_ms, total_latency_ms,
			provider, model, input_text, output_text, input_chars, output_chars,
			pasted, success, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var errorMessage sql.NullString
	if r.ErrorMessage != "" {
		errorMessage = sql.NullString{String: r.ErrorMessage, Valid: true}
	}

	result, err := db.conn.Exec(query,
		r.CaptureLatencyMs, r.ImproveLatencyMs, r.TotalLatencyMs,
		r.Provider, r.Model, r.InputText, r.OutputText,
		utf8.RuneCountInString(r.InputText), utf8.RuneCountInString(r.OutputText),
		r.Pasted, r.Success, errorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to save rewrite: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}

	r.ID = id
	return nil
}

// GetRewrites returns rewrites newest first
func (db *DB) GetRewrites(limit, offset int) ([]Rewrite, error) {
	query := `
		SELECT
			id, timestamp, capture_latency_ms, improve_latency_ms, total_latency_ms,
			provider, model, input_text, output_text, pasted, success, error_message
		FROM rewrites
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := db.conn.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query rewrites: %w", err)
	}
	defer rows.Close()

	rewrites := []Rewrite{}
	for rows.Next() {
		var r Rewrite
		var errorMessage sql.NullString

		err := rows.Scan(
			&r.ID, &r.Timestamp, &r.CaptureLatencyMs, &r.ImproveLatencyMs, &r.TotalLatencyMs,
			&r.Provider, &r.Model, &r.InputText, &r.OutputText, &r.Pasted, &r.Success, &errorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rewrite: %w", err)
		}
		r.ErrorMessage = errorMessage.String

		rewrites = append(rewrites, r)
	}

	return rewrites, rows.Err()
}

// DeleteRewrite deletes a rewrite by ID
func (db *DB) DeleteRewrite(id int64) error {
	result, err := db.conn.Exec(`DELETE FROM rewrites WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rewrite: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetRewriteCount returns the total number of rewrites
func (db *DB) GetRewriteCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM rewrites").Scan(&count)
	return count, err
}
