package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS report_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	generated_at TEXT NOT NULL,
	organization TEXT NOT NULL,
	template_file TEXT NOT NULL,
	output_file TEXT NOT NULL,
	gallery_images INTEGER NOT NULL DEFAULT 0,
	annexure_images INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_history_generated_at ON report_history(generated_at);
`

// HistoryStore records every generated report in sqlite.
type HistoryStore struct {
	db *sql.DB
}

// HistoryEntry is one generation record.
type HistoryEntry struct {
	ID             int64  `json:"id"`
	GeneratedAt    string `json:"generated_at"`
	Organization   string `json:"organization"`
	TemplateFile   string `json:"template_file"`
	OutputFile     string `json:"output_file"`
	GalleryImages  int    `json:"gallery_images"`
	AnnexureImages int    `json:"annexure_images"`
}

// HistorySummary aggregates the whole history table.
type HistorySummary struct {
	TotalReports  int    `json:"total_reports"`
	TotalImages   int    `json:"total_images"`
	Organizations int    `json:"organizations"`
	LastGenerated string `json:"last_generated,omitempty"`
}

func NewHistoryStore(db *sql.DB) (*HistoryStore, error) {
	if _, err := db.Exec(historySchema); err != nil {
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &HistoryStore{db: db}, nil
}

// Record inserts one generation entry.
func (s *HistoryStore) Record(ctx context.Context, entry HistoryEntry) error {
	generatedAt := entry.GeneratedAt
	if generatedAt == "" {
		generatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO report_history
		 (generated_at, organization, template_file, output_file, gallery_images, annexure_images)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		generatedAt, entry.Organization, entry.TemplateFile, entry.OutputFile,
		entry.GalleryImages, entry.AnnexureImages)
	if err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

// Recent returns the latest entries, newest first.
func (s *HistoryStore) Recent(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, generated_at, organization, template_file, output_file,
		        gallery_images, annexure_images
		 FROM report_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := []HistoryEntry{}
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.GeneratedAt, &e.Organization, &e.TemplateFile,
			&e.OutputFile, &e.GalleryImages, &e.AnnexureImages); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Summary aggregates totals across the history.
func (s *HistoryStore) Summary(ctx context.Context) (HistorySummary, error) {
	var sum HistorySummary
	var last sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(gallery_images + annexure_images), 0),
		        COUNT(DISTINCT organization),
		        MAX(generated_at)
		 FROM report_history`).
		Scan(&sum.TotalReports, &sum.TotalImages, &sum.Organizations, &last)
	if err != nil {
		return HistorySummary{}, fmt.Errorf("query summary: %w", err)
	}
	if last.Valid {
		sum.LastGenerated = last.String
	}
	return sum, nil
}
