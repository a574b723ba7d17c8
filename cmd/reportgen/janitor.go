package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Janitor removes stale uploads and generated documents on an interval.
type Janitor struct {
	dirs      []string
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
}

func NewJanitor(cfg Config, logger *slog.Logger) *Janitor {
	return &Janitor{
		dirs:      []string{cfg.UploadDir, cfg.OutputDir},
		retention: time.Duration(cfg.RetentionHours) * time.Hour,
		interval:  time.Duration(cfg.JanitorIntervalM) * time.Minute,
		logger:    logger,
	}
}

// Run sweeps until the context is canceled. A zero retention disables the
// janitor entirely.
func (j *Janitor) Run(ctx context.Context) error {
	if j.retention <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *Janitor) sweep() {
	cutoff := time.Now().Add(-j.retention)
	removed := 0

	for _, dir := range j.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			j.logger.Warn("janitor cannot read directory", "dir", dir, "error", err)
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil || info.ModTime().After(cutoff) {
				continue
			}
			if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
				j.logger.Warn("janitor remove failed", "file", entry.Name(), "error", err)
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		j.logger.Info("janitor sweep complete", "removed", removed)
	}
}
