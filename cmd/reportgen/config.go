package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
)

// Config drives the report service. It is stored as a single JSON file and
// created with defaults on first run.
type Config struct {
	ListenAddr  string `json:"listen_addr"`
	LogLevel    string `json:"log_level"`
	TemplateDir string `json:"template_dir"`
	UploadDir   string `json:"upload_dir"`
	OutputDir   string `json:"output_dir"`
	WebDir      string `json:"web_dir"`
	DBPath      string `json:"db_path"`

	// MaxUploadMB bounds the whole multipart request body
	MaxUploadMB int64 `json:"max_upload_mb"`

	// RetentionHours is how long uploads and outputs are kept before the
	// janitor removes them; 0 disables cleanup
	RetentionHours   int `json:"retention_hours"`
	JanitorIntervalM int `json:"janitor_interval_minutes"`
}

func defaultConfig() Config {
	return Config{
		ListenAddr:       ":8080",
		LogLevel:         "info",
		TemplateDir:      "templates",
		UploadDir:        "uploads",
		OutputDir:        "generated",
		WebDir:           "web/templates",
		DBPath:           "reportgen.db",
		MaxUploadMB:      64,
		RetentionHours:   72,
		JanitorIntervalM: 30,
	}
}

// LoadConfig reads the JSON config, writing a default one if the file does
// not exist yet.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := defaultConfig()
		out, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return Config{}, fmt.Errorf("encode default config: %w", err)
		}
		if err := atomic.WriteFile(path, bytes.NewReader(out)); err != nil {
			return Config{}, fmt.Errorf("write default config: %w", err)
		}
		fmt.Printf("Created default config at %s\n", path)
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := defaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
