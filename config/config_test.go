package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, v := range []string{
		"MAILTO_PRINTABLE_THRESHOLD", "MAILTO_SHORT_STRING_MIN",
		"MAILTO_LISTEN", "MAILTO_MAX_UPLOAD_BYTES", "MAILTO_LOG_LEVEL",
	} {
		t.Setenv(v, "")
	}

	cfg := Load()
	if cfg.Decode.PrintableThreshold != 0.7 {
		t.Errorf("PrintableThreshold = %v, want 0.7", cfg.Decode.PrintableThreshold)
	}
	if cfg.Decode.ShortStringMin != 5 {
		t.Errorf("ShortStringMin = %d, want 5", cfg.Decode.ShortStringMin)
	}
	if cfg.Serve.Listen != ":8080" {
		t.Errorf("Listen = %q, want :8080", cfg.Serve.Listen)
	}
	if cfg.Serve.MaxUploadBytes != defaultMaxUpload {
		t.Errorf("MaxUploadBytes = %d, want %d", cfg.Serve.MaxUploadBytes, defaultMaxUpload)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := "decode:\n  printable_threshold: 0.9\nserve:\n  listen: \":9000\"\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MAILTO_LISTEN", ":7070")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Decode.PrintableThreshold != 0.9 {
		t.Errorf("PrintableThreshold = %v, want the file value 0.9", cfg.Decode.PrintableThreshold)
	}
	if cfg.Serve.Listen != ":7070" {
		t.Errorf("Listen = %q, want the env override :7070", cfg.Serve.Listen)
	}
	if cfg.Decode.ShortStringMin != 5 {
		t.Errorf("ShortStringMin = %d, want the default 5", cfg.Decode.ShortStringMin)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("LoadFromFile succeeded on a missing file")
	}
}

func TestEnvNumericOverrides(t *testing.T) {
	t.Setenv("MAILTO_PRINTABLE_THRESHOLD", "0.85")
	t.Setenv("MAILTO_SHORT_STRING_MIN", "8")
	t.Setenv("MAILTO_MAX_UPLOAD_BYTES", "1048576")

	cfg := Load()
	if cfg.Decode.PrintableThreshold != 0.85 {
		t.Errorf("PrintableThreshold = %v, want 0.85", cfg.Decode.PrintableThreshold)
	}
	if cfg.Decode.ShortStringMin != 8 {
		t.Errorf("ShortStringMin = %d, want 8", cfg.Decode.ShortStringMin)
	}
	if cfg.Serve.MaxUploadBytes != 1048576 {
		t.Errorf("MaxUploadBytes = %d, want 1048576", cfg.Serve.MaxUploadBytes)
	}
}

func TestEnvUnparseableKeepsDefault(t *testing.T) {
	t.Setenv("MAILTO_SHORT_STRING_MIN", "many")
	cfg := Load()
	if cfg.Decode.ShortStringMin != 5 {
		t.Errorf("ShortStringMin = %d, want the default 5", cfg.Decode.ShortStringMin)
	}
}

func TestOptionsBridge(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	opt := cfg.Options()
	if opt.PrintableThreshold != 0.7 || opt.ShortStringMin != 5 {
		t.Errorf("Options = %+v, want the decode defaults", opt)
	}
}

func TestLogLevel(t *testing.T) {
	cases := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"junk", slog.LevelInfo},
	}
	for _, tc := range cases {
		cfg := &Config{Logging: LoggingConfig{Level: tc.level}}
		if got := cfg.LogLevel(); got != tc.want {
			t.Errorf("LogLevel(%q) = %v, want %v", tc.level, got, tc.want)
		}
	}
}
