package logging_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JaimeStill/job-board/pkg/logging"
)

func TestConfig_Finalize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     logging.Config
		env     map[string]string
		want    logging.Config
		wantErr bool
	}{
		{
			name: "defaults",
			want: logging.Config{Level: logging.LevelInfo, Format: logging.FormatText},
		},
		{
			name: "env override",
			env:  map[string]string{"TEST_LOG_LEVEL": "debug", "TEST_LOG_FORMAT": "json"},
			want: logging.Config{Level: logging.LevelDebug, Format: logging.FormatJSON},
		},
		{
			name:    "invalid level",
			cfg:     logging.Config{Level: "verbose"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			cfg:     logging.Config{Format: "xml"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg := tt.cfg
			err := cfg.Finalize(&logging.Env{Level: "TEST_LOG_LEVEL", Format: "TEST_LOG_FORMAT"})
			if tt.wantErr {
				if err == nil {
					t.Fatal("Finalize() succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Finalize() error = %v", err)
			}
			if cfg.Level != tt.want.Level || cfg.Format != tt.want.Format {
				t.Errorf("got %s/%s, want %s/%s", cfg.Level, cfg.Format, tt.want.Level, tt.want.Format)
			}
		})
	}
}

func TestNewWithWriter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := &logging.Config{Level: logging.LevelWarn, Format: logging.FormatJSON}

	logger := logging.NewWithWriter(cfg, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "collection", "jobs")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, `"collection":"jobs"`) {
		t.Errorf("expected JSON attribute in output: %s", out)
	}
}

func TestNew_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")
	cfg := &logging.Config{File: path}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	logging.New(cfg).Info("file output")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "file output") {
		t.Errorf("log file missing message: %s", data)
	}
}

func TestNewWithWriter_Redacts(t *testing.T) {
	var buf bytes.Buffer
	cfg := &logging.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	logging.NewWithWriter(cfg, &buf).Info("issued", "uid", "user-1", "Token", "eyJhbGciOi")

	out := buf.String()
	if strings.Contains(out, "eyJhbGciOi") {
		t.Errorf("token leaked into output: %s", out)
	}
	if !strings.Contains(out, "uid=user-1") {
		t.Errorf("unredacted attribute missing: %s", out)
	}
}

func TestConfig_Merge(t *testing.T) {
	base := logging.Config{Level: logging.LevelInfo, Redact: logging.DefaultRedact}
	base.Merge(&logging.Config{Level: logging.LevelDebug, Redact: []string{"apiKey"}, AddSource: true})

	if base.Level != logging.LevelDebug || !base.AddSource {
		t.Errorf("Merge() = %+v", base)
	}
	if len(base.Redact) != 1 || base.Redact[0] != "apiKey" {
		t.Errorf("Redact = %v, want [apiKey]", base.Redact)
	}
}
