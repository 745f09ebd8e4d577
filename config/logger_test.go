package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggingConfig_Prepare(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		debug    bool
		logDebug bool
		logInfo  bool
	}{
		{"file off", "none", false, false, false},
		{"file normal", "normal", false, false, true},
		{"file debug", "debug", false, true, true},
		{"forced by debug", "none", true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "stylo.log")
			conf := LoggingConfig{
				ConsoleLogger: LoggerConfig{Level: "none"},
				FileLogger:    LoggerConfig{Level: tt.file, Destination: dest, Mode: "append"},
			}
			log, err := conf.Prepare(tt.debug)
			if err != nil {
				t.Fatalf("Prepare() error = %v", err)
			}
			log.Debug("debug entry")
			log.Info("info entry")
			_ = log.Sync()

			data, _ := os.ReadFile(dest)
			if got := strings.Contains(string(data), "debug entry"); got != tt.logDebug {
				t.Errorf("debug entry logged = %v, want %v", got, tt.logDebug)
			}
			if got := strings.Contains(string(data), "info entry"); got != tt.logInfo {
				t.Errorf("info entry logged = %v, want %v", got, tt.logInfo)
			}
		})
	}
}

func TestMinLevel(t *testing.T) {
	if _, ok := minLevel("none"); ok {
		t.Error("none must disable logging")
	}
	if l, ok := minLevel("normal"); !ok || l.String() != "info" {
		t.Errorf("minLevel(normal) = %v, %v", l, ok)
	}
}
