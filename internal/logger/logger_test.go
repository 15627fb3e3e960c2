package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInit(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")

	if err := Init(Config{ConfigDir: configDir}); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	logDir := filepath.Join(configDir, "logs")
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		t.Errorf("Log directory was not created: %s", logDir)
	}

	if Logger == nil {
		t.Fatal("Logger is nil after initialization")
	}

	Debug("Test debug message")
	Info("Test info message")
	Warn("Test warning message", "owner", "client-1:weekly")
	Error("Test error message")
}

func TestInitWithLevel(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")

	if err := Init(Config{ConfigDir: configDir, Level: "info"}); err != nil {
		t.Fatalf("Failed to initialize logger with level: %v", err)
	}
	if got := Logger.GetLevel().String(); got != "info" {
		t.Errorf("Logger level = %q, want %q", got, "info")
	}

	if err := Init(Config{ConfigDir: configDir, Level: "chatty"}); err == nil {
		t.Error("Expected an error for an unknown log level")
	}
}

func TestInitDebugOverridesLevel(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")

	if err := Init(Config{ConfigDir: configDir, Debug: true, Level: "error"}); err != nil {
		t.Fatalf("Failed to initialize logger in debug mode: %v", err)
	}
	if got := Logger.GetLevel().String(); got != "debug" {
		t.Errorf("Logger level = %q, want %q", got, "debug")
	}
}

func TestLogFunctionsWithoutInit(t *testing.T) {
	Logger = nil

	// These should not panic when Logger is nil
	Debug("Test debug message")
	Info("Test info message")
	Warn("Test warning message")
	Error("Test error message")
}
