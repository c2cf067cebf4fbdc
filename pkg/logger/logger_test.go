package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mesworup/Pneumonia-Detection-CNN/internal/config"
)

var testApp = config.AppConfig{Name: "pneumoscan", Environment: "test", Version: "v0"}

func TestNew_Formats(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		log, err := New(config.LogConfig{Level: "debug", Format: format, OutputPath: "stdout"}, testApp)
		if err != nil {
			t.Fatalf("New(%q): %v", format, err)
		}
		log.Debug("logger constructed")
	}
}

func TestNew_StampsServiceIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, err := New(config.LogConfig{Level: "info", Format: "json", OutputPath: path}, testApp)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("report created")
	_ = log.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var line map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(raw))), &line); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	for k, want := range map[string]string{"service": "pneumoscan", "env": "test", "version": "v0", "msg": "report created"} {
		if line[k] != want {
			t.Errorf("%s = %v, want %s", k, line[k], want)
		}
	}
	if _, ok := line["ts"]; !ok {
		t.Error("missing ts field")
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New(config.LogConfig{Level: "loud", Format: "json"}, testApp); err == nil {
		t.Fatal("expected error for invalid level")
	}
}
