package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.toml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	updated := []byte(`
[app]
name = "reloaded"

[[targets]]
name = "only"
width = 32
height = 32
  [[targets.color]]
  format = "B8G8R8A8_UNORM"
`)
	if err := os.WriteFile(path, updated, 0o644); err != nil {
		t.Fatal(err)
	}

	// a write may arrive as several events; wait for the complete document
	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-w.Configs():
			if cfg.App.Name == "reloaded" && len(cfg.Targets) == 1 {
				return
			}
		case <-w.Errors():
			// partial writes may fail to parse
		case <-deadline:
			t.Fatal("no reloaded config within 5s")
		}
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "targets.toml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := NewWatcher(path)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.toml"), []byte("not toml ["), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case cfg := <-w.Configs():
		t.Errorf("unexpected config %+v", cfg)
	case err := <-w.Errors():
		t.Errorf("unexpected error %v", err)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherCloseTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.toml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := NewWatcher(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err == nil {
		t.Error("second Close succeeded")
	}
}
