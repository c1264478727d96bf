package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/domsync/internal/config"
	"github.com/vango-dev/domsync/internal/errors"
)

const (
	mountJSON = `{"patches": {"0": [{"Mount": {"Data": {"kind": "p", "props": {"id": "greeting"}, "children": [{"Text": "hello"}], "key": null}}}]}}`
	propsJSON = `{"patches": {"0": [{"Props": [{"id": "greeting"}, {"title": "hi"}]}]}}`
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunApply(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name  string
		files map[string]string
		stdin string
		want  string
	}{
		{
			name:  "single file",
			files: map[string]string{"a.json": mountJSON},
			want:  `<p id="greeting"><span>hello</span></p>`,
		},
		{
			name:  "array then stream",
			files: map[string]string{"a.json": "[" + mountJSON + "]", "b.json": propsJSON + "\n"},
			want:  `<p id="greeting" title="hi"><span>hello</span></p>`,
		},
		{
			name:  "stdin stream",
			stdin: mountJSON + "\n" + propsJSON,
			want:  `<p id="greeting" title="hi"><span>hello</span></p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var files []string
			for _, name := range []string{"a.json", "b.json"} {
				if body, ok := tt.files[name]; ok {
					files = append(files, writeFile(t, dir, name, body))
				}
			}

			var out bytes.Buffer
			err := runApply(context.Background(), strings.NewReader(tt.stdin), &out, files, config.New(), quietLogger())
			if err != nil {
				t.Fatalf("runApply: %v", err)
			}
			if got := strings.TrimSpace(out.String()); got != tt.want {
				t.Errorf("output = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRunApplyErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name  string
		files []string
		stdin string
		code  string
	}{
		{"empty input", nil, "", "DS501"},
		{"missing file", []string{filepath.Join(dir, "nope.json")}, "", "DS501"},
		{"bad json", []string{writeFile(t, dir, "bad.json", `{"patches":`)}, "", "DS301"},
		{"unknown target", nil, propsJSON, "DS101"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runApply(context.Background(), strings.NewReader(tt.stdin), io.Discard, tt.files, config.New(), quietLogger())
			if errors.Code(err) != tt.code {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestRunApplyWritesSnapshot(t *testing.T) {
	cfg := config.New()
	cfg.Snapshot.Dir = filepath.Join(t.TempDir(), "snaps")
	cfg.Snapshot.Minify = true

	var out bytes.Buffer
	if err := runApply(context.Background(), strings.NewReader(mountJSON), &out, nil, cfg, quietLogger()); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(cfg.Snapshot.Dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "snapshot-") {
		t.Fatalf("snapshot dir = %v", entries)
	}
	data, _ := os.ReadFile(filepath.Join(cfg.Snapshot.Dir, entries[0].Name()))
	if string(data)+"\n" != out.String() {
		t.Errorf("stored %q, printed %q", data, out.String())
	}
}

func TestLoadConfigFlags(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "domsync.yaml", "log:\n  level: warn\n")

	logLevel, logFormat = "DEBUG", "json"
	t.Cleanup(func() { logLevel, logFormat = "", "" })

	cfg, err := loadConfig("", dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if store, err := storeFor(context.Background(), cfg.Snapshot); err != nil || store != nil {
		t.Errorf("no snapshot store should be configured, got %v, %v", store, err)
	}

	cfg, err = loadConfig("", t.TempDir())
	if err != nil || cfg.Server.Port != config.DefaultPort {
		t.Errorf("defaults: %+v, %v", cfg, err)
	}
}
