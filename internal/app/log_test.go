package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSyncHandler_Handle(t *testing.T) {
	ts := time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		runID   string
		level   slog.Level
		message string
		attrs   []slog.Attr
		want    string
	}{
		{
			name:    "basic info message",
			runID:   "run-123",
			level:   slog.LevelInfo,
			message: "photo added",
			want:    "2024-06-15T14:30:45Z\tINFO\trun-123\tphoto added\n",
		},
		{
			name:    "debug level",
			runID:   "run-456",
			level:   slog.LevelDebug,
			message: "album cache loaded",
			want:    "2024-06-15T14:30:45Z\tDEBUG\trun-456\talbum cache loaded\n",
		},
		{
			name:    "with record attrs",
			runID:   "run-789",
			level:   slog.LevelWarn,
			message: "managed files kept for deleted photo",
			attrs:   []slog.Attr{slog.String("url", "abc.jpg"), slog.Int("photos", 2)},
			want:    "2024-06-15T14:30:45Z\tWARN\trun-789\tmanaged files kept for deleted photo\turl=abc.jpg\tphotos=2\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &syncHandler{w: &buf, runID: tt.runID}

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			for _, a := range tt.attrs {
				r.AddAttrs(a)
			}

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() output =\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestSyncHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &syncHandler{w: &buf, runID: "run-1"}

	h2 := h.WithAttrs([]slog.Attr{slog.String("component", "watch")}).(*syncHandler)

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := slog.NewRecord(ts, slog.LevelInfo, "event", 0)
	r.AddAttrs(slog.String("path", "/photos/a.jpg"))

	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "component=watch") {
		t.Errorf("expected pre-set attr component=watch, got: %q", got)
	}
	if !strings.Contains(got, "path=/photos/a.jpg") {
		t.Errorf("expected record attr path=/photos/a.jpg, got: %q", got)
	}
}

func TestSyncHandler_WithAttrs_doesNotMutateOriginal(t *testing.T) {
	h := &syncHandler{w: &bytes.Buffer{}, runID: "run-1", attrs: []slog.Attr{slog.String("a", "1")}}

	h2 := h.WithAttrs([]slog.Attr{slog.String("b", "2")}).(*syncHandler)

	if len(h.attrs) != 1 {
		t.Errorf("original handler attrs modified: got %d, want 1", len(h.attrs))
	}
	if len(h2.attrs) != 2 {
		t.Errorf("new handler attrs: got %d, want 2", len(h2.attrs))
	}
}

func TestSyncHandler_Enabled(t *testing.T) {
	tests := []struct {
		name    string
		level   slog.Leveler
		record  slog.Level
		enabled bool
	}{
		{"no level enables debug", nil, slog.LevelDebug, true},
		{"info hides debug", slog.LevelInfo, slog.LevelDebug, false},
		{"info shows info", slog.LevelInfo, slog.LevelInfo, true},
		{"info shows error", slog.LevelInfo, slog.LevelError, true},
		{"debug shows debug", slog.LevelDebug, slog.LevelDebug, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &syncHandler{level: tt.level}
			if got := h.Enabled(context.Background(), tt.record); got != tt.enabled {
				t.Errorf("Enabled(%v) = %v, want %v", tt.record, got, tt.enabled)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")

	logger, f, err := newLogger(dir, "test-run", false)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	defer f.Close()

	logger.Debug("hidden")
	logger.Info("shown", "k", "v")

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	got := string(data)
	if strings.Contains(got, "hidden") {
		t.Errorf("debug record written without verbose: %q", got)
	}
	if !strings.Contains(got, "\tINFO\ttest-run\tshown\tk=v\n") {
		t.Errorf("log file = %q, want info record", got)
	}
}
