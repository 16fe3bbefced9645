package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/notesd/internal/models"
)

func TestNewApplication_RequiresConfig(t *testing.T) {
	if _, err := newApplication(nil); !errors.Is(err, errConfigRequired) {
		t.Fatalf("err = %v, want errConfigRequired", err)
	}
	app, err := newApplication([]Option{WithConfig(NewDefaultConfig()), WithVersion("1.2.3")})
	if err != nil {
		t.Fatal(err)
	}
	if app.version != "1.2.3" {
		t.Errorf("version = %q", app.version)
	}
}

func TestNewLogger_JSONByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, ApplicationConfig{LogLevel: slog.LevelInfo})
	logger.Debug("hidden")
	logger.Info("shown", slog.String("k", "v"))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("want one JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "shown" || rec["k"] != "v" {
		t.Errorf("record = %v", rec)
	}
}

func TestNewLogger_Pretty(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, ApplicationConfig{LogLevel: slog.LevelInfo, LogPretty: true}).Info("hello")
	if strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), "hello") {
		t.Errorf("pretty output = %q", buf.String())
	}
}

func TestOpenServiceAndReindex(t *testing.T) {
	ctx := context.Background()
	cfg := NewDefaultConfig()
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "nested", "notesd.db")
	cfg.Notes.MaxNotes = 3
	logger := slog.New(slog.DiscardHandler)

	db, svc, err := openService(ctx, cfg, logger, nil)
	if err != nil {
		t.Fatal(err)
	}
	if svc.MaxNotes() != 3 {
		t.Errorf("max notes = %d, want 3", svc.MaxNotes())
	}
	if _, err := svc.CreateNote(ctx, models.TypeText, "kept across runs", models.ColorNone); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	if err := Reindex(ctx, WithConfig(cfg)); err != nil {
		t.Fatalf("reindex: %v", err)
	}

	db, svc, err = openService(ctx, cfg, logger, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	page, err := svc.Search(ctx, models.SearchQuery{Text: "kept"})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 1 {
		t.Errorf("search after reindex = %d notes, want 1", len(page.Items))
	}
}
