// Package inbox imports Markdown and plain-text files dropped into a
// directory as notes. Each imported file is removed; files that fail to
// import are logged and left in place.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/notesd/internal/metrics"
	"github.com/starford/notesd/internal/models"
	"github.com/starford/notesd/internal/parser"
)

// maxFileSize caps what is read from a single inbox file.
const maxFileSize = 1 << 20

// ErrNotRemoved reports a file that became a note but could not be removed.
var ErrNotRemoved = errors.New("imported file not removed")

// NoteCreator is the part of the note facade the importer needs.
type NoteCreator interface {
	CreateFromDraft(ctx context.Context, d models.NoteDraft) (models.Note, error)
}

// Options configure an Importer.
type Options struct {
	// Settle is how long the directory must be quiet before a scan runs.
	Settle  time.Duration
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Importer turns inbox files into notes.
type Importer struct {
	dir     string
	notes   NoteCreator
	settle  time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	remove  func(string) error

	// failed remembers files that could not be imported, by modification
	// time, so an unchanged file is not retried on every scan.
	failed map[string]time.Time
}

// New returns an importer for dir. The directory is created if missing.
func New(dir string, notes NoteCreator, opts Options) (*Importer, error) {
	if opts.Settle <= 0 {
		opts.Settle = 200 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("inbox: create dir: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("inbox: resolve dir: %w", err)
	}
	return &Importer{
		dir:     abs,
		notes:   notes,
		settle:  opts.Settle,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		remove:  os.Remove,
		failed:  make(map[string]time.Time),
	}, nil
}

// Dir returns the watched directory.
func (im *Importer) Dir() string {
	return im.dir
}

// Run imports the files already present, then watches the directory and
// imports new or rewritten files until ctx is cancelled.
func (im *Importer) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("inbox: watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(im.dir); err != nil {
		return fmt.Errorf("inbox: watch %s: %w", im.dir, err)
	}
	im.logger.Info("inbox: started", slog.String("dir", im.dir))
	im.Scan(ctx)

	// Editors and copy tools write in several steps, so scans are debounced.
	var scanTimer *time.Timer
	var scanCh <-chan time.Time
	scheduleScan := func() {
		if scanTimer == nil {
			scanTimer = time.NewTimer(im.settle)
			scanCh = scanTimer.C
		} else {
			scanTimer.Reset(im.settle)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if scanTimer != nil {
				scanTimer.Stop()
			}
			im.logger.Info("inbox: stopped")
			return nil

		case <-scanCh:
			im.Scan(ctx)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 && eligible(ev.Name) {
				scheduleScan()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			im.logger.Error("inbox: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// Scan imports every eligible file in the directory and returns how many
// notes were created. It must not run concurrently with Run.
func (im *Importer) Scan(ctx context.Context) int {
	entries, err := os.ReadDir(im.dir)
	if err != nil {
		im.logger.Warn("inbox: read dir failed", slog.String("error", err.Error()))
		return 0
	}

	n := 0
	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		if !e.Type().IsRegular() || !eligible(e.Name()) {
			continue
		}
		path := filepath.Join(im.dir, e.Name())
		info, err := e.Info()
		if err != nil {
			continue
		}
		if mod, seen := im.failed[path]; seen && mod.Equal(info.ModTime()) {
			continue
		}

		note, err := im.ImportFile(ctx, path)
		if errors.Is(err, ErrNotRemoved) {
			// The note exists, so the leftover must not be imported again
			// unless the user rewrites it.
			im.failed[path] = info.ModTime()
			im.metrics.RecordInboxImport("imported")
			im.logger.Error("inbox: imported file left in place",
				slog.String("file", e.Name()),
				slog.String("id", note.ID),
				slog.String("error", err.Error()))
			n++
			continue
		}
		if err != nil {
			im.failed[path] = info.ModTime()
			im.metrics.RecordInboxImport("failed")
			im.logger.Warn("inbox: import failed",
				slog.String("file", e.Name()),
				slog.String("error", err.Error()))
			continue
		}
		delete(im.failed, path)
		im.metrics.RecordInboxImport("imported")
		im.logger.Info("inbox: imported",
			slog.String("file", e.Name()),
			slog.String("id", note.ID),
			slog.String("type", string(note.Type)))
		n++
	}
	return n
}

// ImportFile creates a note from path and removes the file. When the note
// was created but the file could not be removed, the note is returned along
// with an error wrapping ErrNotRemoved.
func (im *Importer) ImportFile(ctx context.Context, path string) (models.Note, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.Note{}, fmt.Errorf("inbox: %w", err)
	}
	if info.Size() > maxFileSize {
		return models.Note{}, fmt.Errorf("inbox: %s: file larger than %d bytes", filepath.Base(path), maxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Note{}, fmt.Errorf("inbox: %w", err)
	}

	draft, err := parser.Parse(path, data)
	if err != nil {
		return models.Note{}, err
	}
	note, err := im.notes.CreateFromDraft(ctx, draft)
	if err != nil {
		return models.Note{}, err
	}

	if err := im.remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return note, fmt.Errorf("inbox: %s: %w: %w", filepath.Base(path), ErrNotRemoved, err)
	}
	return note, nil
}

// eligible reports whether name looks like an importable file. Hidden and
// editor temp files are skipped.
func eligible(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".md", ".markdown", ".txt":
		return true
	}
	return false
}
