// Package export writes every note to a directory as Markdown, one file per
// note, in the format the inbox importer reads. Repeated exports only touch
// files whose note changed.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/starford/notesd/internal/apperr"
	"github.com/starford/notesd/internal/models"
	"github.com/starford/notesd/internal/storage"
	"github.com/starford/notesd/internal/store"
)

// exportedName matches file names produced by FileName.
var exportedName = regexp.MustCompile(`-[0-9a-f]{8}\.md$`)

// Source is the part of the note facade an export reads.
type Source interface {
	ListPage(ctx context.Context, q models.ListQuery) (models.Page[models.Note], error)
	GetContent(ctx context.Context, id string) (models.Note, models.Content, error)
}

// Result counts what an export did.
type Result struct {
	Written   int `json:"written"`
	Unchanged int `json:"unchanged"`
	Removed   int `json:"removed"`
}

// Options configure Export.
type Options struct {
	// Prune removes previously exported files whose note no longer exists.
	Prune  bool
	Logger *slog.Logger
}

// Export writes all notes from src into dir.
func Export(ctx context.Context, src Source, dir *storage.Dir, opts Options) (Result, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	var res Result
	keep := make(map[string]struct{})
	q := models.ListQuery{Sort: models.SortTitleAZ, PageSize: store.MaxPageSize}
	for {
		page, err := src.ListPage(ctx, q)
		if err != nil {
			return res, err
		}
		for _, n := range page.Items {
			name, changed, err := exportNote(ctx, src, dir, n.ID)
			if errors.Is(err, apperr.ErrNotFound) {
				// Deleted since the page was read.
				continue
			}
			if err != nil {
				return res, err
			}
			keep[name] = struct{}{}
			if changed {
				res.Written++
				opts.Logger.Debug("export: wrote", slog.String("file", name))
			} else {
				res.Unchanged++
			}
		}
		if page.NextCursor == "" {
			break
		}
		q.Cursor = page.NextCursor
	}

	if opts.Prune {
		names, err := dir.List()
		if err != nil {
			return res, err
		}
		for _, name := range names {
			if _, ok := keep[name]; ok || !exportedName.MatchString(name) {
				continue
			}
			if err := dir.Delete(name); err != nil {
				return res, err
			}
			res.Removed++
		}
	}

	opts.Logger.Info("export: finished",
		slog.String("dir", dir.Root()),
		slog.Int("written", res.Written),
		slog.Int("unchanged", res.Unchanged),
		slog.Int("removed", res.Removed))
	return res, nil
}

func exportNote(ctx context.Context, src Source, dir *storage.Dir, id string) (name string, changed bool, err error) {
	note, c, err := src.GetContent(ctx, id)
	if err != nil {
		return "", false, err
	}
	data, err := Render(note, c)
	if err != nil {
		return "", false, err
	}
	name = FileName(note)
	changed, err = dir.Write(name, data)
	if err != nil {
		return "", false, fmt.Errorf("export: %s: %w", name, err)
	}
	return name, changed, nil
}
