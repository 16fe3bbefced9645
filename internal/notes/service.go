// Package notes is the facade over the note engine. Every multi-entity
// write runs in one transaction together with the search index resync, and
// subscribers are told about each change after it commits.
package notes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/notesd/internal/apperr"
	"github.com/starford/notesd/internal/metrics"
	"github.com/starford/notesd/internal/models"
	"github.com/starford/notesd/internal/store"
)

// Options configure a Service. Zero values select the defaults.
type Options struct {
	MaxNotes        int
	DefaultPageSize int
	Logger          *slog.Logger
	Metrics         *metrics.Metrics
}

// Service coordinates the note, content, index and query components over
// one storage handle.
type Service struct {
	db       *store.DB
	notes    *store.Notes
	contents *store.Contents
	indexer  *store.Indexer
	queries  *store.Queries

	logger  *slog.Logger
	metrics *metrics.Metrics
	subs    subscribers
}

// NewService wires the engine components over db.
func NewService(db *store.DB, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	n := store.NewNotes(db, opts.MaxNotes)
	c := store.NewContents(db)
	return &Service{
		db:       db,
		notes:    n,
		contents: c,
		indexer:  store.NewIndexer(db, n, c),
		queries:  store.NewQueries(db, opts.DefaultPageSize),
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
}

// CreateNote creates an empty note of type t and its search entry.
func (s *Service) CreateNote(ctx context.Context, t models.NoteType, title string, color models.Color) (note models.Note, err error) {
	defer s.observe("create_note", time.Now(), &err)

	if err := validateCreate(t, title, color); err != nil {
		return models.Note{}, err
	}
	err = s.db.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if note, err = s.notes.Create(ctx, t, title, color); err != nil {
			return err
		}
		return s.indexer.Resync(ctx, note.ID)
	})
	if err != nil {
		return models.Note{}, err
	}

	s.metrics.AddNotesStored(1)
	s.logger.Debug("note created", slog.String("id", note.ID), slog.String("type", string(note.Type)))
	s.subs.publish(Event{Type: EventNoteCreated, NoteID: note.ID, Note: &note})
	return note, nil
}

// CreateFromDraft creates a note with its pinned flag and first content in
// one transaction. Nothing is stored when any step fails.
func (s *Service) CreateFromDraft(ctx context.Context, d models.NoteDraft) (note models.Note, err error) {
	defer s.observe("create_from_draft", time.Now(), &err)

	if err := validateCreate(d.Type, d.Title, d.Color); err != nil {
		return models.Note{}, err
	}
	if d.Content != nil && d.Content.ContentType() != d.Type {
		return models.Note{}, fmt.Errorf("notes: %s content for a %s note: %w", d.Content.ContentType(), d.Type, apperr.ErrTypeMismatch)
	}

	err = s.db.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if note, err = s.notes.Create(ctx, d.Type, d.Title, d.Color); err != nil {
			return err
		}
		if d.Pinned {
			u := models.NoteUpdate{ID: note.ID, Title: note.Title, Color: note.Color, Pinned: true}
			if note, err = s.notes.Update(ctx, u); err != nil {
				return err
			}
		}
		if err := s.writeContent(ctx, note.ID, d.Content); err != nil {
			return err
		}
		return s.indexer.Resync(ctx, note.ID)
	})
	if err != nil {
		return models.Note{}, err
	}

	s.metrics.AddNotesStored(1)
	s.logger.Debug("note created from draft", slog.String("id", note.ID), slog.String("type", string(note.Type)))
	s.subs.publish(Event{Type: EventNoteCreated, NoteID: note.ID, Note: &note})
	return note, nil
}

func (s *Service) writeContent(ctx context.Context, id string, c models.Content) error {
	var err error
	switch v := c.(type) {
	case models.TextContent:
		err = s.contents.SaveText(ctx, id, v.Body)
	case models.ChecklistContent:
		_, err = s.contents.ReplaceChecklist(ctx, id, v.Items)
	case models.TableContent:
		_, err = s.contents.ReplaceTableCells(ctx, id, v.Cells)
	}
	return err
}

// UpdateNote replaces title, color and pinned of an existing note. The type
// may be left empty; a different type is rejected.
func (s *Service) UpdateNote(ctx context.Context, u models.NoteUpdate) (note models.Note, err error) {
	defer s.observe("update_note", time.Now(), &err)

	if err := validateUpdate(u); err != nil {
		return models.Note{}, err
	}
	err = s.db.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if note, err = s.notes.Update(ctx, u); err != nil {
			return err
		}
		return s.indexer.Resync(ctx, note.ID)
	})
	if err != nil {
		return models.Note{}, err
	}

	s.subs.publish(Event{Type: EventNoteUpdated, NoteID: note.ID, Note: &note})
	return note, nil
}

// DeleteNote removes a note with its content and search entry.
func (s *Service) DeleteNote(ctx context.Context, id string) (err error) {
	defer s.observe("delete_note", time.Now(), &err)

	if err := validateID(id); err != nil {
		return err
	}
	if err := s.notes.Delete(ctx, id); err != nil {
		return err
	}

	s.metrics.AddNotesStored(-1)
	s.logger.Debug("note deleted", slog.String("id", id))
	s.subs.publish(Event{Type: EventNoteDeleted, NoteID: id})
	return nil
}

// SaveText replaces the body of a text note.
func (s *Service) SaveText(ctx context.Context, id, body string) (err error) {
	defer s.observe("save_text", time.Now(), &err)
	return s.saveContent(ctx, id, func(ctx context.Context) error {
		return s.contents.SaveText(ctx, id, body)
	})
}

// SaveChecklist replaces the items of a checklist note. Positions are
// renumbered 0..n-1 in the order given.
func (s *Service) SaveChecklist(ctx context.Context, id string, items []models.ChecklistItem) (err error) {
	defer s.observe("save_checklist", time.Now(), &err)
	return s.saveContent(ctx, id, func(ctx context.Context) error {
		_, err := s.contents.ReplaceChecklist(ctx, id, items)
		return err
	})
}

// SaveTable replaces the cells of a table note.
func (s *Service) SaveTable(ctx context.Context, id string, cells []models.TableCell) (err error) {
	defer s.observe("save_table", time.Now(), &err)
	return s.saveContent(ctx, id, func(ctx context.Context) error {
		_, err := s.contents.ReplaceTableCells(ctx, id, cells)
		return err
	})
}

// SaveContent stores c on note id, dispatching on the content variant.
func (s *Service) SaveContent(ctx context.Context, id string, c models.Content) (err error) {
	switch v := c.(type) {
	case models.TextContent:
		return s.SaveText(ctx, id, v.Body)
	case models.ChecklistContent:
		return s.SaveChecklist(ctx, id, v.Items)
	case models.TableContent:
		return s.SaveTable(ctx, id, v.Cells)
	}
	defer s.observe("save_content", time.Now(), &err)
	return fmt.Errorf("notes: %w: no content given", apperr.ErrInvalidArgument)
}

// saveContent runs write, refreshes the note's updated_at and resyncs its
// search entry in one transaction.
func (s *Service) saveContent(ctx context.Context, id string, write func(context.Context) error) error {
	if err := validateID(id); err != nil {
		return err
	}
	err := s.db.RunInTx(ctx, func(ctx context.Context) error {
		if err := write(ctx); err != nil {
			return err
		}
		if _, err := s.notes.Touch(ctx, id); err != nil {
			return err
		}
		return s.indexer.Resync(ctx, id)
	})
	if err != nil {
		return err
	}
	s.subs.publish(Event{Type: EventContentSaved, NoteID: id})
	return nil
}

// GetNote returns the note record.
func (s *Service) GetNote(ctx context.Context, id string) (note models.Note, err error) {
	defer s.observe("get_note", time.Now(), &err)
	return s.notes.GetByID(ctx, id)
}

// GetText returns the body of a text note. A note without a saved body
// yields an empty body.
func (s *Service) GetText(ctx context.Context, id string) (tc models.TextContent, err error) {
	defer s.observe("get_text", time.Now(), &err)
	if err := s.requireType(ctx, id, models.TypeText); err != nil {
		return models.TextContent{}, err
	}
	got, err := s.contents.GetText(ctx, id)
	if err != nil || got == nil {
		return models.TextContent{}, err
	}
	return *got, nil
}

// GetChecklist returns the items of a checklist note in position order.
func (s *Service) GetChecklist(ctx context.Context, id string) (items []models.ChecklistItem, err error) {
	defer s.observe("get_checklist", time.Now(), &err)
	if err := s.requireType(ctx, id, models.TypeChecklist); err != nil {
		return nil, err
	}
	return s.contents.GetChecklist(ctx, id)
}

// GetTable returns the cells of a table note in row-major order.
func (s *Service) GetTable(ctx context.Context, id string) (cells []models.TableCell, err error) {
	defer s.observe("get_table", time.Now(), &err)
	if err := s.requireType(ctx, id, models.TypeTable); err != nil {
		return nil, err
	}
	return s.contents.GetTableCells(ctx, id)
}

// GetContent returns the note together with its content variant.
func (s *Service) GetContent(ctx context.Context, id string) (note models.Note, c models.Content, err error) {
	defer s.observe("get_content", time.Now(), &err)
	if note, err = s.notes.GetByID(ctx, id); err != nil {
		return models.Note{}, nil, err
	}
	if c, err = s.contents.Load(ctx, note); err != nil {
		return models.Note{}, nil, err
	}
	if c == nil {
		c = models.TextContent{}
	}
	return note, c, nil
}

func (s *Service) requireType(ctx context.Context, id string, want models.NoteType) error {
	note, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if note.Type != want {
		return fmt.Errorf("notes: note %s is %s: %w", id, note.Type, apperr.ErrTypeMismatch)
	}
	return nil
}

// ListPage returns one page of notes.
func (s *Service) ListPage(ctx context.Context, q models.ListQuery) (page models.Page[models.Note], err error) {
	defer s.observe("list_page", time.Now(), &err)
	return s.queries.ListPage(ctx, q)
}

// ListPinned returns the pinned shelf, at most store.MaxPinned notes.
func (s *Service) ListPinned(ctx context.Context) (notes []models.Note, err error) {
	defer s.observe("list_pinned", time.Now(), &err)
	return s.queries.ListPinned(ctx, store.MaxPinned)
}

// Search runs a token-prefix search.
func (s *Service) Search(ctx context.Context, q models.SearchQuery) (page models.Page[models.Note], err error) {
	defer s.observe("search", time.Now(), &err)
	page, err = s.queries.Search(ctx, q)
	if err == nil {
		s.metrics.RecordSearchResults(len(page.Items))
	}
	return page, err
}

// Count returns the number of stored notes.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.notes.Count(ctx)
	return n, markStorage(err)
}

// MaxNotes returns the configured capacity.
func (s *Service) MaxNotes() int {
	return s.notes.MaxNotes()
}

// RebuildIndex recomputes every search entry and returns how many were
// written.
func (s *Service) RebuildIndex(ctx context.Context) (n int, err error) {
	defer s.observe("rebuild_index", time.Now(), &err)
	n, err = s.indexer.Rebuild(ctx)
	if err == nil {
		s.logger.Info("search index rebuilt", slog.Int("notes", n))
		s.subs.publish(Event{Type: EventIndexRebuilt})
	}
	return n, err
}

// observe marks storage failures, records the operation and logs
// unexpected errors. Deferred with a pointer to the named result.
func (s *Service) observe(op string, start time.Time, errp *error) {
	*errp = markStorage(*errp)
	s.metrics.RecordOperation(op, time.Since(start), *errp)
	if *errp != nil && errors.Is(*errp, apperr.ErrStorage) {
		s.logger.Error("notes: operation failed",
			slog.String("op", op),
			slog.String("error", (*errp).Error()))
	}
}

// markStorage tags errors that are not domain outcomes with
// apperr.ErrStorage.
func markStorage(err error) error {
	if err == nil || apperr.IsDomain(err) || errors.Is(err, apperr.ErrStorage) {
		return err
	}
	return errors.Join(apperr.ErrStorage, err)
}
