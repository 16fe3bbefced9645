package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/notesd/internal/apperr"
	"github.com/starford/notesd/internal/codec"
	"github.com/starford/notesd/internal/models"
)

// DefaultMaxNotes is the hard ceiling on stored notes.
const DefaultMaxNotes = 5000

const noteColumns = `id, type, title, color, pinned, created_at, updated_at`

// Notes owns the canonical note records.
type Notes struct {
	db       *DB
	maxNotes int
}

// NewNotes returns the note store. maxNotes <= 0 or above DefaultMaxNotes
// selects DefaultMaxNotes; smaller limits are kept.
func NewNotes(db *DB, maxNotes int) *Notes {
	if maxNotes <= 0 || maxNotes > DefaultMaxNotes {
		maxNotes = DefaultMaxNotes
	}
	return &Notes{db: db, maxNotes: maxNotes}
}

// MaxNotes returns the configured capacity.
func (s *Notes) MaxNotes() int {
	return s.maxNotes
}

// Create inserts a new note and returns it. It fails with
// apperr.ErrCapacityExceeded once the store holds maxNotes notes; the count
// and the insert share one write transaction.
func (s *Notes) Create(ctx context.Context, t models.NoteType, title string, color models.Color) (models.Note, error) {
	if !t.Valid() {
		return models.Note{}, fmt.Errorf("store: create note: %w: type %q", apperr.ErrInvalidArgument, t)
	}
	if color == "" {
		color = models.ColorNone
	}
	var note models.Note
	err := s.db.RunInTx(ctx, func(ctx context.Context) error {
		n, err := s.Count(ctx)
		if err != nil {
			return err
		}
		if n >= s.maxNotes {
			return fmt.Errorf("store: create note: %w (limit %d)", apperr.ErrCapacityExceeded, s.maxNotes)
		}
		now := s.db.Now()
		note = models.Note{
			ID:        uuid.NewString(),
			Type:      t,
			Title:     title,
			Color:     color,
			CreatedAt: now,
			UpdatedAt: now,
		}
		_, err = s.db.q(ctx).ExecContext(ctx, `
			INSERT INTO notes (id, type, title, title_key, color, pinned, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, 0, ?, ?)
		`, note.ID, string(note.Type), note.Title, codec.TitleKey(note.Title), string(note.Color),
			now.UnixNano(), now.UnixNano())
		return wrap("insert note", err)
	})
	if err != nil {
		return models.Note{}, err
	}
	return note, nil
}

// Update replaces title, color and pinned of an existing note and refreshes
// updated_at. A type tag that differs from the stored one is rejected with
// apperr.ErrInvariantViolation.
func (s *Notes) Update(ctx context.Context, u models.NoteUpdate) (models.Note, error) {
	if u.Color == "" {
		u.Color = models.ColorNone
	}
	var note models.Note
	err := s.db.RunInTx(ctx, func(ctx context.Context) error {
		cur, err := s.GetByID(ctx, u.ID)
		if err != nil {
			return err
		}
		if u.Type != "" && u.Type != cur.Type {
			return fmt.Errorf("store: update note %s: %w: type is %s, got %s",
				u.ID, apperr.ErrInvariantViolation, cur.Type, u.Type)
		}
		now := s.db.Now()
		_, err = s.db.q(ctx).ExecContext(ctx, `
			UPDATE notes
			SET title = ?, title_key = ?, color = ?, pinned = ?, updated_at = ?
			WHERE id = ?
		`, u.Title, codec.TitleKey(u.Title), string(u.Color), u.Pinned, now.UnixNano(), u.ID)
		if err != nil {
			return wrap("update note", err)
		}
		cur.Title, cur.Color, cur.Pinned, cur.UpdatedAt = u.Title, u.Color, u.Pinned, now
		note = cur
		return nil
	})
	if err != nil {
		return models.Note{}, err
	}
	return note, nil
}

// Touch refreshes updated_at of a note after one of its content rows changed.
func (s *Notes) Touch(ctx context.Context, id string) (time.Time, error) {
	now := s.db.Now()
	res, err := s.db.q(ctx).ExecContext(ctx, `UPDATE notes SET updated_at = ? WHERE id = ?`, now.UnixNano(), id)
	if err != nil {
		return time.Time{}, wrap("touch note", err)
	}
	if err := expectOne(res, id); err != nil {
		return time.Time{}, err
	}
	return now, nil
}

// Delete removes a note. Text bodies, checklist items, table cells and the
// search entry go with it through ON DELETE CASCADE in the same statement.
func (s *Notes) Delete(ctx context.Context, id string) error {
	return s.db.RunInTx(ctx, func(ctx context.Context) error {
		if err := ftsDelete(ctx, s.db.q(ctx), id); err != nil {
			return err
		}
		res, err := s.db.q(ctx).ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
		if err != nil {
			return wrap("delete note", err)
		}
		return expectOne(res, id)
	})
}

// GetByID returns the note with the given id or apperr.ErrNotFound.
func (s *Notes) GetByID(ctx context.Context, id string) (models.Note, error) {
	row := s.db.q(ctx).QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if err != nil {
		if isNoRows(err) {
			return models.Note{}, fmt.Errorf("store: note %s: %w", id, apperr.ErrNotFound)
		}
		return models.Note{}, wrap("get note", err)
	}
	return n, nil
}

// Count returns the total number of notes.
func (s *Notes) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.q(ctx).QueryRowContext(ctx, `SELECT count(*) FROM notes`).Scan(&n); err != nil {
		return 0, wrap("count notes", err)
	}
	return n, nil
}

// AllIDs returns every note id, used by index rebuilds.
func (s *Notes) AllIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.q(ctx).QueryContext(ctx, `SELECT id FROM notes ORDER BY id`)
	if err != nil {
		return nil, wrap("all ids", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrap("scan id", err)
		}
		out = append(out, id)
	}
	return out, wrap("all ids", rows.Err())
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(sc scanner) (models.Note, error) {
	var (
		n                models.Note
		typ, color       string
		created, updated int64
	)
	if err := sc.Scan(&n.ID, &typ, &n.Title, &color, &n.Pinned, &created, &updated); err != nil {
		return models.Note{}, err
	}
	n.Type = models.NoteType(typ)
	n.Color = models.Color(color)
	n.CreatedAt = time.Unix(0, created).UTC()
	n.UpdatedAt = time.Unix(0, updated).UTC()
	return n, nil
}

func scanNotes(rows *sql.Rows) ([]models.Note, error) {
	defer rows.Close()
	var out []models.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, wrap("scan note", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("iterate notes", err)
	}
	return out, nil
}

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("store: note %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}
