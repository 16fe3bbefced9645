package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/starford/notesd/internal/apperr"
	"github.com/starford/notesd/internal/models"
)

// Contents owns the typed content rows: text bodies, checklist items and
// table cells. Every write checks the owning note's type tag first.
type Contents struct {
	db *DB
}

// NewContents returns the typed content store.
func NewContents(db *DB) *Contents {
	return &Contents{db: db}
}

// requireType fails with apperr.ErrNotFound when the note is missing and
// apperr.ErrTypeMismatch when its type is not want.
func (s *Contents) requireType(ctx context.Context, id string, want models.NoteType) error {
	var typ string
	err := s.db.q(ctx).QueryRowContext(ctx, `SELECT type FROM notes WHERE id = ?`, id).Scan(&typ)
	if err != nil {
		if isNoRows(err) {
			return fmt.Errorf("store: note %s: %w", id, apperr.ErrNotFound)
		}
		return wrap("note type", err)
	}
	if models.NoteType(typ) != want {
		return fmt.Errorf("store: note %s is %s, not %s: %w", id, typ, want, apperr.ErrTypeMismatch)
	}
	return nil
}

// SaveText upserts the body of a text note.
func (s *Contents) SaveText(ctx context.Context, id, body string) error {
	return s.db.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.requireType(ctx, id, models.TypeText); err != nil {
			return err
		}
		_, err := s.db.q(ctx).ExecContext(ctx, `
			INSERT INTO text_bodies (note_id, body) VALUES (?, ?)
			ON CONFLICT(note_id) DO UPDATE SET body = excluded.body
		`, id, body)
		return wrap("save text", err)
	})
}

// ReplaceChecklist swaps the whole item list of a checklist note. Positions
// are renumbered 0..n-1 in the order given; stored positions are ignored.
// Items without an id get a fresh one; ids only need to be unique within
// the note. The stored items are returned.
func (s *Contents) ReplaceChecklist(ctx context.Context, id string, items []models.ChecklistItem) ([]models.ChecklistItem, error) {
	out := make([]models.ChecklistItem, len(items))
	err := s.db.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.requireType(ctx, id, models.TypeChecklist); err != nil {
			return err
		}
		q := s.db.q(ctx)
		if _, err := q.ExecContext(ctx, `DELETE FROM checklist_items WHERE note_id = ?`, id); err != nil {
			return wrap("clear checklist", err)
		}
		for i, it := range items {
			if it.ID == "" {
				it.ID = uuid.NewString()
			}
			it.NoteID = id
			it.Position = i
			if _, err := q.ExecContext(ctx, `
				INSERT INTO checklist_items (id, note_id, position, text, checked)
				VALUES (?, ?, ?, ?, ?)
			`, it.ID, it.NoteID, it.Position, it.Text, it.Checked); err != nil {
				return wrap("insert checklist item", err)
			}
			out[i] = it
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReplaceTableCells swaps the whole cell set of a table note. The grid is
// not checked for rectangularity; a repeated (row, col) pair violates the
// unique key and is reported as apperr.ErrInvalidArgument.
func (s *Contents) ReplaceTableCells(ctx context.Context, id string, cells []models.TableCell) ([]models.TableCell, error) {
	out := make([]models.TableCell, len(cells))
	err := s.db.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.requireType(ctx, id, models.TypeTable); err != nil {
			return err
		}
		q := s.db.q(ctx)
		if _, err := q.ExecContext(ctx, `DELETE FROM table_cells WHERE note_id = ?`, id); err != nil {
			return wrap("clear table", err)
		}
		for i, c := range cells {
			if c.Row < 0 || c.Col < 0 {
				return fmt.Errorf("store: table cell (%d,%d): %w: negative index", c.Row, c.Col, apperr.ErrInvalidArgument)
			}
			if c.ID == "" {
				c.ID = uuid.NewString()
			}
			c.NoteID = id
			if _, err := q.ExecContext(ctx, `
				INSERT INTO table_cells (id, note_id, row_index, col_index, text)
				VALUES (?, ?, ?, ?, ?)
			`, c.ID, c.NoteID, c.Row, c.Col, c.Text); err != nil {
				return wrap("insert table cell", err)
			}
			out[i] = c
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetText returns the stored body of a text note, or nil when none was
// saved yet.
func (s *Contents) GetText(ctx context.Context, id string) (*models.TextContent, error) {
	var body string
	err := s.db.q(ctx).QueryRowContext(ctx, `SELECT body FROM text_bodies WHERE note_id = ?`, id).Scan(&body)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, wrap("get text", err)
	}
	return &models.TextContent{Body: body}, nil
}

// GetChecklist returns the items of a checklist note ordered by position.
func (s *Contents) GetChecklist(ctx context.Context, id string) ([]models.ChecklistItem, error) {
	rows, err := s.db.q(ctx).QueryContext(ctx, `
		SELECT id, note_id, position, text, checked
		FROM checklist_items
		WHERE note_id = ?
		ORDER BY position
	`, id)
	if err != nil {
		return nil, wrap("get checklist", err)
	}
	defer rows.Close()

	out := []models.ChecklistItem{}
	for rows.Next() {
		var it models.ChecklistItem
		if err := rows.Scan(&it.ID, &it.NoteID, &it.Position, &it.Text, &it.Checked); err != nil {
			return nil, wrap("scan checklist item", err)
		}
		out = append(out, it)
	}
	return out, wrap("get checklist", rows.Err())
}

// GetTableCells returns the cells of a table note in row-major order.
func (s *Contents) GetTableCells(ctx context.Context, id string) ([]models.TableCell, error) {
	rows, err := s.db.q(ctx).QueryContext(ctx, `
		SELECT id, note_id, row_index, col_index, text
		FROM table_cells
		WHERE note_id = ?
		ORDER BY row_index, col_index
	`, id)
	if err != nil {
		return nil, wrap("get table", err)
	}
	defer rows.Close()

	out := []models.TableCell{}
	for rows.Next() {
		var c models.TableCell
		if err := rows.Scan(&c.ID, &c.NoteID, &c.Row, &c.Col, &c.Text); err != nil {
			return nil, wrap("scan table cell", err)
		}
		out = append(out, c)
	}
	return out, wrap("get table", rows.Err())
}

// Load returns the content variant matching the note's type. A text note
// without a saved body yields nil.
func (s *Contents) Load(ctx context.Context, note models.Note) (models.Content, error) {
	switch note.Type {
	case models.TypeText:
		tc, err := s.GetText(ctx, note.ID)
		if err != nil || tc == nil {
			return nil, err
		}
		return *tc, nil
	case models.TypeChecklist:
		items, err := s.GetChecklist(ctx, note.ID)
		if err != nil {
			return nil, err
		}
		return models.ChecklistContent{Items: items}, nil
	case models.TypeTable:
		cells, err := s.GetTableCells(ctx, note.ID)
		if err != nil {
			return nil, err
		}
		return models.TableContent{Cells: cells}, nil
	}
	return nil, fmt.Errorf("store: note %s: %w: unknown type %q", note.ID, apperr.ErrInvariantViolation, note.Type)
}
