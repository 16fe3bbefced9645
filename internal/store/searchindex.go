package store

import (
	"context"
	"fmt"

	"github.com/starford/notesd/internal/apperr"
	"github.com/starford/notesd/internal/codec"
	"github.com/starford/notesd/internal/models"
)

// Indexer keeps one search_index row per note in step with the note and its
// content. It recomputes the whole entry from current state on every call
// rather than patching it.
type Indexer struct {
	db       *DB
	notes    *Notes
	contents *Contents
}

// NewIndexer returns the search indexer.
func NewIndexer(db *DB, notes *Notes, contents *Contents) *Indexer {
	return &Indexer{db: db, notes: notes, contents: contents}
}

// Resync rebuilds the search entry of note id. Called inside the caller's
// transaction it commits or rolls back together with the triggering write.
func (ix *Indexer) Resync(ctx context.Context, id string) error {
	return ix.db.RunInTx(ctx, func(ctx context.Context) error {
		note, err := ix.notes.GetByID(ctx, id)
		if err != nil {
			return err
		}
		content, err := ix.contents.Load(ctx, note)
		if err != nil {
			return err
		}

		var body *string
		parts := []string{note.Title}
		if blob, ok := codec.Flatten(content); ok {
			body = &blob
			parts = append(parts, blob)
		}
		terms := codec.TermString(codec.Terms(parts...))

		q := ix.db.q(ctx)
		_, err = q.ExecContext(ctx, `
			INSERT INTO search_index (note_id, title, body, terms)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(note_id) DO UPDATE SET
				title = excluded.title,
				body  = excluded.body,
				terms = excluded.terms
		`, note.ID, note.Title, body, terms)
		if err != nil {
			return wrap("upsert search entry", err)
		}
		return ftsUpsert(ctx, q, note.ID, note.Title, body)
	})
}

// Entry returns the stored search entry of a note.
func (ix *Indexer) Entry(ctx context.Context, id string) (models.SearchEntry, error) {
	var e models.SearchEntry
	err := ix.db.q(ctx).QueryRowContext(ctx, `
		SELECT note_id, title, body, terms FROM search_index WHERE note_id = ?
	`, id).Scan(&e.NoteID, &e.Title, &e.Body, &e.Terms)
	if err != nil {
		if isNoRows(err) {
			return models.SearchEntry{}, fmt.Errorf("store: search entry %s: %w", id, apperr.ErrNotFound)
		}
		return models.SearchEntry{}, wrap("get search entry", err)
	}
	return e, nil
}

// Rebuild resyncs every note, one transaction per note, and returns how
// many entries were written.
func (ix *Indexer) Rebuild(ctx context.Context) (int, error) {
	ids, err := ix.notes.AllIDs(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if err := ix.Resync(ctx, id); err != nil {
			return n, fmt.Errorf("store: rebuild %s: %w", id, err)
		}
		n++
	}
	return n, nil
}
