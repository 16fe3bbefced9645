package store

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/starford/notesd/internal/apperr"
	"github.com/starford/notesd/internal/codec"
	"github.com/starford/notesd/internal/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPinned caps the pinned shelf.
	MaxPinned = 5
	// MinQueryLen is the shortest search query, in runes, that reaches storage.
	MinQueryLen = 2
)

const noteColumnsN = `n.id, n.type, n.title, n.color, n.pinned, n.created_at, n.updated_at`

// Queries answers listings and searches. It never writes; every call is a
// single SELECT and so reads one consistent snapshot.
type Queries struct {
	db              *DB
	defaultPageSize int
}

// NewQueries returns the query engine. defaultPageSize <= 0 selects
// DefaultPageSize.
func NewQueries(db *DB, defaultPageSize int) *Queries {
	if defaultPageSize <= 0 || defaultPageSize > MaxPageSize {
		defaultPageSize = DefaultPageSize
	}
	return &Queries{db: db, defaultPageSize: defaultPageSize}
}

func (e *Queries) pageSize(n int) int {
	switch {
	case n <= 0:
		return e.defaultPageSize
	case n > MaxPageSize:
		return MaxPageSize
	}
	return n
}

// ListPage returns one page of notes, pinned first, then by the chosen sort
// key, ties broken by id.
func (e *Queries) ListPage(ctx context.Context, lq models.ListQuery) (models.Page[models.Note], error) {
	if lq.Sort == "" {
		lq.Sort = models.SortLastEdited
	}
	if !lq.Sort.Valid() {
		return models.Page[models.Note]{}, fmt.Errorf("store: list: %w: sort %q", apperr.ErrInvalidArgument, lq.Sort)
	}
	if lq.Filter.Active() && !lq.Filter.Type.Valid() {
		return models.Page[models.Note]{}, fmt.Errorf("store: list: %w: type %q", apperr.ErrInvalidArgument, lq.Filter.Type)
	}
	kind := cursorKind(lq.Sort)
	cur, err := decodeCursor(lq.Cursor, kind)
	if err != nil {
		return models.Page[models.Note]{}, err
	}

	var (
		where []string
		args  []any
	)
	if lq.Filter.Active() {
		where = append(where, "n.type = ?")
		args = append(args, string(lq.Filter.Type))
	}
	if cur != nil {
		clause, cargs := cur.keyset()
		where = append(where, clause)
		args = append(args, cargs...)
	}

	order := `n.pinned DESC, n.updated_at DESC, n.id ASC`
	if lq.Sort == models.SortTitleAZ {
		order = `n.pinned DESC, n.title_key ASC, n.id ASC`
	}

	size := e.pageSize(lq.PageSize)
	query := `SELECT ` + noteColumnsN + ` FROM notes n` + whereSQL(where) + ` ORDER BY ` + order + ` LIMIT ?`
	args = append(args, size+1)

	return e.page(ctx, "list", kind, size, query, args)
}

// ListPinned returns up to limit pinned notes, most recently updated first.
// limit is capped at MaxPinned.
func (e *Queries) ListPinned(ctx context.Context, limit int) ([]models.Note, error) {
	if limit <= 0 || limit > MaxPinned {
		limit = MaxPinned
	}
	rows, err := e.db.q(ctx).QueryContext(ctx, `
		SELECT `+noteColumnsN+`
		FROM notes n
		WHERE n.pinned = 1
		ORDER BY n.updated_at DESC, n.id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, wrap("list pinned", err)
	}
	notes, err := scanNotes(rows)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []models.Note{}
	}
	return notes, nil
}

// Search returns notes whose title or content contains a term starting with
// every token of the query, pinned first, then most recently updated.
// Queries shorter than MinQueryLen runes return an empty page without
// touching storage.
func (e *Queries) Search(ctx context.Context, sq models.SearchQuery) (models.Page[models.Note], error) {
	empty := models.Page[models.Note]{Items: []models.Note{}}
	text := strings.TrimSpace(sq.Text)
	if utf8.RuneCountInString(text) < MinQueryLen {
		return empty, nil
	}
	tokens := codec.QueryTokens(text)
	if len(tokens) == 0 {
		return empty, nil
	}
	cur, err := decodeCursor(sq.Cursor, kindSearch)
	if err != nil {
		return models.Page[models.Note]{}, err
	}

	join, where, args := matchClause(tokens)
	if cur != nil {
		clause, cargs := cur.keyset()
		where = append(where, clause)
		args = append(args, cargs...)
	}

	size := e.pageSize(sq.PageSize)
	query := `SELECT ` + noteColumnsN + `
		FROM notes n
		JOIN search_index s ON s.note_id = n.id ` + join +
		whereSQL(where) + `
		ORDER BY n.pinned DESC, n.updated_at DESC, n.id ASC
		LIMIT ?`
	args = append(args, size+1)

	return e.page(ctx, "search", kindSearch, size, query, args)
}

// page runs a LIMIT size+1 query and turns the extra row into a cursor.
func (e *Queries) page(ctx context.Context, op string, kind cursorKind, size int, query string, args []any) (models.Page[models.Note], error) {
	rows, err := e.db.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return models.Page[models.Note]{}, wrap(op, err)
	}
	notes, err := scanNotes(rows)
	if err != nil {
		return models.Page[models.Note]{}, err
	}

	p := models.Page[models.Note]{Items: notes}
	if p.Items == nil {
		p.Items = []models.Note{}
	}
	if len(p.Items) > size {
		p.Items = p.Items[:size]
		p.NextCursor = cursorAfter(kind, p.Items[size-1]).encode()
	}
	return p, nil
}

func whereSQL(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(clauses, " AND ")
}
