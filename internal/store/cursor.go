package store

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/starford/notesd/internal/apperr"
	"github.com/starford/notesd/internal/codec"
	"github.com/starford/notesd/internal/models"
)

// cursorKind ties a cursor to the ordering that issued it.
type cursorKind string

const (
	kindLastEdited cursorKind = cursorKind(models.SortLastEdited)
	kindTitleAZ    cursorKind = cursorKind(models.SortTitleAZ)
	kindSearch     cursorKind = "search"
)

// cursor is the last-seen sort tuple of a page. Only the key matching Kind
// is set.
type cursor struct {
	Kind    cursorKind `json:"k"`
	Pinned  bool       `json:"p"`
	Updated int64      `json:"u,omitempty"`
	Title   string     `json:"t,omitempty"`
	ID      string     `json:"i"`
}

func cursorAfter(kind cursorKind, n models.Note) cursor {
	c := cursor{Kind: kind, Pinned: n.Pinned, ID: n.ID}
	if kind == kindTitleAZ {
		c.Title = codec.TitleKey(n.Title)
	} else {
		c.Updated = n.UpdatedAt.UnixNano()
	}
	return c
}

func (c cursor) encode() string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// decodeCursor parses token and checks it was issued for kind. An empty
// token yields nil.
func decodeCursor(token string, kind cursorKind) (*cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("store: %w: %v", apperr.ErrInvalidCursor, err)
	}
	var c cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("store: %w: %v", apperr.ErrInvalidCursor, err)
	}
	if c.Kind != kind || c.ID == "" {
		return nil, fmt.Errorf("store: %w: issued for %q, used for %q", apperr.ErrInvalidCursor, c.Kind, kind)
	}
	return &c, nil
}

// keyset returns the predicate selecting rows strictly after c in the order
// pinned DESC, <key>, id ASC.
func (c *cursor) keyset() (string, []any) {
	p := 0
	if c.Pinned {
		p = 1
	}
	if c.Kind == kindTitleAZ {
		return `(n.pinned < ? OR (n.pinned = ? AND (n.title_key > ? OR (n.title_key = ? AND n.id > ?))))`,
			[]any{p, p, c.Title, c.Title, c.ID}
	}
	return `(n.pinned < ? OR (n.pinned = ? AND (n.updated_at < ? OR (n.updated_at = ? AND n.id > ?))))`,
		[]any{p, p, c.Updated, c.Updated, c.ID}
}
