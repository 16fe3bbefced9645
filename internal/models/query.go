package models

import "fmt"

// SortOrder selects the secondary ordering of a listing. Pinned notes always
// come first.
type SortOrder string

const (
	SortLastEdited SortOrder = "last_edited"
	SortTitleAZ    SortOrder = "title_az"
)

// Valid reports whether s is a known sort order.
func (s SortOrder) Valid() bool {
	return s == SortLastEdited || s == SortTitleAZ
}

// ParseSortOrder converts a user-supplied string into a SortOrder. Empty
// means last edited.
func ParseSortOrder(s string) (SortOrder, error) {
	if s == "" {
		return SortLastEdited, nil
	}
	o := SortOrder(s)
	if !o.Valid() {
		return "", fmt.Errorf("unknown sort order %q", s)
	}
	return o, nil
}

// TypeFilter restricts a listing to a single note type. The zero value
// matches every type.
type TypeFilter struct {
	Type NoteType
}

// AllTypes is the filter that matches every note.
var AllTypes = TypeFilter{}

// OnlyType returns a filter for notes of type t.
func OnlyType(t NoteType) TypeFilter {
	return TypeFilter{Type: t}
}

// Active reports whether the filter restricts anything.
func (f TypeFilter) Active() bool {
	return f.Type != ""
}

// ListQuery describes one page request of the note listing.
type ListQuery struct {
	Filter   TypeFilter
	Sort     SortOrder
	Cursor   string
	PageSize int
}

// SearchQuery describes one page request of full-text search.
type SearchQuery struct {
	Text     string
	Cursor   string
	PageSize int
}

// Page is one page of results. NextCursor is empty on the last page.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}
