// Package models defines the domain types for notesd.
package models

import (
	"fmt"
	"time"
)

// NoteType tags which content variant a note owns. It never changes after creation.
type NoteType string

const (
	TypeText      NoteType = "text"
	TypeChecklist NoteType = "checklist"
	TypeTable     NoteType = "table"
)

// NoteTypes lists every valid note type.
var NoteTypes = []NoteType{TypeText, TypeChecklist, TypeTable}

// Valid reports whether t is one of the known note types.
func (t NoteType) Valid() bool {
	switch t {
	case TypeText, TypeChecklist, TypeTable:
		return true
	}
	return false
}

// ParseNoteType converts a user-supplied string into a NoteType.
func ParseNoteType(s string) (NoteType, error) {
	t := NoteType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown note type %q", s)
	}
	return t, nil
}

// Color is the color tag shown on a note card.
type Color string

const (
	ColorNone   Color = "none"
	ColorRed    Color = "red"
	ColorOrange Color = "orange"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorPurple Color = "purple"
	ColorPink   Color = "pink"
	ColorTeal   Color = "teal"
	ColorBrown  Color = "brown"
	ColorGrey   Color = "grey"
)

// Colors is the full palette, "none" first.
var Colors = []Color{
	ColorNone, ColorRed, ColorOrange, ColorYellow, ColorGreen,
	ColorBlue, ColorPurple, ColorPink, ColorTeal, ColorBrown, ColorGrey,
}

// Valid reports whether c belongs to the palette.
func (c Color) Valid() bool {
	for _, known := range Colors {
		if c == known {
			return true
		}
	}
	return false
}

// ParseColor converts a user-supplied string into a Color. Empty means none.
func ParseColor(s string) (Color, error) {
	if s == "" {
		return ColorNone, nil
	}
	c := Color(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown color %q", s)
	}
	return c, nil
}

// Note is the canonical record of one user note.
type Note struct {
	ID        string    `json:"id"`
	Type      NoteType  `json:"type"`
	Title     string    `json:"title"`
	Color     Color     `json:"color"`
	Pinned    bool      `json:"pinned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteUpdate carries the mutable fields of a note. Type must match the
// stored type tag; it is present so callers cannot silently change it.
type NoteUpdate struct {
	ID     string   `json:"id"`
	Type   NoteType `json:"type"`
	Title  string   `json:"title"`
	Color  Color    `json:"color"`
	Pinned bool     `json:"pinned"`
}

// ChecklistItem is one line of a checklist note.
type ChecklistItem struct {
	ID       string `json:"id"`
	NoteID   string `json:"note_id"`
	Position int    `json:"position"`
	Text     string `json:"text"`
	Checked  bool   `json:"checked"`
}

// TableCell is one cell of a table note.
type TableCell struct {
	ID     string `json:"id"`
	NoteID string `json:"note_id"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Text   string `json:"text"`
}

// SearchEntry is the derived search row of a note. Body is nil until the
// note has content.
type SearchEntry struct {
	NoteID string
	Title  string
	Body   *string
	Terms  string
}
