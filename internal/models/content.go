package models

// Content is the typed body of a note: exactly one of the variants below.
// The unexported marker keeps the set closed.
type Content interface {
	ContentType() NoteType
	isContent()
}

// TextContent is the body of a text note.
type TextContent struct {
	Body string `json:"body"`
}

// ChecklistContent is the ordered item list of a checklist note.
type ChecklistContent struct {
	Items []ChecklistItem `json:"items"`
}

// TableContent is the cell set of a table note.
type TableContent struct {
	Cells []TableCell `json:"cells"`
}

func (TextContent) ContentType() NoteType      { return TypeText }
func (ChecklistContent) ContentType() NoteType { return TypeChecklist }
func (TableContent) ContentType() NoteType     { return TypeTable }

func (TextContent) isContent()      {}
func (ChecklistContent) isContent() {}
func (TableContent) isContent()     {}

// NoteDraft is a note to be created together with its first content and
// pinned flag. Content may be nil.
type NoteDraft struct {
	Type    NoteType
	Title   string
	Color   Color
	Pinned  bool
	Content Content
}
