package api

import (
	"errors"

	"github.com/starford/notesd/internal/models"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Type    string          `json:"type" example:"checklist" validate:"required"`
	Title   string          `json:"title" example:"Groceries"`
	Color   string          `json:"color,omitempty" example:"yellow"`
	Pinned  bool            `json:"pinned,omitempty"`
	Content *ContentPayload `json:"content,omitempty"`
}

// UpdateNoteRequest is the request body for updating note metadata. Type is
// optional; when present it must match the stored type.
type UpdateNoteRequest struct {
	Type   string `json:"type,omitempty" example:"text"`
	Title  string `json:"title" example:"Groceries"`
	Color  string `json:"color,omitempty" example:"none"`
	Pinned bool   `json:"pinned"`
}

// ContentPayload carries one content variant. Type may be omitted when
// exactly one of body, items or cells is set.
type ContentPayload struct {
	Type  string                 `json:"type,omitempty" example:"text"`
	Body  *string                `json:"body,omitempty" example:"milk eggs bread"`
	Items []models.ChecklistItem `json:"items,omitempty"`
	Cells []models.TableCell     `json:"cells,omitempty"`
}

// NoteDetail is a note together with its content.
type NoteDetail struct {
	Note    models.Note    `json:"note"`
	Content ContentPayload `json:"content"`
}

// NoteListResponse wraps one page of notes.
type NoteListResponse struct {
	Notes      []models.Note `json:"notes" validate:"required"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// PinnedResponse wraps the pinned shelf.
type PinnedResponse struct {
	Notes []models.Note `json:"notes" validate:"required"`
}

var errAmbiguousContent = errors.New("content must carry exactly one of body, items, cells")

// toContent converts the payload into a content variant.
func (p ContentPayload) toContent() (models.Content, error) {
	t := models.NoteType(p.Type)
	if t == "" {
		set := 0
		if p.Body != nil {
			set++
			t = models.TypeText
		}
		if p.Items != nil {
			set++
			t = models.TypeChecklist
		}
		if p.Cells != nil {
			set++
			t = models.TypeTable
		}
		if set != 1 {
			return nil, errAmbiguousContent
		}
	}

	switch t {
	case models.TypeText:
		var body string
		if p.Body != nil {
			body = *p.Body
		}
		return models.TextContent{Body: body}, nil
	case models.TypeChecklist:
		return models.ChecklistContent{Items: p.Items}, nil
	case models.TypeTable:
		return models.TableContent{Cells: p.Cells}, nil
	}
	return nil, errors.New("unknown content type " + p.Type)
}

// contentPayload converts a content variant into its wire form.
func contentPayload(c models.Content) ContentPayload {
	switch v := c.(type) {
	case models.TextContent:
		body := v.Body
		return ContentPayload{Type: string(models.TypeText), Body: &body}
	case models.ChecklistContent:
		items := v.Items
		if items == nil {
			items = []models.ChecklistItem{}
		}
		return ContentPayload{Type: string(models.TypeChecklist), Items: items}
	case models.TableContent:
		cells := v.Cells
		if cells == nil {
			cells = []models.TableCell{}
		}
		return ContentPayload{Type: string(models.TypeTable), Cells: cells}
	}
	return ContentPayload{}
}
