package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notesd/internal/apperr"
	"github.com/starford/notesd/internal/models"
	"github.com/starford/notesd/internal/notes"
)

// Handler holds API route handlers.
type Handler struct {
	svc *notes.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *notes.Service) *Handler {
	return &Handler{svc: svc}
}

func pageSize(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: limit must be a non-negative integer", apperr.ErrInvalidArgument)
	}
	return n, nil
}

// ListNotes handles GET /notes.
//
//	@Summary		List notes, pinned first, one page at a time
//	@Tags			notes
//	@Produce		json
//	@Param			type	query		string	false	"Filter by note type"	Enums(text, checklist, table)
//	@Param			sort	query		string	false	"Sort order"			Enums(last_edited, title_az)
//	@Param			cursor	query		string	false	"Cursor from the previous page"
//	@Param			limit	query		int		false	"Page size"
//	@Success		200		{object}	NoteListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lq := models.ListQuery{Cursor: q.Get("cursor")}

	if raw := q.Get("type"); raw != "" {
		t, err := models.ParseNoteType(raw)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: %v", apperr.ErrInvalidArgument, err))
			return
		}
		lq.Filter = models.OnlyType(t)
	}
	sort, err := models.ParseSortOrder(q.Get("sort"))
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", apperr.ErrInvalidArgument, err))
		return
	}
	lq.Sort = sort
	if lq.PageSize, err = pageSize(r); err != nil {
		writeError(w, r, err)
		return
	}

	page, err := h.svc.ListPage(r.Context(), lq)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse(page))
}

// ListPinned handles GET /notes/pinned.
//
//	@Summary		The pinned shelf, at most five notes
//	@Tags			notes
//	@Produce		json
//	@Success		200	{object}	PinnedResponse
//	@Security		BearerAuth
//	@Router			/notes/pinned [get]
func (h *Handler) ListPinned(w http.ResponseWriter, r *http.Request) {
	pinned, err := h.svc.ListPinned(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if pinned == nil {
		pinned = []models.Note{}
	}
	writeJSON(w, http.StatusOK, PinnedResponse{Notes: pinned})
}

// GetNote handles GET /notes/{id}.
//
//	@Summary		Get a single note by id
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	models.Note
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.GetNote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /notes.
//
//	@Summary		Create a new note, optionally with its first content
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t := models.NoteType(req.Type)
	var (
		note models.Note
		err  error
	)
	if req.Content == nil && !req.Pinned {
		note, err = h.svc.CreateNote(r.Context(), t, req.Title, models.Color(req.Color))
	} else {
		draft := models.NoteDraft{Type: t, Title: req.Title, Color: models.Color(req.Color), Pinned: req.Pinned}
		if req.Content != nil {
			if req.Content.Type == "" {
				req.Content.Type = req.Type
			}
			if draft.Content, err = req.Content.toContent(); err != nil {
				writeError(w, r, fmt.Errorf("%w: %v", apperr.ErrInvalidArgument, err))
				return
			}
		}
		note, err = h.svc.CreateFromDraft(r.Context(), draft)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeDetail(w, r, http.StatusCreated, note.ID)
}

// UpdateNote handles PUT /notes/{id}.
//
//	@Summary		Update title, color and pinned flag
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Note id"
//	@Param			body	body		UpdateNoteRequest	true	"New metadata"
//	@Success		200		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note, err := h.svc.UpdateNote(r.Context(), models.NoteUpdate{
		ID:     chi.URLParam(r, "id"),
		Type:   models.NoteType(req.Type),
		Title:  req.Title,
		Color:  models.Color(req.Color),
		Pinned: req.Pinned,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /notes/{id}.
//
//	@Summary		Delete a note with its content
//	@Tags			notes
//	@Param			id	path	string	true	"Note id"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteNote(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetContent handles GET /notes/{id}/content.
//
//	@Summary		Get a note with its content
//	@Tags			content
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/content [get]
func (h *Handler) GetContent(w http.ResponseWriter, r *http.Request) {
	h.writeDetail(w, r, http.StatusOK, chi.URLParam(r, "id"))
}

// SaveContent handles PUT /notes/{id}/content.
//
//	@Summary		Replace the content of a note
//	@Tags			content
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Note id"
//	@Param			body	body		ContentPayload	true	"New content"
//	@Success		200		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/content [put]
func (h *Handler) SaveContent(w http.ResponseWriter, r *http.Request) {
	var req ContentPayload
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := req.toContent()
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", apperr.ErrInvalidArgument, err))
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.svc.SaveContent(r.Context(), id, c); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeDetail(w, r, http.StatusOK, id)
}

// Search handles GET /search.
//
//	@Summary		Token-prefix search over titles and content
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			cursor	query		string	false	"Cursor from the previous page"
//	@Param			limit	query		int		false	"Page size"
//	@Success		200		{object}	NoteListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	size, err := pageSize(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.svc.Search(r.Context(), models.SearchQuery{
		Text:     r.URL.Query().Get("q"),
		Cursor:   r.URL.Query().Get("cursor"),
		PageSize: size,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse(page))
}

func (h *Handler) writeDetail(w http.ResponseWriter, r *http.Request, status int, id string) {
	note, c, err := h.svc.GetContent(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, NoteDetail{Note: note, Content: contentPayload(c)})
}

func listResponse(page models.Page[models.Note]) NoteListResponse {
	items := page.Items
	if items == nil {
		items = []models.Note{}
	}
	return NoteListResponse{Notes: items, NextCursor: page.NextCursor}
}
