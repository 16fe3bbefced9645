// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes notesd tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notesd/internal/apperr"
	"github.com/starford/notesd/internal/models"
	"github.com/starford/notesd/internal/notes"
	"github.com/starford/notesd/internal/parser"
	"github.com/starford/notesd/internal/store"
)

const (
	formatURI = "notesd://note-format"
	typesURI  = "notesd://note-types"
)

// Server wraps the MCP server with notesd tools.
type Server struct {
	mcp *server.MCPServer
	svc *notes.Service
}

// New creates a new MCP server with all notesd tools registered.
func New(svc *notes.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"notesd",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search notes by word prefixes in titles and content. "+
			"Returns one page of notes and a cursor for the next page."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query, at least 2 characters")),
		mcp.WithString("cursor", mcp.Description("Cursor returned by the previous page")),
		mcp.WithNumber("limit", mcp.Description("Page size")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes, pinned first, then by sort order."),
		mcp.WithString("type", mcp.Description("Only notes of this type"), mcp.Enum("text", "checklist", "table")),
		mcp.WithString("sort", mcp.Description("Sort order"), mcp.Enum("last_edited", "title_az")),
		mcp.WithString("cursor", mcp.Description("Cursor returned by the previous page")),
		mcp.WithNumber("limit", mcp.Description("Page size")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("list_pinned",
		mcp.WithDescription("List the pinned shelf (at most five notes)."),
	), s.listPinned)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note and its content."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create an empty note of the given type."),
		mcp.WithString("type", mcp.Required(), mcp.Enum("text", "checklist", "table")),
		mcp.WithString("title", mcp.Description("Note title")),
		mcp.WithString("color", mcp.Description("Color tag, none by default")),
		mcp.WithBoolean("pinned", mcp.Description("Pin the note")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("import_markdown",
		mcp.WithDescription("Create a note with content from a Markdown draft. "+
			"Read the format first via the "+formatURI+" resource."),
		mcp.WithString("markdown", mcp.Required(), mcp.Description("Draft following the notesd Markdown draft format")),
		mcp.WithString("name", mcp.Description("File name used as the fallback title")),
	), s.importMarkdown)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Replace title, color and pinned flag of a note."),
		mcp.WithString("id", mcp.Required()),
		mcp.WithString("title", mcp.Required()),
		mcp.WithString("color"),
		mcp.WithBoolean("pinned"),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("save_text",
		mcp.WithDescription("Replace the body of a text note."),
		mcp.WithString("id", mcp.Required()),
		mcp.WithString("body", mcp.Required()),
	), s.saveText)

	s.mcp.AddTool(mcp.NewTool("save_checklist",
		mcp.WithDescription("Replace the items of a checklist note. One item per line, "+
			"written as \"- [ ] text\" or \"- [x] text\"."),
		mcp.WithString("id", mcp.Required()),
		mcp.WithString("items", mcp.Required()),
	), s.saveChecklist)

	s.mcp.AddTool(mcp.NewTool("save_table",
		mcp.WithDescription("Replace the cells of a table note, given as Markdown pipe rows."),
		mcp.WithString("id", mcp.Required()),
		mcp.WithString("rows", mcp.Required()),
	), s.saveTable)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note and its content."),
		mcp.WithString("id", mcp.Required()),
	), s.deleteNote)

	// Resource: draft format contract.
	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Markdown Draft Format",
			mcp.WithResourceDescription("Markdown format accepted by import_markdown and the inbox directory."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	// Resource: note types and the color palette.
	s.mcp.AddResource(
		mcp.NewResource(typesURI, "Note Types",
			mcp.WithResourceDescription("Valid note types, colors and limits."),
			mcp.WithMIMEType("application/json"),
		),
		s.readNoteTypesResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// toolError reports err to the client with its kind, so callers can tell a
// missing note from a full store.
func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", apperr.Kind(err), err))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}

type noteWithContent struct {
	Note    models.Note    `json:"note"`
	Content models.Content `json:"content"`
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := s.svc.Search(ctx, models.SearchQuery{
		Text:     query,
		Cursor:   req.GetString("cursor", ""),
		PageSize: req.GetInt("limit", 0),
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(page)
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := models.ListQuery{
		Cursor:   req.GetString("cursor", ""),
		PageSize: req.GetInt("limit", 0),
	}
	if raw := req.GetString("type", ""); raw != "" {
		t, err := models.ParseNoteType(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		q.Filter = models.OnlyType(t)
	}
	sort, err := models.ParseSortOrder(req.GetString("sort", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	q.Sort = sort

	page, err := s.svc.ListPage(ctx, q)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(page)
}

func (s *Server) listPinned(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pinned, err := s.svc.ListPinned(ctx)
	if err != nil {
		return toolError(err), nil
	}
	if pinned == nil {
		pinned = []models.Note{}
	}
	return jsonResult(pinned)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, c, err := s.svc.GetContent(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(noteWithContent{Note: note, Content: c})
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.CreateFromDraft(ctx, models.NoteDraft{
		Type:   models.NoteType(t),
		Title:  req.GetString("title", ""),
		Color:  models.Color(req.GetString("color", "")),
		Pinned: req.GetBool("pinned", false),
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(note)
}

func (s *Server) importMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	md, err := req.RequireString("markdown")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	draft, err := parser.Parse(req.GetString("name", "untitled.md"), []byte(md))
	if err != nil {
		return toolError(err), nil
	}
	note, err := s.svc.CreateFromDraft(ctx, draft)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(note)
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.UpdateNote(ctx, models.NoteUpdate{
		ID:     id,
		Title:  title,
		Color:  models.Color(req.GetString("color", "")),
		Pinned: req.GetBool("pinned", false),
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(note)
}

func (s *Server) saveText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := req.RequireString("body")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.SaveText(ctx, id, body); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText("saved: " + id), nil
}

func (s *Server) saveChecklist(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := req.RequireString("items")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.SaveChecklist(ctx, id, parser.ParseChecklist(items)); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText("saved: " + id), nil
}

func (s *Server) saveTable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rows, err := req.RequireString("rows")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.SaveTable(ctx, id, parser.ParseTable(rows)); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText("saved: " + id), nil
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteNote(ctx, id); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText("deleted: " + id), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}

type noteTypes struct {
	Types    []models.NoteType `json:"types"`
	Colors   []models.Color    `json:"colors"`
	MaxNotes int               `json:"max_notes"`
	// MaxPinned bounds the pinned shelf.
	MaxPinned int `json:"max_pinned"`
}

func (s *Server) readNoteTypesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	out, err := json.MarshalIndent(noteTypes{
		Types:     models.NoteTypes,
		Colors:    models.Colors,
		MaxNotes:  s.svc.MaxNotes(),
		MaxPinned: store.MaxPinned,
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      typesURI,
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}
