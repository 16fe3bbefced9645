package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/starford/notesd/internal/models"
	"github.com/starford/notesd/internal/notes"
	"github.com/starford/notesd/internal/testutil"
)

// testEnv sets up a temp SQLite DB, service, and router for testing.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (*notes.Service, http.Handler) {
	t.Helper()
	return testEnvCap(t, authToken, 0)
}

func testEnvCap(t *testing.T, authToken string, maxNotes int) (*notes.Service, http.Handler) {
	t.Helper()
	svc := testutil.TestService(t, maxNotes)
	router := NewRouter(svc, RouterOptions{AuthEnabled: authToken != "", Token: authToken})
	return svc, router
}

func do(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		req = httptest.NewRequest(method, target, bytes.NewReader(b))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func createNote(t *testing.T, router http.Handler, req CreateNoteRequest) NoteDetail {
	t.Helper()
	w := do(t, router, http.MethodPost, "/notes", req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	return decode[NoteDetail](t, w)
}

func TestCreateAndGetNote(t *testing.T) {
	_, router := testEnv(t, "")

	created := createNote(t, router, CreateNoteRequest{Type: "text", Title: "Hello", Color: "yellow"})
	if created.Note.ID == "" {
		t.Fatal("created note has no id")
	}
	if created.Content.Type != "text" || created.Content.Body == nil || *created.Content.Body != "" {
		t.Errorf("fresh text content = %+v", created.Content)
	}

	w := do(t, router, http.MethodGet, "/notes/"+created.Note.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	note := decode[models.Note](t, w)
	if note.Title != "Hello" || note.Color != models.ColorYellow {
		t.Errorf("note = %+v", note)
	}
}

func TestCreateWithContent(t *testing.T) {
	_, router := testEnv(t, "")

	created := createNote(t, router, CreateNoteRequest{
		Type:   "checklist",
		Title:  "Groceries",
		Pinned: true,
		Content: &ContentPayload{Items: []models.ChecklistItem{
			{Text: "milk"}, {Text: "eggs", Checked: true},
		}},
	})
	if !created.Note.Pinned {
		t.Error("note should be pinned")
	}
	if len(created.Content.Items) != 2 || created.Content.Items[1].Position != 1 {
		t.Errorf("items = %+v", created.Content.Items)
	}

	w := do(t, router, http.MethodGet, "/search?q=egg", nil)
	resp := decode[NoteListResponse](t, w)
	if len(resp.Notes) != 1 || resp.Notes[0].ID != created.Note.ID {
		t.Errorf("search = %+v", resp.Notes)
	}
}

func TestCreateValidation(t *testing.T) {
	_, router := testEnv(t, "")

	tests := []struct {
		name string
		body any
		want int
	}{
		{"unknown type", CreateNoteRequest{Type: "drawing"}, http.StatusBadRequest},
		{"unknown color", CreateNoteRequest{Type: "text", Color: "mauve"}, http.StatusBadRequest},
		{"content of another type", CreateNoteRequest{
			Type: "text", Content: &ContentPayload{Type: "table", Cells: []models.TableCell{{Text: "x"}}},
		}, http.StatusUnprocessableEntity},
		{"malformed json", "not an object", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/notes", tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d, body = %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestCreateOverCapacity(t *testing.T) {
	_, router := testEnvCap(t, "", 1)
	createNote(t, router, CreateNoteRequest{Type: "text", Title: "only"})

	w := do(t, router, http.MethodPost, "/notes", CreateNoteRequest{Type: "text", Title: "one too many"})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if got := decode[errResponse](t, w); got.Kind != "capacity" {
		t.Errorf("kind = %q", got.Kind)
	}
}

func TestGetNotFound(t *testing.T) {
	_, router := testEnv(t, "")
	for _, path := range []string{"/notes/missing", "/notes/missing/content"} {
		if w := do(t, router, http.MethodGet, path, nil); w.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", path, w.Code)
		}
	}
}

func TestUpdateNote(t *testing.T) {
	_, router := testEnv(t, "")
	created := createNote(t, router, CreateNoteRequest{Type: "text", Title: "Draft"})

	w := do(t, router, http.MethodPut, "/notes/"+created.Note.ID, UpdateNoteRequest{Title: "Final", Color: "blue", Pinned: true})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}
	note := decode[models.Note](t, w)
	if note.Title != "Final" || !note.Pinned || note.Color != models.ColorBlue {
		t.Errorf("note = %+v", note)
	}

	w = do(t, router, http.MethodPut, "/notes/"+created.Note.ID, UpdateNoteRequest{Type: "table", Title: "Final"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("type change status = %d, want 422", w.Code)
	}
}

func TestDeleteNote(t *testing.T) {
	_, router := testEnv(t, "")
	created := createNote(t, router, CreateNoteRequest{Type: "text", Title: "gone"})

	if w := do(t, router, http.MethodDelete, "/notes/"+created.Note.ID, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	if w := do(t, router, http.MethodDelete, "/notes/"+created.Note.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestSaveContent(t *testing.T) {
	_, router := testEnv(t, "")
	table := createNote(t, router, CreateNoteRequest{Type: "table", Title: "Budget"})

	w := do(t, router, http.MethodPut, "/notes/"+table.Note.ID+"/content", ContentPayload{
		Cells: []models.TableCell{{Row: 0, Col: 0, Text: "rent"}, {Row: 0, Col: 1, Text: "900"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("save status = %d, body = %s", w.Code, w.Body.String())
	}
	detail := decode[NoteDetail](t, w)
	if len(detail.Content.Cells) != 2 || detail.Content.Cells[1].Text != "900" {
		t.Errorf("cells = %+v", detail.Content.Cells)
	}
	if !detail.Note.UpdatedAt.After(table.Note.UpdatedAt) {
		t.Error("updated_at should advance on content save")
	}

	body := "rent is due"
	w = do(t, router, http.MethodPut, "/notes/"+table.Note.ID+"/content", ContentPayload{Body: &body})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("text on table = %d, want 422", w.Code)
	}

	w = do(t, router, http.MethodPut, "/notes/"+table.Note.ID+"/content", ContentPayload{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty payload = %d, want 400", w.Code)
	}
}

func TestListNotesPaging(t *testing.T) {
	_, router := testEnv(t, "")
	want := map[string]bool{}
	for _, title := range []string{"delta", "alpha", "charlie", "bravo", "echo"} {
		want[createNote(t, router, CreateNoteRequest{Type: "text", Title: title}).Note.ID] = true
	}

	var titles []string
	cursor := ""
	for pages := 0; ; pages++ {
		if pages > 5 {
			t.Fatal("pagination did not terminate")
		}
		w := do(t, router, http.MethodGet, "/notes?sort=title_az&limit=2&cursor="+cursor, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("list status = %d, body = %s", w.Code, w.Body.String())
		}
		resp := decode[NoteListResponse](t, w)
		for _, n := range resp.Notes {
			if !want[n.ID] {
				t.Errorf("unexpected or repeated id %s", n.ID)
			}
			delete(want, n.ID)
			titles = append(titles, n.Title)
		}
		if resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}
	if len(want) != 0 {
		t.Errorf("notes never listed: %v", want)
	}
	if titles[0] != "alpha" || titles[4] != "echo" {
		t.Errorf("titles = %v", titles)
	}
}

func TestListNotesBadParams(t *testing.T) {
	_, router := testEnv(t, "")
	for _, q := range []string{"?sort=random", "?type=drawing", "?limit=-1", "?cursor=not-a-cursor"} {
		if w := do(t, router, http.MethodGet, "/notes"+q, nil); w.Code != http.StatusBadRequest {
			t.Errorf("GET /notes%s = %d, want 400", q, w.Code)
		}
	}
}

func TestListPinned(t *testing.T) {
	_, router := testEnv(t, "")
	createNote(t, router, CreateNoteRequest{Type: "text", Title: "loose"})
	pinned := createNote(t, router, CreateNoteRequest{Type: "text", Title: "shelf", Pinned: true})

	w := do(t, router, http.MethodGet, "/notes/pinned", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("pinned status = %d", w.Code)
	}
	resp := decode[PinnedResponse](t, w)
	if len(resp.Notes) != 1 || resp.Notes[0].ID != pinned.Note.ID {
		t.Errorf("pinned = %+v", resp.Notes)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	_, router := testEnv(t, "")
	createNote(t, router, CreateNoteRequest{Type: "text", Title: "anything"})

	w := do(t, router, http.MethodGet, "/search?q=", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if resp := decode[NoteListResponse](t, w); len(resp.Notes) != 0 {
		t.Errorf("empty query returned %d notes", len(resp.Notes))
	}
}

func TestAuth(t *testing.T) {
	_, router := testEnv(t, "secret")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", "Basic secret", http.StatusUnauthorized},
		{"valid", "Bearer secret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/notes", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
