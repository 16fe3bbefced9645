package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notesd/internal/models"
	"github.com/starford/notesd/internal/parser"
	"github.com/starford/notesd/internal/storage"
	"github.com/starford/notesd/internal/testutil"
)

func TestFileName(t *testing.T) {
	id := "3f2a9c1e-0000-4000-8000-000000000000"
	for title, want := range map[string]string{
		"Groceries":            "groceries-3f2a9c1e.md",
		"Crème brûlée, recipe": "creme-brulee-recipe-3f2a9c1e.md",
		"  ":                   "note-3f2a9c1e.md",
		"2024 / Q1 -- plan!":   "2024-q1-plan-3f2a9c1e.md",
	} {
		assert.Equal(t, want, FileName(models.Note{ID: id, Title: title}), title)
	}
}

func TestRender_RoundTripsThroughParser(t *testing.T) {
	note := models.Note{ID: "id-1", Title: "Budget", Type: models.TypeTable, Color: models.ColorGreen, Pinned: true}
	cells := []models.TableCell{
		{Row: 0, Col: 0, Text: "item"}, {Row: 0, Col: 1, Text: "cost"},
		{Row: 1, Col: 0, Text: "a | b"}, {Row: 1, Col: 1, Text: "12"},
	}
	data, err := Render(note, models.TableContent{Cells: cells})
	require.NoError(t, err)

	d, err := parser.Parse("ignored.md", data)
	require.NoError(t, err)
	assert.Equal(t, "Budget", d.Title)
	assert.Equal(t, models.TypeTable, d.Type)
	assert.Equal(t, models.ColorGreen, d.Color)
	assert.True(t, d.Pinned)

	got := d.Content.(models.TableContent).Cells
	require.Len(t, got, 4)
	for i := range cells {
		assert.Equal(t, cells[i].Row, got[i].Row)
		assert.Equal(t, cells[i].Col, got[i].Col)
		assert.Equal(t, cells[i].Text, got[i].Text)
	}
}

func TestRender_Checklist(t *testing.T) {
	note := models.Note{ID: "id-2", Title: "Trip", Type: models.TypeChecklist, Color: models.ColorNone}
	data, err := Render(note, models.ChecklistContent{Items: []models.ChecklistItem{
		{Text: "passport"}, {Text: "tickets", Checked: true},
	}})
	require.NoError(t, err)
	assert.Contains(t, string(data), "- [ ] passport\n- [x] tickets\n")

	d, err := parser.Parse("trip.md", data)
	require.NoError(t, err)
	items := d.Content.(models.ChecklistContent).Items
	require.Len(t, items, 2)
	assert.True(t, items[1].Checked)
}

func TestExport_WritesUpdatesAndPrunes(t *testing.T) {
	ctx := context.Background()
	svc := testutil.TestService(t, 0)
	dir, err := storage.NewDir(filepath.Join(t.TempDir(), "export"))
	require.NoError(t, err)

	keep, err := svc.CreateNote(ctx, models.TypeText, "Keep", models.ColorNone)
	require.NoError(t, err)
	require.NoError(t, svc.SaveText(ctx, keep.ID, "stays"))
	gone, err := svc.CreateNote(ctx, models.TypeText, "Gone", models.ColorNone)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir.Root(), "mine.md"), []byte("user file"), 0o644))

	res, err := Export(ctx, svc, dir, Options{Prune: true})
	require.NoError(t, err)
	assert.Equal(t, Result{Written: 2}, res)

	res, err = Export(ctx, svc, dir, Options{Prune: true})
	require.NoError(t, err)
	assert.Equal(t, Result{Unchanged: 2}, res)

	require.NoError(t, svc.DeleteNote(ctx, gone.ID))
	require.NoError(t, svc.SaveText(ctx, keep.ID, "edited"))
	res, err = Export(ctx, svc, dir, Options{Prune: true})
	require.NoError(t, err)
	assert.Equal(t, Result{Written: 1, Removed: 1}, res)

	names, err := dir.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{FileName(keep), "mine.md"}, names)

	data, err := dir.Read(FileName(keep))
	require.NoError(t, err)
	d, err := parser.Parse(FileName(keep), data)
	require.NoError(t, err)
	assert.Equal(t, models.TextContent{Body: "edited"}, d.Content)
}
