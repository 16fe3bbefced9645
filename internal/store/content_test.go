package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notesd/internal/apperr"
	"github.com/starford/notesd/internal/models"
)

func TestContents_SaveTextUpserts(t *testing.T) {
	e := newTestEnv(t, 0)
	ctx := context.Background()
	n := e.create(t, models.TypeText, "t")

	got, err := e.contents.GetText(ctx, n.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "fresh note has no body")

	require.NoError(t, e.contents.SaveText(ctx, n.ID, "first"))
	require.NoError(t, e.contents.SaveText(ctx, n.ID, "second"))

	got, err = e.contents.GetText(ctx, n.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "second", got.Body)
	assert.Equal(t, 1, e.rowCount(t, "text_bodies", n.ID))
}

func TestContents_TypeMismatch(t *testing.T) {
	e := newTestEnv(t, 0)
	ctx := context.Background()
	text := e.create(t, models.TypeText, "t")
	list := e.create(t, models.TypeChecklist, "c")

	_, err := e.contents.ReplaceChecklist(ctx, text.ID, []models.ChecklistItem{{Text: "x"}})
	assert.ErrorIs(t, err, apperr.ErrTypeMismatch)
	_, err = e.contents.ReplaceTableCells(ctx, text.ID, []models.TableCell{{Text: "x"}})
	assert.ErrorIs(t, err, apperr.ErrTypeMismatch)
	err = e.contents.SaveText(ctx, list.ID, "x")
	assert.ErrorIs(t, err, apperr.ErrTypeMismatch)

	assert.Zero(t, e.rowCount(t, "checklist_items", text.ID))
	assert.Zero(t, e.rowCount(t, "text_bodies", list.ID))
}

func TestContents_MissingNote(t *testing.T) {
	e := newTestEnv(t, 0)
	err := e.contents.SaveText(context.Background(), "nope", "x")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestContents_ChecklistRenumbers(t *testing.T) {
	e := newTestEnv(t, 0)
	ctx := context.Background()
	n := e.create(t, models.TypeChecklist, "c")

	_, err := e.contents.ReplaceChecklist(ctx, n.ID, []models.ChecklistItem{
		{Text: "old one"}, {Text: "old two"}, {Text: "old three"},
	})
	require.NoError(t, err)

	items := []models.ChecklistItem{
		{ID: "keep-me", Position: 7, Text: "bread", Checked: true},
		{Position: 3, Text: "milk"},
	}
	saved, err := e.contents.ReplaceChecklist(ctx, n.ID, items)
	require.NoError(t, err)
	assert.Equal(t, "keep-me", saved[0].ID)
	assert.NotEmpty(t, saved[1].ID)

	got, err := e.contents.GetChecklist(ctx, n.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, saved, got)
	assert.Equal(t, 0, got[0].Position)
	assert.Equal(t, "bread", got[0].Text)
	assert.True(t, got[0].Checked)
	assert.Equal(t, 1, got[1].Position)
	assert.Equal(t, "milk", got[1].Text)
	assert.False(t, got[1].Checked)
}

func TestContents_ChecklistDuplicateIDRollsBack(t *testing.T) {
	e := newTestEnv(t, 0)
	ctx := context.Background()
	n := e.create(t, models.TypeChecklist, "c")
	_, err := e.contents.ReplaceChecklist(ctx, n.ID, []models.ChecklistItem{{Text: "survivor"}})
	require.NoError(t, err)

	_, err = e.contents.ReplaceChecklist(ctx, n.ID, []models.ChecklistItem{{ID: "dup", Text: "a"}, {ID: "dup", Text: "b"}})
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)

	got, err := e.contents.GetChecklist(ctx, n.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "survivor", got[0].Text)
}

func TestContents_IDsAreScopedToNote(t *testing.T) {
	e := newTestEnv(t, 0)
	ctx := context.Background()
	a := e.create(t, models.TypeChecklist, "a")
	b := e.create(t, models.TypeChecklist, "b")
	items := []models.ChecklistItem{{ID: "item-1", Text: "x"}, {ID: "item-2", Text: "y"}}

	_, err := e.contents.ReplaceChecklist(ctx, a.ID, items)
	require.NoError(t, err)
	_, err = e.contents.ReplaceChecklist(ctx, b.ID, items)
	require.NoError(t, err)
	assert.Equal(t, 2, e.rowCount(t, "checklist_items", a.ID))
	assert.Equal(t, 2, e.rowCount(t, "checklist_items", b.ID))

	ta := e.create(t, models.TypeTable, "ta")
	tb := e.create(t, models.TypeTable, "tb")
	cells := []models.TableCell{{ID: "cell-1", Row: 0, Col: 0, Text: "k"}}
	_, err = e.contents.ReplaceTableCells(ctx, ta.ID, cells)
	require.NoError(t, err)
	_, err = e.contents.ReplaceTableCells(ctx, tb.ID, cells)
	require.NoError(t, err)
	assert.Equal(t, 1, e.rowCount(t, "table_cells", tb.ID))
}

func TestContents_TableOrderedRowMajor(t *testing.T) {
	e := newTestEnv(t, 0)
	ctx := context.Background()
	n := e.create(t, models.TypeTable, "t")

	_, err := e.contents.ReplaceTableCells(ctx, n.ID, []models.TableCell{
		{Row: 1, Col: 1, Text: "d"},
		{Row: 0, Col: 0, Text: "a"},
		{Row: 1, Col: 0, Text: "c"},
		{Row: 0, Col: 1, Text: "b"},
	})
	require.NoError(t, err)

	got, err := e.contents.GetTableCells(ctx, n.ID)
	require.NoError(t, err)
	texts := make([]string, len(got))
	for i, c := range got {
		texts[i] = c.Text
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, texts)
}

func TestContents_TableAllowsRaggedRows(t *testing.T) {
	e := newTestEnv(t, 0)
	ctx := context.Background()
	n := e.create(t, models.TypeTable, "t")

	_, err := e.contents.ReplaceTableCells(ctx, n.ID, []models.TableCell{
		{Row: 0, Col: 0, Text: "a"}, {Row: 0, Col: 1, Text: "b"}, {Row: 1, Col: 0, Text: "c"},
	})
	assert.NoError(t, err)
}

func TestContents_TableRejectsDuplicateCell(t *testing.T) {
	e := newTestEnv(t, 0)
	ctx := context.Background()
	n := e.create(t, models.TypeTable, "t")

	_, err := e.contents.ReplaceTableCells(ctx, n.ID, []models.TableCell{
		{Row: 0, Col: 0, Text: "a"}, {Row: 0, Col: 0, Text: "b"},
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = e.contents.ReplaceTableCells(ctx, n.ID, []models.TableCell{{Row: -1, Col: 0}})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestContents_Load(t *testing.T) {
	e := newTestEnv(t, 0)
	ctx := context.Background()

	text := e.create(t, models.TypeText, "t")
	c, err := e.contents.Load(ctx, text)
	require.NoError(t, err)
	assert.Nil(t, c)

	require.NoError(t, e.contents.SaveText(ctx, text.ID, "hi"))
	c, err = e.contents.Load(ctx, text)
	require.NoError(t, err)
	assert.Equal(t, models.TextContent{Body: "hi"}, c)

	table := e.create(t, models.TypeTable, "tbl")
	c, err = e.contents.Load(ctx, table)
	require.NoError(t, err)
	assert.Equal(t, models.TableContent{Cells: []models.TableCell{}}, c)
}
