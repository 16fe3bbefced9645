package export

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/notesd/internal/codec"
	"github.com/starford/notesd/internal/models"
)

type frontmatter struct {
	ID        string          `yaml:"id"`
	Title     string          `yaml:"title"`
	Type      models.NoteType `yaml:"type"`
	Color     models.Color    `yaml:"color"`
	Pinned    bool            `yaml:"pinned"`
	UpdatedAt time.Time       `yaml:"updated_at"`
}

// Render writes a note as Markdown in the format the inbox reads back.
func Render(note models.Note, c models.Content) ([]byte, error) {
	fm, err := yaml.Marshal(frontmatter{
		ID:        note.ID,
		Title:     note.Title,
		Type:      note.Type,
		Color:     note.Color,
		Pinned:    note.Pinned,
		UpdatedAt: note.UpdatedAt.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("export: frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(fm)
	b.WriteString("---\n")

	switch v := c.(type) {
	case models.TextContent:
		if v.Body != "" {
			b.WriteString(v.Body)
			b.WriteString("\n")
		}
	case models.ChecklistContent:
		for _, it := range v.Items {
			mark := " "
			if it.Checked {
				mark = "x"
			}
			fmt.Fprintf(&b, "- [%s] %s\n", mark, oneLine(it.Text))
		}
	case models.TableContent:
		renderTable(&b, v.Cells)
	}
	return []byte(b.String()), nil
}

// renderTable lays cells out on a grid. Missing cells render empty; a rule
// row follows the first row so Markdown viewers draw a table.
func renderTable(b *strings.Builder, cells []models.TableCell) {
	if len(cells) == 0 {
		return
	}
	rows, cols := 0, 0
	for _, c := range cells {
		rows = max(rows, c.Row+1)
		cols = max(cols, c.Col+1)
	}
	grid := make([][]string, rows)
	for i := range grid {
		grid[i] = make([]string, cols)
	}
	for _, c := range cells {
		grid[c.Row][c.Col] = strings.ReplaceAll(oneLine(c.Text), "|", `\|`)
	}

	for i, row := range grid {
		b.WriteString("|")
		for _, text := range row {
			b.WriteString(" " + text + " |")
		}
		b.WriteString("\n")
		if i == 0 {
			b.WriteString("|" + strings.Repeat("---|", cols) + "\n")
		}
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FileName returns a stable file name for a note: a slug of the title plus
// the start of the id.
func FileName(note models.Note) string {
	var b strings.Builder
	dash := false
	for _, r := range codec.Normalize(note.Title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
		} else if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
		if b.Len() >= maxSlugLen {
			break
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "note"
	}
	id := note.ID
	if len(id) > idPrefixLen {
		id = id[:idPrefixLen]
	}
	return slug + "-" + id + ".md"
}

const (
	maxSlugLen  = 48
	idPrefixLen = 8
)
