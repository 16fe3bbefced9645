// Package parser turns Markdown or plain-text files into note drafts:
// YAML frontmatter for the metadata, and a body read as text, as a
// checklist of "- [ ]" lines or as a "| a | b |" table.
package parser

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/notesd/internal/apperr"
	"github.com/starford/notesd/internal/models"
)

var (
	checkboxRe  = regexp.MustCompile(`^\s*[-*+]\s+\[([ xX])\]\s?(.*)$`)
	bulletRe    = regexp.MustCompile(`^\s*[-*+]\s+(.*)$`)
	tableRowRe  = regexp.MustCompile(`^\s*\|(.*)\|\s*$`)
	tableRuleRe = regexp.MustCompile(`^\s*\|?\s*:?-+:?\s*(\|\s*:?-+:?\s*)*\|?\s*$`)
)

// Frontmatter is the metadata block recognised at the top of a file.
type Frontmatter struct {
	Title  string `yaml:"title"`
	Type   string `yaml:"type"`
	Color  string `yaml:"color"`
	Pinned bool   `yaml:"pinned"`
}

// Parse builds a note draft from the file name and raw bytes. The title comes
// from the frontmatter, else the first H1 heading, else the file name. The
// type comes from the frontmatter, else it is inferred from the body.
func Parse(name string, data []byte) (models.NoteDraft, error) {
	fm, body := splitFrontmatter(data)

	var d models.NoteDraft
	var err error
	if d.Color, err = models.ParseColor(strings.TrimSpace(fm.Color)); err != nil {
		return models.NoteDraft{}, fmt.Errorf("parser: %s: %w: %v", name, apperr.ErrInvalidArgument, err)
	}
	d.Pinned = fm.Pinned

	d.Title = strings.TrimSpace(fm.Title)
	if d.Title == "" {
		d.Title, body = takeHeading(body)
	}
	if d.Title == "" {
		d.Title = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}

	if t := strings.TrimSpace(fm.Type); t != "" {
		if d.Type, err = models.ParseNoteType(t); err != nil {
			return models.NoteDraft{}, fmt.Errorf("parser: %s: %w: %v", name, apperr.ErrInvalidArgument, err)
		}
	} else {
		d.Type = inferType(body)
	}

	switch d.Type {
	case models.TypeChecklist:
		d.Content = models.ChecklistContent{Items: ParseChecklist(body)}
	case models.TypeTable:
		d.Content = models.TableContent{Cells: ParseTable(body)}
	default:
		d.Content = models.TextContent{Body: strings.TrimRight(body, "\n\r")}
	}
	return d, nil
}

// splitFrontmatter separates YAML frontmatter (between leading ---
// delimiters) from the body. Without a valid block the whole input is body.
func splitFrontmatter(data []byte) (Frontmatter, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return Frontmatter{}, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return Frontmatter{}, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm Frontmatter
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML: keep everything as body.
		return Frontmatter{}, string(data)
	}
	return fm, body
}

// takeHeading returns the first H1 heading and the body without it, when
// the heading is the first non-blank line.
func takeHeading(body string) (string, string) {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "# ") {
			return "", body
		}
		rest := strings.Join(lines[i+1:], "\n")
		return strings.TrimSpace(trimmed[2:]), strings.TrimLeft(rest, "\n\r")
	}
	return "", body
}

// inferType picks checklist when every non-blank line is a checkbox, table
// when every non-blank line is a table row, text otherwise.
func inferType(body string) models.NoteType {
	checks, rows, other := 0, 0, 0
	for _, line := range strings.Split(body, "\n") {
		switch {
		case strings.TrimSpace(line) == "":
		case checkboxRe.MatchString(line):
			checks++
		case tableRowRe.MatchString(line):
			rows++
		default:
			other++
		}
	}
	switch {
	case other > 0:
		return models.TypeText
	case checks > 0 && rows == 0:
		return models.TypeChecklist
	case rows > 0 && checks == 0:
		return models.TypeTable
	}
	return models.TypeText
}

// ParseChecklist reads one item per non-blank line. Lines without a
// checkbox become unchecked items, with any bullet removed.
func ParseChecklist(body string) []models.ChecklistItem {
	var items []models.ChecklistItem
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		it := models.ChecklistItem{Position: len(items)}
		if m := checkboxRe.FindStringSubmatch(line); m != nil {
			it.Checked = m[1] != " "
			it.Text = strings.TrimSpace(m[2])
		} else if m := bulletRe.FindStringSubmatch(line); m != nil {
			it.Text = strings.TrimSpace(m[1])
		} else {
			it.Text = strings.TrimSpace(line)
		}
		items = append(items, it)
	}
	return items
}

// ParseTable reads "| a | b |" rows into cells. Separator rows such as
// "|---|:--:|" and lines that are not rows are skipped. A pipe inside a
// cell is written as "\|".
func ParseTable(body string) []models.TableCell {
	var cells []models.TableCell
	row := 0
	for _, line := range strings.Split(body, "\n") {
		m := tableRowRe.FindStringSubmatch(line)
		if m == nil || tableRuleRe.MatchString(line) {
			continue
		}
		for col, text := range splitCells(m[1]) {
			cells = append(cells, models.TableCell{Row: row, Col: col, Text: strings.TrimSpace(text)})
		}
		row++
	}
	return cells
}

// splitCells splits a table row on unescaped pipes.
func splitCells(row string) []string {
	var cells []string
	var cur strings.Builder
	for i := 0; i < len(row); i++ {
		switch {
		case row[i] == '\\' && i+1 < len(row) && row[i+1] == '|':
			cur.WriteByte('|')
			i++
		case row[i] == '|':
			cells = append(cells, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(row[i])
		}
	}
	return append(cells, cur.String())
}
