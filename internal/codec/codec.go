// Package codec flattens typed note content into searchable text and derives
// the normalized terms used for token-prefix matching. Everything here is
// pure and safe for concurrent use.
package codec

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/starford/notesd/internal/apperr"
	"github.com/starford/notesd/internal/models"
)

// Flatten returns the search blob for c. ok is false when there is no
// content to index yet (nil content or an empty checklist/table).
func Flatten(c models.Content) (blob string, ok bool) {
	switch v := c.(type) {
	case models.TextContent:
		return v.Body, true
	case models.ChecklistContent:
		return flattenChecklist(v.Items)
	case models.TableContent:
		return flattenTable(v.Cells)
	}
	return "", false
}

func flattenChecklist(items []models.ChecklistItem) (string, bool) {
	if len(items) == 0 {
		return "", false
	}
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b models.ChecklistItem) int {
		return a.Position - b.Position
	})
	texts := make([]string, len(sorted))
	for i, it := range sorted {
		texts[i] = it.Text
	}
	return strings.Join(texts, " "), true
}

func flattenTable(cells []models.TableCell) (string, bool) {
	if len(cells) == 0 {
		return "", false
	}
	sorted := slices.Clone(cells)
	slices.SortStableFunc(sorted, func(a, b models.TableCell) int {
		if a.Row != b.Row {
			return a.Row - b.Row
		}
		return a.Col - b.Col
	})
	texts := make([]string, len(sorted))
	for i, c := range sorted {
		texts[i] = c.Text
	}
	return strings.Join(texts, " "), true
}

// CheckType returns apperr.ErrTypeMismatch when content c cannot be stored
// on a note of type t.
func CheckType(t models.NoteType, c models.Content) error {
	if c == nil || c.ContentType() != t {
		return apperr.ErrTypeMismatch
	}
	return nil
}

// Normalize case-folds s and strips combining marks, so "Crème" and "creme"
// compare equal.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}

// TitleKey is the sort key for title ordering.
func TitleKey(title string) string {
	return cases.Fold().String(strings.TrimSpace(title))
}

// Terms splits the normalized parts into letter/digit tokens.
func Terms(parts ...string) []string {
	var out []string
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, strings.FieldsFunc(Normalize(p), isSeparator)...)
	}
	return out
}

// TermString joins tokens into the space-delimited form stored in the index.
// A leading and trailing space let a token prefix be matched with
// "% tok%" regardless of position.
func TermString(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	return " " + strings.Join(tokens, " ") + " "
}

// QueryTokens returns the distinct tokens of a search query in order of
// first appearance.
func QueryTokens(q string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range Terms(q) {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsNumber(r)
}
