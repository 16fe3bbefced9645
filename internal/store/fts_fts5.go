//go:build sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS search_fts USING fts5(
			note_id UNINDEXED,
			title,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(ctx context.Context, q querier, id, title string, body *string) error {
	if err := ftsDelete(ctx, q, id); err != nil {
		return err
	}
	var b string
	if body != nil {
		b = *body
	}
	_, err := q.ExecContext(ctx, `INSERT INTO search_fts (note_id, title, body) VALUES (?, ?, ?)`, id, title, b)
	return wrap("upsert fts", err)
}

func ftsDelete(ctx context.Context, q querier, id string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM search_fts WHERE note_id = ?`, id)
	return wrap("delete fts", err)
}

// matchClause builds an FTS5 prefix query: every token must prefix a term
// of the title or body.
func matchClause(tokens []string) (join string, where []string, args []any) {
	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = `"` + strings.ReplaceAll(tok, `"`, `""`) + `"*`
	}
	return "JOIN search_fts f ON f.note_id = n.id",
		[]string{"f.search_fts MATCH ?"},
		[]any{strings.Join(terms, " AND ")}
}
