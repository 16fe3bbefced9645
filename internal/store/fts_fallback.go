//go:build !sqlite_fts5

package store

import (
	"context"
	"database/sql"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not compiled in; search matches against search_index.terms.
	return nil
}

func ftsUpsert(_ context.Context, _ querier, _, _ string, _ *string) error {
	// terms is written with the search entry; nothing extra to do.
	return nil
}

func ftsDelete(_ context.Context, _ querier, _ string) error { return nil }

// matchClause returns the join and predicate restricting notes to those
// whose every query token prefixes a stored term. Tokens hold only letters
// and digits, so they need no LIKE escaping.
func matchClause(tokens []string) (join string, where []string, args []any) {
	for _, tok := range tokens {
		where = append(where, "s.terms LIKE ?")
		args = append(args, "% "+tok+"%")
	}
	return "", where, args
}
