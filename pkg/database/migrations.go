package database

// FullTextSearchClause builds a `to_tsvector(...) @@ plainto_tsquery(...)`
// predicate fragment for the given column and parameter placeholder,
// matching the GIN indexes declared in migrations/0001_init.up.sql.
// column must be a trusted, hardcoded identifier — never user input.
func FullTextSearchClause(column string, placeholder string) string {
	return "to_tsvector('english', " + column + ") @@ plainto_tsquery('english', " + placeholder + ")"
}
