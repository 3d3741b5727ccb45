package store

import "database/sql"

// PlaceholderForAbsent is stored in place of NULL in every column that
// participates in a uniqueness constraint. Both backends treat NULLs in a
// unique index as pairwise distinct, which would let duplicate rows
// accumulate for items that carry only one of their two identifiers.
const PlaceholderForAbsent = ""

// nullableText maps an in-memory value to its persisted form: absent values
// become the placeholder rather than NULL.
func nullableText(v string) string {
	if v == "" {
		return PlaceholderForAbsent
	}

	return v
}

// textOrEmpty maps a persisted nullable column back to the in-memory form
// where the empty string means absent.
func textOrEmpty(v sql.NullString) string {
	if !v.Valid {
		return ""
	}

	return v.String
}

// textOrNull maps an in-memory value to a driver-level NULL when absent.
// Used for resume token columns, which are nullable and never part of a
// uniqueness constraint.
func textOrNull(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}

	return sql.NullString{String: v, Valid: true}
}
