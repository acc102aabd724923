package sqlstore

import (
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/mycok/siteSearch/store"
)

// dialect captures the differences between the supported SQL engines.
// Queries are written with '?' placeholders and rebound per dialect.
type dialect struct {
	driver        string
	schema        []string
	numberedBinds bool
	arrayParams   bool
	classify      func(err error) error
}

var postgresDialect = dialect{
	driver:        "postgres",
	numberedBinds: true,
	arrayParams:   true,
	classify:      classifyPostgresError,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS sites (
			id UUID PRIMARY KEY,
			url TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			status TEXT NOT NULL,
			status_time TIMESTAMPTZ NOT NULL,
			last_error TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			id UUID PRIMARY KEY,
			site_id UUID NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
			path TEXT NOT NULL,
			code INT NOT NULL,
			content TEXT NOT NULL,
			UNIQUE (site_id, path)
		)`,
		`CREATE TABLE IF NOT EXISTS lemmas (
			id UUID PRIMARY KEY,
			site_id UUID NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
			lemma TEXT NOT NULL,
			frequency INT NOT NULL,
			UNIQUE (site_id, lemma)
		)`,
		`CREATE TABLE IF NOT EXISTS index_entries (
			id UUID PRIMARY KEY,
			page_id UUID NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
			lemma_id UUID NOT NULL REFERENCES lemmas(id) ON DELETE CASCADE,
			rank DOUBLE PRECISION NOT NULL,
			UNIQUE (page_id, lemma_id)
		)`,
		`CREATE INDEX IF NOT EXISTS index_entries_lemma_idx ON index_entries (lemma_id)`,
	},
}

var sqliteDialect = dialect{
	driver:   "sqlite3",
	classify: classifySQLiteError,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS sites (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			status TEXT NOT NULL,
			status_time DATETIME NOT NULL,
			last_error TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			id TEXT PRIMARY KEY,
			site_id TEXT NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
			path TEXT NOT NULL,
			code INTEGER NOT NULL,
			content TEXT NOT NULL,
			UNIQUE (site_id, path)
		)`,
		`CREATE TABLE IF NOT EXISTS lemmas (
			id TEXT PRIMARY KEY,
			site_id TEXT NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
			lemma TEXT NOT NULL,
			frequency INTEGER NOT NULL,
			UNIQUE (site_id, lemma)
		)`,
		`CREATE TABLE IF NOT EXISTS index_entries (
			id TEXT PRIMARY KEY,
			page_id TEXT NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
			lemma_id TEXT NOT NULL REFERENCES lemmas(id) ON DELETE CASCADE,
			rank REAL NOT NULL,
			UNIQUE (page_id, lemma_id)
		)`,
		`CREATE INDEX IF NOT EXISTS index_entries_lemma_idx ON index_entries (lemma_id)`,
	},
}

// rebind rewrites '?' placeholders into the form expected by the driver.
func (d dialect) rebind(query string) string {
	if !d.numberedBinds {
		return query
	}

	var (
		b strings.Builder
		n int
	)

	b.Grow(len(query) + 8)
	for _, r := range query {
		if r != '?' {
			b.WriteRune(r)

			continue
		}

		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}

	return b.String()
}

// in returns a membership predicate for column along with its arguments.
// cast is the array type used by engines that accept array parameters.
func (d dialect) in(column, cast string, values []string) (string, []interface{}) {
	if d.arrayParams {
		return column + " = ANY(?::" + cast + "[])", []interface{}{pq.Array(values)}
	}

	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}

	return column + " IN (?" + strings.Repeat(", ?", len(values)-1) + ")", args
}

// classifyPostgresError maps constraint violations reported by postgres
// compatible engines (ie: CockroachDB) to store errors.
func classifyPostgresError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code.Name() {
	case "unique_violation":
		return store.ErrConflict
	case "foreign_key_violation":
		return store.ErrNotFound
	}

	return err
}

func classifySQLiteError(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return store.ErrConflict
	case sqlite3.ErrConstraintForeignKey:
		return store.ErrNotFound
	}

	return err
}
