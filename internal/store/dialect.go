package store

import (
	"strconv"
	"strings"
)

type dialect struct {
	name   string
	driver string
	schema string
}

var sqliteDialect = dialect{
	name:   "sqlite",
	driver: "sqlite",
	schema: `
		CREATE TABLE IF NOT EXISTS articles (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			title        TEXT NOT NULL,
			url          TEXT NOT NULL UNIQUE,
			source       TEXT NOT NULL,
			category     TEXT,
			sentiment    REAL,
			collected_at INTEGER NOT NULL,
			processed    INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_articles_collected ON articles(collected_at DESC);
		CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source);
		CREATE INDEX IF NOT EXISTS idx_articles_processed ON articles(processed);

		CREATE TABLE IF NOT EXISTS signals (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			signal_type TEXT NOT NULL,
			description TEXT NOT NULL,
			severity    TEXT,
			category    TEXT,
			detected_at INTEGER NOT NULL,
			metadata    TEXT NOT NULL DEFAULT '{}'
		);
		CREATE INDEX IF NOT EXISTS idx_signals_detected ON signals(detected_at DESC);

		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`,
}

var postgresDialect = dialect{
	name:   "postgres",
	driver: "postgres",
	schema: `
		CREATE TABLE IF NOT EXISTS articles (
			id           BIGSERIAL PRIMARY KEY,
			title        TEXT NOT NULL,
			url          TEXT NOT NULL UNIQUE,
			source       TEXT NOT NULL,
			category     TEXT,
			sentiment    DOUBLE PRECISION,
			collected_at BIGINT NOT NULL,
			processed    INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_articles_collected ON articles(collected_at DESC);
		CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source);
		CREATE INDEX IF NOT EXISTS idx_articles_processed ON articles(processed);

		CREATE TABLE IF NOT EXISTS signals (
			id          BIGSERIAL PRIMARY KEY,
			signal_type TEXT NOT NULL,
			description TEXT NOT NULL,
			severity    TEXT,
			category    TEXT,
			detected_at BIGINT NOT NULL,
			metadata    TEXT NOT NULL DEFAULT '{}'
		);
		CREATE INDEX IF NOT EXISTS idx_signals_detected ON signals(detected_at DESC);

		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`,
}

func dialectFor(dsn string) dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return postgresDialect
	}
	return sqliteDialect
}

// rebind rewrites "?" placeholders to "$n" for postgres.
func (d dialect) rebind(query string) string {
	if d.name != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
