package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/lankasignal/lankasignal/internal/category"
	"github.com/lankasignal/lankasignal/internal/window"
)

// ErrMissingURL is returned by Add for records without a URL.
var ErrMissingURL = errors.New("article url is required")

// UnknownSource replaces an empty source name on insert.
const UnknownSource = "unknown"

type Store struct {
	readDB  *sql.DB
	writeDB *sql.DB
	dialect dialect
	now     func() time.Time
}

// Open connects to a postgres:// DSN or opens (creating if needed) a SQLite
// database file at dsn.
func Open(dsn string) (*Store, error) {
	d := dialectFor(dsn)
	if d.name == "postgres" {
		return openPostgres(dsn)
	}

	if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	writeDB, err := sql.Open(d.driver, dsn+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open(d.driver, dsn+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	s := &Store{readDB: readDB, writeDB: writeDB, dialect: d, now: time.Now}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func openPostgres(dsn string) (*Store, error) {
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	s := &Store{readDB: db, writeDB: db, dialect: postgresDialect, now: time.Now}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	if _, err := s.writeDB.Exec(s.dialect.schema); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil && s.writeDB != s.readDB {
		errs = append(errs, s.writeDB.Close())
	}
	return errors.Join(errs...)
}

// SetClock replaces the clock used for defaults and window bounds.
func (s *Store) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.now = now
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// Add inserts an article unless its URL is already stored. A duplicate is
// not an error: it returns added=false and writes nothing.
func (s *Store) Add(a NewArticle) (id int64, added bool, err error) {
	url := strings.TrimSpace(a.URL)
	if url == "" {
		return 0, false, ErrMissingURL
	}
	source := strings.TrimSpace(a.Source)
	if source == "" {
		source = UnknownSource
	}
	collected := a.CollectedAt
	if collected.IsZero() {
		collected = s.now()
	}

	err = s.writeDB.QueryRow(s.dialect.rebind(`
		INSERT INTO articles (title, url, source, collected_at, processed)
		VALUES (?, ?, ?, ?, 0)
		ON CONFLICT (url) DO NOTHING
		RETURNING id
	`), strings.TrimSpace(a.Title), url, source, collected.UnixNano()).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("adding article %s: %w", url, err)
	}
	return id, true, nil
}

// Unprocessed returns articles awaiting categorization, oldest first.
func (s *Store) Unprocessed() ([]Article, error) {
	return s.queryArticles(
		"SELECT " + articleColumns + " FROM articles WHERE processed = 0 ORDER BY id ASC",
	)
}

// MarkProcessed records the category and sentiment of an unprocessed
// article. Already processed articles are left untouched.
func (s *Store) MarkProcessed(id int64, cat category.Category, sentiment float64) error {
	if cat == "" {
		cat = category.General
	}
	_, err := s.writeDB.Exec(s.dialect.rebind(`
		UPDATE articles SET category = ?, sentiment = ?, processed = 1
		WHERE id = ? AND processed = 0
	`), string(cat), sentiment, id)
	if err != nil {
		return fmt.Errorf("marking article %d processed: %w", id, err)
	}
	return nil
}

// QueryWindow returns articles collected inside w, newest first. An empty
// sources slice means all sources.
func (s *Store) QueryWindow(w window.Window, sources []string) ([]Article, error) {
	where, args := s.windowClause(w, sources)
	return s.queryArticles(
		"SELECT "+articleColumns+" FROM articles WHERE "+where+" ORDER BY collected_at DESC, id DESC",
		args...,
	)
}

// CategoryDistribution counts articles per category inside w. Articles
// without a category are not counted.
func (s *Store) CategoryDistribution(w window.Window, sources []string) (map[category.Category]int, error) {
	where, args := s.windowClause(w, sources)
	rows, err := s.readDB.Query(s.dialect.rebind(
		"SELECT category, COUNT(*) FROM articles WHERE "+where+" AND category IS NOT NULL GROUP BY category",
	), args...)
	if err != nil {
		return nil, fmt.Errorf("querying category distribution: %w", err)
	}
	defer rows.Close()

	out := map[category.Category]int{}
	for rows.Next() {
		var (
			name  string
			count int
		)
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("scanning category distribution: %w", err)
		}
		out[category.Category(name)] = count
	}
	return out, rows.Err()
}

// SourceDistribution counts articles per source inside w.
func (s *Store) SourceDistribution(w window.Window, sources []string) (map[string]int, error) {
	where, args := s.windowClause(w, sources)
	rows, err := s.readDB.Query(s.dialect.rebind(
		"SELECT source, COUNT(*) FROM articles WHERE "+where+" GROUP BY source",
	), args...)
	if err != nil {
		return nil, fmt.Errorf("querying source distribution: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var (
			name  string
			count int
		)
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("scanning source distribution: %w", err)
		}
		out[name] = count
	}
	return out, rows.Err()
}

// TotalCount returns the number of stored articles.
func (s *Store) TotalCount() (int, error) {
	var n int
	if err := s.readDB.QueryRow("SELECT COUNT(*) FROM articles").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting articles: %w", err)
	}
	return n, nil
}

// windowClause is the only place window bounds become SQL. Every windowed
// query goes through it.
func (s *Store) windowClause(w window.Window, sources []string) (string, []any) {
	start, end := window.Normalize(w.Older, w.Newer).Bounds(s.now())
	where := []string{"collected_at >= ?", "collected_at < ?"}
	args := []any{start.UnixNano(), end.UnixNano()}

	if len(sources) > 0 {
		placeholders := make([]string, len(sources))
		for i, src := range sources {
			placeholders[i] = "?"
			args = append(args, src)
		}
		where = append(where, "source IN ("+strings.Join(placeholders, ",")+")") //nolint:gosec
	}
	return strings.Join(where, " AND "), args
}

const articleColumns = "id, title, url, source, category, sentiment, collected_at, processed"

func (s *Store) queryArticles(query string, args ...any) ([]Article, error) {
	rows, err := s.readDB.Query(s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var (
			a         Article
			cat       sql.NullString
			sentiment sql.NullFloat64
			collected int64
			processed int64
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.URL, &a.Source, &cat, &sentiment, &collected, &processed); err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		if cat.Valid {
			c := category.Category(cat.String)
			a.Category = &c
		}
		if sentiment.Valid {
			v := sentiment.Float64
			a.Sentiment = &v
		}
		a.CollectedAt = time.Unix(0, collected)
		a.Processed = processed != 0
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// NeedsRefresh reports whether the last collection is older than interval.
func (s *Store) NeedsRefresh(interval time.Duration) bool {
	value, err := s.getMeta("last_refresh")
	if err != nil {
		return true
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return true
	}
	return s.now().Sub(t) > interval
}

func (s *Store) SetLastRefresh() error {
	return s.setMeta("last_refresh", s.now().Format(time.RFC3339))
}

// Prune deletes articles collected, and signals detected, more than
// olderThan ago. It returns the number of articles removed.
func (s *Store) Prune(olderThan time.Duration) (int64, error) {
	cutoff := s.now().Add(-olderThan).UnixNano()
	res, err := s.writeDB.Exec(s.dialect.rebind("DELETE FROM articles WHERE collected_at < ?"), cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning articles: %w", err)
	}
	if _, err := s.writeDB.Exec(s.dialect.rebind("DELETE FROM signals WHERE detected_at < ?"), cutoff); err != nil {
		return 0, fmt.Errorf("pruning signals: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns the article count and, for SQLite, the database file size.
func (s *Store) Stats(dbPath string) (count int, size int64, err error) {
	count, err = s.TotalCount()
	if err != nil {
		return 0, 0, err
	}
	if s.dialect.name != "sqlite" {
		return count, 0, nil
	}
	info, err := os.Stat(dbPath)
	if err != nil {
		return count, 0, fmt.Errorf("stat db: %w", err)
	}
	size = info.Size()
	// Recent writes live in the WAL until the next checkpoint.
	if wal, err := os.Stat(dbPath + "-wal"); err == nil {
		size += wal.Size()
	}
	return count, size, nil
}

func (s *Store) getMeta(key string) (string, error) {
	var value string
	err := s.readDB.QueryRow(s.dialect.rebind("SELECT value FROM meta WHERE key = ?"), key).Scan(&value)
	return value, err
}

func (s *Store) setMeta(key, value string) error {
	_, err := s.writeDB.Exec(s.dialect.rebind(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`), key, value)
	return err
}
