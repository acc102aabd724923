/*
	sqlstore package implements store.Store on top of database/sql. The same
	queries serve PostgreSQL compatible engines (ie: CockroachDB) through
	lib/pq and embedded SQLite databases through go-sqlite3; engine specific
	details live in dialect.go.
*/

package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mycok/siteSearch/store"
)

const (
	queryTimeout = 5 * time.Second
	siteColumns  = "id, url, name, status, status_time, last_error"
	pageColumns  = "id, site_id, path, code, content"
	lemmaColumns = "id, site_id, lemma, frequency"
)

var (
	findSiteByURLQuery = "SELECT " + siteColumns + " FROM sites WHERE url = ?"
	insertSiteQuery    = "INSERT INTO sites (" + siteColumns + ") VALUES (?, ?, ?, ?, ?, ?)"
	updateSiteQuery    = `
						UPDATE sites SET url = ?, name = ?, status = ?, status_time = ?, last_error = ?
						WHERE id = ?
						`
	sitesQuery = "SELECT " + siteColumns + " FROM sites ORDER BY url"

	findPageQuery     = "SELECT " + pageColumns + " FROM pages WHERE site_id = ? AND path = ?"
	insertPageQuery   = "INSERT INTO pages (" + pageColumns + ") VALUES (?, ?, ?, ?, ?)"
	updatePageQuery   = "UPDATE pages SET site_id = ?, path = ?, code = ?, content = ? WHERE id = ?"
	countPagesQuery   = "SELECT COUNT(*) FROM pages WHERE site_id = ?"
	countAllPageQuery = "SELECT COUNT(*) FROM pages"
	pagesWithSiteBase = `
						SELECT p.id, p.site_id, p.path, p.code, p.content,
							s.id, s.url, s.name, s.status, s.status_time, s.last_error
						FROM pages p JOIN sites s ON s.id = p.site_id
						WHERE `

	findLemmaQuery     = "SELECT " + lemmaColumns + " FROM lemmas WHERE site_id = ? AND lemma = ?"
	insertLemmaQuery   = "INSERT INTO lemmas (" + lemmaColumns + ") VALUES (?, ?, ?, ?)"
	updateLemmaQuery   = "UPDATE lemmas SET site_id = ?, lemma = ?, frequency = ? WHERE id = ?"
	countLemmasQuery   = "SELECT COUNT(*) FROM lemmas WHERE site_id = ?"
	countAllLemmaQuery = "SELECT COUNT(*) FROM lemmas"

	insertEntryQuery  = "INSERT INTO index_entries (id, page_id, lemma_id, rank) VALUES (?, ?, ?, ?)"
	deleteEntryQuery  = "DELETE FROM index_entries WHERE page_id = ?"
	pageExistsQuery   = "SELECT 1 FROM pages WHERE id = ?"
	entriesJoinLemmas = `
						FROM index_entries e
						JOIN lemmas l ON l.id = e.lemma_id
						JOIN sites s ON s.id = l.site_id
						WHERE `

	pageScoresSelect          = "SELECT e.page_id, SUM(e.rank) AS score"
	pageScoresTail            = " GROUP BY e.page_id ORDER BY score DESC, e.page_id"
	termFrequenciesSelect     = "SELECT e.page_id, l.lemma, e.rank"
	documentFrequenciesSelect = "SELECT l.lemma, COUNT(DISTINCT e.page_id)"
	documentFrequenciesTail   = " GROUP BY l.lemma"
	countIndexedPagesQuery    = `
								SELECT COUNT(DISTINCT e.page_id)
								FROM index_entries e
								JOIN pages p ON p.id = e.page_id
								JOIN sites s ON s.id = p.site_id`
)

// Static and compile-time check to ensure SQLStore implements
// store.Store interface.
var _ store.Store = (*SQLStore)(nil)

// SQLStore implements a persistent store backed by a SQL database.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

// NewPostgresStore connects to a PostgreSQL compatible database using dsn and
// creates the schema when missing.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, err
	}

	return open(db, postgresDialect)
}

// NewSQLiteStore opens (creating when needed) the SQLite database at path
// and creates the schema when missing. The special path ":memory:" yields a
// private in-memory database.
func NewSQLiteStore(path string) (*SQLStore, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", path)

	db, err := sql.Open(sqliteDialect.driver, dsn)
	if err != nil {
		return nil, err
	}

	// SQLite serializes writers anyway. A single connection also keeps an
	// in-memory database alive and shared.
	db.SetMaxOpenConns(1)

	return open(db, sqliteDialect)
}

func open(db *sql.DB, d dialect) (*SQLStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, err
	}

	for _, stmt := range d.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()

			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	return &SQLStore{db: db, dialect: d}, nil
}

// Close terminates the connection to the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// FindSiteByURL performs a site lookup by its canonical url.
func (s *SQLStore) FindSiteByURL(url string) (*store.Site, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	site, err := scanSite(s.db.QueryRowContext(ctx, s.dialect.rebind(findSiteByURLQuery), url))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("find site: %w", store.ErrNotFound)
		}

		return nil, fmt.Errorf("find site: %w", err)
	}

	return site, nil
}

// SaveSite inserts or updates a site.
func (s *SQLStore) SaveSite(site *store.Site) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if site.ID == uuid.Nil {
		id := uuid.New()
		_, err := s.db.ExecContext(
			ctx, s.dialect.rebind(insertSiteQuery),
			id, site.URL, site.Name, string(site.Status), site.StatusTime.UTC(), site.LastError,
		)
		if err != nil {
			return fmt.Errorf("save site: %w", s.dialect.classify(err))
		}

		site.ID = id

		return nil
	}

	res, err := s.db.ExecContext(
		ctx, s.dialect.rebind(updateSiteQuery),
		site.URL, site.Name, string(site.Status), site.StatusTime.UTC(), site.LastError, site.ID,
	)

	return checkUpdate("save site", res, err, s.dialect)
}

// Sites returns every stored site ordered by url.
func (s *SQLStore) Sites() ([]*store.Site, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, sitesQuery)
	if err != nil {
		return nil, fmt.Errorf("sites: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var list []*store.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("sites: %w", err)
		}

		list = append(list, site)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sites: %w", err)
	}

	return list, nil
}

// FindPage performs a page lookup by its owning site and path.
func (s *SQLStore) FindPage(siteID uuid.UUID, path string) (*store.Page, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	p := new(store.Page)
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(findPageQuery), siteID, path).
		Scan(&p.ID, &p.SiteID, &p.Path, &p.Code, &p.Content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("find page: %w", store.ErrNotFound)
		}

		return nil, fmt.Errorf("find page: %w", err)
	}

	return p, nil
}

// SavePage inserts or updates a page.
func (s *SQLStore) SavePage(page *store.Page) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if page.ID == uuid.Nil {
		id := uuid.New()
		_, err := s.db.ExecContext(
			ctx, s.dialect.rebind(insertPageQuery),
			id, page.SiteID, page.Path, page.Code, page.Content,
		)
		if err != nil {
			return fmt.Errorf("save page: %w", s.dialect.classify(err))
		}

		page.ID = id

		return nil
	}

	res, err := s.db.ExecContext(
		ctx, s.dialect.rebind(updatePageQuery),
		page.SiteID, page.Path, page.Code, page.Content, page.ID,
	)

	return checkUpdate("save page", res, err, s.dialect)
}

// CountPages returns the number of pages of a site, or of every site when
// siteID is uuid.Nil.
func (s *SQLStore) CountPages(siteID uuid.UUID) (int, error) {
	return s.count("count pages", countPagesQuery, countAllPageQuery, siteID)
}

// PagesWithSite returns the pages matching ids along with their owning sites,
// following the order of ids.
func (s *SQLStore) PagesWithSite(ids []uuid.UUID) ([]*store.PageWithSite, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	values := make([]string, len(ids))
	for i, id := range ids {
		values[i] = id.String()
	}

	predicate, args := s.dialect.in("p.id", "UUID", values)

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(pagesWithSiteBase+predicate), args...)
	if err != nil {
		return nil, fmt.Errorf("pages with site: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byID := make(map[uuid.UUID]*store.PageWithSite, len(ids))
	for rows.Next() {
		var (
			p    = new(store.Page)
			site = new(store.Site)
		)

		if err := rows.Scan(
			&p.ID, &p.SiteID, &p.Path, &p.Code, &p.Content,
			&site.ID, &site.URL, &site.Name, &site.Status, &site.StatusTime, &site.LastError,
		); err != nil {
			return nil, fmt.Errorf("pages with site: %w", err)
		}

		byID[p.ID] = &store.PageWithSite{Page: p, Site: site}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pages with site: %w", err)
	}

	list := make([]*store.PageWithSite, 0, len(byID))
	for _, id := range ids {
		if pws, exists := byID[id]; exists {
			list = append(list, pws)
		}
	}

	return list, nil
}

// FindLemma performs a lemma lookup by its owning site and text.
func (s *SQLStore) FindLemma(siteID uuid.UUID, lemma string) (*store.Lemma, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	l := new(store.Lemma)
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(findLemmaQuery), siteID, lemma).
		Scan(&l.ID, &l.SiteID, &l.Lemma, &l.Frequency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("find lemma: %w", store.ErrNotFound)
		}

		return nil, fmt.Errorf("find lemma: %w", err)
	}

	return l, nil
}

// SaveLemma inserts or updates a lemma.
func (s *SQLStore) SaveLemma(lemma *store.Lemma) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if lemma.ID == uuid.Nil {
		id := uuid.New()
		_, err := s.db.ExecContext(
			ctx, s.dialect.rebind(insertLemmaQuery),
			id, lemma.SiteID, lemma.Lemma, lemma.Frequency,
		)
		if err != nil {
			return fmt.Errorf("save lemma: %w", s.dialect.classify(err))
		}

		lemma.ID = id

		return nil
	}

	res, err := s.db.ExecContext(
		ctx, s.dialect.rebind(updateLemmaQuery),
		lemma.SiteID, lemma.Lemma, lemma.Frequency, lemma.ID,
	)

	return checkUpdate("save lemma", res, err, s.dialect)
}

// CountLemmas returns the number of lemmas of a site, or of every site when
// siteID is uuid.Nil.
func (s *SQLStore) CountLemmas(siteID uuid.UUID) (int, error) {
	return s.count("count lemmas", countLemmasQuery, countAllLemmaQuery, siteID)
}

// SaveEntry inserts a new index entry.
func (s *SQLStore) SaveEntry(entry *store.IndexEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	id := uuid.New()
	_, err := s.db.ExecContext(
		ctx, s.dialect.rebind(insertEntryQuery), id, entry.PageID, entry.LemmaID, entry.Rank,
	)
	if err != nil {
		return fmt.Errorf("save entry: %w", s.dialect.classify(err))
	}

	entry.ID = id

	return nil
}

// DeleteEntriesByPage removes every index entry of a page.
func (s *SQLStore) DeleteEntriesByPage(pageID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, s.dialect.rebind(deleteEntryQuery), pageID); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}

	return nil
}

// ReplaceEntries atomically swaps the index entries of a page inside a
// single transaction.
func (s *SQLStore) ReplaceEntries(pageID uuid.UUID, entries []*store.IndexEntry) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace entries: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	if err = tx.QueryRowContext(ctx, s.dialect.rebind(pageExistsQuery), pageID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("replace entries: unknown page: %w", store.ErrNotFound)
		}

		return fmt.Errorf("replace entries: %w", err)
	}

	if _, err = tx.ExecContext(ctx, s.dialect.rebind(deleteEntryQuery), pageID); err != nil {
		return fmt.Errorf("replace entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(insertEntryQuery))
	if err != nil {
		return fmt.Errorf("replace entries: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	ids := make([]uuid.UUID, len(entries))
	for i, entry := range entries {
		ids[i] = uuid.New()
		if _, err = stmt.ExecContext(ctx, ids[i], pageID, entry.LemmaID, entry.Rank); err != nil {
			return fmt.Errorf("replace entries: %w", s.dialect.classify(err))
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("replace entries: %w", err)
	}

	for i, entry := range entries {
		entry.ID = ids[i]
		entry.PageID = pageID
	}

	return nil
}

// PageScores returns the summed entry rank of every page containing at least
// one of the lemmas, highest score first.
func (s *SQLStore) PageScores(lemmas []string, siteURL string) ([]*store.PageScore, error) {
	if len(lemmas) == 0 {
		return nil, nil
	}

	query, args := s.lemmaQuery(pageScoresSelect, pageScoresTail, lemmas, siteURL)

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("page scores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var list []*store.PageScore
	for rows.Next() {
		ps := new(store.PageScore)
		if err := rows.Scan(&ps.PageID, &ps.Score); err != nil {
			return nil, fmt.Errorf("page scores: %w", err)
		}

		list = append(list, ps)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("page scores: %w", err)
	}

	return list, nil
}

// TermFrequencies returns the rank of every (page, lemma) pair for the
// provided lemmas.
func (s *SQLStore) TermFrequencies(lemmas []string, siteURL string) ([]*store.TermFrequency, error) {
	if len(lemmas) == 0 {
		return nil, nil
	}

	query, args := s.lemmaQuery(termFrequenciesSelect, "", lemmas, siteURL)

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("term frequencies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var list []*store.TermFrequency
	for rows.Next() {
		tf := new(store.TermFrequency)
		if err := rows.Scan(&tf.PageID, &tf.Lemma, &tf.Frequency); err != nil {
			return nil, fmt.Errorf("term frequencies: %w", err)
		}

		list = append(list, tf)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("term frequencies: %w", err)
	}

	return list, nil
}

// DocumentFrequencies returns the number of distinct pages containing each
// lemma.
func (s *SQLStore) DocumentFrequencies(lemmas []string, siteURL string) (map[string]int, error) {
	frequencies := make(map[string]int)
	if len(lemmas) == 0 {
		return frequencies, nil
	}

	query, args := s.lemmaQuery(documentFrequenciesSelect, documentFrequenciesTail, lemmas, siteURL)

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("document frequencies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			lemma string
			count int
		)

		if err := rows.Scan(&lemma, &count); err != nil {
			return nil, fmt.Errorf("document frequencies: %w", err)
		}

		frequencies[lemma] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("document frequencies: %w", err)
	}

	return frequencies, nil
}

// CountIndexedPages returns the number of pages with at least one index entry.
func (s *SQLStore) CountIndexedPages(siteURL string) (int, error) {
	query := countIndexedPagesQuery
	var args []interface{}

	if siteURL != "" {
		query += " WHERE s.url = ?"
		args = append(args, siteURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var count int
	if err := s.db.QueryRowContext(ctx, s.dialect.rebind(query), args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count indexed pages: %w", err)
	}

	return count, nil
}

// lemmaQuery assembles an aggregate over the entries of the provided lemmas,
// optionally scoped to a single site.
func (s *SQLStore) lemmaQuery(
	selectClause, tail string, lemmas []string, siteURL string,
) (string, []interface{}) {

	predicate, args := s.dialect.in("l.lemma", "TEXT", lemmas)
	query := selectClause + entriesJoinLemmas + predicate

	if siteURL != "" {
		query += " AND s.url = ?"
		args = append(args, siteURL)
	}

	return s.dialect.rebind(query + tail), args
}

func (s *SQLStore) count(op, scopedQuery, globalQuery string, siteID uuid.UUID) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var (
		count int
		row   *sql.Row
	)

	if siteID == uuid.Nil {
		row = s.db.QueryRowContext(ctx, globalQuery)
	} else {
		row = s.db.QueryRowContext(ctx, s.dialect.rebind(scopedQuery), siteID)
	}

	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSite(row rowScanner) (*store.Site, error) {
	site := new(store.Site)
	if err := row.Scan(
		&site.ID, &site.URL, &site.Name, &site.Status, &site.StatusTime, &site.LastError,
	); err != nil {
		return nil, err
	}

	return site, nil
}

// checkUpdate converts the outcome of an UPDATE statement into a store error.
// An update that matched no row reports ErrNotFound.
func checkUpdate(op string, res sql.Result, err error, d dialect) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, d.classify(err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if affected == 0 {
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	}

	return nil
}
