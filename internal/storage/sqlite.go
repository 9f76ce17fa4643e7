package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookmarks/internal/models"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed schema/sqlite.sql
var sqliteSchema string

// sqliteLowerFunc names the registered Unicode lower function. The built-in
// lower() only folds ASCII.
const sqliteLowerFunc = "unicode_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(sqliteLowerFunc, 1, unicodeLower)
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return nil, fmt.Errorf("%s: unsupported argument type %T", sqliteLowerFunc, v)
	}
}

// SQLiteStorage implements Storage on an embedded SQLite database. Timestamps
// are stored as unix microseconds.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens the database, applies pragmas and creates the schema.
func NewSQLiteStorage(config Config) (*SQLiteStorage, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required for SQLite storage")
	}

	db, err := sql.Open("sqlite", sqliteDSN(config.ConnectionString))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers; a single connection avoids SQLITE_BUSY and
	// keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func isSQLiteUnique(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "UNIQUE")
	}
	return false
}

// CreateBookmark inserts the bookmark and its tag links in one transaction
func (ss *SQLiteStorage) CreateBookmark(ctx context.Context, b *models.Bookmark) error {
	pending, err := marshalPendingTags(b.PendingTags)
	if err != nil {
		return err
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	domain := models.DomainOf(b.URL)

	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookmarks (title, url, url_key, description, domain, pending_tags, is_approved, submitted_ip, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Title, b.URL, b.DedupKey(), b.Description, domain, pending, b.IsApproved,
		stringPtrToNull(b.SubmittedIP), toUnixMicros(b.CreatedAt))
	if err != nil {
		if isSQLiteUnique(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert bookmark: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read bookmark id: %w", err)
	}

	for _, tag := range b.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO bookmark_tags (bookmark_id, tag_id) VALUES (?, ?)`, id, tag.ID); err != nil {
			return fmt.Errorf("failed to attach tag %d: %w", tag.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bookmark: %w", err)
	}

	b.ID = id
	b.Domain = domain
	return nil
}

// BookmarkURLExists checks the url_key index
func (ss *SQLiteStorage) BookmarkURLExists(ctx context.Context, canonicalURL string) (bool, error) {
	var exists bool
	err := ss.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookmarks WHERE url_key = ?)`, models.DedupKey(canonicalURL)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check bookmark url: %w", err)
	}
	return exists, nil
}

// GetBookmark retrieves a bookmark with its tags
func (ss *SQLiteStorage) GetBookmark(ctx context.Context, id int64) (*models.Bookmark, error) {
	row := ss.db.QueryRowContext(ctx, "SELECT "+bookmarkColumns+" FROM bookmarks b WHERE b.id = ?", id)
	b, err := scanSQLiteBookmark(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bookmark %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get bookmark: %w", err)
	}

	bookmarks := []*models.Bookmark{b}
	if err := ss.loadTags(ctx, bookmarks); err != nil {
		return nil, err
	}
	return b, nil
}

// ListBookmarks returns a filtered page and the total match count
func (ss *SQLiteStorage) ListBookmarks(ctx context.Context, q models.BookmarkQuery) ([]*models.Bookmark, int, error) {
	page, pageArgs, count, countArgs := listStatements(newSQLiteBuilder(), q)

	var total int
	if err := ss.db.QueryRowContext(ctx, count, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bookmarks: %w", err)
	}

	rows, err := ss.db.QueryContext(ctx, page, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookmarks: %w", err)
	}

	bookmarks := make([]*models.Bookmark, 0)
	for rows.Next() {
		b, err := scanSQLiteBookmark(rows)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		bookmarks = append(bookmarks, b)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookmarks: %w", err)
	}

	if err := ss.loadTags(ctx, bookmarks); err != nil {
		return nil, 0, err
	}
	return bookmarks, total, nil
}

// ApproveBookmarks runs a single UPDATE over the pending rows among ids
func (ss *SQLiteStorage) ApproveBookmarks(ctx context.Context, ids []int64, moderator string, at time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	sb := newSQLiteBuilder()
	stmt := approveStatement(sb, ids, moderator, toUnixMicros(at))
	res, err := ss.db.ExecContext(ctx, stmt, sb.args...)
	if err != nil {
		return 0, fmt.Errorf("failed to approve bookmarks: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read approved count: %w", err)
	}
	return int(n), nil
}

// TagsBySlugs returns the tags whose slug is in slugs
func (ss *SQLiteStorage) TagsBySlugs(ctx context.Context, slugs []string) ([]models.Tag, error) {
	if len(slugs) == 0 {
		return []models.Tag{}, nil
	}

	sb := newSQLiteBuilder()
	stmt := tagsBySlugsStatement(sb, slugs)
	return ss.queryTags(ctx, stmt, sb.args...)
}

// CreateTag inserts a tag
func (ss *SQLiteStorage) CreateTag(ctx context.Context, tag *models.Tag) error {
	res, err := ss.db.ExecContext(ctx, `INSERT INTO tags (name, slug) VALUES (?, ?)`, tag.Name, tag.Slug)
	if err != nil {
		if isSQLiteUnique(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create tag: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read tag id: %w", err)
	}
	tag.ID = id
	return nil
}

// ListTags returns every tag ordered by slug
func (ss *SQLiteStorage) ListTags(ctx context.Context) ([]models.Tag, error) {
	return ss.queryTags(ctx, `SELECT id, name, slug FROM tags ORDER BY slug`)
}

// Ping checks the database connection
func (ss *SQLiteStorage) Ping(ctx context.Context) error {
	return ss.db.PingContext(ctx)
}

// Close closes the storage connection
func (ss *SQLiteStorage) Close() error {
	return ss.db.Close()
}

func (ss *SQLiteStorage) queryTags(ctx context.Context, stmt string, args ...any) ([]models.Tag, error) {
	rows, err := ss.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	tags := make([]models.Tag, 0)
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (ss *SQLiteStorage) loadTags(ctx context.Context, bookmarks []*models.Bookmark) error {
	if len(bookmarks) == 0 {
		return nil
	}

	sb := newSQLiteBuilder()
	stmt := tagsForBookmarksStatement(sb, bookmarkIDs(bookmarks))
	rows, err := ss.db.QueryContext(ctx, stmt, sb.args...)
	if err != nil {
		return fmt.Errorf("failed to load bookmark tags: %w", err)
	}
	defer rows.Close()

	byBookmark := make(map[int64][]models.Tag)
	for rows.Next() {
		var bookmarkID int64
		var t models.Tag
		if err := rows.Scan(&bookmarkID, &t.ID, &t.Name, &t.Slug); err != nil {
			return fmt.Errorf("failed to scan bookmark tag: %w", err)
		}
		byBookmark[bookmarkID] = append(byBookmark[bookmarkID], t)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to load bookmark tags: %w", err)
	}

	attachTags(bookmarks, byBookmark)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteBookmark(row rowScanner) (*models.Bookmark, error) {
	var (
		b           models.Bookmark
		pending     string
		approvedAt  sql.NullInt64
		approvedBy  sql.NullString
		submittedIP sql.NullString
		createdAt   int64
	)

	if err := row.Scan(&b.ID, &b.Title, &b.URL, &b.Description, &b.Domain, &pending,
		&b.IsApproved, &approvedAt, &approvedBy, &submittedIP, &createdAt); err != nil {
		return nil, err
	}

	tags, err := unmarshalPendingTags(pending)
	if err != nil {
		return nil, err
	}
	b.PendingTags = tags
	b.ApprovedAt = nullTimeFromMicros(approvedAt)
	b.ApprovedBy = nullStringPtr(approvedBy)
	b.SubmittedIP = nullStringPtr(submittedIP)
	b.CreatedAt = fromUnixMicros(createdAt)
	b.Tags = []models.Tag{}

	return &b, nil
}
