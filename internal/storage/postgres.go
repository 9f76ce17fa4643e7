package storage

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"bookmarks/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema/postgres.sql
var postgresSchema string

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// PostgresStorage implements the Storage interface using PostgreSQL via pgx.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage creates a new PostgreSQL storage instance and ensures
// the schema exists.
func NewPostgresStorage(config Config) (*PostgresStorage, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required for PostgreSQL storage")
	}

	poolConfig, err := pgxpool.ParseConfig(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if config.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(min(config.MaxIdleConns, int(poolConfig.MaxConns)))
	}
	if config.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = config.ConnMaxLifetime
	}

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &PostgresStorage{pool: pool}, nil
}

func isPgUnique(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// CreateBookmark inserts the bookmark and its tag links in one transaction.
// The unique index on url_key resolves concurrent duplicates.
func (ps *PostgresStorage) CreateBookmark(ctx context.Context, b *models.Bookmark) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	domain := models.DomainOf(b.URL)

	var id int64
	err := pgx.BeginFunc(ctx, ps.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO bookmarks (title, url, url_key, description, domain, pending_tags, is_approved, submitted_ip, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 RETURNING id`,
			b.Title, b.URL, b.DedupKey(), b.Description, domain, pendingOrEmpty(b.PendingTags), b.IsApproved,
			b.SubmittedIP, b.CreatedAt).Scan(&id)
		if err != nil {
			return err
		}

		if len(b.Tags) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for _, tag := range b.Tags {
			batch.Queue(`INSERT INTO bookmark_tags (bookmark_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, tag.ID)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		if isPgUnique(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create bookmark: %w", err)
	}

	b.ID = id
	b.Domain = domain
	return nil
}

// BookmarkURLExists checks the url_key index
func (ps *PostgresStorage) BookmarkURLExists(ctx context.Context, canonicalURL string) (bool, error) {
	var exists bool
	err := ps.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookmarks WHERE url_key = $1)`, models.DedupKey(canonicalURL)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check bookmark url: %w", err)
	}
	return exists, nil
}

// GetBookmark retrieves a bookmark with its tags
func (ps *PostgresStorage) GetBookmark(ctx context.Context, id int64) (*models.Bookmark, error) {
	row := ps.pool.QueryRow(ctx, "SELECT "+bookmarkColumns+" FROM bookmarks b WHERE b.id = $1", id)
	b, err := scanPgBookmark(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("bookmark %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get bookmark: %w", err)
	}

	if err := ps.loadTags(ctx, []*models.Bookmark{b}); err != nil {
		return nil, err
	}
	return b, nil
}

// ListBookmarks returns a filtered page and the total match count
func (ps *PostgresStorage) ListBookmarks(ctx context.Context, q models.BookmarkQuery) ([]*models.Bookmark, int, error) {
	page, pageArgs, count, countArgs := listStatements(newPostgresBuilder(), q)

	var total int
	if err := ps.pool.QueryRow(ctx, count, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bookmarks: %w", err)
	}

	rows, err := ps.pool.Query(ctx, page, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	bookmarks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Bookmark, error) {
		return scanPgBookmark(row)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan bookmarks: %w", err)
	}

	if err := ps.loadTags(ctx, bookmarks); err != nil {
		return nil, 0, err
	}
	return bookmarks, total, nil
}

// ApproveBookmarks runs a single UPDATE over the pending rows among ids
func (ps *PostgresStorage) ApproveBookmarks(ctx context.Context, ids []int64, moderator string, at time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	sb := newPostgresBuilder()
	stmt := approveStatement(sb, ids, moderator, at)
	tag, err := ps.pool.Exec(ctx, stmt, sb.args...)
	if err != nil {
		return 0, fmt.Errorf("failed to approve bookmarks: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// TagsBySlugs returns the tags whose slug is in slugs
func (ps *PostgresStorage) TagsBySlugs(ctx context.Context, slugs []string) ([]models.Tag, error) {
	if len(slugs) == 0 {
		return []models.Tag{}, nil
	}

	sb := newPostgresBuilder()
	stmt := tagsBySlugsStatement(sb, slugs)
	return ps.queryTags(ctx, stmt, sb.args...)
}

// CreateTag inserts a tag
func (ps *PostgresStorage) CreateTag(ctx context.Context, tag *models.Tag) error {
	err := ps.pool.QueryRow(ctx,
		`INSERT INTO tags (name, slug) VALUES ($1, $2) RETURNING id`, tag.Name, tag.Slug).Scan(&tag.ID)
	if err != nil {
		if isPgUnique(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create tag: %w", err)
	}
	return nil
}

// ListTags returns every tag ordered by slug
func (ps *PostgresStorage) ListTags(ctx context.Context) ([]models.Tag, error) {
	return ps.queryTags(ctx, `SELECT id, name, slug FROM tags ORDER BY slug`)
}

// Ping checks database connectivity.
func (ps *PostgresStorage) Ping(ctx context.Context) error {
	return ps.pool.Ping(ctx)
}

// Close closes the connection pool.
func (ps *PostgresStorage) Close() error {
	ps.pool.Close()
	return nil
}

func (ps *PostgresStorage) queryTags(ctx context.Context, stmt string, args ...any) ([]models.Tag, error) {
	rows, err := ps.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	tags, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Tag, error) {
		var t models.Tag
		err := row.Scan(&t.ID, &t.Name, &t.Slug)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan tags: %w", err)
	}
	return tags, nil
}

func (ps *PostgresStorage) loadTags(ctx context.Context, bookmarks []*models.Bookmark) error {
	if len(bookmarks) == 0 {
		return nil
	}

	sb := newPostgresBuilder()
	stmt := tagsForBookmarksStatement(sb, bookmarkIDs(bookmarks))
	rows, err := ps.pool.Query(ctx, stmt, sb.args...)
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

func scanPgBookmark(row pgx.Row) (*models.Bookmark, error) {
	var b models.Bookmark
	if err := row.Scan(&b.ID, &b.Title, &b.URL, &b.Description, &b.Domain, &b.PendingTags,
		&b.IsApproved, &b.ApprovedAt, &b.ApprovedBy, &b.SubmittedIP, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.PendingTags = pendingOrEmpty(b.PendingTags)
	b.Tags = []models.Tag{}
	return &b, nil
}
