package storage

import (
	"strconv"
	"strings"

	"bookmarks/internal/models"
)

const bookmarkColumns = `b.id, b.title, b.url, b.description, b.domain, b.pending_tags,
	b.is_approved, b.approved_at, b.approved_by, b.submitted_ip, b.created_at`

// sqlBuilder accumulates positional arguments for one statement and renders
// placeholders in the backend's syntax.
type sqlBuilder struct {
	placeholder func(n int) string
	// contains is the substring position function: strpos (postgres) or instr (sqlite).
	contains string
	// lower folds a text column by Unicode case rules.
	lower string
	args  []any
}

func newPostgresBuilder() *sqlBuilder {
	return &sqlBuilder{
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		contains:    "strpos",
		lower:       "lower",
	}
}

func newSQLiteBuilder() *sqlBuilder {
	return &sqlBuilder{
		placeholder: func(int) string { return "?" },
		contains:    "instr",
		lower:       sqliteLowerFunc,
	}
}

func (sb *sqlBuilder) arg(v any) string {
	sb.args = append(sb.args, v)
	return sb.placeholder(len(sb.args))
}

func (sb *sqlBuilder) inList(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = sb.arg(id)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// where renders the filter of q, including the leading WHERE when non-empty.
func (sb *sqlBuilder) where(q models.BookmarkQuery) string {
	var conds []string

	if q.ApprovedOnly != nil {
		conds = append(conds, "b.is_approved = "+sb.arg(*q.ApprovedOnly))
	}

	if q.Tag != "" {
		conds = append(conds, `EXISTS (SELECT 1 FROM bookmark_tags bt JOIN tags t ON t.id = bt.tag_id
			WHERE bt.bookmark_id = b.id AND t.slug = `+sb.arg(q.Tag)+`)`)
	}

	if q.Search != "" {
		// SQLite placeholders are not numbered, so the needle is bound per use.
		needle := strings.ToLower(q.Search)
		conds = append(conds, "("+sb.contains+"("+sb.lower+"(b.title), "+sb.arg(needle)+") > 0 OR "+
			sb.contains+"("+sb.lower+"(b.description), "+sb.arg(needle)+") > 0)")
	}

	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func (sb *sqlBuilder) orderAndPage(q models.BookmarkQuery) string {
	dir := "DESC"
	if q.Ascending {
		dir = "ASC"
	}
	clause := " ORDER BY b.created_at " + dir + ", b.id " + dir
	if q.Limit > 0 {
		clause += " LIMIT " + sb.arg(q.Limit) + " OFFSET " + sb.arg(max(q.Offset, 0))
	}
	return clause
}

// listStatements builds the page query and the count query of q. The count
// query reuses the leading filter arguments.
func listStatements(sb *sqlBuilder, q models.BookmarkQuery) (page string, pageArgs []any, count string, countArgs []any) {
	where := sb.where(q)
	countArgs = append([]any(nil), sb.args...)
	count = "SELECT count(*) FROM bookmarks b" + where

	page = "SELECT " + bookmarkColumns + " FROM bookmarks b" + where + sb.orderAndPage(q)
	return page, sb.args, count, countArgs
}

func tagsForBookmarksStatement(sb *sqlBuilder, ids []int64) string {
	return `SELECT bt.bookmark_id, t.id, t.name, t.slug
		FROM bookmark_tags bt JOIN tags t ON t.id = bt.tag_id
		WHERE bt.bookmark_id IN ` + sb.inList(ids) + ` ORDER BY t.slug`
}

func tagsBySlugsStatement(sb *sqlBuilder, slugs []string) string {
	parts := make([]string, len(slugs))
	for i, s := range slugs {
		parts[i] = sb.arg(s)
	}
	return "SELECT id, name, slug FROM tags WHERE slug IN (" + strings.Join(parts, ", ") + ") ORDER BY slug"
}

func approveStatement(sb *sqlBuilder, ids []int64, moderator string, at any) string {
	return "UPDATE bookmarks SET is_approved = " + sb.arg(true) +
		", approved_at = " + sb.arg(at) +
		", approved_by = " + sb.arg(moderator) +
		" WHERE is_approved = " + sb.arg(false) + " AND id IN " + sb.inList(ids)
}

// attachTags groups tag rows onto their bookmarks.
func attachTags(bookmarks []*models.Bookmark, rows map[int64][]models.Tag) {
	for _, b := range bookmarks {
		b.Tags = rows[b.ID]
		if b.Tags == nil {
			b.Tags = []models.Tag{}
		}
	}
}

func bookmarkIDs(bookmarks []*models.Bookmark) []int64 {
	ids := make([]int64, len(bookmarks))
	for i, b := range bookmarks {
		ids[i] = b.ID
	}
	return ids
}
