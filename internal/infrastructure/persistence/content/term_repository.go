// Package content provides the SQL-based implementations of the glossary
// content repositories.
package content

import (
	"database/sql"
	"strings"
	"time"

	"github.com/aimlgloss/glossary-go/internal/domain/entities/content"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/persistence/database"
	"github.com/aimlgloss/glossary-go/pkg/config"
)

// SQLTermRepository is the SQL-based implementation of TermRepository.
type SQLTermRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

func NewSQLTermRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLTermRepository {
	return &SQLTermRepository{db: db, logger: logger}
}

const termColumns = `id, slug, title, definition, category_id, related, created_at, updated_at`

func (r *SQLTermRepository) FindByID(id string) (*content.TermNode, error) {
	const query = `SELECT ` + termColumns + ` FROM terms WHERE id = ?`
	return r.findOne(query, id)
}

func (r *SQLTermRepository) FindBySlug(slug string) (*content.TermNode, error) {
	const query = `SELECT ` + termColumns + ` FROM terms WHERE slug = ?`
	return r.findOne(query, slug)
}

func (r *SQLTermRepository) findOne(query, arg string) (*content.TermNode, error) {
	start := time.Now()
	row := r.db.QueryRow(query, arg)
	term, err := scanTerm(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Database().Error("Failed to load term", "error", err.Error(), "arg", arg)
		return nil, err
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return term, nil
}

// ListSummaries returns listing rows, optionally filtered by category.
func (r *SQLTermRepository) ListSummaries(categoryID string, limit, offset int) ([]content.TermSummary, error) {
	query := `SELECT id, slug, title, category_id FROM terms`
	args := []any{}
	if categoryID != "" {
		query += ` WHERE category_id = ?`
		args = append(args, categoryID)
	}
	query += ` ORDER BY title LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	start := time.Now()
	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Database().Error("Failed to list terms", "error", err.Error())
		return nil, err
	}
	defer rows.Close()

	summaries, err := scanSummaries(rows)
	if err != nil {
		return nil, err
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return summaries, nil
}

// Search matches titles and slugs by substring, title matches first.
func (r *SQLTermRepository) Search(q string, limit int) ([]content.TermSummary, error) {
	const query = `
		SELECT id, slug, title, category_id FROM terms
		WHERE title LIKE ? ESCAPE '\' OR slug LIKE ? ESCAPE '\'
		ORDER BY CASE WHEN title LIKE ? ESCAPE '\' THEN 0 ELSE 1 END, title
		LIMIT ?`

	pattern := "%" + escapeLike(q) + "%"
	start := time.Now()
	rows, err := r.db.Query(query, pattern, pattern, pattern, limit)
	if err != nil {
		r.logger.Database().Error("Failed to search terms", "error", err.Error())
		return nil, err
	}
	defer rows.Close()

	summaries, err := scanSummaries(rows)
	if err != nil {
		return nil, err
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return summaries, nil
}

func (r *SQLTermRepository) Upsert(term *content.TermNode) error {
	const query = `
		INSERT INTO terms (id, slug, title, definition, category_id, related, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			title = excluded.title,
			definition = excluded.definition,
			category_id = excluded.category_id,
			related = excluded.related,
			updated_at = excluded.updated_at`

	related := strings.Join(term.Related, ",")
	var categoryID any
	if term.CategoryID != "" {
		categoryID = term.CategoryID
	}
	_, err := r.db.Exec(query, term.ID, term.Slug, term.Title, term.Definition,
		categoryID, related, term.CreatedAt, term.UpdatedAt)
	if err != nil {
		r.logger.Database().Error("Failed to upsert term", "error", err.Error(), "slug", term.Slug)
	}
	return err
}

func (r *SQLTermRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM terms`).Scan(&count)
	return count, err
}

func scanTerm(row *sql.Row) (*content.TermNode, error) {
	var t content.TermNode
	var categoryID, related sql.NullString

	err := row.Scan(&t.ID, &t.Slug, &t.Title, &t.Definition, &categoryID, &related, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.CategoryID = categoryID.String
	if related.String != "" {
		t.Related = strings.Split(related.String, ",")
	}
	return &t, nil
}

func scanSummaries(rows *sql.Rows) ([]content.TermSummary, error) {
	var summaries []content.TermSummary
	for rows.Next() {
		var s content.TermSummary
		var categoryID sql.NullString
		if err := rows.Scan(&s.ID, &s.Slug, &s.Title, &categoryID); err != nil {
			return nil, err
		}
		s.CategoryID = categoryID.String
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// escapeLike escapes LIKE wildcards in user-supplied search text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
