package content

import (
	"database/sql"
	"time"

	"github.com/aimlgloss/glossary-go/internal/domain/entities/content"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/persistence/database"
	"github.com/aimlgloss/glossary-go/pkg/config"
)

// SQLCategoryRepository is the SQL-based implementation of CategoryRepository.
type SQLCategoryRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

func NewSQLCategoryRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLCategoryRepository {
	return &SQLCategoryRepository{db: db, logger: logger}
}

// List returns all categories with their term counts, ordered by title.
func (r *SQLCategoryRepository) List() ([]content.CategoryNode, error) {
	const query = `
		SELECT c.id, c.slug, c.title, COUNT(t.id)
		FROM categories c
		LEFT JOIN terms t ON t.category_id = c.id
		GROUP BY c.id, c.slug, c.title
		ORDER BY c.title`

	start := time.Now()
	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Database().Error("Failed to list categories", "error", err.Error())
		return nil, err
	}
	defer rows.Close()

	var categories []content.CategoryNode
	for rows.Next() {
		var c content.CategoryNode
		if err := rows.Scan(&c.ID, &c.Slug, &c.Title, &c.TermCount); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return categories, nil
}

func (r *SQLCategoryRepository) FindBySlug(slug string) (*content.CategoryNode, error) {
	const query = `
		SELECT c.id, c.slug, c.title, COUNT(t.id)
		FROM categories c
		LEFT JOIN terms t ON t.category_id = c.id
		WHERE c.slug = ?
		GROUP BY c.id, c.slug, c.title`

	var c content.CategoryNode
	err := r.db.QueryRow(query, slug).Scan(&c.ID, &c.Slug, &c.Title, &c.TermCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Database().Error("Failed to load category", "error", err.Error(), "slug", slug)
		return nil, err
	}
	return &c, nil
}

func (r *SQLCategoryRepository) Upsert(category *content.CategoryNode) error {
	const query = `
		INSERT INTO categories (id, slug, title)
		VALUES (?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET title = excluded.title`

	_, err := r.db.Exec(query, category.ID, category.Slug, category.Title)
	if err != nil {
		r.logger.Database().Error("Failed to upsert category", "error", err.Error(), "slug", category.Slug)
	}
	return err
}
