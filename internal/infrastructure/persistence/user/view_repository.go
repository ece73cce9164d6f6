package user

import (
	"time"

	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/persistence/database"
	"github.com/aimlgloss/glossary-go/pkg/config"
)

// SQLViewRepository is the SQL-based implementation of user.ViewRepository.
// Rows are keyed (user, term, day) so recording the same term twice in one
// day is a no-op and never consumes quota.
type SQLViewRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

func NewSQLViewRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLViewRepository {
	return &SQLViewRepository{db: db, logger: logger}
}

// CountForDay returns how many distinct terms the user has viewed on day.
func (r *SQLViewRepository) CountForDay(userID, day string) (int, error) {
	const query = `SELECT COUNT(*) FROM term_views WHERE user_id = ? AND day = ?`

	start := time.Now()
	var count int
	if err := r.db.QueryRow(query, userID, day).Scan(&count); err != nil {
		r.logger.Database().Error("Failed to count daily views", "error", err.Error(), "userId", userID, "day", day)
		return 0, err
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return count, nil
}

// HasViewed reports whether the user already viewed termID on day.
func (r *SQLViewRepository) HasViewed(userID, termID, day string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM term_views WHERE user_id = ? AND term_id = ? AND day = ?)`

	var exists bool
	if err := r.db.QueryRow(query, userID, termID, day).Scan(&exists); err != nil {
		r.logger.Database().Error("Failed to check term view", "error", err.Error(), "userId", userID, "termId", termID)
		return false, err
	}
	return exists, nil
}

// Record marks termID viewed by user on day. Idempotent per day.
func (r *SQLViewRepository) Record(userID, termID, day string) error {
	const query = `INSERT OR IGNORE INTO term_views (user_id, term_id, day, viewed_at) VALUES (?, ?, ?, ?)`

	start := time.Now()
	if _, err := r.db.Exec(query, userID, termID, day, time.Now().UTC()); err != nil {
		r.logger.Database().Error("Failed to record term view", "error", err.Error(), "userId", userID, "termId", termID)
		return err
	}

	r.logger.Database().Debug("Term view recorded", "userId", userID, "termId", termID, "day", day, "duration", time.Since(start))
	return nil
}

// PurgeBefore deletes view rows older than the given day key and returns the
// number removed. Used by the nightly quota reset to keep the table bounded.
func (r *SQLViewRepository) PurgeBefore(day string) (int64, error) {
	const query = `DELETE FROM term_views WHERE day < ?`

	start := time.Now()
	res, err := r.db.Exec(query, day)
	if err != nil {
		r.logger.Database().Error("Failed to purge term views", "error", err.Error(), "before", day)
		return 0, err
	}
	removed, _ := res.RowsAffected()
	if removed > 0 {
		r.logger.Database().Info("Purged old term views", "removed", removed, "before", day, "duration", time.Since(start))
	}
	return removed, nil
}
