// Package support provides the SQL-based implementation of the ticket
// repository.
package support

import (
	"database/sql"
	"time"

	"github.com/aimlgloss/glossary-go/internal/domain/entities/support"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/persistence/database"
)

// SQLTicketRepository is the SQL-based implementation of TicketRepository.
type SQLTicketRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

func NewSQLTicketRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLTicketRepository {
	return &SQLTicketRepository{db: db, logger: logger}
}

func (r *SQLTicketRepository) FindByID(id string) (*support.Ticket, error) {
	const query = `SELECT id, user_id, email, subject, body, status, created_at, updated_at FROM tickets WHERE id = ?`

	var t support.Ticket
	var userID sql.NullString
	var status string
	err := r.db.QueryRow(query, id).Scan(&t.ID, &userID, &t.Email, &t.Subject, &t.Body, &status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Database().Error("Failed to load ticket", "error", err.Error(), "id", id)
		return nil, err
	}
	t.UserID = userID.String
	t.Status = support.TicketStatus(status)
	return &t, nil
}

func (r *SQLTicketRepository) Store(t *support.Ticket) error {
	const query = `
		INSERT INTO tickets (id, user_id, email, subject, body, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	var userID any
	if t.UserID != "" {
		userID = t.UserID
	}
	_, err := r.db.Exec(query, t.ID, userID, t.Email, t.Subject, t.Body, string(t.Status), t.CreatedAt, t.UpdatedAt)
	if err != nil {
		r.logger.Database().Error("Failed to store ticket", "error", err.Error(), "id", t.ID)
		return err
	}

	r.logger.Database().Info("Ticket stored", "id", t.ID, "duration", time.Since(start))
	return nil
}

func (r *SQLTicketRepository) Update(t *support.Ticket) error {
	const query = `UPDATE tickets SET status = ?, updated_at = ? WHERE id = ?`

	_, err := r.db.Exec(query, string(t.Status), t.UpdatedAt, t.ID)
	if err != nil {
		r.logger.Database().Error("Failed to update ticket", "error", err.Error(), "id", t.ID)
	}
	return err
}
