package services

import (
	"strings"
	"time"

	"github.com/aimlgloss/glossary-go/internal/domain/entities/support"
	"github.com/aimlgloss/glossary-go/internal/domain/repositories"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/email"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/google/uuid"
)

// SupportService records support tickets and forwards them to the support
// inbox. The email is best-effort: a stored ticket with a failed
// notification is still a success for the submitter.
type SupportService struct {
	tickets repositories.TicketRepository
	mailer  email.Service
	logger  *logging.ChanneledLogger
	now     func() time.Time
}

func NewSupportService(tickets repositories.TicketRepository, mailer email.Service, logger *logging.ChanneledLogger) *SupportService {
	return &SupportService{
		tickets: tickets,
		mailer:  mailer,
		logger:  logger,
		now:     time.Now,
	}
}

// OpenTicket validates, stores, and forwards a new ticket.
func (s *SupportService) OpenTicket(userID, fromEmail, subject, body string) (*support.Ticket, error) {
	now := s.now().UTC()
	ticket := &support.Ticket{
		ID:        uuid.NewString(),
		Email:     strings.TrimSpace(fromEmail),
		Subject:   strings.TrimSpace(subject),
		Body:      body,
		UserID:    userID,
		Status:    support.TicketOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.tickets.Store(ticket); err != nil {
		return nil, err
	}
	s.logger.Email().Info("Support ticket opened", "ticketId", ticket.ID)

	if s.mailer != nil {
		if err := s.mailer.SendTicketNotification(ticket.ID, ticket.Email, ticket.Subject, ticket.Body); err != nil {
			s.logger.Email().Warn("Ticket stored but notification failed", "ticketId", ticket.ID, "error", err.Error())
		}
	}
	return ticket, nil
}

// GetTicket returns a ticket by ID, nil when unknown.
func (s *SupportService) GetTicket(ticketID string) (*support.Ticket, error) {
	return s.tickets.FindByID(ticketID)
}

// CloseTicket marks a ticket resolved.
func (s *SupportService) CloseTicket(ticketID string) (*support.Ticket, error) {
	ticket, err := s.tickets.FindByID(ticketID)
	if err != nil || ticket == nil {
		return nil, err
	}
	ticket.Close(s.now().UTC())
	if err := s.tickets.Update(ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// SetClock overrides wall-clock time for tests.
func (s *SupportService) SetClock(now func() time.Time) { s.now = now }
