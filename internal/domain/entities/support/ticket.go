// Package support provides the support ticket domain entity.
package support

import "time"

// TicketStatus identifies the lifecycle state of a support ticket
type TicketStatus string

const (
	TicketOpen   TicketStatus = "open"
	TicketClosed TicketStatus = "closed"
)

// Ticket is a user-submitted support request
type Ticket struct {
	ID        string       `json:"id"`
	Email     string       `json:"email"`
	Subject   string       `json:"subject"`
	Body      string       `json:"body"`
	UserID    string       `json:"userId,omitempty"`
	Status    TicketStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Close marks the ticket resolved
func (t *Ticket) Close(now time.Time) {
	t.Status = TicketClosed
	t.UpdatedAt = now
}
