// Package repositories defines the interfaces for accessing glossary content
// and support tickets, keeping the application services decoupled from the
// database layer.
package repositories

import (
	"github.com/aimlgloss/glossary-go/internal/domain/entities/content"
	"github.com/aimlgloss/glossary-go/internal/domain/entities/support"
)

// TermRepository defines persistence operations for glossary terms
type TermRepository interface {
	FindByID(id string) (*content.TermNode, error)
	FindBySlug(slug string) (*content.TermNode, error)
	ListSummaries(categoryID string, limit, offset int) ([]content.TermSummary, error)
	Search(query string, limit int) ([]content.TermSummary, error)
	Upsert(term *content.TermNode) error
	Count() (int, error)
}

// CategoryRepository defines persistence operations for categories
type CategoryRepository interface {
	List() ([]content.CategoryNode, error)
	FindBySlug(slug string) (*content.CategoryNode, error)
	Upsert(category *content.CategoryNode) error
}

// TicketRepository defines persistence operations for support tickets
type TicketRepository interface {
	FindByID(id string) (*support.Ticket, error)
	Store(ticket *support.Ticket) error
	Update(ticket *support.Ticket) error
}
