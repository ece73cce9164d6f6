// Package user defines the account entity and the interfaces for accessing
// accounts and per-day term views. These repositories abstract the data
// persistence details; guest sessions are handled by the cache layer, not
// persistence.
package user

import (
	"time"

	"github.com/aimlgloss/glossary-go/internal/domain/entities/access"
)

// User represents a registered account
type User struct {
	ID             string      `json:"id"`
	Email          string      `json:"email"`
	Name           string      `json:"name"`
	PasswordHash   string      `json:"-"`
	Tier           access.Tier `json:"tier"`
	LifetimeAccess bool        `json:"lifetimeAccess"`
	PurchaseDate   *time.Time  `json:"purchaseDate,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// Repository defines persistence operations for accounts
type Repository interface {
	FindByID(id string) (*User, error)
	FindByEmail(email string) (*User, error)
	Store(u *User) error
	GrantLifetime(userID, saleRef string, purchasedAt time.Time) error
}

// ViewRepository tracks which terms a user has viewed on a given UTC day.
// Day keys use the YYYY-MM-DD form of time.Time.UTC().
type ViewRepository interface {
	CountForDay(userID, day string) (int, error)
	HasViewed(userID, termID, day string) (bool, error)
	Record(userID, termID, day string) error
	PurgeBefore(day string) (int64, error)
}

// DayKey formats a timestamp as the UTC day key used by ViewRepository
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
