// Package content provides domain entities for glossary content.
package content

import "time"

// TermNode represents a single glossary term
type TermNode struct {
	ID         string    `json:"id"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	Definition string    `json:"definition"`
	CategoryID string    `json:"categoryId,omitempty"`
	Related    []string  `json:"related,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TermSummary is the listing shape: no definition body, so ungated listings
// never leak gated content.
type TermSummary struct {
	ID         string `json:"id"`
	Slug       string `json:"slug"`
	Title      string `json:"title"`
	CategoryID string `json:"categoryId,omitempty"`
}

// Summary strips the term down to its listing shape
func (t *TermNode) Summary() TermSummary {
	return TermSummary{
		ID:         t.ID,
		Slug:       t.Slug,
		Title:      t.Title,
		CategoryID: t.CategoryID,
	}
}

// CategoryNode represents a glossary category
type CategoryNode struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	TermCount int    `json:"termCount"`
}
