package database

import (
	"database/sql"
	"fmt"
)

var tables = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		tier TEXT NOT NULL DEFAULT 'free',
		lifetime_access INTEGER NOT NULL DEFAULT 0,
		purchase_date TIMESTAMP,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS purchases (
		sale_ref TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		purchased_at TIMESTAMP NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS term_views (
		user_id TEXT NOT NULL,
		term_id TEXT NOT NULL,
		day TEXT NOT NULL,
		viewed_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, term_id, day)
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS terms (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		definition TEXT NOT NULL,
		category_id TEXT,
		related TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY (category_id) REFERENCES categories(id)
	)`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		email TEXT NOT NULL,
		subject TEXT NOT NULL,
		body TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_term_views_day ON term_views(day)`,
	`CREATE INDEX IF NOT EXISTS idx_term_views_user_day ON term_views(user_id, day)`,
	`CREATE INDEX IF NOT EXISTS idx_terms_category ON terms(category_id)`,
	`CREATE INDEX IF NOT EXISTS idx_terms_title ON terms(title)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status)`,
}

// TableCreator handles creation of the database schema.
type TableCreator struct{}

func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema executes all necessary queries to build the tables and indexes.
func (tc *TableCreator) CreateSchema(db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}
