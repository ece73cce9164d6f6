// Package user provides the concrete SQL-based implementations of the
// account and term-view repositories.
package user

import (
	"database/sql"
	"time"

	"github.com/aimlgloss/glossary-go/internal/domain/entities/access"
	"github.com/aimlgloss/glossary-go/internal/domain/user"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/persistence/database"
	"github.com/aimlgloss/glossary-go/pkg/config"
)

// SQLUserRepository is the SQL-based implementation of user.Repository.
type SQLUserRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

func NewSQLUserRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLUserRepository {
	return &SQLUserRepository{db: db, logger: logger}
}

const userColumns = `id, email, name, password_hash, tier, lifetime_access, purchase_date, created_at`

// FindByID retrieves an account by its unique identifier.
func (r *SQLUserRepository) FindByID(id string) (*user.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Loading user by ID", "id", id)

	row := r.db.QueryRow(query, id)
	u, err := r.scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Database().Debug("User not found by ID", "id", id)
			return nil, nil
		}
		r.logger.Database().Error("Failed to load user by ID", "error", err.Error(), "id", id)
		return nil, err
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return u, nil
}

// FindByEmail retrieves an account by email address.
func (r *SQLUserRepository) FindByEmail(email string) (*user.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

	start := time.Now()
	row := r.db.QueryRow(query, email)
	u, err := r.scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Database().Error("Failed to load user by email", "error", err.Error())
		return nil, err
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return u, nil
}

// Store inserts or updates an account.
func (r *SQLUserRepository) Store(u *user.User) error {
	const query = `
		INSERT INTO users (id, email, name, password_hash, tier, lifetime_access, purchase_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			name = excluded.name,
			password_hash = excluded.password_hash,
			tier = excluded.tier,
			lifetime_access = excluded.lifetime_access,
			purchase_date = excluded.purchase_date`

	start := time.Now()
	_, err := r.db.Exec(query, u.ID, u.Email, u.Name, u.PasswordHash, string(u.Tier),
		boolToInt(u.LifetimeAccess), u.PurchaseDate, u.CreatedAt)
	if err != nil {
		r.logger.Database().Error("Failed to store user", "error", err.Error(), "id", u.ID)
		return err
	}

	r.logger.Database().Info("User stored", "id", u.ID, "duration", time.Since(start))
	return nil
}

// GrantLifetime records a purchase and flips the account to lifetime access.
// Replays of the same sale reference are idempotent.
func (r *SQLUserRepository) GrantLifetime(userID, saleRef string, purchasedAt time.Time) error {
	start := time.Now()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT OR IGNORE INTO purchases (sale_ref, user_id, purchased_at) VALUES (?, ?, ?)`,
		saleRef, userID, purchasedAt)
	if err != nil {
		r.logger.Database().Error("Failed to record purchase", "error", err.Error(), "userId", userID)
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		r.logger.Database().Debug("Purchase already recorded", "saleRef", saleRef)
		return nil
	}

	_, err = tx.Exec(`UPDATE users SET tier = ?, lifetime_access = 1, purchase_date = ? WHERE id = ?`,
		string(access.TierLifetime), purchasedAt, userID)
	if err != nil {
		r.logger.Database().Error("Failed to grant lifetime access", "error", err.Error(), "userId", userID)
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	r.logger.Database().Info("Lifetime access granted", "userId", userID, "duration", time.Since(start))
	return nil
}

func (r *SQLUserRepository) scanUser(row *sql.Row) (*user.User, error) {
	var u user.User
	var tier string
	var lifetime int
	var purchaseDate sql.NullTime

	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &tier, &lifetime, &purchaseDate, &u.CreatedAt)
	if err != nil {
		return nil, err
	}

	u.Tier = access.Tier(tier)
	u.LifetimeAccess = lifetime != 0
	if purchaseDate.Valid {
		t := purchaseDate.Time.UTC()
		u.PurchaseDate = &t
	}
	return &u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
