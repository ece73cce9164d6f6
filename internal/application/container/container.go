// Package container wires application services and their infrastructure
// dependencies. Nothing in here is a global: every service receives its
// collaborators through its constructor so tests can substitute fakes.
package container

import (
	"fmt"

	"github.com/aimlgloss/glossary-go/internal/application/services"
	"github.com/aimlgloss/glossary-go/internal/domain/repositories"
	"github.com/aimlgloss/glossary-go/internal/domain/user"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/caching/manager"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/email"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/identity"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/messaging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/performance"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/persistence/content"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/persistence/database"
	persistencesupport "github.com/aimlgloss/glossary-go/internal/infrastructure/persistence/support"
	persistenceuser "github.com/aimlgloss/glossary-go/internal/infrastructure/persistence/user"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/security"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/tokenstore"
	"github.com/aimlgloss/glossary-go/pkg/config"
)

// Container holds the wired service graph for one running instance.
type Container struct {
	// Observability
	Logger      *logging.ChanneledLogger
	PerfTracker *performance.Tracker

	// Infrastructure
	DB           *database.DB
	CacheManager *manager.Manager
	Broadcaster  *messaging.EventBroadcaster
	TokenStore   *tokenstore.Store
	Provider     identity.Provider
	Mailer       email.Service

	// Repositories
	UserRepo     user.Repository
	ViewRepo     user.ViewRepository
	TermRepo     repositories.TermRepository
	CategoryRepo repositories.CategoryRepository
	TicketRepo   repositories.TicketRepository

	// Application services
	AuthService        *services.AuthService
	AccessService      *services.AccessService
	GuestService       *services.GuestService
	TermService        *services.TermService
	SupportService     *services.SupportService
	MaintenanceService *services.MaintenanceService
	ImportService      *services.ImportService
}

// NewContainer builds the full dependency graph on top of an established
// database connection. The caller owns the connection's lifecycle.
func NewContainer(db *database.DB, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) (*Container, error) {
	cacheManager := manager.NewManager(logger)
	broadcaster := messaging.NewEventBroadcaster(config.MaxSubscribersPerSession, logger)

	tokens, err := tokenstore.New(config.TokenStoreDir, config.AESKey, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token store: %w", err)
	}

	userRepo := persistenceuser.NewSQLUserRepository(db, logger)
	viewRepo := persistenceuser.NewSQLViewRepository(db, logger)
	termRepo := content.NewSQLTermRepository(db, logger)
	categoryRepo := content.NewSQLCategoryRepository(db, logger)
	ticketRepo := persistencesupport.NewSQLTicketRepository(db, logger)

	provider, err := buildProvider(userRepo, logger)
	if err != nil {
		return nil, err
	}

	mailer, err := email.NewService(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize email service: %w", err)
	}

	guestService := services.NewGuestService(cacheManager, logger, perfTracker)

	c := &Container{
		Logger:      logger,
		PerfTracker: perfTracker,

		DB:           db,
		CacheManager: cacheManager,
		Broadcaster:  broadcaster,
		TokenStore:   tokens,
		Provider:     provider,
		Mailer:       mailer,

		UserRepo:     userRepo,
		ViewRepo:     viewRepo,
		TermRepo:     termRepo,
		CategoryRepo: categoryRepo,
		TicketRepo:   ticketRepo,

		AuthService:        services.NewAuthService(provider, tokens, broadcaster, logger, perfTracker),
		AccessService:      services.NewAccessService(userRepo, viewRepo, cacheManager, broadcaster, logger, perfTracker),
		GuestService:       guestService,
		TermService:        services.NewTermService(termRepo, categoryRepo, cacheManager, logger, perfTracker),
		SupportService:     services.NewSupportService(ticketRepo, mailer, logger),
		MaintenanceService: services.NewMaintenanceService(viewRepo, cacheManager, guestService, logger),
		ImportService:      services.NewImportService(termRepo, categoryRepo, logger),
	}

	return c, nil
}

// buildProvider selects the identity backend. The local provider keeps
// credentials in our own user table; the http provider delegates to an
// external identity service.
func buildProvider(users user.Repository, logger *logging.ChanneledLogger) (identity.Provider, error) {
	switch config.IdentityBackend {
	case "local", "":
		if config.JWTSecret == "" {
			// Ephemeral key for development: sessions do not survive a
			// restart. Middleware validates against the same config value.
			key, err := security.GenerateSecureKey(64)
			if err != nil {
				return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
			}
			config.JWTSecret = key
			logger.System().Warn("JWT_SECRET not set, generated an ephemeral key; sessions will not survive restarts")
		}
		return identity.NewLocalProvider(users, config.JWTSecret, config.TokenLifetime), nil
	case "http":
		if config.IdentityURL == "" {
			return nil, fmt.Errorf("IDENTITY_URL is required for the http identity backend")
		}
		return identity.NewHTTPProvider(config.IdentityURL, config.IdentityAPIKey), nil
	default:
		return nil, fmt.Errorf("unknown identity backend %q", config.IdentityBackend)
	}
}

// Close releases the container's background resources. The database
// connection is closed by the caller that opened it.
func (c *Container) Close() {
	c.MaintenanceService.Stop()
	c.AuthService.Close()
}
