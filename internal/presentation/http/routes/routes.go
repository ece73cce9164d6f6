// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/aimlgloss/glossary-go/internal/application/container"
	"github.com/aimlgloss/glossary-go/internal/presentation/http/handlers"
	"github.com/aimlgloss/glossary-go/internal/presentation/http/middleware"
	"github.com/aimlgloss/glossary-go/pkg/config"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(c *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	authHandlers := handlers.NewAuthHandlers(c.AuthService, c.GuestService, c.Logger, c.PerfTracker)
	subscribeHandlers := handlers.NewSubscribeHandlers(c.Broadcaster, c.Logger)
	accessHandlers := handlers.NewAccessHandlers(c.AccessService, c.Logger, c.PerfTracker)
	guestHandlers := handlers.NewGuestHandlers(c.GuestService, c.Logger, c.PerfTracker)
	termHandlers := handlers.NewTermHandlers(c.TermService, c.AccessService, c.GuestService, c.Logger, c.PerfTracker)
	supportHandlers := handlers.NewSupportHandlers(c.SupportService, c.Logger, c.PerfTracker)
	purchaseHandlers := handlers.NewPurchaseHandlers(c.AccessService, c.Mailer, c.Logger, c.PerfTracker)
	healthHandlers := handlers.NewHealthHandlers(c.DB, c.AuthService)

	api := r.Group("/api/v1")
	{
		api.GET("/health", healthHandlers.Health)

		auth := api.Group("/auth")
		{
			// Credential endpoints are rate limited per client IP.
			credentialLimit := middleware.RateLimit(config.SignInRatePerMinute, config.SignInRateBurst)
			auth.POST("/signin", credentialLimit, authHandlers.SignIn)
			auth.POST("/signup", credentialLimit, authHandlers.SignUp)

			auth.POST("/signout", middleware.RequireAuth(), authHandlers.SignOut)
			auth.POST("/refresh", middleware.RequireAuth(), authHandlers.Refresh)
			auth.GET("/session", middleware.RequireAuth(), authHandlers.Session)
			auth.GET("/subscribe", middleware.RequireAuth(), subscribeHandlers.Subscribe)
		}

		user := api.Group("/user", middleware.RequireAuth())
		{
			user.GET("/access-status", accessHandlers.GetStatus)
			user.GET("/term-access/:id", accessHandlers.GetTermAccess)
		}

		guest := api.Group("/guest")
		{
			guest.GET("/session", guestHandlers.GetSession)
			guest.POST("/preview", guestHandlers.RecordPreview)
			guest.POST("/reset", guestHandlers.Reset)
			guest.POST("/cta", guestHandlers.RecordCta)
		}

		// Term detail serves both signed-in users and guests; listings
		// and search expose ungated summaries.
		api.GET("/terms", termHandlers.List)
		api.GET("/terms/:slug", middleware.OptionalAuth(), termHandlers.GetBySlug)
		api.POST("/terms/:slug/view", middleware.RequireAuth(), termHandlers.RecordView)
		api.GET("/search", termHandlers.Search)
		api.GET("/categories", termHandlers.ListCategories)

		api.POST("/support/tickets", middleware.OptionalAuth(), supportHandlers.CreateTicket)
		api.GET("/support/tickets/:id", supportHandlers.GetTicket)
		api.POST("/purchase/confirm", middleware.RequireAuth(), purchaseHandlers.Confirm)
	}

	return r
}
