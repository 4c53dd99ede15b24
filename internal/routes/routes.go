package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/refoapp/backend/internal/authz"
	"github.com/refoapp/backend/internal/config"
	"github.com/refoapp/backend/internal/handlers"
	"github.com/refoapp/backend/internal/middleware"
)

// Handlers bundles every route handler for registration
type Handlers struct {
	Auth         *handlers.AuthHandler
	Profile      *handlers.ProfileHandler
	Wallet       *handlers.WalletHandler
	Payout       *handlers.PayoutHandler
	Task         *handlers.TaskHandler
	Offer        *handlers.OfferHandler
	Referral     *handlers.ReferralHandler
	Notification *handlers.NotificationHandler
	Chat         *handlers.ChatHandler
	Admin        *handlers.AdminHandler
}

// SetupRouter builds the gin engine with all middleware and routes
func SetupRouter(cfg *config.Config, enforcer *authz.Enforcer, h Handlers) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	rateLimiter := middleware.NewRateLimiter(10, 5, 20, 5)
	router.Use(rateLimiter.IPRateLimiterMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Auth routes, rate limited more tightly than the rest of the API
	authGroup := router.Group("/api/auth")
	authGroup.Use(rateLimiter.AuthRateLimiterMiddleware())
	{
		authGroup.POST("/signup", h.Auth.Signup)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.RefreshToken)
		authGroup.POST("/otp/request", h.Auth.RequestOTP)
		authGroup.POST("/otp/verify", h.Auth.VerifyOTP)
		authGroup.POST("/google", h.Auth.GoogleAuth)
	}

	// Public catalog and referral click tracking
	router.GET("/api/offers", h.Offer.ListOffers)
	router.GET("/api/offers/:slug", h.Offer.GetOffer)
	router.GET("/api/categories", h.Offer.ListCategories)
	router.POST("/api/referrals/:code/click", h.Referral.RecordClick)

	// Authenticated user routes
	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		api.GET("/profile", h.Profile.GetProfile)
		api.PATCH("/profile", middleware.Authorize(enforcer, "profile", "update"), h.Profile.UpdateProfile)
		api.POST("/profile/avatar", middleware.Authorize(enforcer, "profile", "update"), h.Profile.UploadAvatar)

		api.GET("/wallet", middleware.Authorize(enforcer, "wallet", "read"), h.Wallet.GetWallet)
		api.GET("/wallet/transactions", middleware.Authorize(enforcer, "wallet", "read"), h.Wallet.GetTransactions)

		api.POST("/payouts", middleware.Authorize(enforcer, "payout", "create"), h.Payout.CreateRequest)
		api.GET("/payouts", h.Payout.ListMyRequests)

		api.POST("/tasks", middleware.Authorize(enforcer, "task", "start"), h.Task.StartTask)
		api.POST("/tasks/:id/proof", middleware.Authorize(enforcer, "task", "submit"), h.Task.SubmitProof)
		api.GET("/tasks", h.Task.ListMyTasks)

		api.GET("/referrals", h.Referral.GetMyLink)
		api.GET("/referrals/conversions", h.Referral.ListConversions)

		api.GET("/notifications", middleware.Authorize(enforcer, "notification", "read"), h.Notification.List)
		api.POST("/notifications/:id/read", h.Notification.MarkRead)
		api.POST("/notifications/read-all", h.Notification.MarkAllRead)

		api.GET("/chat", middleware.Authorize(enforcer, "chat", "send"), h.Chat.GetChat)
		api.POST("/chat/messages", middleware.Authorize(enforcer, "chat", "send"), h.Chat.SendMessage)
	}

	// Admin routes
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.GET("/stats", middleware.Authorize(enforcer, "stats", "read"), h.Admin.GetStats)
		admin.GET("/users", middleware.Authorize(enforcer, "user", "list"), h.Admin.ListUsers)
		admin.PATCH("/users/:id/active", middleware.Authorize(enforcer, "user", "list"), h.Admin.SetActive)

		admin.GET("/offers", middleware.Authorize(enforcer, "offer", "manage"), h.Offer.ListAllOffers)
		admin.POST("/offers", middleware.Authorize(enforcer, "offer", "manage"), h.Offer.CreateOffer)
		admin.PATCH("/offers/:id", middleware.Authorize(enforcer, "offer", "manage"), h.Offer.UpdateOffer)
		admin.PATCH("/offers/:id/status", middleware.Authorize(enforcer, "offer", "manage"), h.Offer.SetOfferStatus)
		admin.DELETE("/offers/:id", middleware.Authorize(enforcer, "offer", "manage"), h.Offer.DeleteOffer)
		admin.POST("/categories", middleware.Authorize(enforcer, "offer", "manage"), h.Offer.CreateCategory)

		admin.GET("/tasks", middleware.Authorize(enforcer, "task", "verify"), h.Task.ListTasks)
		admin.POST("/tasks/:id/verify", middleware.Authorize(enforcer, "task", "verify"), h.Task.VerifyTask)
		admin.POST("/tasks/:id/reject", middleware.Authorize(enforcer, "task", "reject"), h.Task.RejectTask)

		admin.GET("/payouts", middleware.Authorize(enforcer, "payout", "list"), h.Payout.ListRequests)
		admin.POST("/payouts/:id/approve", middleware.Authorize(enforcer, "payout", "approve"), h.Payout.ApproveRequest)
		admin.POST("/payouts/:id/reject", middleware.Authorize(enforcer, "payout", "reject"), h.Payout.RejectRequest)

		admin.POST("/notifications", middleware.Authorize(enforcer, "notification", "send"), h.Notification.Send)

		admin.GET("/chats", middleware.Authorize(enforcer, "chat", "takeover"), h.Chat.ListChats)
		admin.GET("/chats/:id/messages", middleware.Authorize(enforcer, "chat", "takeover"), h.Chat.GetChatMessages)
		admin.POST("/chats/:id/takeover", middleware.Authorize(enforcer, "chat", "takeover"), h.Chat.TakeoverChat)
		admin.POST("/chats/:id/release", middleware.Authorize(enforcer, "chat", "takeover"), h.Chat.ReleaseChat)
		admin.POST("/chats/:id/messages", middleware.Authorize(enforcer, "chat", "takeover"), h.Chat.AdminReply)

		// Role changes are owner-only, enforced by policy
		admin.PATCH("/users/:id/role", middleware.Authorize(enforcer, "role", "grant"), h.Admin.SetRole)
	}

	return router
}
