package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fixly-app/fixly-backend/internal/config"
	"github.com/fixly-app/fixly-backend/internal/http/handlers"
	"github.com/fixly-app/fixly-backend/internal/http/middleware"
	"github.com/fixly-app/fixly-backend/internal/models"
	"github.com/fixly-app/fixly-backend/internal/service"
)

// Handlers собирает все HTTP хэндлеры приложения.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Request      *handlers.RequestHandler
	Quote        *handlers.QuoteHandler
	Gig          *handlers.GigHandler
	Order        *handlers.OrderHandler
	Dispute      *handlers.DisputeHandler
	Review       *handlers.ReviewHandler
	Agent        *handlers.AgentHandler
	Payment      *handlers.PaymentHandler
	Notification *handlers.NotificationHandler
	Media        *handlers.MediaHandler
	WS           *handlers.WSHandler
	Health       *handlers.HealthHandler
}

func SetupRouter(cfg *config.Config, h Handlers, tokenManager *service.TokenManager) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Check)
	r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))

	api := r.Group("/api")

	// Аутентификация с ограничением частоты запросов.
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", h.Auth.Logout)
	}

	// Публичные маршруты.
	api.GET("/ws", h.WS.Handle)
	api.GET("/gigs", h.Gig.List)
	api.GET("/gigs/:id", middleware.UUIDValidator("id"), h.Gig.Get)
	api.GET("/neighborhoods", h.Agent.NeighborhoodsDirectory)
	api.GET("/users/:id/reviews", middleware.UUIDValidator("id"), h.Review.ListUserReviews)
	api.GET("/users/:id/rating", middleware.UUIDValidator("id"), h.Review.UserRating)

	// Защищённые маршруты.
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/users/me", h.Auth.Me)
		protected.POST("/users/me/roles", h.Auth.AddRole)
		protected.GET("/users/me/sessions", h.Auth.ListSessions)
		protected.DELETE("/users/me/sessions/:id", middleware.UUIDValidator("id"), h.Auth.DeleteSession)

		// Заявки клиентов.
		protected.POST("/requests", h.Request.Create)
		protected.GET("/requests", h.Request.ListOpen)
		protected.GET("/requests/my", h.Request.ListMy)
		protected.GET("/requests/:id", middleware.UUIDValidator("id"), h.Request.Get)
		protected.POST("/requests/:id/cancel", middleware.UUIDValidator("id"), h.Request.Cancel)

		// Сметы мастеров.
		protected.POST("/requests/:id/quotes", middleware.UUIDValidator("id"), middleware.RequireRole(models.RoleFixer), h.Quote.Submit)
		protected.GET("/requests/:id/quotes", middleware.UUIDValidator("id"), h.Quote.ListForRequest)
		protected.GET("/quotes/my", h.Quote.ListMy)
		protected.GET("/quotes/:id", middleware.UUIDValidator("id"), h.Quote.Get)
		protected.POST("/quotes/:id/accept", middleware.UUIDValidator("id"), h.Quote.Accept)

		// Услуги и пакеты.
		protected.POST("/gigs", middleware.RequireRole(models.RoleFixer), h.Gig.Create)
		protected.GET("/gigs/my", h.Gig.ListMy)
		protected.PATCH("/gigs/:id/active", middleware.UUIDValidator("id"), h.Gig.SetActive)
		protected.POST("/packages/:id/order", middleware.UUIDValidator("id"), h.Gig.OrderPackage)

		// Жизненный цикл заказа.
		protected.GET("/orders/my", h.Order.ListMy)
		protected.GET("/orders/:id", middleware.UUIDValidator("id"), h.Order.Get)
		protected.POST("/orders/:id/start", middleware.UUIDValidator("id"), h.Order.StartWork)
		protected.POST("/orders/:id/deliver", middleware.UUIDValidator("id"), h.Order.Deliver)
		protected.POST("/orders/:id/revision", middleware.UUIDValidator("id"), h.Order.RequestRevision)
		protected.POST("/orders/:id/accept", middleware.UUIDValidator("id"), h.Order.Accept)
		protected.POST("/orders/:id/cancel", middleware.UUIDValidator("id"), h.Order.Cancel)
		protected.GET("/orders/:id/escrow", middleware.UUIDValidator("id"), h.Payment.GetEscrow)

		// Споры.
		protected.POST("/orders/:id/disputes", middleware.UUIDValidator("id"), h.Dispute.Open)
		protected.GET("/disputes/my", h.Dispute.ListMy)
		protected.GET("/disputes/:id", middleware.UUIDValidator("id"), h.Dispute.Get)
		protected.GET("/disputes/:id/messages", middleware.UUIDValidator("id"), h.Dispute.ListMessages)
		protected.POST("/disputes/:id/messages", middleware.UUIDValidator("id"), h.Dispute.AddMessage)

		// Отзывы.
		protected.POST("/orders/:id/reviews", middleware.UUIDValidator("id"), h.Review.Create)

		// Агентская программа.
		protected.POST("/agents/apply", h.Agent.Apply)
		protected.GET("/agents/my", h.Agent.GetMy)
		protected.POST("/agents/my/neighborhoods", h.Agent.RequestNeighborhoods)
		protected.POST("/agents/my/profile-changes", h.Agent.SubmitProfileChanges)
		protected.GET("/agents/my/commissions", h.Agent.ListMyCommissions)
		protected.POST("/agents/referrals", middleware.RequireRole(models.RoleAgent), h.Agent.ReferUser)

		// Уведомления.
		protected.GET("/notifications", h.Notification.List)
		protected.GET("/notifications/unread-count", h.Notification.CountUnread)
		protected.POST("/notifications/:id/read", middleware.UUIDValidator("id"), h.Notification.MarkRead)
		protected.POST("/notifications/read-all", h.Notification.MarkAllRead)

		// Файлы.
		protected.POST("/media", h.Media.Upload)
		protected.DELETE("/media/:id", middleware.UUIDValidator("id"), h.Media.Delete)
	}

	// Административные маршруты.
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokenManager), middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/disputes", h.Dispute.ListByStatus)
		admin.PATCH("/disputes/:id/status", middleware.UUIDValidator("id"), h.Dispute.UpdateStatus)
		admin.POST("/disputes/:id/resolve", middleware.UUIDValidator("id"), h.Dispute.Resolve)

		admin.GET("/agents", h.Agent.ListByStatus)
		admin.POST("/agents/:id/approve", middleware.UUIDValidator("id"), h.Agent.Approve)
		admin.PATCH("/agents/:id/status", middleware.UUIDValidator("id"), h.Agent.ChangeStatus)
		admin.PATCH("/agents/:id/commission", middleware.UUIDValidator("id"), h.Agent.UpdateCommission)
		admin.POST("/agents/:id/neighborhoods/approve", middleware.UUIDValidator("id"), h.Agent.ApproveNeighborhoods)
		admin.POST("/agents/:id/profile-changes/approve", middleware.UUIDValidator("id"), h.Agent.ApproveProfileChanges)

		admin.GET("/escrows", h.Payment.ListHeld)
		admin.POST("/fixers/:id/settle-all", middleware.UUIDValidator("id"), h.Payment.SettleAllForFixer)
		admin.POST("/orders/:id/settle", middleware.UUIDValidator("id"), h.Order.Settle)
		admin.POST("/orders/:id/escrow/release", middleware.UUIDValidator("id"), h.Payment.Release)
		admin.POST("/orders/:id/escrow/refund", middleware.UUIDValidator("id"), h.Payment.Refund)
		admin.POST("/orders/:id/escrow/split", middleware.UUIDValidator("id"), h.Payment.Split)
	}

	return r
}
