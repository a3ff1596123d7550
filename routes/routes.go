package routes

import (
	"net/http"
	"time"

	"reviewcms/auth"
	"reviewcms/handlers"
	"reviewcms/metrics"
	"reviewcms/middleware"
	"reviewcms/models"
	"reviewcms/response"
	"reviewcms/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter mounts every route on a new engine. hub may be nil, in which
// case the activity feed is not served.
func SetupRouter(h *handlers.Handler, hub *websocket.Hub) *gin.Engine {
	cfg := h.Config

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Recovery(cfg.IsDevelopment()),
		middleware.Metrics(),
	)
	if gin.Mode() == gin.DebugMode {
		router.Use(gin.Logger())
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	health := func(c *gin.Context) {
		response.Success(c, http.StatusOK, "Review CMS API is running", gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	}
	router.GET("/", health)
	router.GET("/health", health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	gate := middleware.TokenGate(h.Tokens)
	admin := middleware.RequireRole(h.Repos.Users, models.RoleAdmin)
	limiter := middleware.RateLimit(middleware.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst))

	api := router.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.GET("/register", limiter, h.BootstrapAdmin)
	authGroup.POST("/register", limiter, h.Register)
	authGroup.POST("/login", limiter, h.Login)
	authGroup.POST("/adminlogin", limiter, h.AdminLogin)
	authGroup.GET("/logout", h.Logout)
	authGroup.GET("/me", h.Me)
	authGroup.GET("/google", h.OAuthStart(auth.StrategyGoogle))
	authGroup.GET("/google/callback", limiter, h.OAuthCallback(auth.StrategyGoogle))
	authGroup.GET("/facebook", h.OAuthStart(auth.StrategyFacebook))
	authGroup.GET("/facebook/callback", limiter, h.OAuthCallback(auth.StrategyFacebook))

	users := api.Group("/users", gate, admin)
	users.GET("", h.Users().List)
	users.GET("/:id", h.Users().Get)
	users.POST("", h.Users().Create)
	users.PUT("/:id", h.Users().Update)
	users.DELETE("/:id", h.Users().Delete)

	publishable(api.Group("/categories"), h.Categories(), gate)
	publishable(api.Group("/subcategories"), h.Subcategories(), gate)
	publishable(api.Group("/articles"), h.Articles(), gate)
	reviews := api.Group("/reviews")
	publishable(reviews, h.Reviews(), gate)
	reviews.POST("/:id/view", h.ViewReview)
	publishable(api.Group("/comparisons"), h.Comparisons(), gate)

	comments := api.Group("/comments")
	comments.GET("", h.Comments().List)
	comments.GET("/:id", h.Comments().Get)
	comments.POST("", gate, h.Comments().Create)
	comments.PUT("/:id", gate, h.Comments().Update)
	comments.DELETE("/:id", gate, h.Comments().Delete)

	contacts := api.Group("/contacts")
	contacts.POST("", limiter, h.Contacts().Create)
	contacts.GET("", gate, admin, h.Contacts().List)
	contacts.GET("/:id", gate, admin, h.Contacts().Get)
	contacts.DELETE("/:id", gate, admin, h.Contacts().Delete)

	subscriber := api.Group("/subscriber")
	subscriber.POST("", limiter, h.Subscribe)
	subscriber.PUT("/unsubscribe", limiter, h.Unsubscribe)
	subscriber.GET("", gate, admin, h.Subscribers().List)
	subscriber.DELETE("/:id", gate, admin, h.Subscribers().Delete)
	subscriber.GET("/push/key", h.VapidPublicKey)
	subscriber.POST("/push", limiter, h.SubscribePush)

	if hub != nil {
		api.GET("/ws", hub.Handler(h.Tokens))
	}

	router.POST("/upload/:folder", gate, h.Upload)
	router.GET("/upload/:folder/:fileName", h.ServeUpload)
	router.GET("/uploads/:folder/:fileName", h.ServeUpload)

	router.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "Endpoint not found")
	})

	return router
}

// publishable mounts public reads and token-gated writes for a content or
// taxonomy resource.
func publishable(g *gin.RouterGroup, r handlers.CRUD, gate gin.HandlerFunc) {
	g.GET("", r.List)
	g.GET("/:id", r.Get)
	g.GET("/slug/:slug", r.GetBySlug)
	g.POST("", gate, r.Create)
	g.PUT("/:id", gate, r.Update)
	g.DELETE("/:id", gate, r.Delete)
}
