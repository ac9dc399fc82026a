// Package server assembles the HTTP router: middleware chain, public and
// protected route groups, docs, health and metrics endpoints.
package server

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"prism/internal/config"
	"prism/internal/handlers"
	"prism/internal/metrics"
	"prism/internal/middleware"
	"prism/internal/services"

	_ "prism/internal/docs" // Import swagger docs
)

// Services bundles the business services the router serves.
type Services struct {
	User        services.UserServicer
	Account     services.AccountServicer
	Category    services.CategoryServicer
	Transaction services.TransactionServicer
	Budget      services.BudgetServicer
	Goal        services.GoalServicer
	Audit       services.AuditServicer
}

// NewServices wires every service against db.
func NewServices(db *gorm.DB, cfg *config.Config) Services {
	return Services{
		User:        services.NewUserService(db, services.WithLoginLockout(cfg.MaxLoginAttempts, cfg.LoginLockoutDur)),
		Account:     services.NewAccountService(db),
		Category:    services.NewCategoryService(db),
		Transaction: services.NewTransactionService(db),
		Budget:      services.NewBudgetService(db),
		Goal:        services.NewGoalService(db),
		Audit:       services.NewAuditService(db),
	}
}

// Options carries the optional observability hooks of the router.
type Options struct {
	Metrics        *metrics.Metrics
	TracerProvider trace.TracerProvider
}

// New builds the gin engine with all routes registered.
func New(cfg *config.Config, svc Services, opts Options) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.User, svc.Audit)
	userHandler := handlers.NewUserHandler(svc.User, svc.Audit)
	accountHandler := handlers.NewAccountHandler(svc.Account, svc.Audit)
	categoryHandler := handlers.NewCategoryHandler(svc.Category, svc.Audit)
	transactionHandler := handlers.NewTransactionHandler(svc.Transaction, svc.Audit)
	budgetHandler := handlers.NewBudgetHandler(svc.Budget, svc.Audit)
	goalHandler := handlers.NewGoalHandler(svc.Goal, svc.Audit)

	router := gin.New()
	router.Use(middleware.RequestLogging())
	router.Use(middleware.Tracing(opts.TracerProvider))
	if opts.Metrics != nil {
		router.Use(middleware.Metrics(opts.Metrics))
	}
	router.Use(middleware.ErrorHandler())
	router.Use(gin.Recovery())
	router.Use(cors(cfg.CORSAllowedOrigins))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if opts.Metrics != nil {
		router.GET("/metrics", middleware.APIKeyAuth(cfg.MetricsAPIKey), gin.WrapH(opts.Metrics.Handler()))
	}

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware())

	user := protected.Group("/user")
	user.GET("/profile", userHandler.GetProfile)
	user.PUT("/profile", userHandler.UpdateProfile)
	user.PATCH("/profile", userHandler.UpdateProfile)
	user.POST("/change-password", userHandler.ChangePassword)
	user.DELETE("/delete-account", userHandler.DeleteAccount)

	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetUserAccounts)
	accounts.GET("/summary", accountHandler.GetAccountSummary)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.PATCH("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetUserCategories)
	categories.GET("/tree", categoryHandler.GetCategoryTree)
	categories.GET("/by-type", categoryHandler.GetCategoriesByType)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.PATCH("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/summary", transactionHandler.GetTransactionSummary)
	transactions.GET("/recent", transactionHandler.GetRecentTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.PATCH("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetUserBudgets)
	budgets.GET("/current", budgetHandler.GetCurrentBudgets)
	budgets.GET("/over-budget", budgetHandler.GetOverBudget)
	budgets.GET("/summary", budgetHandler.GetBudgetSummary)
	budgets.GET("/:id", budgetHandler.GetBudgetByID)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.PATCH("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	goals := protected.Group("/goals")
	goals.POST("", goalHandler.CreateGoal)
	goals.GET("", goalHandler.GetUserGoals)
	goals.GET("/active", goalHandler.GetActiveGoals)
	goals.GET("/completed", goalHandler.GetCompletedGoals)
	goals.GET("/near-target", goalHandler.GetNearTargetGoals)
	goals.GET("/summary", goalHandler.GetGoalSummary)
	goals.GET("/:id", goalHandler.GetGoalByID)
	goals.PUT("/:id", goalHandler.UpdateGoal)
	goals.PATCH("/:id", goalHandler.UpdateGoal)
	goals.DELETE("/:id", goalHandler.DeleteGoal)
	goals.POST("/:id/update-progress", goalHandler.UpdateGoalProgress)

	return router
}

// cors answers preflight requests and sets the allow headers for the
// configured origins. A "*" entry allows any origin.
func cors(allowed []string) gin.HandlerFunc {
	wildcard := slices.Contains(allowed, "*")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case wildcard:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(allowed, origin):
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
