package router

import (
	"net/http"

	"github.com/soltonanna/personal-finance-tracker/internal/config"
	"github.com/soltonanna/personal-finance-tracker/internal/handler"
	"github.com/soltonanna/personal-finance-tracker/internal/middleware"
	"github.com/soltonanna/personal-finance-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter configures Gin engine, templates and static resources.
func SetupRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// static files and templates
	r.Static("/static", "./web/static")
	r.LoadHTMLGlob("web/templates/*")

	// Home -> login page
	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "login.html", gin.H{
			"title": "Finance Tracker - Login",
		})
	})

	r.GET("/register", func(c *gin.Context) {
		c.HTML(http.StatusOK, "register.html", gin.H{
			"title": "Finance Tracker - Register",
		})
	})

	r.GET("/dashboard", func(c *gin.Context) {
		c.HTML(http.StatusOK, "dashboard.html", gin.H{
			"title": "Finance Tracker - Dashboard",
		})
	})

	RegisterAPI(r, cfg, db)

	return r
}

// RegisterAPI mounts the JSON API under /api.
func RegisterAPI(r *gin.Engine, cfg *config.Config, db *gorm.DB) {
	// unmapped verbs on known paths answer 405, not 404
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		util.Error(c, http.StatusMethodNotAllowed, util.CodeMethodNotAllowed, "method not allowed")
	})

	api := r.Group("/api")

	jwtSecret := cfg.JWT.Secret

	// 登录/注册接口（不需要鉴权）
	authHandler := handler.NewAuthHandler(db, jwtSecret, cfg.JWT.Issuer, cfg.JWT.ExpireHours, cfg.Security.BcryptCost)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// 需要登录才能访问的接口
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(jwtSecret, db))

	protected.POST("/auth/logout", authHandler.Logout)

	protected.GET("/me", handler.GetMe)
	protected.PUT("/me", handler.UpdateProfile(db))
	protected.PUT("/me/password", handler.ChangePassword(db))
	protected.DELETE("/users/delete", handler.DeleteUser(db))

	accountHandler := handler.NewAccountHandler(db)
	protected.GET("/account", accountHandler.ListAccounts)
	protected.POST("/account", accountHandler.CreateAccount)
	protected.PUT("/account/:id", accountHandler.UpdateAccount)
	protected.DELETE("/account/:id", accountHandler.DeleteAccount)

	categoryHandler := handler.NewCategoryHandler(db)
	protected.GET("/categories", categoryHandler.ListCategories)
	protected.POST("/categories", categoryHandler.CreateCategory)
	protected.PUT("/categories/:id", categoryHandler.UpdateCategory)
	protected.DELETE("/categories/:id", categoryHandler.DeleteCategory)

	transactionHandler := handler.NewTransactionHandler(db, cfg.App.PageSize)
	protected.GET("/transactions", transactionHandler.ListTransactions)
	protected.POST("/transactions", transactionHandler.CreateTransaction)
	protected.GET("/transactions/:id", transactionHandler.GetTransaction)
	protected.PUT("/transactions/:id", transactionHandler.UpdateTransaction)
	protected.DELETE("/transactions/:id", transactionHandler.DeleteTransaction)

	exportHandler := handler.NewExportHandler(db)
	protected.GET("/export/csv", exportHandler.ExportCSV)
	protected.GET("/export/xlsx", exportHandler.ExportXLSX)
}
