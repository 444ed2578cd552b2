package api

import (
	"github.com/AmarboldBazarsuren/mzeel-backend/config"
	_ "github.com/AmarboldBazarsuren/mzeel-backend/docs"
	adminDashboard "github.com/AmarboldBazarsuren/mzeel-backend/internal/api/v1/admin/dashboard"
	adminLoan "github.com/AmarboldBazarsuren/mzeel-backend/internal/api/v1/admin/loan"
	adminProfile "github.com/AmarboldBazarsuren/mzeel-backend/internal/api/v1/admin/profile"
	adminTransaction "github.com/AmarboldBazarsuren/mzeel-backend/internal/api/v1/admin/transaction"
	adminUser "github.com/AmarboldBazarsuren/mzeel-backend/internal/api/v1/admin/user"
	adminWithdrawal "github.com/AmarboldBazarsuren/mzeel-backend/internal/api/v1/admin/withdrawal"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/api/v1/auth"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/api/v1/loan"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/api/v1/payment"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/api/v1/profile"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/api/v1/wallet"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/api/v1/withdrawal"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/database"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func NewRouter() (*gin.Engine, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	_, err = database.Connect(cfg.DSN())
	if err != nil {
		return nil, err
	}

	err = database.ConnectRedis(cfg)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:8080"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1
	v1 := router.Group("/api/v1")
	{
		auth.RegisterRoutes(v1)
		payment.RegisterRoutes(v1) // gateway callbacks, no auth

		authorized := v1.Group("/")
		authorized.Use(middleware.AuthMiddleware())
		{
			profile.RegisterRoutes(authorized)
			wallet.RegisterRoutes(authorized)
			loan.RegisterRoutes(authorized)
			withdrawal.RegisterRoutes(authorized)
		}

		// Staff routes
		admin := v1.Group("/admin")
		admin.Use(middleware.StaffAuthMiddleware())
		{
			adminDashboard.RegisterRoutes(admin)
			adminProfile.RegisterRoutes(admin)
			adminLoan.RegisterRoutes(admin)
			adminWithdrawal.RegisterRoutes(admin)
			adminTransaction.RegisterRoutes(admin)
		}

		// Admin-only user management
		adminOnly := v1.Group("/admin")
		adminOnly.Use(middleware.AdminAuthMiddleware())
		{
			adminUser.RegisterRoutes(adminOnly)
		}
	}

	return router, nil
}
