package main

import (
	"log"
	"time"

	"github.com/AmarboldBazarsuren/mzeel-backend/config"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/api"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/database"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/models"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/payment/qpay"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/services"
	"github.com/AmarboldBazarsuren/mzeel-backend/pkg/logger"

	"golang.org/x/crypto/bcrypt"
)

// @title MZeel Lending API
// @version 1.0
// @description Wallet and loan lifecycle backend for the MZeel lending platform.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	err = logger.InitLogger(&logger.Config{
		Level:      cfg.LogLevel,
		Filename:   cfg.LogFilename,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
		Compress:   cfg.LogCompress,
	})
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	router, err := api.NewRouter()
	if err != nil {
		log.Fatalf("failed to create router: %v", err)
	}

	// Migrate the schema
	err = database.DB.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.Profile{},
		&models.Loan{},
		&models.Transaction{},
		&models.Withdrawal{},
	)
	if err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	initAdminUser()

	services.Gateway = qpay.NewQPayDriver(cfg)

	services.Watcher = services.NewDepositWatcher(30 * time.Second)
	go services.Watcher.Start()

	scheduler := services.NewOverdueScheduler(time.Hour)
	go scheduler.Start()

	if err := router.Run(":" + cfg.AppPort); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}

func initAdminUser() {
	adminPhone := "99000000"
	adminEmail := "admin@mzeel.mn"
	adminPassword := "ChangeMe1234"

	var adminUser models.User
	result := database.DB.Where("phone = ?", adminPhone).First(&adminUser)

	if result.Error != nil {
		if result.Error.Error() == "record not found" {
			hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
			if err != nil {
				log.Fatalf("failed to hash admin password: %v", err)
			}

			adminUser = models.User{
				Phone:     adminPhone,
				Email:     adminEmail,
				Password:  string(hashedPassword),
				FirstName: "System",
				LastName:  "Admin",
				Role:      models.RoleAdmin,
				IsActive:  true,
			}

			if err := database.DB.Create(&adminUser).Error; err != nil {
				log.Fatalf("failed to create admin user: %v", err)
			}
			log.Println("Admin user created successfully!")
		} else {
			log.Fatalf("failed to check for admin user: %v", result.Error)
		}
	} else {
		log.Println("Admin user already exists.")
	}
}
