// Package main provides the main entry point for the MeideSaquá directory backend
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/meidesaqua/meidesaqua-api/app/handlers"
	"github.com/meidesaqua/meidesaqua-api/app/middleware"
	"github.com/meidesaqua/meidesaqua-api/app/router"
	"github.com/meidesaqua/meidesaqua-api/app/scheduler"
	"github.com/meidesaqua/meidesaqua-api/app/services"
	businessflow "github.com/meidesaqua/meidesaqua-api/business_flow"
	"github.com/meidesaqua/meidesaqua-api/config"
	_ "github.com/meidesaqua/meidesaqua-api/docs"
	"github.com/meidesaqua/meidesaqua-api/models"
	"github.com/meidesaqua/meidesaqua-api/repository"
	"github.com/meidesaqua/meidesaqua-api/utils"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting MeideSaqua API...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg.Logging)

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// setupLogging routes the standard logger to a rotating file when configured
func setupLogging(cfg config.LoggingConfig) {
	if cfg.Output != "file" {
		return
	}
	log.SetOutput(&lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	})
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Redis client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeNotificationService wires the email provider used for owner notifications
func initializeNotificationService(cfg config.EmailConfig) services.NotificationService {
	var emailProvider services.EmailProvider
	if cfg.Host != "" {
		emailProvider = services.NewSMTPEmailProvider(cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.FromEmail)
	} else {
		log.Println("EMAIL_HOST not set, owner notifications will only be logged")
		emailProvider = services.NewMockEmailProvider()
	}
	return services.NewNotificationService(emailProvider)
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	if rc != nil {
		cancel := startCacheHealthMonitor(context.Background(), rc, 30*time.Second)
		stopFuncs = append(stopFuncs, cancel)
	}

	// Initialize repositories
	establishmentRepo := repository.NewEstablishmentRepository(db)
	imageRepo := repository.NewEstablishmentImageRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	userRepo := repository.NewUserRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	counterRepo := repository.NewViewCounterRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Seed the moderator account and the official review author
	if err := ensureAdminAccount(db, adminRepo, cfg); err != nil {
		return nil, err
	}
	if err := ensureOfficialUser(userRepo, cfg.Admin); err != nil {
		return nil, err
	}

	// Initialize services
	notificationService := initializeNotificationService(cfg.Email)

	storage, err := services.NewLocalFileStorage(cfg.Storage.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	listingCache := services.NewRedisListingCache(rc, cfg.Cache.RedisPrefix, cfg.Cache.DefaultTTL)

	// Captcha service for admin login
	captchaSvc, err := services.NewCaptchaServiceRotate(2*time.Minute, 15, 300)
	if err != nil {
		return nil, err
	}

	// Initialize token service
	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	// Initialize flows
	establishmentFlow := businessflow.NewEstablishmentFlow(
		db,
		establishmentRepo,
		imageRepo,
		auditRepo,
		storage,
		listingCache,
	)

	moderationFlow := businessflow.NewModerationFlow(
		db,
		establishmentRepo,
		imageRepo,
		auditRepo,
		storage,
		notificationService,
		listingCache,
	)

	courseFlow := businessflow.NewCourseFlow(db, courseRepo, auditRepo, storage)

	counterFlow := businessflow.NewViewCounterFlow(counterRepo)

	userAdminFlow := businessflow.NewUserAdminFlow(db, userRepo, reviewRepo, auditRepo)

	loginAdminFlow := businessflow.NewLoginAdminFlow(
		db,
		adminRepo,
		auditRepo,
		captchaSvc,
		tokenService,
	)

	dashboardFlow := businessflow.NewDashboardFlow(
		establishmentRepo,
		courseRepo,
		userRepo,
		counterRepo,
		listingCache,
	)

	// Initialize handlers
	establishmentHandler := handlers.NewEstablishmentHandler(establishmentFlow, storage)
	moderationHandler := handlers.NewModerationHandler(moderationFlow)
	courseHandler := handlers.NewCourseHandler(courseFlow, storage)
	counterHandler := handlers.NewCounterHandler(counterFlow)
	userHandler := handlers.NewUserAdminHandler(userAdminFlow, cfg.Admin.OfficialUserID)
	adminHandler := handlers.NewAdminHandler(loginAdminFlow)
	dashboardHandler := handlers.NewDashboardHandler(dashboardFlow)

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Initialize router
	appRouter := router.NewFiberRouter(
		establishmentHandler,
		moderationHandler,
		courseHandler,
		counterHandler,
		userHandler,
		adminHandler,
		dashboardHandler,
		authMiddleware,
		cfg.Storage.Root,
		cfg.Security.AllowedOrigins,
	)

	// Keep the dashboard snapshot warm
	statsScheduler := scheduler.NewStatsScheduler(dashboardFlow, listingCache, cfg.Scheduler.StatsRefreshInterval)
	stopFuncs = append(stopFuncs, statsScheduler.Start(context.Background()))

	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}

// ensureAdminAccount seeds the configured moderator account on first boot
func ensureAdminAccount(db *gorm.DB, adminRepo repository.AdminRepository, cfg *config.ProductionConfig) error {
	existing, err := adminRepo.ByUsername(context.Background(), cfg.Admin.Username)
	if err != nil {
		return fmt.Errorf("failed to look up admin account: %w", err)
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Admin.Password), cfg.Security.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := models.Admin{
		UUID:         uuid.New(),
		Username:     cfg.Admin.Username,
		PasswordHash: string(hash),
		IsActive:     utils.ToPtr(true),
		CreatedAt:    utils.UTCNow(),
		UpdatedAt:    utils.UTCNow(),
	}
	if cfg.Admin.Email != "" {
		admin.ContactEmail = utils.ToPtr(cfg.Admin.Email)
	}
	if err := adminRepo.Save(context.Background(), &admin); err != nil {
		return fmt.Errorf("failed to seed admin account: %w", err)
	}

	log.Printf("Seeded admin account %q", cfg.Admin.Username)
	return nil
}

// ensureOfficialUser seeds the account that authors official review replies
func ensureOfficialUser(userRepo repository.UserRepository, cfg config.AdminConfig) error {
	existing, err := userRepo.ByID(context.Background(), cfg.OfficialUserID)
	if err != nil {
		return fmt.Errorf("failed to look up official user: %w", err)
	}
	if existing != nil {
		return nil
	}

	official := models.User{
		ID:             cfg.OfficialUserID,
		Username:       "MeideSaquá",
		Email:          cfg.Email,
		PasswordHash:   "", // login is not available for this account
		EmailConfirmed: true,
		CreatedAt:      utils.UTCNow(),
		UpdatedAt:      utils.UTCNow(),
	}
	if err := userRepo.Save(context.Background(), &official); err != nil {
		return fmt.Errorf("failed to seed official user: %w", err)
	}

	log.Printf("Seeded official reply account with id %d", cfg.OfficialUserID)
	return nil
}
