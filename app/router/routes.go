// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/gofiber/fiber/v3/middleware/static"
	"github.com/meidesaqua/meidesaqua-api/app/dto"
	"github.com/meidesaqua/meidesaqua-api/app/handlers"
	"github.com/meidesaqua/meidesaqua-api/app/middleware"
	_ "github.com/meidesaqua/meidesaqua-api/docs"
	"github.com/meidesaqua/meidesaqua-api/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app                  *fiber.App
	establishmentHandler handlers.EstablishmentHandlerInterface
	moderationHandler    handlers.ModerationHandlerInterface
	courseHandler        handlers.CourseHandlerInterface
	counterHandler       handlers.CounterHandlerInterface
	userHandler          handlers.UserAdminHandlerInterface
	adminHandler         handlers.AdminHandlerInterface
	dashboardHandler     handlers.DashboardHandlerInterface
	authMiddleware       *middleware.AuthMiddleware
	uploadRoot           string
	allowedOrigins       []string
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(
	establishmentHandler handlers.EstablishmentHandlerInterface,
	moderationHandler handlers.ModerationHandlerInterface,
	courseHandler handlers.CourseHandlerInterface,
	counterHandler handlers.CounterHandlerInterface,
	userHandler handlers.UserAdminHandlerInterface,
	adminHandler handlers.AdminHandlerInterface,
	dashboardHandler handlers.DashboardHandlerInterface,
	authMiddleware *middleware.AuthMiddleware,
	uploadRoot string,
	allowedOrigins []string,
) Router {
	app := fiber.New(fiber.Config{
		AppName:      "MeideSaqua API",
		ServerHeader: "MeideSaqua",
		ErrorHandler: errorHandler,
		BodyLimit:    32 * 1024 * 1024, // multipart signups carry several images
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:                  app,
		establishmentHandler: establishmentHandler,
		moderationHandler:    moderationHandler,
		courseHandler:        courseHandler,
		counterHandler:       counterHandler,
		userHandler:          userHandler,
		adminHandler:         adminHandler,
		dashboardHandler:     dashboardHandler,
		authMiddleware:       authMiddleware,
		uploadRoot:           uploadRoot,
		allowedOrigins:       allowedOrigins,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	r.setupMiddleware()

	// Prometheus scrape endpoint, outside the /api tree
	r.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Uploaded files are served directly from the storage root
	if r.uploadRoot != "" {
		r.app.Get("/uploads/*", static.New(r.uploadRoot+"/uploads"))
	}

	api := r.app.Group("/api/v1")

	// Health check route (no rate limiting)
	api.Get("/health", r.healthCheck)

	if os.Getenv("APP_ENV") == "development" || os.Getenv("APP_ENV") == "local" {
		api.Get("/swagger.json", r.serveSwaggerJSON)
		log.Println("API documentation enabled for development")
	}

	api.Use(limiter.New(limiter.Config{
		Max:        600,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: rateLimitReached,
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health"
		},
	}))

	// Public directory endpoints
	establishments := api.Group("/establishments")
	establishments.Get("/", r.establishmentHandler.List)
	establishments.Get("/:id", r.establishmentHandler.GetByID)
	establishments.Post("/", r.establishmentHandler.Register)
	establishments.Post("/update-request", r.establishmentHandler.RequestUpdate)
	establishments.Post("/deletion-request", r.establishmentHandler.RequestDeletion)

	api.Get("/courses", r.courseHandler.List)
	api.Post("/counters/:identifier/hit", r.counterHandler.RecordHit)

	// Admin auth with stricter rate limiting
	adminAuth := api.Group("/admin/auth")
	adminAuth.Use(limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: rateLimitReached,
	}))
	adminAuth.Get("/captcha/init", r.adminHandler.InitCaptcha)
	adminAuth.Post("/login", r.adminHandler.Login)
	adminAuth.Post("/refresh", r.adminHandler.Refresh)

	// Admin panel, JWT protected
	admin := api.Group("/admin")
	admin.Use(r.authMiddleware.AdminAuthenticate())

	admin.Get("/establishments/pending", r.moderationHandler.ListPending)
	admin.Post("/establishments/:id/approve", r.moderationHandler.Approve)
	admin.Put("/establishments/:id/approve", r.moderationHandler.EditAndApprove)
	admin.Put("/establishments/:id", r.moderationHandler.DirectUpdate)
	admin.Post("/establishments/:id/reject", r.moderationHandler.Reject)
	admin.Get("/establishments/:id/reviews", r.userHandler.ListEstablishmentReviews)

	admin.Post("/courses", r.courseHandler.Create)
	admin.Put("/courses/:id", r.courseHandler.Update)
	admin.Delete("/courses/:id", r.courseHandler.Delete)

	admin.Get("/users", r.userHandler.ListUsers)
	admin.Get("/users/:id", r.userHandler.GetUser)
	admin.Delete("/reviews/:id", r.userHandler.DeleteReview)
	admin.Post("/reviews/:id/reply", r.userHandler.ReplyToReview)

	admin.Get("/dashboard/stats", r.dashboardHandler.Stats)
	admin.Get("/dashboard/counters", r.counterHandler.ListCounters)
	admin.Get("/dashboard/counters/export", r.dashboardHandler.ExportCounters)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	// Security headers middleware
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'; img-src 'self' data:; frame-ancestors 'none';",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		XDNSPrefetchControl:   "off",
		XDownloadOptions:      "noopen",
		XPermittedCrossDomain: "none",
	}))

	r.app.Use(cors.New(cors.Config{
		AllowOrigins: r.allowedOrigins,
		AllowMethods: []string{
			"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Requested-With",
			"X-Request-ID",
			"Cache-Control",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			"Content-Disposition",
		},
		AllowCredentials: true,
		MaxAge:           utils.CORSMaxAge,
	}))

	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			contentType := c.Get("Content-Type")
			return len(contentType) >= 6 && contentType[:6] == "image/"
		},
	}))

	// Structured request logging
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"referer":"${referer}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health" || c.Path() == "/metrics"
		},
	}))

	r.app.Use(middleware.Metrics())

	// Recovery middleware with custom error handling
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// Health check endpoint
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Unix(),
			"version":   "1.0.0",
			"service":   "meidesaqua-api",
		},
	})
}

// Serve Swagger JSON specification
func (r *FiberRouter) serveSwaggerJSON(c fiber.Ctx) error {
	swaggerData, err := os.ReadFile("docs/swagger.json")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Failed to load Swagger documentation",
			Error: dto.ErrorDetail{
				Code: "SWAGGER_LOAD_ERROR",
			},
		})
	}

	c.Set("Content-Type", "application/json")
	return c.Send(swaggerData)
}

// Not found handler
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	requestID := c.Locals("requestid")

	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestID,
			},
		},
	})
}

func rateLimitReached(c fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
		Success: false,
		Message: "Too many requests. Please try again later.",
		Error: dto.ErrorDetail{
			Code: "RATE_LIMIT_EXCEEDED",
		},
	})
}

// Global error handler
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	log.Printf("Error %d: %v", code, err)
	requestID := c.Locals("requestid")

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: "An internal server error occurred",
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestID,
			},
		},
	})
}

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
