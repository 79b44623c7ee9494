// main.go
package main

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/binary-knight/usurper-reborn-sub009/database"
	"github.com/binary-knight/usurper-reborn-sub009/handlers"
	"github.com/binary-knight/usurper-reborn-sub009/middleware"
	"github.com/binary-knight/usurper-reborn-sub009/services"
	"github.com/binary-knight/usurper-reborn-sub009/sim"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	validateEnvironment()

	// Initialize database
	database.InitDB()
	defer database.CloseDB()

	// Live simulated population
	registry := sim.NewRegistry()
	if worldFile := os.Getenv("WORLD_FILE"); worldFile != "" {
		n, err := sim.LoadWorld(worldFile, registry)
		if err != nil {
			log.Fatalf("Failed to load world file: %v", err)
		}
		log.Printf("Loaded %d simulated agents from %s", n, worldFile)
	}

	// Service layer
	backend := services.NewSQLBackend(database.GetDB())
	news := services.NewNewsService(database.GetDB())
	roster := services.NewRosterService(registry, backend)
	hq := services.NewHeadquartersService(backend)
	wars := services.NewWarService(backend, roster, hq, registry, services.NewStatDuelResolver(), news)
	teams := services.NewTeamService(backend, registry, roster, news)

	handlers.Init(teams, wars, hq, news, registry)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    1 * 1024 * 1024, // 1MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))

	corsOrigins := os.Getenv("CORS_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	// API Routes
	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", handlers.Register)
	authGroup.Post("/login", handlers.Login)

	// Public team queries
	api.Get("/recruits", handlers.GetRecruits)
	api.Get("/teams/rankings", handlers.GetRankings)
	api.Get("/teams/:name", handlers.GetTeam)

	// Team membership (authenticated)
	api.Post("/teams", middleware.AuthMiddleware, handlers.CreateTeam)
	api.Post("/teams/join", middleware.AuthMiddleware, handlers.JoinTeam)
	api.Post("/teams/quit", middleware.AuthMiddleware, handlers.QuitTeam)
	api.Post("/teams/recruit", middleware.AuthMiddleware, handlers.Recruit)
	api.Post("/teams/password", middleware.AuthMiddleware, handlers.ChangeTeamPassword)
	api.Post("/teams/sack", middleware.AuthMiddleware, handlers.SackMember)
	api.Post("/teams/resurrect", middleware.AuthMiddleware, handlers.ResurrectMember)

	// Wars
	api.Post("/wars/challenge", middleware.AuthMiddleware, handlers.Challenge)
	api.Get("/wars/history", middleware.AuthMiddleware, handlers.GetWarHistory)

	// Headquarters
	api.Get("/hq", middleware.AuthMiddleware, handlers.GetHeadquarters)
	api.Post("/hq/deposit", middleware.AuthMiddleware, handlers.Deposit)
	api.Post("/hq/withdraw", middleware.AuthMiddleware, handlers.Withdraw)
	api.Post("/hq/upgrade", middleware.AuthMiddleware, handlers.UpgradeFacility)

	// Town news
	api.Get("/news", handlers.GetNews)
	app.Use("/ws/news", handlers.NewsUpgrade)
	app.Get("/ws/news", handlers.NewsSocket)

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
			"version":   "1.0.0",
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Printf("Server starting on port %s", port)
	log.Printf("Environment: %s", getEnv("APP_ENV", "development"))
	log.Printf("News feed available at ws://localhost:%s/ws/news", port)

	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start HTTP server:", err)
	}
}

// validateEnvironment checks for required environment variables
func validateEnvironment() {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("FATAL: JWT_SECRET environment variable must be set. Generate one with: openssl rand -base64 64")
	}
	if len(jwtSecret) < 32 {
		log.Fatal("FATAL: JWT_SECRET must be at least 32 characters long")
	}

	if os.Getenv("APP_ENV") == "production" {
		corsOrigins := os.Getenv("CORS_ORIGINS")
		if corsOrigins == "" || corsOrigins == "http://localhost:3000" {
			log.Println("WARNING: CORS_ORIGINS not properly configured for production")
		}
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Don't expose internal errors in production
	if os.Getenv("APP_ENV") == "production" && code == 500 {
		message = "An error occurred. Please try again later."
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
