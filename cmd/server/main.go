package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Luismi76/cursos/internal/cache"
	"github.com/Luismi76/cursos/internal/config"
	"github.com/Luismi76/cursos/internal/handlers"
	"github.com/Luismi76/cursos/internal/handlers/ws"
	"github.com/Luismi76/cursos/internal/middleware"
	"github.com/Luismi76/cursos/internal/repository"
	"github.com/Luismi76/cursos/internal/service"
	"github.com/Luismi76/cursos/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := fiber.New(fiber.Config{
		AppName:   "Cursos Course Chat",
		BodyLimit: 1024 * 1024,
	})

	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	db, err := repository.InitDB(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	redisCache := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err := redisCache.Ping(); err != nil {
		log.Printf("WARNING: Redis connection failed: %v. Running without cache.", err)
		redisCache = nil
	} else {
		log.Println("Redis cache connected successfully")
	}

	messageCache := cache.NewMessageCache(redisCache)
	userCache := cache.NewUserCache(redisCache)

	// Avatar signing is best-effort; without S3 stored references are returned as-is.
	var s3Store *storage.S3Storage
	if s3cfg, err := storage.LoadS3ConfigFromEnv(); err != nil {
		log.Printf("WARNING: S3 storage not configured: %v", err)
	} else if st, err := storage.NewS3Storage(s3cfg); err != nil {
		log.Printf("WARNING: Failed to initialize S3 storage: %v", err)
	} else {
		s3Store = st
		log.Printf("S3 storage initialized successfully (bucket=%s)", s3cfg.Bucket)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	messageRepo := repository.NewCourseMessageRepository(db)
	cursorRepo := repository.NewReadCursorRepository(db)
	store := repository.NewStore(db)

	hub := ws.NewHub()
	var publisher service.Publisher = hub
	if cfg.Chat.RelayEnabled && redisCache != nil {
		relay := ws.NewRedisRelay(redisCache, hub)
		publisher = relay
		go func() {
			if err := relay.Run(ctx); err != nil {
				log.Printf("Chat relay stopped: %v", err)
			}
		}()
		log.Println("Chat events relayed through Redis")
	}

	// Services
	directory := service.NewDirectoryService(courseRepo, userRepo, userCache, s3Store)
	chatService := service.NewCourseChatService(directory, messageRepo, cursorRepo, store, publisher, messageCache)

	// Handlers
	chatHandler := handlers.NewCourseChatHandler(chatService, hub, userCache)
	wsHandler := handlers.NewWebSocketHandler(chatService, hub, userCache, cfg.Chat.SendBuffer, cfg.Chat.PingInterval)

	api := app.Group("/api",
		middleware.OriginAllowed(cfg.AllowedOrigins),
		limiter.New(limiter.Config{
			Max:        cfg.RateLimit,
			Expiration: time.Minute,
		}),
		middleware.AuthRequired(cfg.JWTSecret),
	)
	handlers.RegisterCourseChatRoutes(api, chatHandler)

	// WebSocket route (websocket upgrade needs special handling)
	app.Get(
		"/ws/courses/:courseId",
		middleware.OriginAllowed(cfg.AllowedOrigins),
		middleware.AuthRequired(cfg.JWTSecret),
		wsHandler.Upgrade,
		websocket.New(wsHandler.HandleCourseChat),
	)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Course chat is running",
		})
	})

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
		if redisCache != nil {
			_ = redisCache.Close()
		}
	}()

	log.Printf("Server starting on port %s (env=%s)...", cfg.Port, cfg.Env)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
