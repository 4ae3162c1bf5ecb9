package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/vivahsetu/vivahsetu-backend/internal/config"
	"github.com/vivahsetu/vivahsetu-backend/internal/handler"
	"github.com/vivahsetu/vivahsetu-backend/internal/middleware"
	"github.com/vivahsetu/vivahsetu-backend/internal/migration"
	"github.com/vivahsetu/vivahsetu-backend/internal/presence"
	"github.com/vivahsetu/vivahsetu-backend/internal/repository"
	"github.com/vivahsetu/vivahsetu-backend/internal/routes"
	"github.com/vivahsetu/vivahsetu-backend/internal/service"
	"github.com/vivahsetu/vivahsetu-backend/internal/ws"
	pkgcache "github.com/vivahsetu/vivahsetu-backend/pkg/cache"
	"github.com/vivahsetu/vivahsetu-backend/pkg/jwt"
	pkglogger "github.com/vivahsetu/vivahsetu-backend/pkg/logger"
	"github.com/vivahsetu/vivahsetu-backend/pkg/push"
	pkgredis "github.com/vivahsetu/vivahsetu-backend/pkg/redis"
	pkgstorage "github.com/vivahsetu/vivahsetu-backend/pkg/storage"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// @title           VivahSetu Chat API
// @version         1.0
// @description     Realtime messaging between matched profiles
//
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Authorization header using the Bearer scheme. Example: "Bearer {token}"

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles, dotenvErr := config.LoadDotEnv(".")

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	pkglogger.Info("APP_ENV=%s, loaded env files: %v", env, dotenvFiles)
	if dotenvErr != nil {
		pkglogger.Warn("dotenv: %v", dotenvErr)
	}

	configPath := getConfigPath()
	pkglogger.Info("Loading config from: %s", configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	config.LogResolved(cfg)

	// The message log is the source of truth; without it there is nothing to serve.
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	pkglogger.Info("Connected to MySQL")
	if err := migration.Run(db, cfg.IsDevelopment()); err != nil {
		pkglogger.Warn("Migration warning: %v", err)
	}
	if cfg.IsDevelopment() {
		if err := migration.SeedProfiles(db); err != nil {
			pkglogger.Warn("Profile seed warning: %v", err)
		}
	}

	redisClient, err := pkgredis.NewClient(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
	)
	if err != nil {
		pkglogger.Warn("Failed to connect to Redis: %v (continuing without cache, rate limits and push queue)", err)
		redisClient = nil
	} else {
		pkglogger.Info("Connected to Redis")
	}

	cacheService := pkgcache.NewService(redisClient)

	var notifier push.Notifier = push.LogNotifier{}
	if cfg.Push.Enabled && redisClient != nil {
		notifier = push.NewRedisNotifier(redisClient, cfg.Push.QueueKey)
		pkglogger.Info("Push notifications enqueued on %s", cfg.Push.QueueKey)
	}

	var attachmentStore handler.AttachmentStore
	if cfg.Storage.Enabled && cfg.Storage.Bucket != "" {
		s3Client, s3Err := pkgstorage.NewS3Client(pkgstorage.S3Config{
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Bucket:          cfg.Storage.Bucket,
			CDNURL:          cfg.Storage.CDNURL,
			BasePath:        cfg.Storage.BasePath,
			ForcePathStyle:  cfg.Storage.ForcePathStyle,
		})
		if s3Err != nil {
			pkglogger.Warn("S3 storage init failed: %v (attachments disabled)", s3Err)
		} else {
			attachmentStore = s3Client
		}
	}

	registry := presence.NewRegistry()
	hub := ws.NewHub(registry)
	go hub.Run()

	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn)

	messageRepo := repository.NewMessageRepository(db)
	blockRepo := repository.NewBlockRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	blockService := service.NewBlockService(blockRepo, profileRepo, hub)
	deliveryService := service.NewDeliveryService(messageRepo, registry, hub)
	chatService := service.NewChatService(service.ChatDeps{
		Messages: messageRepo,
		Profiles: profileRepo,
		Blocks:   blockService,
		Delivery: deliveryService,
		Presence: registry,
		Emitter:  hub,
		Cache:    cacheService,
		Notifier: notifier,
	}, cfg.Chat)

	gateway := ws.NewGateway(hub, chatService, deliveryService, ws.NewSendLimiter(redisClient, cfg.Chat.SendsPerMinute))

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	allowOrigins := cfg.CORS.AllowOrigins
	if allowOrigins == "" {
		allowOrigins = "http://localhost:3000"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     splitAndTrim(allowOrigins),
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Accept-Language", "X-Request-ID"},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.I18n())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.InputSanitizer())
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", healthHandler(db, redisClient, hub))

	// Swagger UI
	routes.Docs(router)

	routes.Setup(router, routes.Handlers{
		Chat:        handler.NewChatHandler(chatService, cfg.Chat),
		Block:       handler.NewBlockHandler(blockService),
		Attachments: handler.NewAttachmentHandler(attachmentStore, cfg.Storage.MaxUploadMB),
		WS:          handler.NewWSHandler(hub, gateway, cfg.CORS.AllowOrigins),
	}, jwtManager, redisClient, cfg)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": gin.H{"code": "NOT_FOUND", "message": "not found"}})
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go reportDBStats(ctx, db)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		pkglogger.Info("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	pkglogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		pkglogger.Warn("HTTP shutdown: %v", err)
	}
	hub.Stop()
	if redisClient != nil {
		redisClient.Close() //nolint:errcheck
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close() //nolint:errcheck
	}
}

func healthHandler(db *gorm.DB, redisClient *redis.Client, hub *ws.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		dbState := "ok"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			dbState = "down"
			status = http.StatusServiceUnavailable
		}
		redisState := "disabled"
		if redisClient != nil {
			redisState = "ok"
			if err := redisClient.Ping(ctx).Err(); err != nil {
				redisState = "down"
			}
		}

		c.JSON(status, gin.H{
			"status":      dbState,
			"service":     "vivahsetu-chat",
			"redis":       redisState,
			"connections": hub.ConnectionCount(),
			"time":        time.Now().Unix(),
		})
	}
}

func reportDBStats(ctx context.Context, db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			middleware.SetDBStats(sqlDB.Stats())
		}
	}
}

func splitAndTrim(s string) []string {
	parts := []string{}
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// initDB opens MySQL with the session pinned to UTC
func initDB(cfg *config.Config) (*gorm.DB, error) {
	mysqlCfg, err := mysqldriver.ParseDSN(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	if mysqlCfg.Params == nil {
		mysqlCfg.Params = map[string]string{}
	}
	mysqlCfg.Params["time_zone"] = "'+00:00'"

	logLevel := gormlogger.Warn
	if cfg.IsDevelopment() {
		logLevel = gormlogger.Info
	}
	db, err := gorm.Open(mysql.Open(mysqlCfg.FormatDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	return db, nil
}
