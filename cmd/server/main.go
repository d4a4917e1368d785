// Package main runs the Mentora web tier: session issuance, route guarding, the
// platform API gateway, the upload pipeline and the video streaming proxy.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mentora-learn/gateway/config"
	"github.com/mentora-learn/gateway/internal/auth"
	"github.com/mentora-learn/gateway/internal/courses"
	"github.com/mentora-learn/gateway/internal/gateway"
	"github.com/mentora-learn/gateway/internal/guard"
	"github.com/mentora-learn/gateway/internal/middleware"
	"github.com/mentora-learn/gateway/internal/models"
	"github.com/mentora-learn/gateway/internal/realtime"
	"github.com/mentora-learn/gateway/internal/session"
	"github.com/mentora-learn/gateway/internal/streamproxy"
	"github.com/mentora-learn/gateway/internal/upload"
	"github.com/mentora-learn/gateway/internal/videos"
	"github.com/mentora-learn/gateway/pkg/redis"
	"github.com/mentora-learn/gateway/pkg/response"
	"github.com/mentora-learn/gateway/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()

	// Session cache: Redis in production, in-memory when Redis is absent (dev).
	var store session.Store
	sessionTTL := time.Duration(cfg.Session.TTLHours) * time.Hour
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory session store", zap.Error(err))
		store = session.NewMemoryStore(sessionTTL)
	} else {
		defer rdb.Close()
		store = session.NewRedisStore(rdb.Client, sessionTTL)
	}

	// Optional direct S3: enables local presign mode and the URL importer.
	var s3Client *storage.S3
	if cfg.AWS.AccessKeyID != "" {
		s3Client, err = storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			VideosBucket:         cfg.AWS.VideosBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
			s3Client = nil
		}
	}

	gw := gateway.New(
		cfg.Backend.BaseURL,
		time.Duration(cfg.Backend.RequestTimeout)*time.Second,
		session.TokenFromContext,
		logger,
	)

	cookies := session.CookieWriter{
		MaxAge: cfg.Session.CookieMaxAge,
		Secure: cfg.Session.CookieSecure,
		Domain: cfg.Session.CookieDomain,
	}
	authHandler := auth.NewHandler(gw, store, cookies, logger)
	identity := auth.NewIdentityFetcher(gw)

	// Videos: authorize and sign locally against S3 when configured, else delegate
	// upstream.
	videoSvc := videos.NewService(gw)
	var authorizer upload.Authorizer = videoSvc
	var objects videos.ObjectStore
	if s3Client != nil {
		authorizer = videos.NewS3Authorizer(s3Client)
		objects = s3Client
	}
	hub := realtime.NewHub(logger)
	pipeline := upload.NewPipeline(authorizer, videoSvc, nil, logger)
	importer := upload.NewImporter(pipeline, s3Client, videoSvc, hub, logger)
	videoHandler := videos.NewHandler(videoSvc, authorizer, importer, objects, logger)

	courseHandler := courses.NewHandler(gw)
	proxy := streamproxy.New(cfg.Backend.BaseURL, logger)

	uploadLimiter := middleware.NewIPRateLimiter(cfg.Upload.RatePerMinute, time.Minute, cfg.Upload.RateBurst, 10*time.Minute)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(session.Hydrate(store, identity, cookies, logger))
	router.Use(guard.Middleware())

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public; session issuance)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/logout", authHandler.Logout)
	}

	// Streaming proxy authenticates per request from cookie or header; it is not
	// behind RequireAuth so the 401 contract stays its own.
	router.GET("/api/videos/:id/proxy", proxy.Handle)

	// Protected API
	api := router.Group("/api")
	api.Use(middleware.RequireAuth())
	{
		api.GET("/users/me", authHandler.Me)

		api.GET("/courses", courseHandler.List)
		api.GET("/courses/:id", courseHandler.Get)
		api.POST("/courses/:id/enroll", middleware.RequireRole(string(models.RoleStudent)), courseHandler.Enroll)
		api.GET("/courses/:id/videos", videoHandler.ListByCourse)
		api.GET("/videos/:id/download", videoHandler.Download)

		creator := middleware.RequireRole(string(models.RoleCreator))
		api.POST("/videos/upload-url", creator, middleware.RateLimit(uploadLimiter), videoHandler.UploadURL)
		api.POST("/videos", creator, videoHandler.Register)
		api.POST("/videos/import", creator, middleware.RateLimit(uploadLimiter), videoHandler.Import)
		api.DELETE("/videos/:id", creator, videoHandler.Delete)
	}

	// Upload progress (cookie-authenticated websocket)
	router.GET("/ws/uploads", realtime.ServeWs(hub, store, logger))

	// Web shell: the guard above has already decided allow/redirect for pages.
	if cfg.Server.StaticDir != "" {
		staticDir := cfg.Server.StaticDir
		router.NoRoute(func(c *gin.Context) {
			if c.Request.Method != http.MethodGet {
				c.Status(http.StatusNotFound)
				return
			}
			path := filepath.Join(staticDir, filepath.Clean(c.Request.URL.Path))
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				c.File(path)
				return
			}
			c.File(filepath.Join(staticDir, "index.html"))
		})
	}

	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     router,
		ReadTimeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		// WriteTimeout stays zero unless configured: streamed video responses
		// must not be cut off mid-play.
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go importer.Run(workerCtx)
	logger.Info("import worker started")

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
