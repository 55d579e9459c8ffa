package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"presence/internal/auth"
	"presence/internal/config"
	"presence/internal/httpmiddleware"
	"presence/internal/inference"
	"presence/internal/presence"
	"presence/internal/queue"
	"presence/internal/roster"
	"presence/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if db == nil {
		// A nil DB means the DSN itself did not parse; nothing can come up.
		return fmt.Errorf("open database: %w", err)
	}
	if err != nil {
		log.Printf("warning: db not reachable: %v", err)
	} else if err := store.Migrate(db.Client); err != nil {
		log.Printf("warning: schema migration failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, cfg.CaptureQueueKey)
	}

	rosterSvc := roster.NewService(roster.NewRepository(db.Client))
	presenceSvc := presence.NewService(presence.NewRepository(db.Client), roster.NewRepository(db.Client))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	// Token issuance. Credential verification is owned by the identity
	// collaborator; this endpoint mints role tokens for already-verified
	// subjects (and for capture devices, which have no password at all).
	r.POST("/v1/auth/token", func(c *gin.Context) {
		var req struct {
			Subject     string `json:"subject" binding:"required"`
			Role        string `json:"role" binding:"required,oneof=STUDENT FACULTY ADMIN DEVICE"`
			InstituteID string `json:"institute_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		tokens, err := auth.Issue(req.Subject, req.Role, req.InstituteID, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
		})
	})

	authGroup := r.Group("/v1", auth.Bearer(cfg.JWTSigningKey, cfg.JWTIssuer))

	// Capture ingestion: cameras post frames here, the worker resolves and
	// records them asynchronously.
	authGroup.POST("/captures", auth.RequireRole(auth.RoleDevice, auth.RoleFaculty, auth.RoleAdmin), func(c *gin.Context) {
		var req struct {
			InstituteID string     `json:"institute_id" binding:"required"`
			ImageURL    string     `json:"image_url" binding:"required"`
			CapturedAt  *time.Time `json:"captured_at"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		capturedAt := time.Now()
		if req.CapturedAt != nil {
			capturedAt = *req.CapturedAt
		}
		evt := queue.Capture{
			ID:          uuid.NewString(),
			InstituteID: req.InstituteID,
			ImageURL:    req.ImageURL,
			CapturedAt:  capturedAt,
		}
		if err := q.Publish(c.Request.Context(), evt); err != nil {
			log.Printf("queue publish failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "capture queue unavailable"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"capture_id": evt.ID})
	})

	authGroup.POST("/students", auth.RequireRole(auth.RoleFaculty, auth.RoleAdmin), func(c *gin.Context) {
		var req roster.RegisterInput
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		student, err := rosterSvc.Register(c.Request.Context(), req)
		if err != nil {
			if errors.Is(err, roster.ErrDuplicateRoll) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, student)
	})

	authGroup.POST("/students/:id/reassign", auth.RequireRole(auth.RoleFaculty, auth.RoleAdmin), func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		linked, err := rosterSvc.Reassign(c.Request.Context(), id)
		if err != nil {
			abortDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"linked_faculty": linked})
	})

	authGroup.GET("/students/:id/dashboard", func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		dash, err := presenceSvc.StudentDashboard(c.Request.Context(), id)
		if err != nil {
			abortDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, dash)
	})

	authGroup.GET("/students/:id/calendar/:year/:month", func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		year, errY := strconv.Atoi(c.Param("year"))
		month, errM := strconv.Atoi(c.Param("month"))
		if errY != nil || errM != nil || month < 1 || month > 12 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year or month"})
			return
		}
		cal, err := presenceSvc.Calendar(c.Request.Context(), id, year, time.Month(month))
		if err != nil {
			abortDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, cal)
	})

	authGroup.GET("/students/:id/records", func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		now := time.Now()
		year := intQuery(c, "year", now.Year())
		month := intQuery(c, "month", int(now.Month()))
		if month < 1 || month > 12 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
			return
		}
		page, err := presenceSvc.Records(c.Request.Context(), id, year, time.Month(month),
			intQuery(c, "page", 1), intQuery(c, "limit", 10))
		if err != nil {
			abortDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	})

	authGroup.GET("/faculty/:id/dashboard", auth.RequireRole(auth.RoleFaculty, auth.RoleAdmin), func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		dash, err := presenceSvc.FacultyDashboard(c.Request.Context(), id)
		if err != nil {
			abortDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, dash)
	})

	authGroup.GET("/institutes/:id/dashboard", auth.RequireRole(auth.RoleAdmin), func(c *gin.Context) {
		dash, err := presenceSvc.InstituteDashboard(c.Request.Context(), c.Param("id"))
		if err != nil {
			abortDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, dash)
	})

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// abortDomainError maps engine errors onto HTTP statuses. Unknown entities
// are 404, caller bugs like inverted ranges are 400, the rest is 500.
func abortDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, roster.ErrUnknownStudent), errors.Is(err, roster.ErrUnknownFaculty):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, inference.ErrInvalidRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
