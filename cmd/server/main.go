package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/escrowworks/trustmeter/internal/cache"
	"github.com/escrowworks/trustmeter/internal/database"
	"github.com/escrowworks/trustmeter/internal/errors"
	"github.com/escrowworks/trustmeter/internal/monitoring"
	"github.com/escrowworks/trustmeter/internal/ratelimit"
	"github.com/escrowworks/trustmeter/internal/scoring"
	"github.com/escrowworks/trustmeter/internal/security"
	"github.com/escrowworks/trustmeter/internal/types"
)

// scoreEndpointLimitPerMin caps ad-hoc score computations per IP. It is
// tighter than the global IP limit.
const scoreEndpointLimitPerMin = 30

// serverDeps bundles everything the router needs so tests can assemble the
// same routes against a temporary database.
type serverDeps struct {
	db       *database.DB
	service  *database.ProjectService
	metrics  *monitoring.Metrics
	logger   *monitoring.Logger
	cache    *cache.Cache
	limiter  *ratelimit.RateLimiter
	security *security.SecurityMiddleware
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Configuration from environment with defaults
	dataDir := getEnvOrDefault("DATA_DIR", "./data")
	port := getEnvOrDefault("PORT", "8080")
	redisAddr := os.Getenv("REDIS_ADDR")
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := getEnvIntOrDefault("REDIS_DB", 0)
	retentionDays := getEnvIntOrDefault("SNAPSHOT_RETENTION_DAYS", 365)

	db, err := database.NewDB(dataDir)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer errors.SafeClose(db, "database")

	repo := database.NewRepository(db)
	service := database.NewProjectService(repo)

	appMetrics := monitoring.NewMetrics()
	appLogger := monitoring.NewLogger()

	// Score responses age with the clock, so keep the TTL short
	appCache := cache.NewCache(1 * time.Minute)

	redisClient, err := ratelimit.NewRedisClient(redisAddr, redisPassword, redisDB)
	if err != nil {
		slog.Warn("Redis unavailable, continuing with in-memory rate limiting", "error", err)
	}
	defer errors.SafeClose(redisClient, "redis")

	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.DefaultConfig(), appMetrics)

	securityMiddleware := security.NewSecurityMiddleware(security.DefaultSecurityConfig())

	deps := &serverDeps{
		db:       db,
		service:  service,
		metrics:  appMetrics,
		logger:   appLogger,
		cache:    appCache,
		limiter:  limiter,
		security: securityMiddleware,
	}

	r := setupRouter(deps)

	// Daily retention sweep over old score snapshots
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			if _, err := service.PurgeOldSnapshots(retentionDays); err != nil {
				slog.Error("Snapshot retention sweep failed", "error", err)
			}
		}
	}()

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

// setupRouter wires middleware and routes onto a fresh engine.
func setupRouter(deps *serverDeps) *gin.Engine {
	r := gin.New()

	r.Use(monitoring.MonitoringMiddleware(deps.metrics, deps.logger))
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())

	r.Use(security.SecurityHeadersMiddleware())
	r.Use(deps.security.RequestTimeout)
	r.Use(deps.security.ValidateContentType)
	r.Use(deps.security.LimitBodySize)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = deps.security.Config().AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Cache-Control", "X-Requested-With"}
	r.Use(cors.New(corsConfig))

	r.Use(deps.limiter.IPRateLimitMiddleware())
	r.Use(deps.cache.Middleware(deps.metrics))

	r.POST("/score",
		deps.limiter.EndpointRateLimitMiddleware("score", scoreEndpointLimitPerMin),
		deps.handleScore)

	r.POST("/projects", deps.handleCreateProject)
	r.GET("/projects", deps.handleListProjects)
	r.GET("/projects/:id", deps.handleGetProject)
	r.PUT("/projects/:id", deps.handleUpdateProject)
	r.DELETE("/projects/:id", deps.handleDeleteProject)
	r.POST("/projects/:id/score", deps.handleScoreProject)
	r.GET("/projects/:id/scores", deps.handleScoreHistory)

	r.GET("/rankings", deps.handleRankings)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   "1.0.0",
			"metrics":   deps.metrics.GetStats(),
		})
	})

	r.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, deps.metrics.GetStats())
	})

	r.GET("/cache/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, deps.cache.Stats())
	})

	r.GET("/ratelimit/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"limiter": deps.limiter.GetStats(),
			"blocks":  deps.metrics.GetRateLimitStats(),
		})
	})

	r.GET("/pools/database", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"pool":  "database",
			"stats": deps.db.GetPoolStats(),
		})
	})

	// Swagger documentation routes
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Performance profiling endpoints (development only)
	if os.Getenv("ENABLE_PROFILING") == "true" {
		slog.Info("Enabling performance profiling endpoints")
		r.GET("/debug/pprof/*filepath", gin.WrapF(pprof.Index))
		r.GET("/debug/pprof/cmdline", gin.WrapF(pprof.Cmdline))
		r.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
		r.GET("/debug/pprof/symbol", gin.WrapF(pprof.Symbol))
		r.GET("/debug/pprof/trace", gin.WrapF(pprof.Trace))
	}

	return r
}

// handleScore evaluates a raw project record without persisting anything.
func (deps *serverDeps) handleScore(c *gin.Context) {
	start := time.Now()

	var record scoring.ProjectRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		appErr := errors.NewValidationError("invalid project record", err.Error())
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	combined := scoring.CalculateScores(record)
	deps.metrics.IncrementScoreComputation()

	deps.logger.ScoreLogger("", combined.MScore.Score, combined.SScore.Score,
		len(combined.MScore.Warnings)+len(combined.SScore.Warnings), time.Since(start), false)

	c.JSON(http.StatusOK, types.ScoreResponse{
		MScore:   combined.MScore,
		SScore:   combined.SScore,
		ScoredAt: time.Now().UTC(),
	})
}

func (deps *serverDeps) handleCreateProject(c *gin.Context) {
	var req types.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.NewValidationError("invalid project payload", err.Error())
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	project, err := deps.service.CreateProject(req.Name, req.Record)
	if err != nil {
		appErr := errors.NewValidationError(err.Error())
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusCreated, types.ProjectResponse{Project: project})
}

func (deps *serverDeps) handleListProjects(c *gin.Context) {
	limit := queryInt(c, "limit", 50)

	projects, err := deps.service.ListProjects(limit)
	if err != nil {
		appErr := errors.NewInternalError("failed to list projects", err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusOK, types.ProjectListResponse{Projects: projects, Count: len(projects)})
}

func (deps *serverDeps) handleGetProject(c *gin.Context) {
	id := c.Param("id")

	project, err := deps.service.GetProject(id)
	if err != nil {
		deps.respondProjectError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, types.ProjectResponse{Project: project})
}

func (deps *serverDeps) handleUpdateProject(c *gin.Context) {
	id := c.Param("id")

	var req types.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.NewValidationError("invalid project payload", err.Error())
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		appErr := errors.NewValidationError("project name is required")
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	project, err := deps.service.UpdateProject(id, req.Name, req.Record)
	if err != nil {
		deps.respondProjectError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, types.ProjectResponse{Project: project})
}

func (deps *serverDeps) handleDeleteProject(c *gin.Context) {
	id := c.Param("id")

	if err := deps.service.DeleteProject(id); err != nil {
		deps.respondProjectError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// handleScoreProject evaluates a stored project and appends a snapshot.
func (deps *serverDeps) handleScoreProject(c *gin.Context) {
	start := time.Now()
	id := c.Param("id")

	snapshot, err := deps.service.ScoreProject(id)
	if err != nil {
		deps.respondProjectError(c, id, err)
		return
	}

	deps.metrics.IncrementScoreComputation()
	deps.logger.ScoreLogger(id, snapshot.MScore.Score, snapshot.SScore.Score,
		len(snapshot.MScore.Warnings)+len(snapshot.SScore.Warnings), time.Since(start), false)

	c.JSON(http.StatusOK, types.ScoreResponse{
		ProjectID: id,
		MScore:    snapshot.MScore,
		SScore:    snapshot.SScore,
		ScoredAt:  snapshot.CreatedAt,
	})
}

func (deps *serverDeps) handleScoreHistory(c *gin.Context) {
	id := c.Param("id")
	limit := queryInt(c, "limit", 50)

	snapshots, err := deps.service.GetScoreHistory(id, limit)
	if err != nil {
		deps.respondProjectError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, types.ScoreHistoryResponse{
		ProjectID: id,
		Snapshots: snapshots,
		Count:     len(snapshots),
	})
}

func (deps *serverDeps) handleRankings(c *gin.Context) {
	limit := queryInt(c, "limit", 20)

	entries, err := deps.service.Rankings(limit)
	if err != nil {
		appErr := errors.NewInternalError("failed to load rankings", err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusOK, types.RankingsResponse{Rankings: entries, Count: len(entries)})
}

// respondProjectError maps repository errors onto HTTP responses.
func (deps *serverDeps) respondProjectError(c *gin.Context, id string, err error) {
	var appErr *errors.AppError
	switch {
	case err == database.ErrNotFound:
		appErr = errors.NewNotFoundError("project", id)
	default:
		appErr = errors.ToAppError(err)
	}

	errors.LogError(c, appErr)
	c.JSON(appErr.HTTPStatus, appErr)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	if raw := c.Query(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 100 {
			return v
		}
	}
	return fallback
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultValue
}
