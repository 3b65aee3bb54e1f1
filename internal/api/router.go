package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"framework-search/internal/common/config"
	"framework-search/internal/common/logger"
)

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Auth        config.AuthConfig
	RateLimit   config.RateLimitConfig
	CORSOrigins []string
	Checks      map[string]Pinger
}

func NewRouter(cfg RouterConfig, h *Handler, log logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestID())
	engine.Use(RequestLogger(log))
	if len(cfg.CORSOrigins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Authorization", "Content-Type", headerRequestID},
			ExposeHeaders:    []string{headerRequestID},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/ready", readiness(cfg.Checks))
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/api/v1")
	auth := AuthRequired(cfg.Auth)

	consumer := v1.Group("/search", auth, RequireSurvey())
	consumer.POST("/", h.Search)
	suggest := consumer.Group("")
	if cfg.RateLimit.SuggestRPS > 0 {
		suggest.Use(NewIPRateLimiter(cfg.RateLimit.SuggestRPS, cfg.RateLimit.SuggestBurst).Middleware())
	}
	suggest.POST("/names-suggest", h.NamesSuggest)
	suggest.POST("/numbers-suggest", h.NumbersSuggest)
	consumer.GET("/framework-values", h.FrameworkValues)
	consumer.GET("/filter-form-data", h.FilterFormData)
	consumer.POST("/search-form-data", h.SearchFormData)
	consumer.GET("/framework-detail/:framework_id", h.FrameworkDetail)
	consumer.GET("/preferences", h.ListPreferences)
	consumer.POST("/preferences", h.CreatePreference)
	consumer.DELETE("/preferences/:framework_id", h.DeletePreference)

	admin := v1.Group("/admin", auth)
	admin.GET("/framework/:framework_id", RequireSurvey(), h.AdminFrameworkDetail)
	staff := admin.Group("", RequireStaff())
	staff.POST("/admin-search", h.AdminSearch)
	staff.POST("/volume-data", h.SearchVolume)
	staff.POST("/top-searches", h.TopSearches)
	staff.POST("/top-industries", h.TopIndustries)

	return engine
}

func readiness(checks map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check.Ping(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		c.JSON(status, gin.H{"checks": results})
	}
}
