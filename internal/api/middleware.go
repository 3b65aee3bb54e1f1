package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"framework-search/internal/common/config"
	apperrors "framework-search/internal/common/errors"
	"framework-search/internal/common/logger"
	"framework-search/internal/common/metrics"
	"framework-search/internal/models"
)

const (
	contextUserKey      = "user"
	contextRequestIDKey = "requestID"
	headerRequestID     = "X-Request-ID"

	msgSurveyRequired = "Permission denied. Please complete the survey"
	msgStaffRequired  = "You do not have permission to perform this action."
)

// RequestID tags every request with an id, reusing the caller's when sent.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(contextRequestIDKey, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// RequestLogger logs each request with its latency and counts it.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()

		fields := map[string]interface{}{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    status,
			"latencyMs": time.Since(start).Milliseconds(),
			"clientIp":  c.ClientIP(),
			"requestId": c.GetString(contextRequestIDKey),
		}
		if status >= 500 {
			log.Error("HTTP request", fields)
			return
		}
		log.Info("HTTP request", fields)
	}
}

// Claims carried by access tokens.
type Claims struct {
	UserID            int64 `json:"user_id"`
	IsStaff           bool  `json:"is_staff"`
	IsSurveyCompleted bool  `json:"is_survey_completed"`
	jwt.RegisteredClaims
}

// AuthRequired validates the bearer token and stores the caller.
func AuthRequired(cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abort(c, apperrors.NewUnauthorizedError("missing bearer token"))
			return
		}

		claims, err := parseClaims(raw, cfg)
		if err != nil {
			abort(c, apperrors.NewUnauthorizedError(err.Error()))
			return
		}

		c.Set(contextUserKey, models.User{
			ID:                claims.UserID,
			IsStaff:           claims.IsStaff,
			IsSurveyCompleted: claims.IsSurveyCompleted,
		})
		c.Next()
	}
}

// RequireSurvey admits staff and users who completed the survey.
func RequireSurvey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentUser(c).CanSearch() {
			abort(c, apperrors.NewForbiddenError(msgSurveyRequired))
			return
		}
		c.Next()
	}
}

func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentUser(c).IsStaff {
			abort(c, apperrors.NewForbiddenError(msgStaffRequired))
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) models.User {
	if v, ok := c.Get(contextUserKey); ok {
		if user, ok := v.(models.User); ok {
			return user
		}
	}
	return models.User{}
}

func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return raw, raw != ""
}

func parseClaims(raw string, cfg config.AuthConfig) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.JWTIssuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID <= 0 {
		return nil, errors.New("token has no user_id")
	}
	return claims, nil
}

// IPRateLimiter limits requests per client IP.
type IPRateLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
}

func NewIPRateLimiter(rps float64, burst int) *IPRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &IPRateLimiter{rate: rate.Limit(rps), burst: burst}
}

func (l *IPRateLimiter) limiter(ip string) *rate.Limiter {
	if existing, ok := l.limiters.Load(ip); ok {
		return existing.(*rate.Limiter)
	}
	created, _ := l.limiters.LoadOrStore(ip, rate.NewLimiter(l.rate, l.burst))
	return created.(*rate.Limiter)
}

func (l *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.limiter(c.ClientIP()).Allow() {
			abort(c, apperrors.NewRateLimitedError())
			return
		}
		c.Next()
	}
}
