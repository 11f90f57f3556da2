package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fahrerexpress/pkg/apperrors"
	"fahrerexpress/pkg/logger"
	"fahrerexpress/pkg/metrics"
	"fahrerexpress/pkg/models"
)

const identityKey = "identity"

func (h *Handler) cors(c *gin.Context) {
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
	if c.Request.Method == "OPTIONS" {
		c.AbortWithStatus(204)
		return
	}
	c.Next()
}

func (h *Handler) observe(c *gin.Context) {
	start := time.Now()
	c.Next()

	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	status := strconv.Itoa(c.Writer.Status())
	metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())

	h.log.Debug("http_request",
		logger.String("method", c.Request.Method),
		logger.String("route", route),
		logger.Int("status", c.Writer.Status()),
		logger.Duration("duration", time.Since(start)),
	)
}

// requireAdmin runs the role guard on every request; nothing is cached.
func (h *Handler) requireAdmin(c *gin.Context) {
	identity, err := h.guard.Authorize(c.Request.Context(), c.GetHeader("Authorization"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Set(identityKey, *identity)
	c.Next()
}

func adminFrom(c *gin.Context) models.Identity {
	v, _ := c.Get(identityKey)
	identity, _ := v.(models.Identity)
	return identity
}

// rateLimit fails open when the limiter backend is unavailable.
func (h *Handler) rateLimit(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := h.limiter.Allow(c.Request.Context(), name+":"+c.ClientIP())
		if err != nil {
			h.log.Warning("rate limiter unavailable", logger.String("route", name), logger.Error(err))
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(429, errorResponse{Success: false, Error: "too many requests", Code: "rate_limited"})
			return
		}
		c.Next()
	}
}

func (h *Handler) abortWithError(c *gin.Context, err error) {
	code := apperrors.CodeOf(err)
	if code == apperrors.CodeInternal {
		h.log.Error("request failed",
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Error(err),
		)
	}
	c.AbortWithStatusJSON(code.HTTPStatus(), errorResponse{
		Success: false,
		Error:   apperrors.PublicMessage(err),
		Code:    string(code),
	})
}
