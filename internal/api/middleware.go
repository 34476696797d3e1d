package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"go.uber.org/zap"

	"max.ks1230/spendings/internal/logger"
)

const (
	userIDKey       = "user_id"
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
	tokenQueryParam = "token"
	bearerPrefix    = "Bearer "
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// observe traces, times and logs every request.
func observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "http "+route)
		ext.HTTPMethod.Set(span, c.Request.Method)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		ext.HTTPStatusCode.Set(span, uint16(status))
		if status >= http.StatusInternalServerError {
			ext.Error.Set(span, true)
		}
		span.Finish()

		elapsed := time.Since(start)
		observeRequest(c.Request.Method, route, status, elapsed)
		logger.Info("http request",
			zap.String("requestID", c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed),
			zap.String("clientIP", c.ClientIP()),
		)
	}
}

// authenticate resolves the bearer token to a user id. Websocket clients may pass the token as a query parameter.
func authenticate(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimPrefix(c.GetHeader("Authorization"), bearerPrefix)
		if raw == "" {
			raw = c.Query(tokenQueryParam)
		}
		if raw == "" {
			abort(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		userID, err := parseToken(secret, raw)
		if err != nil {
			logger.Info("rejected token", zap.String("requestID", c.GetString(requestIDKey)), zap.Error(err))
			abort(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUser(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}
