package server

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ledgerline/invoicer/internal/actorctx"
	"go.uber.org/zap"
)

const (
	headerRequestID  = "X-Request-ID"
	headerRetryAfter = "Retry-After"
	contextActorKey  = "actor"
	bearerPrefix     = "Bearer "
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader(headerRequestID))
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(headerRequestID, rid)
		c.Set("request_id", rid)
		c.Next()
	}
}

func (s *Server) RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		s.metrics.ObserveRequest(c.Request.Method, route, c.Writer.Status(), elapsed)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", elapsed),
			zap.String("request_id", c.GetString("request_id")),
		}
		if last := c.Errors.Last(); last != nil {
			fields = append(fields, zap.Error(last.Err))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.log.Error("request", fields...)
			return
		}
		s.log.Info("request", fields...)
	}
}

// AuthRequired resolves the bearer token and stores the acting identity on
// both the gin context and the request context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(header, bearerPrefix) {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		actor, err := s.identitySvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextActorKey, actor)
		c.Request = c.Request.WithContext(actorctx.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// RateLimit throttles per caller, keyed by user when authenticated and by
// client IP otherwise. It fails open on limiter errors.
func (s *Server) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() {
			c.Next()
			return
		}

		caller := c.ClientIP()
		if actor, ok := actorctx.ActorFromContext(c.Request.Context()); ok {
			caller = "user:" + actor.UserID.String()
		}

		res, err := s.limiter.Allow(c.Request.Context(), caller)
		if err != nil {
			s.log.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !res.Allowed {
			if res.RetryAfter > 0 {
				c.Header(headerRetryAfter, strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: errorPayload{
				Type:    "rate_limited",
				Message: "too many requests",
			}})
			return
		}
		c.Next()
	}
}
