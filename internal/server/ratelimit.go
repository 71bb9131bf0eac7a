package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewCreateLimiter returns a token bucket admitting perSecond run creations
// with the given burst, or nil when perSecond is 0. A burst below 1 is 1.
func NewCreateLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
}

// limitCreate rejects requests with 429 while the limiter has no tokens.
func limitCreate(l *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l != nil && !l.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "run creation rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// createLimitInterceptor applies l to CreateRun only.
func createLimitInterceptor(l *rate.Limiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if l != nil && info.FullMethod == createRunMethod && !l.Allow() {
			return nil, status.Error(codes.ResourceExhausted, "run creation rate limit exceeded")
		}
		return handler(ctx, req)
	}
}
