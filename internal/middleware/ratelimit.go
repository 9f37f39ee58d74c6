package middleware

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/translation-sim/internal/ratelimit"
	"go.uber.org/zap"
)

// RateLimitExceededDetail is the detail returned with every 429 response.
const RateLimitExceededDetail = "Rate limit exceeded. Try again later."

type rateLimitedBody struct {
	Detail string `json:"detail"`
}

// RateLimiter returns a Huma middleware that limits requests per client
// address. Operations marked with ratelimit.EndpointConfig{Disabled: true}
// bypass it.
func RateLimiter(
	api huma.API,
	limiter ratelimit.Limiter,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if ratelimit.Exempt(ctx) {
			next(ctx)

			return
		}

		client := clientAddr(ctx)

		decision, err := limiter.Allow(ctx.Context(), client)
		if err != nil {
			logger.Error("rate limit check failed",
				zap.String("path", operationPath(ctx)),
				zap.String("client_ip", client),
				zap.Error(err),
			)
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)

			return
		}

		if !decision.Allowed {
			logger.Warn("rate limit exceeded",
				zap.String("client_ip", client),
				zap.String("path", operationPath(ctx)),
				zap.Int64("count", decision.Count),
				zap.Int64("max", decision.Limit),
				zap.Duration("window", decision.Window),
			)
			writeRateLimited(ctx)

			return
		}

		next(ctx)
	}
}

// clientAddr returns the host part of the connection's remote address.
// Forwarding headers are ignored.
func clientAddr(ctx huma.Context) string {
	addr := ctx.RemoteAddr()

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	return host
}

// operationPath extracts the route template, if available.
func operationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ""
}

// writeRateLimited writes the 429 body as a plain {"detail": ...} object,
// the shape existing clients of the simulator parse.
func writeRateLimited(ctx huma.Context) {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.SetStatus(http.StatusTooManyRequests)
	_ = json.NewEncoder(ctx.BodyWriter()).Encode(rateLimitedBody{Detail: RateLimitExceededDetail})
}
