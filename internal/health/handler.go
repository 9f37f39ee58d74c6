package health

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/translation-sim/internal/ratelimit"
)

// Checker defines the interface for checking store health.
type Checker interface {
	Ping(ctx context.Context) error
}

// RedisChecker adapts a Redis client to Checker.
type RedisChecker struct {
	client redis.UniversalClient
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Handler handles liveness and readiness checks.
type Handler struct {
	store Checker
}

// NewHandler creates a new health handler.
func NewHandler(store Checker) *Handler {
	return &Handler{store: store}
}

// LiveResponse is the response for the liveness endpoint.
type LiveResponse struct {
	Body struct {
		Status string `example:"ok" json:"status"`
	}
}

// ReadyResponse is the response for the readiness endpoint.
type ReadyResponse struct {
	Status int
	Body   struct {
		Status string `enum:"ok,degraded"         json:"status"`
		Store  string `enum:"healthy,unhealthy" json:"store"`
	}
}

// Live reports that the process is serving requests.
func (h *Handler) Live(_ context.Context, _ *struct{}) (*LiveResponse, error) {
	resp := &LiveResponse{}
	resp.Body.Status = "ok"

	return resp, nil
}

// Ready reports whether the backing store is reachable.
func (h *Handler) Ready(ctx context.Context, _ *struct{}) (*ReadyResponse, error) {
	resp := &ReadyResponse{Status: http.StatusOK}
	resp.Body.Status = "ok"
	resp.Body.Store = "healthy"

	if err := h.store.Ping(ctx); err != nil {
		resp.Status = http.StatusServiceUnavailable
		resp.Body.Status = "degraded"
		resp.Body.Store = "unhealthy"
	}

	return resp, nil
}

// RegisterRoutes registers health check routes. Readiness is exempt from
// rate limiting so probes never lock a client out.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Liveness check",
		Tags:        []string{"Service"},
	}, h.Live)

	huma.Register(api, huma.Operation{
		OperationID: "get-ready",
		Method:      http.MethodGet,
		Path:        "/ready",
		Summary:     "Readiness check",
		Tags:        []string{"Service"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Disabled: true},
		},
	}, h.Ready)
}
