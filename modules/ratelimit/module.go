package ratelimit

import (
	"context"
	"fmt"

	"github.com/example/todo-app/config"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Module owns the Redis client behind the API rate limiter. Without a
// configured Redis address it stays disabled and Middleware passes through.
type Module struct {
	cfg     config.RateLimitConfig
	client  *redis.Client
	limiter *SlidingWindowLimiter
	handler fiber.Handler
	logger  types.Logger
}

var (
	_ mono.Module                = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

func NewModule(cfg config.RateLimitConfig, logger types.Logger) *Module {
	return &Module{
		cfg:    cfg,
		logger: logger,
	}
}

func (m *Module) Name() string {
	return "rate-limiter"
}

// Start connects to Redis when enabled.
func (m *Module) Start(ctx context.Context) error {
	if !m.cfg.Enabled() {
		m.logger.Info("Rate limiting disabled, REDIS_ADDR not set")
		return nil
	}

	m.client = redis.NewClient(&redis.Options{
		Addr:     m.cfg.RedisAddr,
		Password: m.cfg.RedisPassword,
	})
	if err := m.client.Ping(ctx).Err(); err != nil {
		_ = m.client.Close()
		m.client = nil
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	m.limiter = NewSlidingWindowLimiter(m.client, m.cfg.Requests, m.cfg.Window, m.cfg.KeyPrefix)
	m.handler = Handler(m.limiter)
	m.logger.Info("Rate limiting enabled", "redis", m.cfg.RedisAddr, "requests", m.cfg.Requests, "window", m.cfg.Window.String())
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	if m.client != nil {
		if err := m.client.Close(); err != nil {
			m.logger.Warn("Error closing Redis connection", "error", err)
		}
	}
	m.logger.Info("Rate limiter stopped")
	return nil
}

func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.client == nil {
		return mono.HealthStatus{
			Healthy: true,
			Message: "disabled",
		}
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"requests": m.cfg.Requests,
			"window":   m.cfg.Window.String(),
		},
	}
}

// Middleware limits requests per IP once Start has connected to Redis and
// passes everything through otherwise.
func (m *Module) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.handler == nil {
			return c.Next()
		}
		return m.handler(c)
	}
}
