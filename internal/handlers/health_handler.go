package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger is anything that can report whether a backing service answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	db    Pinger
	redis Pinger
	log   *slog.Logger
}

// NewHealthHandler takes a nil redis when the cache is disabled.
func NewHealthHandler(db Pinger, redis Pinger, log *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, log: log}
}

// DatabaseHealth handles GET /database_health. Only the database decides the
// status code; a Redis failure is reported but the service still works.
func (h *HealthHandler) DatabaseHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.log.Error("database health check failed", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"OK":    false,
			"error": "Database unreachable",
		})
	}

	resp := fiber.Map{"OK": true}
	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			h.log.Warn("redis health check failed", "error", err)
			resp["cache"] = "unavailable"
		} else {
			resp["cache"] = "ok"
		}
	}
	return c.JSON(resp)
}
