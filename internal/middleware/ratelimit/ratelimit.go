// Package ratelimit provides per-IP rate limiting for the public account endpoints.
package ratelimit

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/qolzam/mailer/internal/pkg/log"
)

// EndpointLimits defines rate limiting configuration for specific endpoints
type EndpointLimits struct {
	// Login attempts: 5 per 15 minutes per IP
	LoginMaxRequests    int
	LoginWindowDuration time.Duration

	// Password reset requests: 3 per hour per IP
	PasswordResetMaxRequests    int
	PasswordResetWindowDuration time.Duration

	// Registration: 10 per hour per IP
	RegisterMaxRequests    int
	RegisterWindowDuration time.Duration
}

// DefaultEndpointLimits returns the default limits applied when none are configured.
func DefaultEndpointLimits() EndpointLimits {
	return EndpointLimits{
		LoginMaxRequests:    5,
		LoginWindowDuration: 15 * time.Minute,

		PasswordResetMaxRequests:    3,
		PasswordResetWindowDuration: time.Hour,

		RegisterMaxRequests:    10,
		RegisterWindowDuration: time.Hour,
	}
}

// EndpointType represents the account endpoints that carry their own limits
type EndpointType int

const (
	EndpointLogin EndpointType = iota
	EndpointPasswordReset
	EndpointRegister
)

// Config holds the configuration for rate limiting middleware
type Config struct {
	// Endpoint type to determine which limits to apply
	EndpointType EndpointType

	// Custom limits (optional - uses defaults if not provided)
	Limits *EndpointLimits

	// Next defines a function to skip this middleware when returned true
	Next func(c *fiber.Ctx) bool

	// Custom key generator (optional - uses default IP-based if not provided)
	KeyGenerator func(c *fiber.Ctx) string

	// LimitReached defines the response when rate limit is exceeded
	LimitReached func(c *fiber.Ctx) error
}

func configDefault(config Config) Config {
	if config.Limits == nil {
		limits := DefaultEndpointLimits()
		config.Limits = &limits
	}

	if config.KeyGenerator == nil {
		config.KeyGenerator = func(c *fiber.Ctx) string {
			return c.IP() + ":" + c.Path()
		}
	}

	if config.LimitReached == nil {
		config.LimitReached = limitReached(
			getEndpointName(config.EndpointType),
			getWindowDuration(config.EndpointType, config.Limits),
		)
	}

	return config
}

func limitReached(endpointName string, window time.Duration) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		log.Warn("[RateLimit] Rate limit exceeded for %s from IP: %s", endpointName, c.IP())

		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":      "Rate limit exceeded",
			"code":       "RATE_LIMIT_EXCEEDED",
			"message":    fmt.Sprintf("Too many %s attempts. Please try again later.", endpointName),
			"retryAfter": int(window.Seconds()),
		})
	}
}

func getEndpointName(endpointType EndpointType) string {
	switch endpointType {
	case EndpointLogin:
		return "login"
	case EndpointPasswordReset:
		return "password reset"
	case EndpointRegister:
		return "registration"
	default:
		return "unknown"
	}
}

func getMaxRequests(endpointType EndpointType, limits *EndpointLimits) int {
	switch endpointType {
	case EndpointLogin:
		return limits.LoginMaxRequests
	case EndpointPasswordReset:
		return limits.PasswordResetMaxRequests
	case EndpointRegister:
		return limits.RegisterMaxRequests
	default:
		return 5
	}
}

func getWindowDuration(endpointType EndpointType, limits *EndpointLimits) time.Duration {
	switch endpointType {
	case EndpointLogin:
		return limits.LoginWindowDuration
	case EndpointPasswordReset:
		return limits.PasswordResetWindowDuration
	case EndpointRegister:
		return limits.RegisterWindowDuration
	default:
		return 15 * time.Minute
	}
}

// New creates a new rate limiting middleware handler
func New(config Config) fiber.Handler {
	cfg := configDefault(config)

	return limiter.New(limiter.Config{
		Max:          getMaxRequests(cfg.EndpointType, cfg.Limits),
		Expiration:   getWindowDuration(cfg.EndpointType, cfg.Limits),
		KeyGenerator: cfg.KeyGenerator,
		LimitReached: cfg.LimitReached,
		Next:         cfg.Next,
	})
}

// NewWithConfig builds a limiter from configuration values.
// A disabled or non-positive limit yields a pass-through handler.
func NewWithConfig(enabled bool, max int, window time.Duration, name string) fiber.Handler {
	if !enabled || max <= 0 || window <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + ":" + c.Path()
		},
		LimitReached: limitReached(name, window),
	})
}

// NewLoginLimiter creates a rate limiter specifically for login endpoints
func NewLoginLimiter(customLimits *EndpointLimits) fiber.Handler {
	return New(Config{
		EndpointType: EndpointLogin,
		Limits:       customLimits,
	})
}

// NewPasswordResetLimiter creates a rate limiter specifically for password reset endpoints
func NewPasswordResetLimiter(customLimits *EndpointLimits) fiber.Handler {
	return New(Config{
		EndpointType: EndpointPasswordReset,
		Limits:       customLimits,
	})
}

// NewRegisterLimiter creates a rate limiter for the registration endpoint
func NewRegisterLimiter(customLimits *EndpointLimits) fiber.Handler {
	return New(Config{
		EndpointType: EndpointRegister,
		Limits:       customLimits,
	})
}
