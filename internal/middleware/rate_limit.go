package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/deppfellow/classroom/internal/config"
	"github.com/deppfellow/classroom/internal/errs"
	"github.com/deppfellow/classroom/internal/server"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Counter counts hits per key in fixed windows.
type Counter interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Policy is a named limit of Limit requests per Window.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
	Key    func(c echo.Context) string
}

var (
	AuthPolicy               = Policy{Name: "auth", Limit: 10, Window: time.Minute, Key: emailOrIP}
	CreateClassPolicy        = Policy{Name: "create-class", Limit: 20, Window: time.Minute, Key: userOrIP}
	CreateAnnouncementPolicy = Policy{Name: "create-announcement", Limit: 20, Window: time.Minute, Key: userOrIP}
	AddCommentPolicy         = Policy{Name: "add-comment", Limit: 30, Window: time.Minute, Key: userOrIP}
	BatchGradePolicy         = Policy{Name: "batch-grade", Limit: 10, Window: time.Minute, Key: userOrIP}
)

const redisCounterTimeout = 500 * time.Millisecond

type RateLimitMiddleware struct {
	server  *server.Server
	counter Counter
}

// NewRateLimitMiddleware uses counter when the Redis store is configured and
// counter is not nil, and echo's in-memory store otherwise.
func NewRateLimitMiddleware(s *server.Server, counter Counter) *RateLimitMiddleware {
	if s.Config.RateLimit.Store != config.RateLimitStoreRedis {
		counter = nil
	}
	return &RateLimitMiddleware{
		server:  s,
		counter: counter,
	}
}

// RecordRateLimitHit records a RateLimitHit event in New Relic.
func (r *RateLimitMiddleware) RecordRateLimitHit(endpoint string) {
	if r.server.LoggerService != nil && r.server.LoggerService.GetApplication() != nil {
		r.server.LoggerService.GetApplication().RecordCustomEvent("RateLimitHit", map[string]interface{}{
			"endpoint": endpoint,
		})
	}
}

// Global limits every request per client IP. A zero limit disables it.
func (r *RateLimitMiddleware) Global() echo.MiddlewareFunc {
	perMinute := r.server.Config.RateLimit.GlobalPerMinute
	if perMinute <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}
	return r.Limit(Policy{
		Name:   "global",
		Limit:  perMinute,
		Window: time.Minute,
		Key:    func(c echo.Context) string { return c.RealIP() },
	})
}

func (r *RateLimitMiddleware) Limit(policy Policy) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: r.store(policy),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return policy.Name + ":" + policy.Key(c), nil
		},
		DenyHandler: func(c echo.Context, identifier string, _ error) error {
			GetLogger(c).Warn().
				Str("policy", policy.Name).
				Str("identifier", identifier).
				Msg("rate limit exceeded")
			r.RecordRateLimitHit(policy.Name)

			c.Response().Header().Set("Retry-After", strconv.Itoa(int(policy.Window.Seconds())))
			return errs.NewTooManyRequestsError("Too many requests. Please try again later.")
		},
	})
}

func (r *RateLimitMiddleware) store(policy Policy) middleware.RateLimiterStore {
	if r.counter != nil {
		return &counterStore{
			counter: r.counter,
			limit:   int64(policy.Limit),
			window:  policy.Window,
			logger:  r.server.Logger,
		}
	}

	return middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Every(policy.Window / time.Duration(policy.Limit)),
		Burst:     policy.Limit,
		ExpiresIn: policy.Window * 3,
	})
}

// counterStore is a fixed window limiter over a Counter. Counter failures
// let the request through.
type counterStore struct {
	counter Counter
	limit   int64
	window  time.Duration
	logger  *zerolog.Logger
}

func (s *counterStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisCounterTimeout)
	defer cancel()

	count, err := s.counter.Increment(ctx, identifier, s.window)
	if err != nil {
		s.logger.Warn().Err(err).Str("identifier", identifier).Msg("rate limit store unavailable, allowing request")
		return true, nil
	}
	return count <= s.limit, nil
}

func userOrIP(c echo.Context) string {
	if userID := GetUserID(c); userID != 0 {
		return "user:" + strconv.FormatInt(userID, 10)
	}
	return "ip:" + c.RealIP()
}

// emailOrIP reads the email of a login or register body without consuming it.
func emailOrIP(c echo.Context) string {
	if email := peekEmail(c); email != "" {
		return "email:" + email
	}
	return "ip:" + c.RealIP()
}

func peekEmail(c echo.Context) string {
	req := c.Request()
	if !strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return strings.ToLower(strings.TrimSpace(c.FormValue("email")))
	}
	if req.Body == nil {
		return ""
	}

	body, err := io.ReadAll(req.Body)
	req.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var payload struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(payload.Email))
}
