package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/skylight-cinema/box-office/internal/config"
	"github.com/skylight-cinema/box-office/internal/logger"
)

// NewTokenBucket rate-limits per client IP and route using a token
// bucket kept in Redis.  The refill math runs inside a Lua script so
// concurrent terminals hitting the same bucket stay consistent.
// With no Redis client the middleware is a pass-through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return func(c echo.Context) error { return next(c) } }
	}

	limiterScript := redis.NewScript(`
        local key = KEYS[1]
        local now_ms = tonumber(ARGV[1])
        local capacity = tonumber(ARGV[2])
        local refill_tokens = tonumber(ARGV[3])
        local interval_ms = tonumber(ARGV[4])
        local ttl_seconds = tonumber(ARGV[5])

        local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
        local tokens = tonumber(state[1])
        local last_refill = tonumber(state[2])

        if tokens == nil or last_refill == nil then
            tokens = capacity
            last_refill = now_ms
        end

        if interval_ms > 0 and refill_tokens > 0 then
            local elapsed = math.max(0, now_ms - last_refill)
            if elapsed >= interval_ms then
                local steps = math.floor(elapsed / interval_ms)
                tokens = math.min(capacity, tokens + steps * refill_tokens)
                last_refill = last_refill + steps * interval_ms
            end
        end

        local allowed = 0
        if tokens > 0 then
            tokens = tokens - 1
            allowed = 1
        end

        redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
        if ttl_seconds > 0 then
            redis.call('EXPIRE', key, ttl_seconds)
        end

        local retry_ms = 0
        if allowed == 0 and interval_ms > 0 and refill_tokens > 0 then
            retry_ms = interval_ms - math.max(0, now_ms - last_refill)
            if retry_ms < 0 then retry_ms = 0 end
        end

        return {allowed, tokens, retry_ms}
    `)

	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 120
	}
	interval := cfg.RefillInterval
	if interval <= 0 {
		interval = time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := fmt.Sprintf("%s:%s:%s", cfg.Prefix, c.RealIP(), c.Path())

			res, err := limiterScript.Run(ctx, rdb, []string{key},
				time.Now().UnixMilli(),
				capacity,
				cfg.RefillTokens,
				interval.Milliseconds(),
				int(cfg.TTL.Seconds()),
			).Result()
			if err != nil {
				// Redis trouble must not take the box office down.
				logger.Warn("rate limiter unavailable, allowing request",
					zap.String("key", key), zap.Error(err))
				return next(c)
			}

			vals, ok := res.([]interface{})
			if !ok || len(vals) < 3 {
				return next(c)
			}
			allowed := asInt64(vals[0]) == 1
			remaining := asInt64(vals[1])
			retryMS := asInt64(vals[2])

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if !allowed {
				retryAfter := int(math.Ceil(float64(retryMS) / 1000.0))
				if retryAfter < 1 {
					retryAfter = 1
				}
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error": "too many requests",
				})
			}
			return next(c)
		}
	}
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	case float64:
		return int64(t)
	default:
		return 0
	}
}
