// Package middleware provides the Redis response cache for the read API.
package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "fmt"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/stayflow/reservation-ingestor/internal/config"
)

// bodyCapture forwards writes to the client while keeping a copy for the
// cache.
type bodyCapture struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
}

func (w *bodyCapture) WriteHeader(code int) {
    w.status = code
    w.ResponseWriter.WriteHeader(code)
}

func (w *bodyCapture) Write(b []byte) (int, error) {
    w.buf.Write(b)
    return w.ResponseWriter.Write(b)
}

// cacheKey hashes route and query string under the configured prefix.
func cacheKey(prefix string, c echo.Context) string {
    sum := sha1.Sum([]byte(c.Path() + "?" + c.Request().URL.RawQuery))
    return fmt.Sprintf("%s:%x", prefix, sum)
}

// NewRedisCache caches successful GET responses for cfg.TTL.  When caching
// is disabled or no Redis client is available, the middleware is a
// pass-through.  Redis errors are never surfaced to the client; a miss or a
// failed store just means the handler runs again next time.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 30 * time.Second
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if c.Request().Method != http.MethodGet {
                return next(c)
            }
            key := cacheKey(cfg.Prefix, c)

            rctx, cancel := context.WithTimeout(c.Request().Context(), 150*time.Millisecond)
            body, err := rdb.Get(rctx, key).Bytes()
            cancel()
            if err == nil {
                return c.JSONBlob(http.StatusOK, body)
            }

            res := c.Response()
            capture := &bodyCapture{ResponseWriter: res.Writer, status: http.StatusOK}
            res.Writer = capture
            if err := next(c); err != nil {
                return err
            }
            if capture.status == http.StatusOK && capture.buf.Len() > 0 {
                sctx, scancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
                _ = rdb.Set(sctx, key, capture.buf.Bytes(), ttl).Err()
                scancel()
            }
            return nil
        }
    }
}
