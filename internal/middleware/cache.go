package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/stegverse/cfp-tickets/internal/config"
)

// cachedResponse is what the cache stores per key.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// recorder tees the response body into a bounded buffer.
type recorder struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (r *recorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	if !r.overflow {
		if r.limit > 0 && r.buf.Len()+len(b) > r.limit {
			r.overflow = true
			r.buf.Reset()
		} else {
			r.buf.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}

// ResponseCache serves repeated requests from Redis.  Only 200 responses no
// larger than cfg.MaxBodyBytes are stored.  X-Cache reports HIT or MISS.
func ResponseCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[c.Request().Method] {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cacheKey(cfg, c)

			if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var hit cachedResponse
				if json.Unmarshal(raw, &hit) == nil {
					for k, vals := range hit.Header {
						if strings.EqualFold(k, echo.HeaderContentLength) {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					return c.Blob(hit.Status, hit.Header.Get(echo.HeaderContentType), hit.Body)
				}
			}

			rec := &recorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || rec.overflow {
				return nil
			}

			hdr := c.Response().Header().Clone()
			hdr.Del("X-Cache")
			payload, err := json.Marshal(cachedResponse{Status: rec.status, Header: hdr, Body: rec.buf.Bytes()})
			if err != nil {
				return nil
			}
			if err := rdb.Set(context.WithoutCancel(ctx), key, payload, cfg.TTL).Err(); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("cache: store failed")
			}
			return nil
		}
	}
}

func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	var tail string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		tail = "route:" + c.Path()
	case "method_route_query":
		tail = "method:" + r.Method + ":route:" + c.Path() + ":q:" + r.URL.RawQuery
	default:
		tail = "route:" + c.Path() + ":q:" + r.URL.RawQuery
	}
	return fmt.Sprintf("%s:%x", cfg.Prefix, sha1.Sum([]byte(tail)))
}
