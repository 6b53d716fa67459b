package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/andregamma/cinema-saas/internal/config"
)

// ResponseCache keeps catalog JSON responses in Redis. Every variant of one
// path (query string, method) lives in a single Redis hash named after the
// path, so a write that changes a screen or a movie evicts all of them with
// one DEL.
type ResponseCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
	log logrus.FieldLogger
}

// NewResponseCache returns a cache over rdb. With caching disabled or no
// client the middleware passes through and Evict does nothing.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client, log logrus.FieldLogger) *ResponseCache {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ResponseCache{cfg: cfg, rdb: rdb, log: log.WithField("component", "cache")}
}

func (rc *ResponseCache) enabled() bool { return rc.cfg.Enabled && rc.rdb != nil }

// pathKey names the hash holding every cached variant of path.
func (rc *ResponseCache) pathKey(path string) string {
	return rc.cfg.Prefix + ":" + path
}

// variant names one entry inside the path hash.
func variant(r *http.Request) string {
	return r.Method + "?" + r.URL.RawQuery
}

// cachedResponse is what gets stored per variant.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// bodyRecorder copies what the handler writes, up to limit bytes, while
// forwarding everything to the client.
type bodyRecorder struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (w *bodyRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	if !w.overflow {
		if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
			w.overflow = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

// Middleware serves cached 200 responses and stores fresh ones for the
// configured TTL. Redis errors fall through to the handler.
func (rc *ResponseCache) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if !rc.enabled() {
			return next
		}
		return func(c echo.Context) error {
			req := c.Request()
			if !rc.cfg.Methods[strings.ToUpper(req.Method)] {
				return next(c)
			}
			ctx := req.Context()
			key, field := rc.pathKey(req.URL.Path), variant(req)

			if raw, err := rc.rdb.HGet(ctx, key, field).Bytes(); err == nil {
				var hit cachedResponse
				if json.Unmarshal(raw, &hit) == nil {
					c.Response().Header().Set("X-Cache", "HIT")
					return c.Blob(hit.Status, hit.ContentType, hit.Body)
				}
			} else if err != redis.Nil {
				rc.log.WithError(err).Debug("cache read failed")
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: rc.cfg.MaxBodyBytes}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || rec.overflow {
				return nil
			}
			entry, err := json.Marshal(cachedResponse{
				Status:      rec.status,
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        rec.buf.Bytes(),
			})
			if err != nil {
				return nil
			}
			// the request may already be canceled once the body is written
			wctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			pipe := rc.rdb.TxPipeline()
			pipe.HSet(wctx, key, field, entry)
			pipe.Expire(wctx, key, rc.cfg.TTL)
			if _, err := pipe.Exec(wctx); err != nil {
				rc.log.WithError(err).WithField("key", key).Debug("cache write failed")
			}
			return nil
		}
	}
}

// Evict drops every cached variant of path.
func (rc *ResponseCache) Evict(ctx context.Context, path string) error {
	if !rc.enabled() {
		return nil
	}
	return rc.rdb.Del(ctx, rc.pathKey(path)).Err()
}
