package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/pkg/logger"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	IdempotencyKeyHeader     = "X-Idempotency-Key"
	ContextKeyIdempotencyKey = "idempotency_key"
	idempotencyKeyPrefix     = "idempotency:"
)

type idempotencyState string

const (
	stateProcessing idempotencyState = "processing"
	stateCompleted  idempotencyState = "completed"
)

// idempotencyRecord is the cached outcome of a keyed write request
type idempotencyRecord struct {
	State       idempotencyState `json:"state"`
	RequestHash string           `json:"request_hash"`
	StatusCode  int              `json:"status_code,omitempty"`
	Body        []byte           `json:"body,omitempty"`
}

// IdempotencyStore is the subset of redis commands the middleware needs
type IdempotencyStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// IdempotencyConfig configures IdempotencyMiddleware
type IdempotencyConfig struct {
	Store IdempotencyStore
	// TTL applies to completed responses
	TTL time.Duration
	// ProcessingTTL bounds how long an in-flight marker blocks retries
	ProcessingTTL time.Duration
	// Required rejects requests without the header
	Required bool
}

// IdempotencyMiddleware replays the stored response when a client retries a write with the
// same X-Idempotency-Key. Keys are scoped by tenant and user. A key reused with a
// different body gets 422. A key still being processed gets 409.
// Redis failures let the request through.
func IdempotencyMiddleware(cfg *IdempotencyConfig) gin.HandlerFunc {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	processingTTL := cfg.ProcessingTTL
	if processingTTL <= 0 {
		processingTTL = time.Minute
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			if cfg.Required {
				c.AbortWithStatusJSON(http.StatusBadRequest, response.BadRequest("X-Idempotency-Key header is required"))
				return
			}
			c.Next()
			return
		}
		c.Set(ContextKeyIdempotencyKey, key)

		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		tenantID, _ := GetTenantID(c)
		userID, _ := GetUserID(c)
		storeKey := idempotencyKeyPrefix + tenantID + ":" + userID + ":" + key
		hash := requestHash(c.Request.Method, c.Request.URL.Path, body)
		ctx := c.Request.Context()

		marker, _ := json.Marshal(idempotencyRecord{State: stateProcessing, RequestHash: hash})
		acquired, err := cfg.Store.SetNX(ctx, storeKey, marker, processingTTL).Result()
		if err != nil {
			logger.Get().WarnContext(ctx, "idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}

		if !acquired {
			existing, err := loadRecord(ctx, cfg.Store, storeKey)
			if err != nil {
				// marker expired between SETNX and GET
				c.Next()
				return
			}
			switch {
			case existing.RequestHash != hash:
				c.AbortWithStatusJSON(http.StatusUnprocessableEntity, response.Error(response.ErrCodeConflict, "X-Idempotency-Key was already used with a different request"))
			case existing.State == stateProcessing:
				c.AbortWithStatusJSON(http.StatusConflict, response.Error(response.ErrCodeIdempotencyInUse, "A request with this X-Idempotency-Key is still being processed"))
			default:
				c.Header("Idempotent-Replayed", "true")
				c.Data(existing.StatusCode, "application/json; charset=utf-8", existing.Body)
				c.Abort()
			}
			return
		}

		capture := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = capture
		c.Next()

		status := capture.Status()
		// 5xx responses are not cached so the client can retry
		if status >= http.StatusInternalServerError {
			_ = cfg.Store.Del(ctx, storeKey).Err()
			return
		}
		done, _ := json.Marshal(idempotencyRecord{
			State:       stateCompleted,
			RequestHash: hash,
			StatusCode:  status,
			Body:        capture.body.Bytes(),
		})
		if err := cfg.Store.Set(ctx, storeKey, done, ttl).Err(); err != nil {
			logger.Get().WarnContext(ctx, "failed to store idempotent response", zap.Error(err))
		}
	}
}

// GetIdempotencyKey returns the key of the current request, if any
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	return c.GetString(ContextKeyIdempotencyKey), c.GetString(ContextKeyIdempotencyKey) != ""
}

type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

func requestHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func loadRecord(ctx context.Context, store IdempotencyStore, key string) (*idempotencyRecord, error) {
	raw, err := store.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}
	var rec idempotencyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, errors.New("corrupt idempotency record")
	}
	return &rec, nil
}
