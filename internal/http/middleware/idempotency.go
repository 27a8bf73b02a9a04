package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"skitro/internal/utils"
)

const (
	idempotencyHeader   = "Idempotency-Key"
	idempotencyLockTTL  = 30 * time.Second
	idempotencyStoreTTL = 24 * time.Hour
	processingMarker    = "PROCESSING"
)

type storedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

type captureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response for a repeated Idempotency-Key.
// Keys are scoped per caller. A nil client disables the middleware.
func Idempotency(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(idempotencyHeader))
		if rdb == nil || key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		caller, _ := Caller(c)
		idemKey := fmt.Sprintf("idempotency:%d:%s", caller.UserID, key)

		val, err := rdb.Get(ctx, idemKey).Result()
		switch {
		case err == nil && val == processingMarker:
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "concurrent request with the same key", "code": "conflict", "retryable": true})
			return
		case err == nil:
			var prev storedResponse
			if json.Unmarshal([]byte(val), &prev) == nil && prev.Status > 0 {
				c.Header("X-Idempotency-Hit", "true")
				c.Data(prev.Status, "application/json; charset=utf-8", prev.Body)
				c.Abort()
				return
			}
		case err != redis.Nil:
			utils.LogError(GetRequestID(c), "idempotency", "lookup", err)
			c.Next()
			return
		}

		acquired, err := rdb.SetNX(ctx, idemKey, processingMarker, idempotencyLockTTL).Result()
		if err != nil {
			utils.LogError(GetRequestID(c), "idempotency", "lock", err)
			c.Next()
			return
		}
		if !acquired {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "concurrent request with the same key", "code": "conflict", "retryable": true})
			return
		}

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		status := w.Status()
		body := w.buf.Bytes()
		// 5xx covers every retryable failure; those must not be pinned to the key.
		if status >= 500 || !json.Valid(body) {
			rdb.Del(ctx, idemKey)
			return
		}
		raw, _ := json.Marshal(storedResponse{Status: status, Body: json.RawMessage(body)})
		if err := rdb.Set(ctx, idemKey, raw, idempotencyStoreTTL).Err(); err != nil {
			utils.LogError(GetRequestID(c), "idempotency", "store", err)
		}
	}
}
