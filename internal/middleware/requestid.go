package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/simp-lee/logger"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// RequestID tags every request with a UUID. The ID is exposed through
// GetRequestID, echoed in the X-Request-ID response header and attached to
// the request context so every log line written for the request carries it.
//
// With trustUpstream set, a well-formed UUID sent by a proxy in X-Request-ID
// is kept instead of minting a new one. Anything else is replaced.
func RequestID(trustUpstream bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := ""
		if trustUpstream {
			id = upstreamRequestID(c.GetHeader(RequestIDHeader))
		}
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(
			logger.WithContextAttrs(c.Request.Context(), slog.String(requestIDKey, id)),
		)

		c.Next()
	}
}

// upstreamRequestID returns the canonical form of raw, or "" when raw is not a UUID.
func upstreamRequestID(raw string) string {
	// uuid.Parse also accepts urn: and braced forms, which are longer.
	if len(raw) != 36 {
		return ""
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return ""
	}
	return id.String()
}

// GetRequestID returns the ID assigned by RequestID, or "" outside that middleware.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
