package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	// TracerProvider overrides the global provider when set
	TracerProvider trace.TracerProvider
	Enabled        bool
}

// Tracing returns the otelgin middleware followed by one that tags the
// server span with the request id. Register both with Use after RequestID.
// JWTAuth adds the caller to the same span.
func Tracing(cfg TracingConfig) []gin.HandlerFunc {
	if !cfg.Enabled {
		return nil
	}

	var opts []otelgin.Option
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgin.WithTracerProvider(cfg.TracerProvider))
	}

	return []gin.HandlerFunc{
		otelgin.Middleware(cfg.ServiceName, opts...),
		func(c *gin.Context) {
			if id := GetRequestID(c); id != "" {
				trace.SpanFromContext(c.Request.Context()).SetAttributes(attribute.String("request_id", id))
			}
			c.Next()
		},
	}
}

// principalSpanAttributes tags the active span with the authenticated caller
func principalSpanAttributes(c *gin.Context, userID, role string) {
	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(
		attribute.String("enduser.id", userID),
		attribute.String("enduser.role", role),
	)
}
