package telemetry

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDHeader is the response header carrying the trace ID
const TraceIDHeader = "X-Trace-ID"

// TracingMiddleware returns the otelgin server middleware followed by a handler
// that exposes the trace ID to clients and to downstream handlers
func TracingMiddleware(serviceName string) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		otelgin.Middleware(serviceName),
		func(c *gin.Context) {
			sc := trace.SpanFromContext(c.Request.Context()).SpanContext()
			if sc.HasTraceID() {
				traceID := sc.TraceID().String()
				c.Header(TraceIDHeader, traceID)
				c.Set("trace_id", traceID)
			}
			c.Next()
		},
	}
}
