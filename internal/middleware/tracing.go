package middleware

import (
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// normalizePathForSpan mirrors normalizePathForMetrics but also
// surfaces the path parameter as a span event rather than folding it
// into the span name, keeping span cardinality low.
func normalizePathForSpan(path string) (normalizedPath string, param string) {
	for _, prefix := range []string{"/sale/", "/stats/", "/user/"} {
		if strings.HasPrefix(path, prefix) {
			return prefix + "{id}", path[len(prefix):]
		}
	}
	return path, ""
}

// TracingMiddleware starts a server span per HTTP request, extracting
// any upstream trace context first.
func TracingMiddleware(next http.Handler) http.Handler {
	tracer := otel.Tracer("flash-sale-http")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		normalizedPath, param := normalizePathForSpan(r.URL.Path)
		spanName := r.Method + " " + normalizedPath

		ctx, span := tracer.Start(ctx, spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", normalizedPath),
				attribute.String("http.target", r.URL.Path),
			),
		)
		defer span.End()

		if param != "" {
			span.AddEvent("request.path_param", trace.WithAttributes(attribute.String("value", param)))
		}

		rw := &tracingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.status_code", rw.statusCode))
		if rw.statusCode >= 400 {
			span.SetAttributes(attribute.Bool("error", true))
		}
	})
}

type tracingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *tracingResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
