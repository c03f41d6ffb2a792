package api

import (
	"compress/gzip"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("flowboard-api/api")

// observe wraps every API route in a span and emits one structured log
// line per request.
func (h *Handlers) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx, span := tracer.Start(req.Context(), req.Method+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer))
		span.SetAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.route", c.Path()),
		)
		c.SetRequest(req.WithContext(ctx))

		start := time.Now()
		err := next(c)
		status := c.Response().Status

		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
		span.End()

		h.Logger.WithFields(map[string]any{
			"method":   req.Method,
			"route":    c.Path(),
			"status":   status,
			"duration": time.Since(start).String(),
		}).Info("request handled")
		return err
	}
}

// DecompressRequests transparently unwraps gzip-encoded request bodies.
func DecompressRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		if !strings.EqualFold(req.Header.Get(echo.HeaderContentEncoding), "gzip") {
			return next(c)
		}
		zr, err := gzip.NewReader(req.Body)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed gzip body"})
		}
		defer zr.Close()
		req.Body = zr
		req.Header.Del(echo.HeaderContentEncoding)
		return next(c)
	}
}
