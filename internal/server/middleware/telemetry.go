package middleware

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"spades-sales-engine/backend/internal/telemetry"
)

// httpRequestMetadata is the JSON shape stored in Event.Metadata for http_request events.
type httpRequestMetadata struct {
	Method     string `json:"method"`
	Route      string `json:"route"`
	StatusCode int    `json:"status_code"`
	DurationMs int64  `json:"duration_ms"`
	ClientIP   string `json:"client_ip"`
}

// Telemetry returns middleware that records a span, request metrics, and an
// async telemetry event for each request. Any of tracer, meter, or emitter
// may be nil; the corresponding signal is skipped. skipRoutes holds
// "METHOD /route/path" entries to not instrument (e.g. health checks).
func Telemetry(tracer trace.Tracer, meter metric.Meter, emitter telemetry.EventEmitter, skipRoutes map[string]bool) fiber.Handler {
	var requests metric.Int64Counter
	var duration metric.Float64Histogram
	if meter != nil {
		var err error
		requests, err = meter.Int64Counter("http.server.requests",
			metric.WithDescription("Completed HTTP requests"))
		if err != nil {
			log.Printf("telemetry: create request counter: %v", err)
		}
		duration, err = meter.Float64Histogram("http.server.duration",
			metric.WithDescription("HTTP request duration"), metric.WithUnit("ms"))
		if err != nil {
			log.Printf("telemetry: create duration histogram: %v", err)
		}
	}
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		if skipRoutes[c.Method()+" "+route] {
			return err
		}
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		elapsed := time.Since(start)

		if tracer != nil {
			_, span := tracer.Start(c.UserContext(), c.Method()+" "+route,
				trace.WithTimestamp(start),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", c.Method()),
					attribute.String("http.route", route),
					attribute.Int("http.response.status_code", status),
				))
			span.End(trace.WithTimestamp(start.Add(elapsed)))
		}
		attrs := metric.WithAttributes(
			attribute.String("http.request.method", c.Method()),
			attribute.String("http.route", route),
			attribute.Int("http.response.status_code", status),
		)
		if requests != nil {
			requests.Add(c.UserContext(), 1, attrs)
		}
		if duration != nil {
			duration.Record(c.UserContext(), float64(elapsed.Milliseconds()), attrs)
		}

		if emitter != nil {
			ip, _ := GetClientIP(c.UserContext())
			meta := httpRequestMetadata{
				Method:     c.Method(),
				Route:      route,
				StatusCode: status,
				DurationMs: elapsed.Milliseconds(),
				ClientIP:   ip,
			}
			metaJSON, _ := json.Marshal(meta)
			orgID, _ := GetOrgID(c.UserContext())
			userID, _ := GetUserID(c.UserContext())
			sessionID, _ := GetSessionID(c.UserContext())
			telemetry.EmitAsync(emitter, c.UserContext(), &telemetry.Event{
				OrgID:     orgID,
				UserID:    userID,
				SessionID: sessionID,
				EventType: "http_request",
				Source:    "http_middleware",
				Metadata:  metaJSON,
				CreatedAt: time.Now().UTC(),
			})
		}
		return err
	}
}
