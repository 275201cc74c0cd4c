package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Telemetry middleware starts one span per request. Without a configured
// provider the global no-op tracer is used.
func Telemetry() echo.MiddlewareFunc {
	tracer := otel.Tracer("productmap-api")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx, span := tracer.Start(req.Context(), req.Method+" "+c.Path())
			defer span.End()

			span.SetAttributes(
				attribute.String("http.method", req.Method),
				attribute.String("http.url", req.URL.String()),
				attribute.String("http.route", c.Path()),
				attribute.String("user_agent", req.UserAgent()),
			)
			if requestID, ok := c.Get("request_id").(string); ok {
				span.SetAttributes(attribute.String("request.id", requestID))
			}

			c.SetRequest(req.WithContext(ctx))

			err := next(c)

			// tenant_id is set by TenantResolver further down the chain
			if tenantID, ok := c.Get("tenant_id").(uuid.UUID); ok {
				span.SetAttributes(attribute.String("tenant.id", tenantID.String()))
			}
			span.SetAttributes(attribute.Int("http.status_code", c.Response().Status))
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return err
		}
	}
}
