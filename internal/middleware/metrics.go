package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"rental-service/prometheus"
)

// MetricsMiddleware adds prometheus metrics to track HTTP requests
func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)

		duration := time.Since(start).Seconds()
		method := c.Request().Method
		path := c.Path()
		status := strconv.Itoa(c.Response().Status)

		prometheus.HTTPRequestCounter.WithLabelValues(path, method, status).Inc()
		prometheus.RequestDuration.WithLabelValues(path, method, status).Observe(duration)

		return err
	}
}
