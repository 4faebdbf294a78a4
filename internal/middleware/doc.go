// Package middleware holds the HTTP middleware chain of the dashboard API:
// request IDs, structured request logs, panic recovery, rate limiting, CORS,
// security headers, OpenTelemetry spans and metrics, and query parameter
// validation.
package middleware
