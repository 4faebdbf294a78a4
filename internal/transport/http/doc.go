// Package http implements the HTTP handlers of the dashboard API.
//
// Handlers stay thin: they validate query parameters, call the dashboard
// service or exporter and render the result. Errors are turned into RFC 7807
// problem responses by the shared error handler.
//
// # Routes
//
//	GET  /api/works?q=             works, optionally filtered
//	GET  /api/expenses?q=          expenses, optionally filtered
//	GET  /api/summary              aggregates with rupee display strings
//	GET  /api/snapshot             everything above in one consistent read
//	GET  /api/feeds                last fetch status per feed
//	POST /api/refresh              run one refresh cycle now
//	GET  /api/export/dashboard.xlsx
//	GET  /api/export/{feed}.csv?q=
//	GET  /api/health, /api/health/ready, /api/health/live, /api/version
//
// List responses share one envelope:
//
//	{"status":"success","data":[...],"count":n}
package http
