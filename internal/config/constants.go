package config

import "time"

// Application constants
const (
	AppName     = "LedgerPulse"
	AppVersion  = "1.0.0"
	ServiceName = "ledgerpulse"
	EnvPrefix   = "LEDGER"

	// Feed sources
	SourceCSV    = "csv"
	SourceSheets = "sheets"

	// Published CSV exports of the works and expenses tabs
	DefaultWorksURL    = "https://docs.google.com/spreadsheets/d/e/2PACX-1vRLtabZ-6eyDtjEwHsB6AdwBvMbc4ihVNRRUoyCK-HnqRBrNNwBTDNOBK-0cdlCQ0vZ66p_y58fi0qc/pub?output=csv&gid=0"
	DefaultExpensesURL = "https://docs.google.com/spreadsheets/d/e/2PACX-1vRLtabZ-6eyDtjEwHsB6AdwBvMbc4ihVNRRUoyCK-HnqRBrNNwBTDNOBK-0cdlCQ0vZ66p_y58fi0qc/pub?output=csv&gid=1890560582"

	// Refresh cycle
	DefaultRefreshInterval = 30 * time.Second
	DefaultFetchTimeout    = 20 * time.Second
	DefaultRefreshTimeout  = 25 * time.Second
	DefaultMaxBodyBytes    = 10 << 20 // 10MB
	DefaultFetchRPS        = 2
	DefaultFetchBurst      = 2

	// Aggregates
	TopClientLimit = 5
	CurrencyLocale = "en-IN"

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// WebSocket
	WebSocketPingPeriod      = 54 * time.Second
	WebSocketPongWait        = 60 * time.Second
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Endpoints
	APIBasePath       = "/api"
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)
