// Package feeds fetches the works and expenses data sets.
//
// A Source returns a Document of tokenized body rows for one feed. Three
// sources exist:
//
//   - HTTPSource downloads the published CSV exports (the default)
//   - SheetsSource reads the same tabs through the Google Sheets API
//   - StaticSource serves in-memory or on-disk CSV text for tests and the CLI
//
// Every failure is an *errors.AppError whose type tells the refresh cycle
// why the feed is stale: NETWORK, HTTP_STATUS, TIMEOUT or PARSING.
package feeds
