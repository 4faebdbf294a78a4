// Package domain contains the record and aggregate types shared between the
// parsing pipeline, the store and the HTTP/WebSocket surfaces.
package domain
