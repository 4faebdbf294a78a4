// Package websocket pushes dashboard updates to browser clients.
//
// A Hub owns the set of connected clients and fans every broadcast out to
// their send buffers. Each message is a JSON envelope
//
//	{"type":"dashboard:snapshot","data":{...},"timestamp":"...","trace_id":"..."}
//
// The hub remembers the last dashboard:snapshot and replays it to clients as
// they connect, so a fresh page renders without waiting for the next cycle.
// Clients whose buffer is full are dropped rather than slowing the hub down.
package websocket
