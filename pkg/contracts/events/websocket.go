// Package events contains the WebSocket message contracts pushed to dashboard clients.
package events

import (
	"time"

	"ledgerpulse/pkg/contracts/domain"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Primary message: the full dashboard state after a refresh cycle
	MessageTypeDashboardSnapshot MessageType = "dashboard:snapshot"

	// Feed-level notifications
	MessageTypeFeedError MessageType = "feed:error"

	// Connection messages
	MessageTypeConnection MessageType = "connection"
	MessageTypeHeartbeat  MessageType = "heartbeat"
)

// DashboardSnapshot is the payload of a dashboard:snapshot message.
// Records are not included; clients fetch them over HTTP when the version moves.
type DashboardSnapshot struct {
	CycleID         string                                `json:"cycle_id"`
	Summary         domain.SummaryView                    `json:"summary"`
	Feeds           map[domain.FeedKind]domain.FeedStatus `json:"feeds"`
	WorksVersion    uint64                                `json:"works_version"`
	ExpensesVersion uint64                                `json:"expenses_version"`
	CompletedAt     time.Time                             `json:"completed_at"`
}

// FeedError is the payload of a feed:error message
type FeedError struct {
	CycleID string          `json:"cycle_id"`
	Feed    domain.FeedKind `json:"feed"`
	Kind    string          `json:"kind"`
	Message string          `json:"message"`
}
