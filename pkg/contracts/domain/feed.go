package domain

import "time"

// FeedKind identifies one of the two published data sets
type FeedKind string

const (
	FeedWorks    FeedKind = "works"
	FeedExpenses FeedKind = "expenses"
)

// AllFeeds lists the feeds in refresh order
var AllFeeds = []FeedKind{FeedWorks, FeedExpenses}

// ParseFeedKind converts a path segment or flag value to a FeedKind
func ParseFeedKind(s string) (FeedKind, bool) {
	switch FeedKind(s) {
	case FeedWorks:
		return FeedWorks, true
	case FeedExpenses:
		return FeedExpenses, true
	}
	return "", false
}

// FeedStatus describes the most recent fetch of a feed
type FeedStatus struct {
	Kind          FeedKind  `json:"kind"`
	LastAttempt   time.Time `json:"last_attempt,omitempty"`
	LastSuccess   time.Time `json:"last_success,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
	LastErrorKind string    `json:"last_error_kind,omitempty"`
	Records       int       `json:"records"`
	Dropped       int       `json:"dropped"`
	Bytes         int64     `json:"bytes"`
	Stale         bool      `json:"stale"`
}

// Snapshot is a consistent read of everything the dashboard renders
type Snapshot struct {
	Works            []WorkRecord            `json:"works"`
	Expenses         []ExpenseRecord         `json:"expenses"`
	ExpenseAggregate ExpenseAggregate        `json:"expense_aggregate"`
	Summary          Summary                 `json:"summary"`
	Feeds            map[FeedKind]FeedStatus `json:"feeds"`
	WorksVersion     uint64                  `json:"works_version"`
	ExpensesVersion  uint64                  `json:"expenses_version"`
}
