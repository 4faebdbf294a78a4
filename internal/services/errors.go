package services

import "errors"

// Service errors
var (
	ErrSchedulerRunning = errors.New("scheduler already running")
)
