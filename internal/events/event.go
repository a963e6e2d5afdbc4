// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"bezirk_scanner/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// ScanCompleted is published after a photo was read and resolved.
type ScanCompleted struct {
	BaseEvent
	SessionID string `json:"sessionId"`
	Street    string `json:"street"`
	Number    string `json:"number"`
	District  string `json:"district"`
	Source    string `json:"source"`
	ObjectKey string `json:"objectKey,omitempty"`
}

func (e ScanCompleted) EventName() string { return "scan.completed" }

// LookupTableImported is published when a session's table was replaced.
type LookupTableImported struct {
	BaseEvent
	SessionID string `json:"sessionId"`
	Entries   int    `json:"entries"`
	Filename  string `json:"filename,omitempty"`
}

func (e LookupTableImported) EventName() string { return "lookup.table_imported" }
