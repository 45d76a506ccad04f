package monitor

import (
	"fmt"
	"time"
)

// EventKind discriminates the InputEvent variants.
type EventKind int

const (
	EventUnspecified EventKind = iota
	EventKeyDown
	EventKeyUp
	EventScroll
	EventClick
	EventFocusChange
)

// String returns the wire name used by capture agents.
func (k EventKind) String() string {
	switch k {
	case EventKeyDown:
		return "key_down"
	case EventKeyUp:
		return "key_up"
	case EventScroll:
		return "scroll"
	case EventClick:
		return "click"
	case EventFocusChange:
		return "focus_change"
	default:
		return "unspecified"
	}
}

// ParseEventKind maps a wire name back to an EventKind.
func ParseEventKind(s string) (EventKind, error) {
	switch s {
	case "key_down":
		return EventKeyDown, nil
	case "key_up":
		return EventKeyUp, nil
	case "scroll":
		return EventScroll, nil
	case "click":
		return EventClick, nil
	case "focus_change":
		return EventFocusChange, nil
	default:
		return EventUnspecified, fmt.Errorf("unknown event kind %q", s)
	}
}

// InputEvent is one discrete input observation from the capture
// collaborator. Key is set for KeyDown/KeyUp; WindowTitle for
// FocusChange. Events are consumed immediately and never persisted raw.
type InputEvent struct {
	Kind        EventKind
	Key         string
	WindowTitle string
	At          time.Time
}

// Ingestor is the single entry point capture transports push events into.
type Ingestor interface {
	Ingest(ev InputEvent)
}
