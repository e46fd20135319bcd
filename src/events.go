package terminal

import (
	"time"

	"github.com/berrym/lusush-sub003/src/tui"
)

// EventType discriminates session events.
type EventType int

const (
	// EventText is printable input, complete UTF-8
	EventText EventType = iota
	// EventKey is a special key or a modified character
	EventKey
	// EventMouse is a decoded mouse report
	EventMouse
	// EventResize reports the new window size
	EventResize
	// EventFocus reports focus gained or lost
	EventFocus
	// EventPasteBegin and EventPasteEnd bracket a paste; the content
	// arrives as EventPasteText and must never be interpreted as keys
	EventPasteBegin
	EventPasteText
	EventPasteEnd
	// EventResume is delivered after the session returns from a suspend
	EventResume
	// EventCapability is an unsolicited device report
	EventCapability
	// EventUnknown is a sequence the decoder could not classify; Raw
	// carries the exact bytes
	EventUnknown
)

var eventNames = [...]string{
	EventText:       "text",
	EventKey:        "key",
	EventMouse:      "mouse",
	EventResize:     "resize",
	EventFocus:      "focus",
	EventPasteBegin: "paste-begin",
	EventPasteText:  "paste-text",
	EventPasteEnd:   "paste-end",
	EventResume:     "resume",
	EventCapability: "capability",
	EventUnknown:    "unknown",
}

func (t EventType) String() string {
	if int(t) < len(eventNames) {
		return eventNames[t]
	}
	return "unknown"
}

// Event is the session's unit of input. Only the fields relevant to the
// Type are set; Raw always carries the originating bytes for events that
// came off the wire.
type Event struct {
	Type EventType
	Seq  uint64 // monotonically increasing per session
	When time.Time

	Key   tui.KeyEvent
	Mouse tui.MouseEvent
	Text  string

	Gained     bool // EventFocus
	Cols, Rows int  // EventResize

	Raw []byte
}
