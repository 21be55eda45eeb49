package viewer

import (
	"time"

	"github.com/kbukum/convoview/internal/api"
	"github.com/kbukum/convoview/internal/client"
	"github.com/kbukum/convoview/internal/conversation"
	"github.com/kbukum/convoview/internal/media"
	"github.com/kbukum/convoview/internal/stats"
)

// ListLoadedMsg carries a page of conversations.
type ListLoadedMsg struct {
	Page client.Page
}

// DetailLoadedMsg carries an opened conversation. ID is the requested id.
type DetailLoadedMsg struct {
	ID           uint
	Conversation *conversation.Conversation
	Document     *conversation.Document
	Stats        *stats.Stats
}

// FragmentsLoadedMsg carries the fragments matching the current filters.
type FragmentsLoadedMsg struct {
	ID       uint
	Response *api.FragmentsResponse
}

// RegionsLoadedMsg carries the timeline in one mode.
type RegionsLoadedMsg struct {
	ID       uint
	Response *api.RegionsResponse
}

// AudioLinkMsg carries where the conversation's audio can be fetched.
// Err is set when the link could not be resolved.
type AudioLinkMsg struct {
	ID   uint
	Link media.Link
	Err  error
}

// ErrMsg reports a failed request.
type ErrMsg struct {
	Err error
}

// TickMsg advances the playback clock. Gen discards ticks from a detail
// screen that has since been closed.
type TickMsg struct {
	Gen int
	At  time.Time
}

// SubscribedMsg is sent once the event stream is open.
type SubscribedMsg struct {
	Sub *client.Subscription
}

// EventMsg wraps a server event.
type EventMsg struct {
	Event client.Event
}

// EventErrMsg ends the event stream.
type EventErrMsg struct {
	Err error
}
