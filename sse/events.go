package sse

import (
	"bytes"
	"strconv"
)

// EventConnected is sent to every client right after it subscribes.
const EventConnected = "connected"

// Event is one message delivered to subscribers.
type Event struct {
	// ID is assigned by the hub, increasing from 1.
	ID   uint64
	Type string
	// Data is the JSON payload.
	Data []byte
}

// Encode renders the event in text/event-stream framing. Newlines in Data
// become separate data lines.
func (e Event) Encode() []byte {
	var b bytes.Buffer
	if e.ID > 0 {
		b.WriteString("id: ")
		b.WriteString(strconv.FormatUint(e.ID, 10))
		b.WriteByte('\n')
	}
	if e.Type != "" {
		b.WriteString("event: ")
		b.WriteString(e.Type)
		b.WriteByte('\n')
	}
	for _, line := range bytes.Split(e.Data, []byte("\n")) {
		b.WriteString("data: ")
		b.Write(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return b.Bytes()
}
