package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned by repositories for unknown ids.
var ErrNotFound = errors.New("conversation not found")

// EventCreated is published after a conversation is stored.
const EventCreated = "conversation.created"

// Conversation is one analyzed recording.
type Conversation struct {
	ID       uint      `json:"id"`
	FileName string    `json:"file_name" validate:"required,max=64"`
	FilePath string    `json:"file_path" validate:"required,max=255"`
	DateTime time.Time `json:"date_time"`
	// FileData is the analysis document, kept byte for byte. It may be nil.
	FileData json.RawMessage `json:"file_data"`
}

// Document parses FileData.
func (c *Conversation) Document() (*Document, error) {
	return Parse(c.FileData)
}

// HasData reports whether file_data holds something. Absent, null and
// empty values ({}, [], "", false, 0) count as no data.
func (c *Conversation) HasData() bool {
	raw := bytes.TrimSpace(c.FileData)
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err == nil {
		raw = compact.Bytes()
	}
	switch string(raw) {
	case "", "null", "{}", "[]", `""`, "false", "0":
		return false
	}
	return true
}

// CreatedEvent is the payload of EventCreated.
type CreatedEvent struct {
	ID       uint      `json:"id"`
	FileName string    `json:"file_name"`
	DateTime time.Time `json:"date_time"`
}

// ListOptions selects one page, newest first.
type ListOptions struct {
	Page     int `form:"page" validate:"omitempty,min=1"`
	PageSize int `form:"page_size" validate:"omitempty,min=1,max=500"`
}

// Default page size when none is requested.
const DefaultPageSize = 50

// Normalize applies defaults.
func (o ListOptions) Normalize() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize < 1 {
		o.PageSize = DefaultPageSize
	}
	return o
}

// Offset returns the number of rows skipped.
func (o ListOptions) Offset() int {
	o = o.Normalize()
	return (o.Page - 1) * o.PageSize
}

// Repository stores conversations. Conversations are append-only.
type Repository interface {
	// List returns one page, newest first, and the total count.
	List(ctx context.Context, opts ListOptions) ([]Conversation, int64, error)
	// Get returns ErrNotFound for unknown ids.
	Get(ctx context.Context, id uint) (*Conversation, error)
	// Create assigns ID and, when zero, DateTime.
	Create(ctx context.Context, c *Conversation) error
}
