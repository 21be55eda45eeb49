package conversation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidDocument is returned when file_data is not a JSON object.
var ErrInvalidDocument = errors.New("conversation: file_data must be a JSON object")

// Document is the decoded analysis result stored in file_data.
type Document struct {
	fragments []Fragment
}

// Parse decodes file_data. Null or empty input yields an empty document.
// A "splitted" member that is not an array is ignored, as are array
// elements that are not objects.
func Parse(raw json.RawMessage) (*Document, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return &Document{}, nil
	}
	if raw[0] != '{' {
		return nil, ErrInvalidDocument
	}

	var top struct {
		Splitted json.RawMessage `json:"splitted"`
	}
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	var items []json.RawMessage
	if json.Unmarshal(top.Splitted, &items) != nil {
		return &Document{}, nil
	}
	doc := &Document{fragments: make([]Fragment, 0, len(items))}
	for _, item := range items {
		var f Fragment
		if json.Unmarshal(item, &f) == nil {
			doc.fragments = append(doc.fragments, f)
		}
	}
	return doc, nil
}

// NewDocument builds a document from already decoded fragments.
func NewDocument(fragments []Fragment) *Document {
	return &Document{fragments: fragments}
}

// Fragments returns the fragments in stored order.
func (d *Document) Fragments() []Fragment {
	if d == nil {
		return nil
	}
	return d.fragments
}

// Len returns the number of fragments.
func (d *Document) Len() int { return len(d.Fragments()) }

// Empty reports whether the document has no fragments.
func (d *Document) Empty() bool { return d.Len() == 0 }

// SortedByStart returns indexes into Fragments ordered by start time.
// Equal starts keep their stored order.
func (d *Document) SortedByStart() []int {
	frags := d.Fragments()
	idx := make([]int, len(frags))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return frags[idx[a]].Start < frags[idx[b]].Start
	})
	return idx
}

// Chronological reports whether fragments are already ordered by start.
func (d *Document) Chronological() bool {
	frags := d.Fragments()
	for i := 1; i < len(frags); i++ {
		if frags[i].Start < frags[i-1].Start {
			return false
		}
	}
	return true
}

// EndMs returns the latest stop time.
func (d *Document) EndMs() int64 {
	var end int64
	for _, f := range d.Fragments() {
		if f.Stop.Millis() > end {
			end = f.Stop.Millis()
		}
	}
	return end
}
