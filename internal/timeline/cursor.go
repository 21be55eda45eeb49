package timeline

import (
	"sort"

	"github.com/kbukum/convoview/internal/conversation"
)

// Cursor maps playback positions to fragments and back. Fragments are
// indexed in start order, so documents that are not chronological work too.
type Cursor struct {
	starts  []float64
	stops   []float64
	maxStop []float64 // running maximum of stops, in start order
	index   []int     // start order -> fragment index
	byFrag  []float64 // fragment index -> start
}

// NewCursor indexes doc.
func NewCursor(doc *conversation.Document) *Cursor {
	frags := doc.Fragments()
	order := make([]int, len(frags))
	for i := range order {
		order[i] = i
	}
	if !doc.Chronological() {
		order = doc.SortedByStart()
	}

	c := &Cursor{
		starts:  make([]float64, len(order)),
		stops:   make([]float64, len(order)),
		maxStop: make([]float64, len(order)),
		index:   order,
		byFrag:  make([]float64, len(frags)),
	}
	for k, i := range order {
		c.starts[k] = frags[i].Start.Seconds()
		c.stops[k] = frags[i].Stop.Seconds()
		c.maxStop[k] = c.stops[k]
		if k > 0 && c.maxStop[k-1] > c.maxStop[k] {
			c.maxStop[k] = c.maxStop[k-1]
		}
		c.byFrag[i] = c.starts[k]
	}
	return c
}

// Len returns the number of fragments.
func (c *Cursor) Len() int { return len(c.index) }

// IndexAt returns the fragment playing at sec, or -1 in a gap. When
// fragments overlap the one that started last wins.
func (c *Cursor) IndexAt(sec float64) int {
	// k is the last fragment starting at or before sec.
	k := sort.Search(len(c.starts), func(i int) bool { return c.starts[i] > sec }) - 1
	for ; k >= 0 && c.maxStop[k] > sec; k-- {
		if c.stops[k] > sec {
			return c.index[k]
		}
	}
	return -1
}

// StartOf returns the start of fragment i in seconds, the position a list
// click seeks to.
func (c *Cursor) StartOf(i int) (float64, bool) {
	if i < 0 || i >= len(c.byFrag) {
		return 0, false
	}
	return c.byFrag[i], true
}

// End returns the latest stop, in seconds.
func (c *Cursor) End() float64 {
	if len(c.maxStop) == 0 {
		return 0
	}
	return c.maxStop[len(c.maxStop)-1]
}
