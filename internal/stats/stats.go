// Package stats derives display statistics from a conversation's fragment
// list: durations per speaker, class and emotion frequencies, and
// intervals where two speakers talk at once.
package stats

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/kbukum/convoview/internal/conversation"
)

// NotAvailable is reported for tops with no data.
const NotAvailable = "N/A"

// Options tunes Compute.
type Options struct {
	// ClassLabel selects the smc classifier. Empty means
	// conversation.DefaultClassLabel.
	ClassLabel string
}

// Stats is the aggregate view of one conversation.
type Stats struct {
	TotalDuration       string         `json:"totalDuration"`
	TotalDurationMs     int64          `json:"totalDurationMs"`
	SpeakerCount        int            `json:"speakerCount"`
	AvgFragmentDuration float64        `json:"avgFragmentDuration"`
	TopEmotion          string         `json:"topEmotion"`
	TopClass            string         `json:"topClass"`
	OverlapDetails      OverlapDetails `json:"overlapDetails"`
	SpeakerStats        []SpeakerStat  `json:"speakerStats"`
	ClassStats          []ClassStat    `json:"classStats"`
	EmotionStats        []EmotionStat  `json:"emotionStats"`
}

type OverlapDetails struct {
	Count      int       `json:"count"`
	TotalMs    int64     `json:"total_ms"`
	Percentage float64   `json:"percentage"`
	Intervals  []Overlap `json:"intervals"`
}

// Overlap is an interval where two different speakers talk at once.
// Speakers is sorted ascending.
type Overlap struct {
	StartMs    int64  `json:"start_ms"`
	EndMs      int64  `json:"end_ms"`
	DurationMs int64  `json:"duration_ms"`
	Speakers   [2]int `json:"speakers"`
}

type SpeakerStat struct {
	ID         int     `json:"id"`
	DurationMs int64   `json:"durationMs"`
	Percentage float64 `json:"percentage"`
	Age        string  `json:"age"`
	Gender     string  `json:"gender"`
	Fragments  int     `json:"fragments"`
}

type ClassStat struct {
	Class      string  `json:"class"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type EmotionStat struct {
	Emotion    string  `json:"emotion"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Empty returns the stats of a conversation without fragments.
func Empty() Stats {
	return Stats{
		TotalDuration:  FormatClock(0),
		TopEmotion:     NotAvailable,
		TopClass:       NotAvailable,
		OverlapDetails: OverlapDetails{Intervals: []Overlap{}},
		SpeakerStats:   []SpeakerStat{},
		ClassStats:     []ClassStat{},
		EmotionStats:   []EmotionStat{},
	}
}

// Compute aggregates doc. A fragment's duration is stop minus start.
func Compute(doc *conversation.Document, opts Options) Stats {
	frags := doc.Fragments()
	if len(frags) == 0 {
		return Empty()
	}
	label := opts.ClassLabel
	if label == "" {
		label = conversation.DefaultClassLabel
	}

	speakers := make(map[int]*SpeakerStat)
	var classes, emotions counter
	var total int64

	for i := range frags {
		f := &frags[i]
		d := f.DurationMs()
		total += d

		sp, ok := speakers[f.Speaker]
		if !ok {
			sp = &SpeakerStat{ID: f.Speaker, Age: f.Age(), Gender: f.Gender()}
			speakers[f.Speaker] = sp
		}
		sp.DurationMs += d
		sp.Fragments++

		if p, ok := f.Class(label); ok {
			classes.add(p.Label)
		}
		if p, ok := f.Emotion(); ok {
			emotions.add(p.Label)
		}
	}

	out := Stats{
		TotalDuration:       FormatClock(total),
		TotalDurationMs:     total,
		SpeakerCount:        len(speakers),
		AvgFragmentDuration: Round(float64(total)/float64(len(frags))/1000, 1),
		TopEmotion:          emotions.top(),
		TopClass:            classes.top(),
		SpeakerStats:        make([]SpeakerStat, 0, len(speakers)),
		ClassStats:          []ClassStat{},
		EmotionStats:        []EmotionStat{},
	}

	for _, sp := range speakers {
		sp.Percentage = Round(percent(float64(sp.DurationMs), float64(total)), 1)
		out.SpeakerStats = append(out.SpeakerStats, *sp)
	}
	sort.Slice(out.SpeakerStats, func(i, j int) bool { return out.SpeakerStats[i].ID < out.SpeakerStats[j].ID })

	n := float64(len(frags))
	for _, e := range classes.sorted() {
		out.ClassStats = append(out.ClassStats, ClassStat{Class: e.key, Count: e.n, Percentage: Round(percent(float64(e.n), n), 1)})
	}
	for _, e := range emotions.sorted() {
		out.EmotionStats = append(out.EmotionStats, EmotionStat{Emotion: e.key, Count: e.n, Percentage: Round(percent(float64(e.n), n), 1)})
	}

	intervals := Overlaps(doc)
	var overlapMs int64
	for _, o := range intervals {
		overlapMs += o.DurationMs
	}
	out.OverlapDetails = OverlapDetails{
		Count:      len(intervals),
		TotalMs:    overlapMs,
		Percentage: Round(percent(float64(overlapMs), float64(total)), 2),
		Intervals:  intervals,
	}
	return out
}

// Overlaps returns every pairwise overlap between fragments of different
// speakers, walking fragments in start order.
func Overlaps(doc *conversation.Document) []Overlap {
	frags := doc.Fragments()
	order := doc.SortedByStart()
	out := []Overlap{}
	for i, a := range order {
		fa := &frags[a]
		start1, stop1 := fa.Start.Millis(), fa.Stop.Millis()
		for _, b := range order[i+1:] {
			fb := &frags[b]
			start2, stop2 := fb.Start.Millis(), fb.Stop.Millis()
			// Later fragments start no earlier, so none can overlap a.
			if start2 >= stop1 {
				break
			}
			if fa.Speaker == fb.Speaker {
				continue
			}
			lo, hi := max(start1, start2), min(stop1, stop2)
			if lo >= hi {
				continue
			}
			pair := [2]int{fa.Speaker, fb.Speaker}
			if pair[0] > pair[1] {
				pair[0], pair[1] = pair[1], pair[0]
			}
			out = append(out, Overlap{StartMs: lo, EndMs: hi, DurationMs: hi - lo, Speakers: pair})
		}
	}
	return out
}

// FormatClock renders ms as HH:MM:SS, truncating sub-second parts.
// Negative values render as 00:00:00.
func FormatClock(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	s := ms / 1000
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, s%3600/60, s%60)
}

// Round rounds v to places decimals. The exact binary value of v decides,
// so 18.15 (stored as 18.1499...) becomes 18.1. Exact halves go to even.
func Round(v float64, places int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return r
}

func percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}

// counter counts keys and remembers first-seen order for ties.
type counter struct {
	index map[string]int
	items []entry
}

type entry struct {
	key string
	n   int
}

func (c *counter) add(key string) {
	if c.index == nil {
		c.index = make(map[string]int)
	}
	i, ok := c.index[key]
	if !ok {
		i = len(c.items)
		c.index[key] = i
		c.items = append(c.items, entry{key: key})
	}
	c.items[i].n++
}

// sorted returns entries by count descending, ties in first-seen order.
func (c *counter) sorted() []entry {
	out := append([]entry(nil), c.items...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].n > out[j].n })
	return out
}

func (c *counter) top() string {
	s := c.sorted()
	if len(s) == 0 {
		return NotAvailable
	}
	return s[0].key
}
