// Package transcript filters and searches the fragments of a conversation
// and resolves the labels a fragment list displays.
package transcript

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/kbukum/convoview/internal/conversation"
)

// Speaker roles.
const (
	RoleOperator = "operator"
	RoleClient   = "client"
)

// Role names the side of the call a speaker id belongs to.
func Role(speaker int) string {
	if speaker == conversation.OperatorSpeaker {
		return RoleOperator
	}
	return RoleClient
}

// Query selects fragments. Every non-empty field must match.
type Query struct {
	// Text is matched as a case-insensitive substring of the fragment text.
	Text    string
	Class   string
	Speaker *int
	Emotion string
}

// Empty reports whether q matches everything.
func (q Query) Empty() bool {
	return strings.TrimSpace(q.Text) == "" && q.Class == "" && q.Speaker == nil && q.Emotion == ""
}

// Match is a fragment selected by Filter with its labels resolved.
type Match struct {
	Index             int     `json:"index"`
	Speaker           int     `json:"speaker"`
	Role              string  `json:"role"`
	Text              string  `json:"text"`
	Start             float64 `json:"start"`
	Stop              float64 `json:"stop"`
	Class             string  `json:"class,omitempty"`
	ClassConfidence   float64 `json:"class_confidence,omitempty"`
	Emotion           string  `json:"emotion,omitempty"`
	EmotionConfidence float64 `json:"emotion_confidence,omitempty"`

	Fragment *conversation.Fragment `json:"-"`
}

// Filter returns the fragments matching q in stored order. label selects
// the classifier used for class matching.
func Filter(fragments []conversation.Fragment, q Query, label string) []Match {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(q.Text))

	out := make([]Match, 0, len(fragments))
	for i := range fragments {
		m := resolve(i, &fragments[i], label)
		if q.Speaker != nil && m.Speaker != *q.Speaker {
			continue
		}
		if q.Class != "" && m.Class != q.Class {
			continue
		}
		if q.Emotion != "" && m.Emotion != q.Emotion {
			continue
		}
		if needle != "" && !strings.Contains(fold.String(m.Text), needle) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func resolve(i int, f *conversation.Fragment, label string) Match {
	m := Match{
		Index:    i,
		Speaker:  f.Speaker,
		Role:     Role(f.Speaker),
		Text:     f.Text,
		Start:    f.Start.Seconds(),
		Stop:     f.Stop.Seconds(),
		Fragment: f,
	}
	if p, ok := f.Class(label); ok {
		m.Class, m.ClassConfidence = p.Label, p.Confidence
	}
	if p, ok := f.Emotion(); ok {
		m.Emotion, m.EmotionConfidence = p.Label, p.Confidence
	}
	return m
}

// Classes lists the distinct classes in first-seen order.
func Classes(fragments []conversation.Fragment, label string) []string {
	var d distinct
	for i := range fragments {
		if p, ok := fragments[i].Class(label); ok {
			d.add(p.Label)
		}
	}
	return d.values()
}

// Emotions lists the distinct emotions in first-seen order.
func Emotions(fragments []conversation.Fragment) []string {
	var d distinct
	for i := range fragments {
		if p, ok := fragments[i].Emotion(); ok {
			d.add(p.Label)
		}
	}
	return d.values()
}

// Speakers lists the distinct speaker ids in first-seen order.
func Speakers(fragments []conversation.Fragment) []int {
	seen := make(map[int]bool)
	out := []int{}
	for i := range fragments {
		if s := fragments[i].Speaker; !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

type distinct struct {
	seen map[string]bool
	out  []string
}

func (d *distinct) add(v string) {
	if d.seen == nil {
		d.seen = make(map[string]bool)
	}
	if !d.seen[v] {
		d.seen[v] = true
		d.out = append(d.out, v)
	}
}

func (d *distinct) values() []string {
	if d.out == nil {
		return []string{}
	}
	return d.out
}
