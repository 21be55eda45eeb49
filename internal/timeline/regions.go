package timeline

import (
	"fmt"
	"hash/fnv"
	"strconv"

	"github.com/kbukum/convoview/internal/conversation"
	"github.com/kbukum/convoview/internal/stats"
	"github.com/kbukum/convoview/internal/transcript"
)

// Mode selects what the colored regions of the timeline represent.
type Mode string

const (
	ModeSpeaker Mode = "speaker"
	ModeClass   Mode = "class"
	ModeOverlap Mode = "overlap"
)

// Modes lists the modes in display cycle order.
var Modes = []Mode{ModeSpeaker, ModeClass, ModeOverlap}

// ParseMode accepts a mode name. Empty input selects ModeSpeaker.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeSpeaker, nil
	case ModeSpeaker, ModeClass, ModeOverlap:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown region mode %q", s)
}

// Next returns the mode after m in Modes.
func (m Mode) Next() Mode {
	for i, mode := range Modes {
		if mode == m {
			return Modes[(i+1)%len(Modes)]
		}
	}
	return ModeSpeaker
}

// Region kinds.
const (
	KindOperator = "operator"
	KindClient   = "client"
	KindClass    = "class"
	KindOverlap  = "overlap"
)

// Colors. Client speakers take ClientPalette entries in speaker order.
const (
	OperatorColor = "#3B82F6"
	OverlapColor  = "#EF4444"
)

var (
	ClientPalette = []string{"#10B981", "#F59E0B", "#8B5CF6", "#EC4899", "#14B8A6", "#84CC16"}
	ClassPalette  = []string{"#6366F1", "#F97316", "#06B6D4", "#A855F7", "#22C55E", "#E11D48", "#EAB308", "#0EA5E9"}
)

// Region is a colored span of the timeline. Fragment is the index of the
// source fragment, or -1 for overlap regions.
type Region struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Label    string  `json:"label"`
	Color    string  `json:"color"`
	Kind     string  `json:"kind"`
	Fragment int     `json:"fragment"`
}

// Regions builds the regions of doc for mode. label selects the classifier
// for ModeClass; fragments without a class produce no region.
func Regions(doc *conversation.Document, mode Mode, label string) []Region {
	switch mode {
	case ModeClass:
		return classRegions(doc, label)
	case ModeOverlap:
		return overlapRegions(doc)
	default:
		return speakerRegions(doc)
	}
}

func speakerRegions(doc *conversation.Document) []Region {
	frags := doc.Fragments()
	out := make([]Region, 0, len(frags))
	for i := range frags {
		f := &frags[i]
		r := Region{
			Start:    f.Start.Seconds(),
			End:      f.Stop.Seconds(),
			Label:    SpeakerLabel(f.Speaker),
			Color:    SpeakerColor(f.Speaker),
			Kind:     KindClient,
			Fragment: i,
		}
		if f.IsOperator() {
			r.Kind = KindOperator
		}
		out = append(out, r)
	}
	return out
}

func classRegions(doc *conversation.Document, label string) []Region {
	frags := doc.Fragments()
	out := make([]Region, 0, len(frags))
	for i := range frags {
		p, ok := frags[i].Class(label)
		if !ok {
			continue
		}
		out = append(out, Region{
			Start:    frags[i].Start.Seconds(),
			End:      frags[i].Stop.Seconds(),
			Label:    p.Label,
			Color:    ClassColor(p.Label),
			Kind:     KindClass,
			Fragment: i,
		})
	}
	return out
}

func overlapRegions(doc *conversation.Document) []Region {
	overlaps := stats.Overlaps(doc)
	out := make([]Region, 0, len(overlaps))
	for _, o := range overlaps {
		out = append(out, Region{
			Start:    float64(o.StartMs) / 1000,
			End:      float64(o.EndMs) / 1000,
			Label:    SpeakerLabel(o.Speakers[0]) + " / " + SpeakerLabel(o.Speakers[1]),
			Color:    OverlapColor,
			Kind:     KindOverlap,
			Fragment: -1,
		})
	}
	return out
}

// SpeakerLabel names a speaker for display.
func SpeakerLabel(speaker int) string {
	if transcript.Role(speaker) == transcript.RoleOperator {
		return "Operator"
	}
	return "Client " + strconv.Itoa(speaker)
}

// SpeakerColor returns the operator color for speaker 0 and a client
// palette entry otherwise.
func SpeakerColor(speaker int) string {
	if speaker == conversation.OperatorSpeaker {
		return OperatorColor
	}
	i := (speaker - 1) % len(ClientPalette)
	if i < 0 {
		i += len(ClientPalette)
	}
	return ClientPalette[i]
}

// ClassColor returns a stable palette color for a class name.
func ClassColor(class string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(class))
	return ClassPalette[h.Sum32()%uint32(len(ClassPalette))]
}
