package timeline

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/kbukum/convoview/internal/conversation"
)

func parse(t *testing.T, raw string) *conversation.Document {
	t.Helper()
	doc, err := conversation.Parse(json.RawMessage(raw))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

const calls = `{"splitted": [
 {"speaker": 0, "start": 0, "stop": 4, "classifiers": {"smc": {"Скрипты1": {"classes": [{"class": "greeting"}]}}}},
 {"speaker": 1, "start": 3, "stop": 6},
 {"speaker": 0, "start": 8, "stop": 10, "classifiers": {"smc": {"Скрипты1": {"classes": [{"class": "farewell"}]}}}}
]}`

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeSpeaker, false},
		{"speaker", ModeSpeaker, false},
		{"class", ModeClass, false},
		{"overlap", ModeOverlap, false},
		{"emotion", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %q, %v", tt.in, got, err)
		}
	}
	if ModeOverlap.Next() != ModeSpeaker || ModeSpeaker.Next() != ModeClass {
		t.Error("unexpected mode cycle")
	}
}

func TestRegions(t *testing.T) {
	doc := parse(t, calls)

	speaker := Regions(doc, ModeSpeaker, conversation.DefaultClassLabel)
	if len(speaker) != 3 {
		t.Fatalf("speaker regions = %+v", speaker)
	}
	if speaker[0].Kind != KindOperator || speaker[0].Color != OperatorColor || speaker[0].Label != "Operator" {
		t.Errorf("region 0 = %+v", speaker[0])
	}
	if speaker[1].Kind != KindClient || speaker[1].Color != ClientPalette[0] || speaker[1].Label != "Client 1" {
		t.Errorf("region 1 = %+v", speaker[1])
	}
	if speaker[1].Start != 3 || speaker[1].End != 6 || speaker[1].Fragment != 1 {
		t.Errorf("region 1 span = %+v", speaker[1])
	}

	class := Regions(doc, ModeClass, conversation.DefaultClassLabel)
	if len(class) != 2 || class[1].Label != "farewell" || class[1].Fragment != 2 {
		t.Fatalf("class regions = %+v", class)
	}
	if class[0].Color != ClassColor("greeting") {
		t.Errorf("class color = %s", class[0].Color)
	}

	overlap := Regions(doc, ModeOverlap, "")
	if len(overlap) != 1 || overlap[0].Start != 3 || overlap[0].End != 4 || overlap[0].Fragment != -1 {
		t.Fatalf("overlap regions = %+v", overlap)
	}
	if overlap[0].Label != "Operator / Client 1" {
		t.Errorf("overlap label = %q", overlap[0].Label)
	}
}

func TestColorsAreStable(t *testing.T) {
	if ClassColor("billing") != ClassColor("billing") {
		t.Error("class color must be deterministic")
	}
	if SpeakerColor(1) != SpeakerColor(1+len(ClientPalette)) {
		t.Error("client palette should wrap")
	}
	if SpeakerColor(-3) == "" {
		t.Error("negative speaker ids still get a color")
	}
}

func TestCursorIndexAt(t *testing.T) {
	c := NewCursor(parse(t, calls))
	tests := []struct {
		sec  float64
		want int
	}{
		{0, 0},
		{2.5, 0},
		{3, 1}, // later start wins during an overlap
		{4.5, 1},
		{6, -1}, // stop is exclusive
		{7, -1},
		{9.99, 2},
		{10, -1},
		{-1, -1},
	}
	for _, tt := range tests {
		if got := c.IndexAt(tt.sec); got != tt.want {
			t.Errorf("IndexAt(%v) = %d, want %d", tt.sec, got, tt.want)
		}
	}
}

func TestCursorNestedFragment(t *testing.T) {
	c := NewCursor(parse(t, `{"splitted": [
	 {"speaker": 0, "start": 0, "stop": 10},
	 {"speaker": 1, "start": 2, "stop": 3}
	]}`))
	if got := c.IndexAt(5); got != 0 {
		t.Errorf("IndexAt(5) = %d, want the enclosing fragment 0", got)
	}
}

func TestCursorUnsorted(t *testing.T) {
	c := NewCursor(parse(t, `{"splitted": [
	 {"start": 5, "stop": 6}, {"start": 0, "stop": 1}, {"start": 2, "stop": 3}
	]}`))
	if c.IndexAt(0.5) != 1 || c.IndexAt(2.5) != 2 || c.IndexAt(5.5) != 0 {
		t.Errorf("unsorted lookups failed")
	}
	if s, ok := c.StartOf(0); !ok || s != 5 {
		t.Errorf("StartOf(0) = %v, %v", s, ok)
	}
	if _, ok := c.StartOf(3); ok {
		t.Error("StartOf out of range")
	}
	if c.End() != 6 || c.Len() != 3 {
		t.Errorf("End = %v, Len = %d", c.End(), c.Len())
	}
}

func TestPlayback(t *testing.T) {
	p := NewPlayback(NewCursor(parse(t, calls)), 0)
	if p.Duration() != 10 || p.Active() != 0 || p.Playing() {
		t.Fatalf("initial state pos=%v dur=%v active=%d", p.Position(), p.Duration(), p.Active())
	}

	p.Advance(time.Second)
	if p.Position() != 0 || p.Changed() {
		t.Error("paused playback must not advance")
	}

	p.Toggle()
	if !p.Playing() {
		t.Fatal("Toggle should start playback")
	}
	p.Advance(2 * time.Second)
	if p.Active() != 0 || p.Changed() {
		t.Errorf("after 2s active=%d changed=%v", p.Active(), p.Changed())
	}
	p.Advance(1500 * time.Millisecond)
	if p.Active() != 1 || !p.Changed() {
		t.Errorf("after 3.5s active=%d changed=%v", p.Active(), p.Changed())
	}

	if !p.Select(2) || p.Position() != 8 || p.Active() != 2 || !p.Changed() {
		t.Errorf("Select(2) pos=%v active=%d", p.Position(), p.Active())
	}
	if p.Select(7) {
		t.Error("Select out of range should fail")
	}

	p.Advance(5 * time.Second)
	if p.Playing() || p.Position() != 10 || p.Active() != -1 {
		t.Errorf("end state playing=%v pos=%v active=%d", p.Playing(), p.Position(), p.Active())
	}

	p.Play()
	if p.Position() != 0 || !p.Playing() || p.Active() != 0 {
		t.Errorf("Play at end should restart, pos=%v", p.Position())
	}
	p.Pause()
	if p.Playing() {
		t.Error("Pause")
	}
}

func TestPlaybackSeekClamps(t *testing.T) {
	p := NewPlayback(NewCursor(parse(t, calls)), 12)
	p.Seek(-4)
	if p.Position() != 0 {
		t.Errorf("Seek(-4) = %v", p.Position())
	}
	p.Seek(100)
	if p.Position() != 12 || p.Active() != -1 {
		t.Errorf("Seek(100) = %v", p.Position())
	}
	p.SetDuration(9)
	if p.Position() != 9 || p.Active() != 2 {
		t.Errorf("SetDuration shrink pos=%v active=%d", p.Position(), p.Active())
	}
}

func TestPlaybackEmptyDocument(t *testing.T) {
	p := NewPlayback(NewCursor(parse(t, `null`)), 0)
	p.Play()
	if p.Playing() || p.Active() != -1 {
		t.Error("empty playback cannot play")
	}
}
