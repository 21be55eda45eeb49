package stats

import (
	"encoding/json"
	"testing"

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

const call = `{"splitted": [
 {"speaker": 0, "start": "0:00:00.000", "stop": "0:00:04.000",
  "classifiers": {"smc": {"Скрипты1": {"classes": [{"class": "greeting"}]}}},
  "voice_analysis": {"emotion": {"class": "neutral"}, "age": {"class": "adult"}, "gender": {"class": "male"}}},
 {"speaker": 1, "start": "0:00:03.000", "stop": "0:00:06.000", "emotion": {"angry": 0.7},
  "classifiers": {"smc": {"Скрипты1": {"classes": [{"class": "complaint"}]}}},
  "voice_analysis": {"age": {"class": "senior"}}},
 {"speaker": 0, "start": "0:00:05.000", "stop": "0:00:08.000", "emotion": "neutral",
  "classifiers": {"smc": {"Скрипты1": {"classes": [{"class": "complaint"}]}}},
  "voice_analysis": {"age": {"class": "young"}}},
 {"speaker": 1, "start": "0:00:09.000", "stop": "0:00:10.000"}
]}`

func TestCompute(t *testing.T) {
	s := Compute(parse(t, call), Options{})

	if s.TotalDurationMs != 11000 || s.TotalDuration != "00:00:11" {
		t.Errorf("total = %d / %s", s.TotalDurationMs, s.TotalDuration)
	}
	if s.SpeakerCount != 2 {
		t.Errorf("SpeakerCount = %d", s.SpeakerCount)
	}
	if s.AvgFragmentDuration != 2.8 {
		t.Errorf("AvgFragmentDuration = %v, want 2.8", s.AvgFragmentDuration)
	}
	if s.TopClass != "complaint" || s.TopEmotion != "neutral" {
		t.Errorf("tops = %s / %s", s.TopClass, s.TopEmotion)
	}

	wantSpeakers := []SpeakerStat{
		{ID: 0, DurationMs: 7000, Percentage: 63.6, Age: "adult", Gender: "male", Fragments: 2},
		{ID: 1, DurationMs: 4000, Percentage: 36.4, Age: "senior", Gender: "unknown", Fragments: 2},
	}
	if len(s.SpeakerStats) != len(wantSpeakers) {
		t.Fatalf("SpeakerStats = %+v", s.SpeakerStats)
	}
	for i, want := range wantSpeakers {
		if s.SpeakerStats[i] != want {
			t.Errorf("SpeakerStats[%d] = %+v, want %+v", i, s.SpeakerStats[i], want)
		}
	}

	wantClasses := []ClassStat{{"complaint", 2, 50}, {"greeting", 1, 25}}
	for i, want := range wantClasses {
		if i >= len(s.ClassStats) || s.ClassStats[i] != want {
			t.Fatalf("ClassStats = %+v", s.ClassStats)
		}
	}
	wantEmotions := []EmotionStat{{"neutral", 2, 50}, {"angry", 1, 25}}
	for i, want := range wantEmotions {
		if i >= len(s.EmotionStats) || s.EmotionStats[i] != want {
			t.Fatalf("EmotionStats = %+v", s.EmotionStats)
		}
	}

	od := s.OverlapDetails
	if od.Count != 2 || od.TotalMs != 2000 || od.Percentage != 18.18 {
		t.Errorf("OverlapDetails = %+v", od)
	}
	first := Overlap{StartMs: 3000, EndMs: 4000, DurationMs: 1000, Speakers: [2]int{0, 1}}
	if od.Intervals[0] != first {
		t.Errorf("first overlap = %+v", od.Intervals[0])
	}
}

func TestComputeRoundsStoredValue(t *testing.T) {
	doc := parse(t, `{"splitted": [
	 {"speaker": 0, "start": "0:00:00.000", "stop": "0:00:03.630"},
	 {"speaker": 1, "start": "0:00:03.630", "stop": "0:00:20.000"}
	]}`)
	s := Compute(doc, Options{})
	if s.TotalDurationMs != 20000 {
		t.Fatalf("total = %d", s.TotalDurationMs)
	}
	if got := s.SpeakerStats[0].Percentage; got != 18.1 {
		t.Errorf("speaker 0 percentage = %v, want 18.1", got)
	}
	if got := s.SpeakerStats[1].Percentage; got != 81.8 {
		t.Errorf("speaker 1 percentage = %v, want 81.8", got)
	}
}

func TestComputeEmpty(t *testing.T) {
	for _, raw := range []string{`null`, `{}`, `{"splitted": []}`} {
		s := Compute(parse(t, raw), Options{})
		if s.TotalDuration != "00:00:00" || s.TopClass != NotAvailable || s.TopEmotion != NotAvailable {
			t.Errorf("%s: %+v", raw, s)
		}
		if s.SpeakerStats == nil || s.ClassStats == nil || s.EmotionStats == nil || s.OverlapDetails.Intervals == nil {
			t.Errorf("%s: lists must be empty, not nil", raw)
		}
	}
}

func TestComputeTiesKeepFirstSeen(t *testing.T) {
	doc := parse(t, `{"splitted": [
	 {"emotion": "b"}, {"emotion": "a"}, {"emotion": "a"}, {"emotion": "b"}, {"emotion": "c"}
	]}`)
	s := Compute(doc, Options{})
	got := []string{}
	for _, e := range s.EmotionStats {
		got = append(got, e.Emotion)
	}
	if len(got) != 3 || got[0] != "b" || got[1] != "a" || got[2] != "c" {
		t.Errorf("order = %v, want [b a c]", got)
	}
	if s.TopEmotion != "b" {
		t.Errorf("TopEmotion = %s", s.TopEmotion)
	}
	if s.EmotionStats[2].Percentage != 20 {
		t.Errorf("percentage = %v", s.EmotionStats[2].Percentage)
	}
}

func TestComputeClassLabel(t *testing.T) {
	doc := parse(t, `{"splitted": [
	 {"classifiers": {"smc": {"Скрипты1": {"classes": [{"class": "x"}]}, "topic": {"classes": [{"class": "billing"}]}}}}
	]}`)
	if s := Compute(doc, Options{ClassLabel: "topic"}); s.TopClass != "billing" {
		t.Errorf("TopClass = %s", s.TopClass)
	}
	if s := Compute(doc, Options{}); s.TopClass != "x" {
		t.Errorf("TopClass = %s", s.TopClass)
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []Overlap
	}{
		{
			name: "same speaker ignored",
			raw:  `{"splitted": [{"speaker":1,"start":0,"stop":5},{"speaker":1,"start":1,"stop":2}]}`,
			want: []Overlap{},
		},
		{
			name: "touching is not overlapping",
			raw:  `{"splitted": [{"speaker":0,"start":0,"stop":2},{"speaker":1,"start":2,"stop":3}]}`,
			want: []Overlap{},
		},
		{
			name: "unsorted input",
			raw:  `{"splitted": [{"speaker":2,"start":3,"stop":6},{"speaker":0,"start":0,"stop":10}]}`,
			want: []Overlap{{StartMs: 3000, EndMs: 6000, DurationMs: 3000, Speakers: [2]int{0, 2}}},
		},
		{
			name: "nested pairs",
			raw:  `{"splitted": [{"speaker":0,"start":0,"stop":10},{"speaker":1,"start":1,"stop":2},{"speaker":2,"start":3,"stop":4}]}`,
			want: []Overlap{
				{StartMs: 1000, EndMs: 2000, DurationMs: 1000, Speakers: [2]int{0, 1}},
				{StartMs: 3000, EndMs: 4000, DurationMs: 1000, Speakers: [2]int{0, 2}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(parse(t, tt.raw))
			if len(got) != len(tt.want) {
				t.Fatalf("Overlaps = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	tests := map[int64]string{
		0:         "00:00:00",
		999:       "00:00:00",
		61_500:    "00:01:01",
		3_723_000: "01:02:03",
		-5:        "00:00:00",
	}
	for in, want := range tests {
		if got := FormatClock(in); got != want {
			t.Errorf("FormatClock(%d) = %s, want %s", in, got, want)
		}
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		v      float64
		places int
		want   float64
	}{
		{63.63636, 1, 63.6},
		{0.25, 1, 0.2},
		{18.181818, 2, 18.18},
		{2.5, 0, 2},
		{18.15, 1, 18.1},
		{3630.0 / 20000 * 100, 1, 18.1},
	}
	for _, tt := range tests {
		if got := Round(tt.v, tt.places); got != tt.want {
			t.Errorf("Round(%v, %d) = %v, want %v", tt.v, tt.places, got, tt.want)
		}
	}
}
