package conversation

import (
	"bytes"
	"encoding/json"
	"sort"
)

// DefaultClassLabel is the classifier consulted for a fragment's class.
const DefaultClassLabel = "Скрипты1"

// OperatorSpeaker is the speaker id of the call-center operator. Every
// other id is a client.
const OperatorSpeaker = 0

// Unknown is reported for missing speaker attributes.
const Unknown = "unknown"

// Prediction is a label with the classifier's confidence.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Fragment is one speaker turn. Only the fields the viewer needs are
// decoded; Raw keeps the original object.
type Fragment struct {
	Speaker  int
	Text     string
	Start    Timecode
	Stop     Timecode
	Duration Timecode

	smc     map[string]classifier
	emotion json.RawMessage
	voice   voiceAnalysis
	raw     json.RawMessage
}

type classifier struct {
	Classes []struct {
		Class      *string `json:"class"`
		Confidence float64 `json:"confidence"`
	} `json:"classes"`
}

type voiceAnalysis struct {
	Emotion json.RawMessage `json:"emotion"`
	Age     json.RawMessage `json:"age"`
	Gender  json.RawMessage `json:"gender"`
}

// UnmarshalJSON decodes leniently. Fields of the wrong type are treated as
// absent, so one odd fragment never rejects a document.
func (f *Fragment) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*f = Fragment{raw: append(json.RawMessage(nil), data...)}

	var speaker float64
	if json.Unmarshal(fields["speaker"], &speaker) == nil {
		f.Speaker = int(speaker)
	}
	_ = json.Unmarshal(fields["text"], &f.Text)
	_ = json.Unmarshal(fields["start"], &f.Start)
	_ = json.Unmarshal(fields["stop"], &f.Stop)
	_ = json.Unmarshal(fields["duration"], &f.Duration)

	var classifiers struct {
		SMC map[string]json.RawMessage `json:"smc"`
	}
	if json.Unmarshal(fields["classifiers"], &classifiers) == nil {
		for label, raw := range classifiers.SMC {
			var c classifier
			if json.Unmarshal(raw, &c) == nil {
				if f.smc == nil {
					f.smc = make(map[string]classifier, len(classifiers.SMC))
				}
				f.smc[label] = c
			}
		}
	}

	f.emotion = fields["emotion"]
	_ = json.Unmarshal(fields["voice_analysis"], &f.voice)
	return nil
}

// MarshalJSON returns the original object.
func (f Fragment) MarshalJSON() ([]byte, error) {
	if len(f.raw) == 0 {
		return []byte("{}"), nil
	}
	return f.raw, nil
}

// Raw returns the fragment as stored.
func (f *Fragment) Raw() json.RawMessage { return f.raw }

// IsOperator reports whether the fragment was spoken by the operator.
func (f *Fragment) IsOperator() bool { return f.Speaker == OperatorSpeaker }

// DurationMs is stop minus start. The stored duration field is not trusted
// since producers disagree on its unit.
func (f *Fragment) DurationMs() int64 { return f.Stop.Millis() - f.Start.Millis() }

// Class returns the top class of the smc classifier named label. When that
// classifier is absent the first classifier in lexical order is used. ok is
// false when the classifier reports no classes.
func (f *Fragment) Class(label string) (Prediction, bool) {
	if len(f.smc) == 0 {
		return Prediction{}, false
	}
	c, found := f.smc[label]
	if !found {
		labels := make([]string, 0, len(f.smc))
		for l := range f.smc {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		c = f.smc[labels[0]]
	}
	if len(c.Classes) == 0 {
		return Prediction{}, false
	}
	top := c.Classes[0]
	p := Prediction{Label: "N/A", Confidence: top.Confidence}
	if top.Class != nil {
		p.Label = *top.Class
	}
	return p, true
}

// Emotion resolves the fragment's emotion. A non-empty "emotion" object
// contributes its first key and a non-empty "emotion" string is used as
// is; otherwise voice_analysis.emotion.class applies.
func (f *Fragment) Emotion() (Prediction, bool) {
	if p, ok := firstKey(f.emotion); ok {
		return p, true
	}
	var s string
	if json.Unmarshal(f.emotion, &s) == nil && s != "" {
		return Prediction{Label: s}, true
	}
	return labelOf(f.voice.Emotion, "N/A")
}

// Age returns voice_analysis.age, or Unknown.
func (f *Fragment) Age() string {
	p, _ := labelOf(f.voice.Age, Unknown)
	if p.Label == "" {
		return Unknown
	}
	return p.Label
}

// Gender returns voice_analysis.gender, or Unknown.
func (f *Fragment) Gender() string {
	p, _ := labelOf(f.voice.Gender, Unknown)
	if p.Label == "" {
		return Unknown
	}
	return p.Label
}

// labelOf reads a classifier result that is a plain string, a number or an
// object {"class": ..., "confidence": ...}. An object without a class
// yields fallback. ok is false when raw is absent or empty.
func labelOf(raw json.RawMessage, fallback string) (Prediction, bool) {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if s == "" {
			return Prediction{}, false
		}
		return Prediction{Label: s}, true
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return Prediction{Label: n.String()}, true
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) != nil || len(obj) == 0 {
		return Prediction{}, false
	}
	p := Prediction{Label: fallback}
	_ = json.Unmarshal(obj["confidence"], &p.Confidence)
	var class string
	if json.Unmarshal(obj["class"], &class) == nil && class != "" {
		p.Label = class
	}
	return p, true
}

// firstKey returns the first key of a JSON object in document order, with
// its value as confidence when numeric.
func firstKey(raw json.RawMessage) (Prediction, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return Prediction{}, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return Prediction{}, false
	}
	if !dec.More() {
		return Prediction{}, false
	}
	tok, err := dec.Token()
	if err != nil {
		return Prediction{}, false
	}
	key, _ := tok.(string)
	p := Prediction{Label: key}
	var conf float64
	if dec.Decode(&conf) == nil {
		p.Confidence = conf
	}
	return p, true
}
