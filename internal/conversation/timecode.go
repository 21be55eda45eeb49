package conversation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Timecode is a position or length within a recording, kept in
// milliseconds. In JSON it is either an "H:M:S.frac" string or a number of
// seconds. Malformed values decode to zero rather than failing.
type Timecode int64

// ParseClock converts "H:M:S.frac" to milliseconds. The fractional digits
// are read as a whole number of milliseconds, so "0:00:01.5" is 1005.
// Missing trailing components count as zero; anything unparsable yields 0.
func ParseClock(s string) int64 {
	parts := strings.Split(strings.TrimSpace(s), ":")

	atoi := func(v string) (int64, bool) {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	}

	hours, ok := atoi(parts[0])
	if !ok {
		return 0
	}
	var minutes, seconds, millis int64
	if len(parts) > 1 {
		if minutes, ok = atoi(parts[1]); !ok {
			return 0
		}
	}
	if len(parts) > 2 {
		sec, frac, hasFrac := strings.Cut(parts[2], ".")
		if seconds, ok = atoi(sec); !ok {
			return 0
		}
		if hasFrac {
			if millis, ok = atoi(frac); !ok {
				return 0
			}
		}
	}
	return (hours*3600+minutes*60+seconds)*1000 + millis
}

// UnmarshalJSON accepts a clock string or a number of seconds.
func (t *Timecode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*t = 0
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*t = Timecode(ParseClock(s))
		}
	case 'n', 't', 'f', '{', '[':
	default:
		var sec float64
		if err := json.Unmarshal(data, &sec); err == nil && !math.IsInf(sec, 0) && !math.IsNaN(sec) {
			*t = Timecode(math.Round(sec * 1000))
		}
	}
	return nil
}

// MarshalJSON writes the value as seconds.
func (t Timecode) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(t.Seconds(), 'f', -1, 64)), nil
}

func (t Timecode) Millis() int64 { return int64(t) }

func (t Timecode) Seconds() float64 { return float64(t) / 1000 }

// String renders H:MM:SS.mmm.
func (t Timecode) String() string {
	ms := int64(t)
	sign := ""
	if ms < 0 {
		sign, ms = "-", -ms
	}
	return fmt.Sprintf("%s%d:%02d:%02d.%03d", sign, ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}
