package brawlstars

import (
	"bytes"
	"fmt"
	"time"
)

// TimeLayout is the API's timestamp format, e.g. "20251118T183123.000Z".
const TimeLayout = "20060102T150405.000Z"

// Time is a UTC timestamp in the API's compact format.
type Time struct {
	time.Time
}

// UnmarshalJSON parses TimeLayout strings. null and "" leave t zero.
func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("brawlstars: time must be a JSON string, got %s", data)
	}

	s := string(data[1 : len(data)-1])
	if s == "" {
		t.Time = time.Time{}
		return nil
	}

	parsed, err := time.Parse(TimeLayout, s)
	if err != nil {
		return fmt.Errorf("brawlstars: parse time %q: %w", s, err)
	}
	t.Time = parsed.UTC()
	return nil
}

// MarshalJSON formats t with TimeLayout.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + t.UTC().Format(TimeLayout) + `"`), nil
}
