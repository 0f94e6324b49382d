package core

import (
	"encoding/json"
	"strings"
	"time"
)

// Timestamp is a server-managed instant serialized as RFC 3339 with nanoseconds in UTC.
// Payload values that are empty or unparseable decode to the zero value, since the
// repository overwrites them anyway.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{Time: t.UTC()}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*t = Timestamp{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		*t = Timestamp{}
		return nil
	}
	*t = NewTimestamp(parsed)
	return nil
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseDate parses the date strings clients send for expenses, incomes and bills
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ValidMonth reports whether s is a YYYY-MM month
func ValidMonth(s string) bool {
	_, err := time.Parse("2006-01", s)
	return err == nil
}
