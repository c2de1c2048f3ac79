package sync

import "time"

// Timestamp layouts seen in AEX responses. Naive timestamps carry no zone
// and are treated as UTC.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// EpochMillis converts an ISO-8601 timestamp string to Unix epoch
// milliseconds. Empty or unparseable input yields nil, never an error; CRM
// date properties receive null in that case.
func EpochMillis(s string) *int64 {
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		ms := t.UnixMilli()
		return &ms
	}
	return nil
}
