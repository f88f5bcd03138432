package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/eleflat/internal/digest"
)

// marshalRejections serializes rejection counts to canonical JSON so
// equal counts always store as equal text.
func marshalRejections(rejected map[string]int64) (string, error) {
	obj := make(map[string]any, len(rejected))
	for reason, n := range rejected {
		obj[reason] = n
	}
	b, err := digest.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal rejections: %w", err)
	}
	return string(b), nil
}

func unmarshalRejections(data string) (map[string]int64, error) {
	out := map[string]int64{}
	if data == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal rejections: %w", err)
	}
	return out, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
