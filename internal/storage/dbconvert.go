package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// marshalPendingTags serialises pending tag names to a JSON array string.
func marshalPendingTags(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	b, err := json.Marshal(names)
	if err != nil {
		return "", fmt.Errorf("marshal pending tags: %w", err)
	}
	return string(b), nil
}

// unmarshalPendingTags parses a JSON array string into pending tag names.
func unmarshalPendingTags(data string) ([]string, error) {
	if data == "" {
		return []string{}, nil
	}
	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("unmarshal pending tags: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// toUnixMicros is the sqlite timestamp encoding.
func toUnixMicros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

func fromUnixMicros(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}

func nullTimeFromMicros(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromUnixMicros(v.Int64)
	return &t
}

func nullStringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func stringPtrToNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func pendingOrEmpty(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
