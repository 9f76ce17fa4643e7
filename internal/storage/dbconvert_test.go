package storage

import (
	"database/sql"
	"reflect"
	"testing"
	"time"
)

func TestMarshalUnmarshalPendingTags(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "multiple names", input: []string{"golang", "web"}, expected: []string{"golang", "web"}},
		{name: "single name", input: []string{"golang"}, expected: []string{"golang"}},
		{name: "empty slice", input: []string{}, expected: []string{}},
		{name: "nil slice", input: nil, expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := marshalPendingTags(tt.input)
			if err != nil {
				t.Fatalf("marshalPendingTags error: %v", err)
			}

			result, err := unmarshalPendingTags(data)
			if err != nil {
				t.Fatalf("unmarshalPendingTags error: %v", err)
			}

			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestUnmarshalPendingTags(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
		wantErr  bool
	}{
		{name: "valid JSON array", input: `["a","b"]`, expected: []string{"a", "b"}},
		{name: "null", input: `null`, expected: []string{}},
		{name: "empty string", input: "", expected: []string{}},
		{name: "invalid JSON", input: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := unmarshalPendingTags(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshalPendingTags error: %v", err)
			}
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestUnixMicros(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 123456000, time.UTC)
	if got := fromUnixMicros(toUnixMicros(ts)); !got.Equal(ts) {
		t.Errorf("expected %v, got %v", ts, got)
	}

	if nullTimeFromMicros(sql.NullInt64{}) != nil {
		t.Error("expected nil for NULL timestamp")
	}
	if got := nullTimeFromMicros(sql.NullInt64{Int64: toUnixMicros(ts), Valid: true}); got == nil || !got.Equal(ts) {
		t.Errorf("expected %v, got %v", ts, got)
	}
}

func TestNullStrings(t *testing.T) {
	if nullStringPtr(sql.NullString{}) != nil {
		t.Error("expected nil for NULL string")
	}
	s := "moderator"
	if got := nullStringPtr(stringPtrToNull(&s)); got == nil || *got != s {
		t.Errorf("expected %q, got %v", s, got)
	}
	if stringPtrToNull(nil).Valid {
		t.Error("expected invalid NullString for nil pointer")
	}
}
