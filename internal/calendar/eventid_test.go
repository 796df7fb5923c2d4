package calendar

import (
	"reflect"
	"testing"
)

func TestNormalizeEventID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"abc123", "abc123@google.com"},
		{"abc123@google.com", "abc123@google.com"},
		{"  abc123  ", "abc123@google.com"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := NormalizeEventID(tc.in); got != tc.want {
			t.Fatalf("NormalizeEventID(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestBaseEventID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"abc123_20240304", "abc123"},
		{"abc123_20240304T090000Z", "abc123"},
		{"abc123", "abc123"},
		{"abc_123", "abc_123"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := BaseEventID(tc.in); got != tc.want {
			t.Fatalf("BaseEventID(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestEventIDVariants(t *testing.T) {
	t.Run("bare id gains the qualified form", func(t *testing.T) {
		got := EventIDVariants("abc123")
		want := []string{"abc123@google.com", "abc123"}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("qualified id keeps both forms", func(t *testing.T) {
		got := EventIDVariants("abc123@google.com")
		want := []string{"abc123@google.com", "abc123"}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("empty id yields nothing", func(t *testing.T) {
		if got := EventIDVariants("   "); got != nil {
			t.Fatalf("expected nil, got %v", got)
		}
	})
}
