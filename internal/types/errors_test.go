package types

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestProviderError(t *testing.T) {
	underlying := errors.New("connection refused")
	err := NewProviderError("Store", "user:1", underlying)

	if !strings.Contains(err.Error(), "Store") || !strings.Contains(err.Error(), "user:1") {
		t.Errorf("Error() = %q, want op and key included", err.Error())
	}
	if !errors.Is(err, underlying) {
		t.Error("expected wrapped error to match with errors.Is")
	}
	if !IsProviderError(err) {
		t.Error("IsProviderError() = false, want true")
	}
	if !IsProviderError(fmt.Errorf("outer: %w", err)) {
		t.Error("IsProviderError() should see through wrapping")
	}
	if IsProviderError(underlying) {
		t.Error("IsProviderError() = true for a bare error")
	}
}

func TestProviderErrorWithoutKey(t *testing.T) {
	err := NewProviderError("ScanKeys", "", errors.New("timeout"))
	if strings.Contains(err.Error(), "[]") {
		t.Errorf("Error() = %q, empty key should be omitted", err.Error())
	}
}

func TestKeyTooLongError(t *testing.T) {
	err := &KeyTooLongError{Key: "app:very-long-key", Length: 200, Limit: 64}

	if !errors.Is(err, ErrKeyTooLong) {
		t.Error("expected error to match ErrKeyTooLong")
	}
	if !IsKeyTooLong(err) {
		t.Error("IsKeyTooLong() = false, want true")
	}
	if IsKeyTooLong(errors.New("other")) {
		t.Error("IsKeyTooLong() = true for unrelated error")
	}
	for _, want := range []string{"200", "64"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Error() = %q, want %q included", err.Error(), want)
		}
	}
}

func TestIsNil(t *testing.T) {
	type sample struct{ N int }
	var nilPtr *sample
	var nilMap map[string]int
	var nilSlice []int

	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"untyped nil", nil, true},
		{"typed nil pointer", nilPtr, true},
		{"nil map", nilMap, true},
		{"nil slice", nilSlice, true},
		{"zero struct", sample{}, false},
		{"non-nil pointer", &sample{}, false},
		{"zero int", 0, false},
		{"empty string", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNil(tt.v); got != tt.want {
				t.Errorf("IsNil(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}
