package main

import "testing"

func TestFormatPayloadSortsKeys(t *testing.T) {
	got := formatPayload(map[string]any{"total": 30000, "change": 20000, "method": "Cash"})
	want := "change=20000 method=Cash total=30000"
	if got != want {
		t.Errorf("formatPayload() = %q, want %q", got, want)
	}
}
