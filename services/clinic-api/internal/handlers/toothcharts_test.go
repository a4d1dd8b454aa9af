package handlers

import (
	"encoding/json"
	"testing"
)

func TestNormalizeChartData(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"omitted defaults to empty document", "", "{}", true},
		{"valid document passes through", `{"18":{"status":"extracted"}}`, `{"18":{"status":"extracted"}}`, true},
		{"null is valid json", "null", "null", true},
		{"truncated json rejected", `{"18":`, "", false},
		{"plain text rejected", "not json", "", false},
	}
	for _, tc := range cases {
		got, ok := normalizeChartData(json.RawMessage(tc.in))
		if ok != tc.ok {
			t.Errorf("%s: ok = %v, want %v", tc.name, ok, tc.ok)
			continue
		}
		if tc.ok && string(got) != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}
