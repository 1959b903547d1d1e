package language

import "testing"

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"eng", "English"},
		{"en", "English"},
		{"jpn", "Japanese"},
		{"fre", "French"},
		{"fra", "French"},
		{"ger", "German"},
		{"und", "Undetermined"},
		{"", "Unknown"},
		{"  ", "Unknown"},
		{"xx1", "XX1"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.input); got != tt.expected {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestTrackType(t *testing.T) {
	tests := map[string]string{
		"video":     "Video",
		"subtitles": "Subtitles",
		"":          "Unknown",
	}
	for input, want := range tests {
		if got := TrackType(input); got != want {
			t.Errorf("TrackType(%q) = %q, want %q", input, got, want)
		}
	}
}
