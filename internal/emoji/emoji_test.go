package emoji

import "testing"

func TestIsCustomID(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"123456789012345678", true},
		{"123456789012345678901", true},
		{"1234567890123456", false}, // too short
		{"1234567890123456789012", false},
		{"12345678901234567a", false},
		{"📣", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsCustomID(tt.input); got != tt.want {
			t.Errorf("IsCustomID(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "empty", input: "", want: true},
		{name: "custom emoji id", input: "123456789012345678", want: true},
		{name: "simple emoji", input: "📣", want: true},
		{name: "emoji with variation selector", input: "☺️", want: true},
		{name: "zwj sequence", input: "👨‍👩‍👧", want: true},
		{name: "flag", input: "🇯🇵", want: true},
		{name: "keycap", input: "1️⃣", want: true},
		{name: "plain word", input: "horn", want: false},
		{name: "mixed text", input: "a📣", want: false},
		{name: "too long", input: "📣📣📣📣📣📣📣📣📣📣📣📣📣📣📣📣📣", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Valid(tt.input); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
