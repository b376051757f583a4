package hotkey

import (
	"testing"
)

func TestKeyNameToRawcodes(t *testing.T) {
	tests := []struct {
		keyName  string
		expected []uint16
	}{
		// Modifier keys
		{"ctrl", []uint16{162, 163}},
		{"alt", []uint16{164, 165}},
		{"shift", []uint16{160, 161}},
		{"win", []uint16{91, 92}},
		{"cmd", []uint16{91, 92}},
		{"super", []uint16{91, 92}},

		// Letter keys
		{"q", []uint16{81}},
		{"e", []uint16{69}},
		{"Z", []uint16{90}},

		// Number keys
		{"0", []uint16{48}},
		{"1", []uint16{49}},
		{"9", []uint16{57}},

		// Function keys
		{"f1", []uint16{112}},
		{"f12", []uint16{123}},
		{"F13", []uint16{124}},
		{"f24", []uint16{135}},

		// The three default action keys
		{"space", []uint16{32}},
		{"enter", []uint16{13}},
		{"escape", []uint16{27}},
		{"esc", []uint16{27}},

		// Unknown keys
		{"unknown", nil},
		{"f25", nil},
		{"f0", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.keyName, func(t *testing.T) {
			result := keyNameToRawcodes(tt.keyName)
			if len(result) != len(tt.expected) {
				t.Errorf("keyNameToRawcodes(%q) returned %d rawcodes, expected %d",
					tt.keyName, len(result), len(tt.expected))
				return
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("keyNameToRawcodes(%q)[%d] = %d, expected %d",
						tt.keyName, i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestMatchesRawcode(t *testing.T) {
	codes := []uint16{162, 163}
	if !matchesRawcode(codes, 163) {
		t.Error("expected rawcode 163 to match")
	}
	if matchesRawcode(codes, 32) {
		t.Error("did not expect rawcode 32 to match")
	}
	if matchesRawcode(nil, 32) {
		t.Error("empty rawcode set must never match")
	}
}
