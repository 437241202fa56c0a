package interaction

import "testing"

func TestCommandArg(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"/start AABBCC112233", "AABBCC112233"},
		{"/start  AABBCC112233  ", "AABBCC112233"},
		{"/start", ""},
		{"/start@smartchill_bot AABBCC112233", "AABBCC112233"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := commandArg(tt.text); got != tt.want {
				t.Errorf("commandArg(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestStripSeparators(t *testing.T) {
	tests := []struct {
		mac  string
		want string
	}{
		{"AA:BB:CC:11:22:33", "AABBCC112233"},
		{"AA-BB-CC-11-22-33", "AABBCC112233"},
		{"AA.BB.CC.11.22.33", "AABBCC112233"},
		{"AABBCC112233", "AABBCC112233"},
	}
	for _, tt := range tests {
		t.Run(tt.mac, func(t *testing.T) {
			if got := stripSeparators(tt.mac); got != tt.want {
				t.Errorf("stripSeparators(%q) = %q, want %q", tt.mac, got, tt.want)
			}
		})
	}
}

func TestMacPattern(t *testing.T) {
	tests := []struct {
		mac  string
		want bool
	}{
		{"AA:BB:CC:11:22:33", true},
		{"AA-BB-CC-11-22-33", true},
		{"AABBCC112233", true},
		{"not a mac", false},
		{"AA:BB:CC:11:22", false},
	}
	for _, tt := range tests {
		t.Run(tt.mac, func(t *testing.T) {
			if got := macPattern.MatchString(tt.mac); got != tt.want {
				t.Errorf("macPattern.MatchString(%q) = %v, want %v", tt.mac, got, tt.want)
			}
		})
	}
}
