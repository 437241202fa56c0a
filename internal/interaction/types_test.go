package interaction

import "testing"

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateAwaitingMAC, "awaiting-mac"},
		{StateAwaitingUsername, "awaiting-username"},
		{StateAwaitingNewDeviceMAC, "awaiting-new-device-mac"},
		{StateAwaitingRename, "awaiting-rename"},
		{StateAwaitingConfigValue, "awaiting-config-value"},
		{StateAwaitingConfigResponse, "awaiting-config-response"},
		{StateAwaitingConfigAck, "awaiting-config-ack"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
			}
		})
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text string
		want CommandKind
	}{
		{"/start", CommandStart},
		{"/start AABBCC112233", CommandStart},
		{"/start@smartchill_bot", CommandStart},
		{"/help", CommandHelp},
		{"/newdevice", CommandNewDevice},
		{"/mydevices", CommandMyDevices},
		{"/showme", CommandShowMe},
		{"/deleteme", CommandDeleteMe},
		{"/cancel", CommandCancel},
		{"/unknown", CommandUnknown},
		{"plain text", CommandUnknown},
		{"", CommandUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := ParseCommand(tt.text); got != tt.want {
				t.Errorf("ParseCommand(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data     string
		wantKind CallbackKind
		wantArgs []string
	}{
		{"dev SmartChill_112233", CallbackDevice, []string{"SmartChill_112233"}},
		{"info SmartChill_112233", CallbackInfo, []string{"SmartChill_112233"}},
		{"rename SmartChill_112233", CallbackRename, []string{"SmartChill_112233"}},
		{"conf SmartChill_112233", CallbackConfig, []string{"SmartChill_112233"}},
		{"unassign SmartChill_112233", CallbackUnassign, []string{"SmartChill_112233"}},
		{"svc door-timer SmartChill_112233", CallbackService, []string{"door-timer", "SmartChill_112233"}},
		{"val door-timer SmartChill_112233", CallbackShowValues, []string{"door-timer", "SmartChill_112233"}},
		{"editmenu door-timer SmartChill_112233", CallbackEditMenu, []string{"door-timer", "SmartChill_112233"}},
		{"ed 3", CallbackEditSetting, []string{"3"}},
		{"sb 1", CallbackSetBool, []string{"1"}},
		{"cancel_edit", CallbackCancelEdit, nil},
		{"cb_quit_menu", CallbackQuitMenu, nil},
		{"back dev SmartChill_112233", CallbackBack, []string{"dev", "SmartChill_112233"}},
		{"bogus", CallbackUnknown, nil},
		{"", CallbackUnknown, nil},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got := ParseCallback(tt.data)
			if got.Kind != tt.wantKind {
				t.Errorf("ParseCallback(%q).Kind = %v, want %v", tt.data, got.Kind, tt.wantKind)
			}
			if len(got.Args) != len(tt.wantArgs) {
				t.Fatalf("ParseCallback(%q).Args = %v, want %v", tt.data, got.Args, tt.wantArgs)
			}
			for i := range got.Args {
				if got.Args[i] != tt.wantArgs[i] {
					t.Errorf("ParseCallback(%q).Args[%d] = %q, want %q", tt.data, i, got.Args[i], tt.wantArgs[i])
				}
			}
		})
	}
}

func TestParseCallback_CollapsesRepeatedSpaces(t *testing.T) {
	got := ParseCallback("svc  door-timer   SmartChill_112233")
	if len(got.Args) != 2 || got.Args[0] != "door-timer" || got.Args[1] != "SmartChill_112233" {
		t.Errorf("ParseCallback() with repeated spaces = %+v", got)
	}
}
