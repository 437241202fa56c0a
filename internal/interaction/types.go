// Package interaction implements the Interaction Engine: a pure dispatch
// layer over text commands, inline-button callbacks, and chat-membership
// updates, driving a per-chat state machine for device registration and
// configuration.
package interaction

// State is one of the Interaction Engine's per-chat states.
type State int

const (
	StateIdle State = iota
	StateAwaitingMAC
	StateAwaitingUsername
	StateAwaitingNewDeviceMAC
	StateAwaitingRename
	StateAwaitingConfigValue
	StateAwaitingConfigResponse
	StateAwaitingConfigAck
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingMAC:
		return "awaiting-mac"
	case StateAwaitingUsername:
		return "awaiting-username"
	case StateAwaitingNewDeviceMAC:
		return "awaiting-new-device-mac"
	case StateAwaitingRename:
		return "awaiting-rename"
	case StateAwaitingConfigValue:
		return "awaiting-config-value"
	case StateAwaitingConfigResponse:
		return "awaiting-config-response"
	case StateAwaitingConfigAck:
		return "awaiting-config-ack"
	default:
		return "unknown"
	}
}

// CommandKind is the tagged enumeration of recognized text commands.
type CommandKind int

const (
	CommandUnknown CommandKind = iota
	CommandStart
	CommandHelp
	CommandNewDevice
	CommandMyDevices
	CommandShowMe
	CommandDeleteMe
	CommandCancel
)

var commandTable = map[string]CommandKind{
	"/start":     CommandStart,
	"/help":      CommandHelp,
	"/newdevice": CommandNewDevice,
	"/mydevices": CommandMyDevices,
	"/showme":    CommandShowMe,
	"/deleteme":  CommandDeleteMe,
	"/cancel":    CommandCancel,
}

// ParseCommand resolves raw text to a CommandKind. Anything not starting
// with "/" or not in the table is CommandUnknown.
func ParseCommand(text string) CommandKind {
	if len(text) == 0 || text[0] != '/' {
		return CommandUnknown
	}
	word := text
	for i, r := range text {
		if r == ' ' || r == '@' {
			word = text[:i]
			break
		}
	}
	if kind, ok := commandTable[word]; ok {
		return kind
	}
	return CommandUnknown
}

// CallbackKind is the tagged enumeration of inline-button callback
// prefixes.
type CallbackKind int

const (
	CallbackUnknown     CallbackKind = iota
	CallbackDevice                   // "dev {deviceID}"
	CallbackInfo                     // "info {deviceID}"
	CallbackRename                   // "rename {deviceID}"
	CallbackConfig                   // "conf {deviceID}"
	CallbackUnassign                 // "unassign {deviceID}"
	CallbackService                  // "svc {service} {deviceID}"
	CallbackShowValues               // "val {service} {deviceID}"
	CallbackEditMenu                 // "editmenu {service} {deviceID}"
	CallbackEditSetting              // "ed {index}"
	CallbackSetBool                  // "sb {0|1}"
	CallbackCancelEdit               // "cancel_edit"
	CallbackQuitMenu                 // "cb_quit_menu"
	CallbackBack                     // "back {dev|svc|val} {args...}" — returns to the menu frame named by args[0]
)

var callbackPrefixes = map[string]CallbackKind{
	"dev":          CallbackDevice,
	"info":         CallbackInfo,
	"rename":       CallbackRename,
	"conf":         CallbackConfig,
	"unassign":     CallbackUnassign,
	"svc":          CallbackService,
	"val":          CallbackShowValues,
	"editmenu":     CallbackEditMenu,
	"ed":           CallbackEditSetting,
	"sb":           CallbackSetBool,
	"cancel_edit":  CallbackCancelEdit,
	"cb_quit_menu": CallbackQuitMenu,
	"back":         CallbackBack,
}

// Callback is the decoded result of a callback_data string.
type Callback struct {
	Kind CallbackKind
	Args []string
}

// ParseCallback splits "tag arg1 arg2" into a tagged Callback.
func ParseCallback(data string) Callback {
	fields := splitFields(data)
	if len(fields) == 0 {
		return Callback{Kind: CallbackUnknown}
	}
	kind, ok := callbackPrefixes[fields[0]]
	if !ok {
		return Callback{Kind: CallbackUnknown}
	}
	return Callback{Kind: kind, Args: fields[1:]}
}

func splitFields(s string) []string {
	var fields []string
	start := -1
	for i, r := range s {
		if r == ' ' {
			if start >= 0 {
				fields = append(fields, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		fields = append(fields, s[start:])
	}
	return fields
}
