package interaction

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/AlexDuchaine19/SmartChill-sub001/internal/logging"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/registry"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/telegram"
)

// ChatSession holds one chat's state-machine position and the scratch data
// a multi-step flow accumulates along the way.
type ChatSession struct {
	State State

	// Registration/login scratch.
	PendingMAC string

	// Assignment/rename scratch.
	PendingDeviceID string

	// Configuration flow scratch.
	PendingService     string
	PendingSettingKey  string
	PendingOriginMsgID int
	EffectiveConfig    map[string]any
	SettingKeysOrder   []string
}

// pendingConfigRequest resolves an incoming config_data/config_ack/
// config_error bus reply back to the chat and message that is waiting on
// it.
type pendingConfigRequest struct {
	chatID    int64
	messageID int
}

// Bus is the narrow publish surface the engine needs to drive the
// configuration protocol.
type Bus interface {
	Publish(topic string, payload []byte) error
}

// Engine is the Interaction Engine: per-chat state plus the
// registration/configuration flows.
type Engine struct {
	bot          *telegram.Client
	bus          Bus
	registryURL  string
	http         *http.Client
	logger       logging.Interface
	projectOwner string
	projectName  string

	mu       sync.Mutex
	sessions map[int64]*ChatSession

	pendingMu sync.Mutex
	pending   map[string]pendingConfigRequest // key: request_id token
}

// New constructs an Engine.
func New(bot *telegram.Client, bus Bus, registryURL, projectOwner, projectName string, logger logging.Interface) *Engine {
	if logger == nil {
		logger = logging.NoopLogger{}
	}
	return &Engine{
		bot:          bot,
		bus:          bus,
		registryURL:  registryURL,
		http:         &http.Client{Timeout: 6 * time.Second},
		logger:       logger,
		projectOwner: projectOwner,
		projectName:  projectName,
		sessions:     make(map[int64]*ChatSession),
		pending:      make(map[string]pendingConfigRequest),
	}
}

// SetBus late-binds the bus publisher, since the composition root typically
// needs the Engine's HandleConfigReply method to build the bus dispatch
// callback before the bus client itself exists.
func (e *Engine) SetBus(b Bus) {
	e.bus = b
}

func (e *Engine) session(chatID int64) *ChatSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[chatID]
	if !ok {
		s = &ChatSession{State: StateIdle}
		e.sessions[chatID] = s
	}
	return s
}

func (e *Engine) resetToIdle(chatID int64) {
	e.mu.Lock()
	e.sessions[chatID] = &ChatSession{State: StateIdle}
	e.mu.Unlock()
}

// HandleUpdate dispatches one Telegram update to the appropriate handler:
// a message, a callback query, or a chat-membership change.
func (e *Engine) HandleUpdate(update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		e.handleMessage(update.Message)
	case update.CallbackQuery != nil:
		e.handleCallback(update.CallbackQuery)
	case update.MyChatMember != nil:
		e.handleChatMemberUpdate(update.MyChatMember)
	}
}

func (e *Engine) handleChatMemberUpdate(m *tgbotapi.ChatMemberUpdated) {
	// A user blocking or removing the bot invalidates any in-flight state;
	// there is no user to respond to, so just clear it.
	if m.NewChatMember.Status == "kicked" || m.NewChatMember.Status == "left" {
		e.resetToIdle(m.Chat.ID)
	}
}

func (e *Engine) handleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	cmd := ParseCommand(text)
	if cmd == CommandCancel {
		e.resetToIdle(chatID)
		e.reply(chatID, "cancelled")
		return
	}

	session := e.session(chatID)

	// Recognized commands received while in a state abort the state and
	// execute the command.
	if cmd != CommandUnknown && session.State != StateIdle {
		e.resetToIdle(chatID)
		session = e.session(chatID)
	}

	if cmd != CommandUnknown {
		e.handleCommand(chatID, cmd, text)
		return
	}

	// No recognized command: route by current state.
	switch session.State {
	case StateAwaitingMAC, StateAwaitingNewDeviceMAC:
		e.handleMACInput(chatID, text)
	case StateAwaitingUsername:
		e.handleUsernameInput(chatID, text)
	case StateAwaitingRename:
		e.handleRenameInput(chatID, text)
	case StateAwaitingConfigValue:
		e.handleConfigValueInput(chatID, text)
	default:
		e.reply(chatID, "I didn't understand that. Try /help.")
	}
}

func (e *Engine) handleCommand(chatID int64, cmd CommandKind, text string) {
	switch cmd {
	case CommandStart:
		e.cmdStart(chatID, commandArg(text))
	case CommandHelp:
		e.reply(chatID, "/newdevice to register a fridge, /mydevices to manage yours, /showme for your profile, /deleteme to remove your account, /cancel to abort.")
	case CommandNewDevice:
		e.cmdNewDevice(chatID)
	case CommandMyDevices:
		e.cmdMyDevices(chatID)
	case CommandShowMe:
		e.cmdShowMe(chatID)
	case CommandDeleteMe:
		e.cmdDeleteMe(chatID)
	}
}

// cmdStart handles /start, including the deep-link shortcut "/start <mac>"
// that feeds the MAC straight into the registration flow instead of
// prompting for it (spec §9 supplemented feature).
func (e *Engine) cmdStart(chatID int64, arg string) {
	if arg != "" && macPattern.MatchString(strings.ToUpper(strings.TrimSpace(arg))) {
		session := e.session(chatID)
		e.mu.Lock()
		session.State = StateAwaitingMAC
		e.mu.Unlock()
		e.handleMACInput(chatID, arg)
		return
	}
	if _, ok := e.lookupUserByChat(chatID); ok {
		e.reply(chatID, "Welcome back. Use /mydevices to manage your fridges.")
		return
	}
	e.cmdNewDevice(chatID)
}

// commandArg returns the text following the command word and an optional
// "@botname" suffix, e.g. "/start AABBCC112233" -> "AABBCC112233".
func commandArg(text string) string {
	fields := strings.SplitN(text, " ", 2)
	if len(fields) != 2 {
		return ""
	}
	return strings.TrimSpace(fields[1])
}

func (e *Engine) cmdNewDevice(chatID int64) {
	session := e.session(chatID)
	e.mu.Lock()
	session.State = StateAwaitingMAC
	e.mu.Unlock()
	e.reply(chatID, "Send me the MAC address of your fridge (e.g. AA:BB:CC:11:22:33).")
}

func (e *Engine) cmdShowMe(chatID int64) {
	user, ok := e.lookupUserByChat(chatID)
	if !ok {
		e.reply(chatID, "You are not registered yet. Use /newdevice to get started.")
		return
	}
	e.reply(chatID, fmt.Sprintf("userID: %s\ndevices: %d", user.UserID, len(user.DevicesList)))
}

func (e *Engine) cmdDeleteMe(chatID int64) {
	user, ok := e.lookupUserByChat(chatID)
	if !ok {
		e.reply(chatID, "You are not registered.")
		return
	}
	if err := e.deleteUser(user.UserID); err != nil {
		e.reply(chatID, "Something went wrong deleting your account.")
		return
	}
	e.resetToIdle(chatID)
	e.reply(chatID, "Your account and device assignments have been removed.")
}

func (e *Engine) cmdMyDevices(chatID int64) {
	user, ok := e.lookupUserByChat(chatID)
	if !ok {
		e.reply(chatID, "You are not registered yet. Use /newdevice to get started.")
		return
	}
	if len(user.DevicesList) == 0 {
		e.reply(chatID, "You have no devices yet. Use /newdevice to add one.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, d := range user.DevicesList {
		label := fmt.Sprintf("🧊 %s", d.DeviceName)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "dev "+d.DeviceID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Close", "cb_quit_menu")))

	e.bot.SendWithKeyboard(chatID, "Your devices:", tgbotapi.NewInlineKeyboardMarkup(rows...)) //nolint:errcheck
}

func (e *Engine) reply(chatID int64, text string) {
	if err := e.bot.Send(fmt.Sprintf("%d", chatID), text); err != nil {
		e.logger.Warn("sending reply failed", "chat_id", chatID, "error", err)
	}
}

// httpGetJSON and httpPostJSON are small helpers shared by every registry
// call the engine makes.
func (e *Engine) httpGetJSON(path string, dst any) error {
	resp, err := e.http.Get(e.registryURL + path)
	if err != nil {
		return fmt.Errorf("interaction: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("interaction: unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

var errNotFound = fmt.Errorf("interaction: not found")

func (e *Engine) lookupUserByChat(chatID int64) (registry.User, bool) {
	var user registry.User
	if err := e.httpGetJSON(fmt.Sprintf("/users/by-chat/%d", chatID), &user); err != nil {
		return registry.User{}, false
	}
	return user, true
}

func (e *Engine) deleteUser(userID string) error {
	req, err := http.NewRequest(http.MethodDelete, e.registryURL+"/users/"+userID, nil)
	if err != nil {
		return err
	}
	resp, err := e.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("interaction: delete user returned status %d", resp.StatusCode)
	}
	return nil
}
