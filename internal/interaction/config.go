package interaction

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

// controlServices lists the control services the configuration flow can
// target, keyed by the serviceID each publishes its config topics under.
var controlServices = []struct {
	ID    string
	Label string
}{
	{ID: "door-timer", Label: "Door Timer"},
	{ID: "spoilage", Label: "Spoilage"},
	{ID: "status-check", Label: "Status Check"},
}

// settingKeys is the fixed, ordered, allow-listed set of configuration
// keys the edit menu walks.
var settingKeys = []string{
	"max_door_open_seconds",
	"check_interval",
	"enable_door_closed_alerts",
	"gas_threshold_ppm",
	"alert_cooldown_minutes",
	"enable_continuous_alerts",
	"temp_min_celsius",
	"temp_max_celsius",
	"humidity_max_percent",
	"enable_malfunction_alerts",
}

// newRequestToken mints the pending-request token carried as "request_id"
// on the wire, matching it back to a chat once the control service replies.
func newRequestToken() string {
	return uuid.NewString()
}

func (e *Engine) handleCallback(cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	parsed := ParseCallback(cb.Data)
	e.bot.AnswerCallback(cb.ID, "")

	switch parsed.Kind {
	case CallbackDevice:
		if len(parsed.Args) == 1 {
			e.showDeviceMenu(chatID, cb.Message.MessageID, parsed.Args[0])
		}
	case CallbackInfo:
		if len(parsed.Args) == 1 {
			e.showDeviceInfo(chatID, parsed.Args[0])
		}
	case CallbackRename:
		if len(parsed.Args) == 1 {
			session := e.session(chatID)
			e.mu.Lock()
			session.State = StateAwaitingRename
			session.PendingDeviceID = parsed.Args[0]
			e.mu.Unlock()
			e.reply(chatID, "Send the new name for this device.")
		}
	case CallbackUnassign:
		if len(parsed.Args) == 1 {
			if err := e.unassignDevice(parsed.Args[0]); err != nil {
				e.reply(chatID, "Couldn't unassign that device.")
				return
			}
			e.reply(chatID, "Device unassigned.")
		}
	case CallbackConfig:
		if len(parsed.Args) == 1 {
			e.showServiceMenu(chatID, parsed.Args[0])
		}
	case CallbackService, CallbackShowValues:
		if len(parsed.Args) == 2 {
			e.requestConfig(chatID, parsed.Args[0], parsed.Args[1])
		}
	case CallbackEditMenu:
		if len(parsed.Args) == 2 {
			e.showEditMenu(chatID, parsed.Args[0], parsed.Args[1])
		}
	case CallbackEditSetting:
		if len(parsed.Args) == 1 {
			e.beginEditSetting(chatID, parsed.Args[0])
		}
	case CallbackSetBool:
		if len(parsed.Args) == 1 {
			e.submitBoolEdit(chatID, parsed.Args[0] == "1")
		}
	case CallbackCancelEdit:
		e.resetToIdle(chatID)
		e.reply(chatID, "Edit cancelled.")
	case CallbackQuitMenu:
		e.resetToIdle(chatID)
	case CallbackBack:
		e.handleBack(chatID, cb.Message.MessageID, parsed.Args)
	}
}

// handleBack re-renders the menu frame the "« Back" button on each submenu
// points at (spec §9 supplemented feature: bot inline back navigation).
func (e *Engine) handleBack(chatID int64, messageID int, args []string) {
	if len(args) == 0 {
		return
	}
	switch args[0] {
	case "dev":
		if len(args) == 2 {
			e.showDeviceMenu(chatID, messageID, args[1])
		}
	case "svc":
		if len(args) == 2 {
			e.showServiceMenu(chatID, args[1])
		}
	case "val":
		if len(args) == 3 {
			e.requestConfig(chatID, args[1], args[2])
		}
	}
}

func (e *Engine) showDeviceMenu(chatID int64, messageID int, deviceID string) {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Info", "info "+deviceID)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Rename", "rename "+deviceID)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Configure", "conf "+deviceID)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Unassign", "unassign "+deviceID)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Close", "cb_quit_menu")),
	}
	e.bot.SendWithKeyboard(chatID, "Device: "+deviceID, tgbotapi.NewInlineKeyboardMarkup(rows...)) //nolint:errcheck
}

func (e *Engine) showDeviceInfo(chatID int64, deviceID string) {
	dev, err := e.getDevice(deviceID)
	if err != nil {
		e.reply(chatID, "Couldn't load device info.")
		return
	}
	text := fmt.Sprintf("model: %s\nstatus: %s\nfirmware: %s\nlast sync: %s",
		dev.Model, dev.Status, dev.FirmwareVersion, dev.LastSync.Format(time.RFC3339))
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("« Back", "back dev "+deviceID)),
	}
	e.bot.SendWithKeyboard(chatID, text, tgbotapi.NewInlineKeyboardMarkup(rows...)) //nolint:errcheck
}

type deviceInfo struct {
	Model           string    `json:"model"`
	Status          string    `json:"status"`
	FirmwareVersion string    `json:"firmware_version"`
	LastSync        time.Time `json:"last_sync"`
}

func (e *Engine) getDevice(deviceID string) (deviceInfo, error) {
	var dev deviceInfo
	if err := e.httpGetJSON("/devices/"+deviceID, &dev); err != nil {
		return deviceInfo{}, err
	}
	return dev, nil
}

func (e *Engine) showServiceMenu(chatID int64, deviceID string) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, svc := range controlServices {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(svc.Label, "svc "+svc.ID+" "+deviceID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("« Back", "back dev "+deviceID)))
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Close", "cb_quit_menu")))
	e.bot.SendWithKeyboard(chatID, "Which service?", tgbotapi.NewInlineKeyboardMarkup(rows...)) //nolint:errcheck
}

// requestConfig publishes a get_config request and registers a pending
// entry so the bus reply can find its way back to this chat.
func (e *Engine) requestConfig(chatID int64, service, deviceID string) {
	session := e.session(chatID)
	e.mu.Lock()
	session.State = StateAwaitingConfigResponse
	session.PendingService = service
	session.PendingDeviceID = deviceID
	e.mu.Unlock()

	token := newRequestToken()
	e.pendingMu.Lock()
	e.pending[token] = pendingConfigRequest{chatID: chatID}
	e.pendingMu.Unlock()

	topic := fmt.Sprintf("%s/%s/%s/%s/config_update", e.projectOwner, e.projectName, service, deviceID)
	body, _ := json.Marshal(map[string]any{"request": "get_config", "request_id": token})
	if err := e.bus.Publish(topic, body); err != nil {
		e.reply(chatID, "Couldn't reach that service right now.")
		e.resetToIdle(chatID)
	}
}

// HandleConfigReply is wired by the composition root to every
// `+/+/+/+/config_data|config_ack|config_error` message; it resolves the
// pending request table and drives the next step of the edit flow.
func (e *Engine) HandleConfigReply(topic string, payload []byte) {
	parts := strings.Split(topic, "/")
	if len(parts) < 5 {
		return
	}
	service, deviceID, kind := parts[len(parts)-3], parts[len(parts)-2], parts[len(parts)-1]

	var envelope struct {
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil || envelope.RequestID == "" {
		return
	}

	e.pendingMu.Lock()
	req, ok := e.pending[envelope.RequestID]
	if ok {
		delete(e.pending, envelope.RequestID)
	}
	e.pendingMu.Unlock()
	if !ok {
		return
	}

	switch kind {
	case "config_data":
		e.deliverConfigData(req.chatID, service, deviceID, payload)
	case "config_ack":
		e.resetToIdle(req.chatID)
		e.reply(req.chatID, "Setting updated.")
	case "config_error":
		e.resetToIdle(req.chatID)
		e.reply(req.chatID, "That change was rejected.")
	}
}

func (e *Engine) deliverConfigData(chatID int64, service, deviceID string, payload []byte) {
	var body struct {
		Config map[string]any `json:"config"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		e.reply(chatID, "Got an unreadable reply from that service.")
		e.resetToIdle(chatID)
		return
	}

	session := e.session(chatID)
	e.mu.Lock()
	session.State = StateIdle
	session.EffectiveConfig = body.Config
	e.mu.Unlock()

	var lines []string
	for _, key := range settingKeys {
		if v, ok := body.Config[key]; ok {
			lines = append(lines, fmt.Sprintf("%s: %v", key, v))
		}
	}
	text := strings.Join(lines, "\n")
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Edit", "editmenu "+service+" "+deviceID)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("« Back", "back svc "+deviceID)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Close", "cb_quit_menu")),
	}
	e.bot.SendWithKeyboard(chatID, text, tgbotapi.NewInlineKeyboardMarkup(rows...)) //nolint:errcheck
}

func (e *Engine) showEditMenu(chatID int64, service, deviceID string) {
	session := e.session(chatID)
	e.mu.Lock()
	session.PendingService = service
	session.PendingDeviceID = deviceID
	session.SettingKeysOrder = settingKeys
	e.mu.Unlock()

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, key := range settingKeys {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(key, fmt.Sprintf("ed %d", i)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("« Back", "back val "+service+" "+deviceID)))
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Cancel", "cancel_edit")))
	e.bot.SendWithKeyboard(chatID, "Pick a setting to edit:", tgbotapi.NewInlineKeyboardMarkup(rows...)) //nolint:errcheck
}

func (e *Engine) beginEditSetting(chatID int64, indexStr string) {
	index, err := strconv.Atoi(indexStr)
	session := e.session(chatID)
	e.mu.Lock()
	order := session.SettingKeysOrder
	e.mu.Unlock()
	if err != nil || index < 0 || index >= len(order) {
		e.reply(chatID, "Invalid selection.")
		return
	}
	key := order[index]

	if strings.HasPrefix(key, "enable_") {
		rows := [][]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("On", "sb 1"),
				tgbotapi.NewInlineKeyboardButtonData("Off", "sb 0"),
			),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Cancel", "cancel_edit")),
		}
		e.mu.Lock()
		session.PendingSettingKey = key
		e.mu.Unlock()
		e.bot.SendWithKeyboard(chatID, "Set "+key+":", tgbotapi.NewInlineKeyboardMarkup(rows...)) //nolint:errcheck
		return
	}

	e.mu.Lock()
	session.PendingSettingKey = key
	session.State = StateAwaitingConfigValue
	e.mu.Unlock()
	e.reply(chatID, "Send the new value for "+key+".")
}

func (e *Engine) submitBoolEdit(chatID int64, value bool) {
	session := e.session(chatID)
	e.mu.Lock()
	service, deviceID, key := session.PendingService, session.PendingDeviceID, session.PendingSettingKey
	e.mu.Unlock()
	e.sendConfigUpdate(chatID, service, deviceID, key, value)
}

func (e *Engine) handleConfigValueInput(chatID int64, text string) {
	session := e.session(chatID)
	e.mu.Lock()
	service, deviceID, key := session.PendingService, session.PendingDeviceID, session.PendingSettingKey
	e.mu.Unlock()

	num, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		e.reply(chatID, "That's not a number. Try again, or /cancel.")
		return
	}
	e.sendConfigUpdate(chatID, service, deviceID, key, num)
}

func (e *Engine) sendConfigUpdate(chatID int64, service, deviceID, key string, value any) {
	token := newRequestToken()
	e.pendingMu.Lock()
	e.pending[token] = pendingConfigRequest{chatID: chatID}
	e.pendingMu.Unlock()

	session := e.session(chatID)
	e.mu.Lock()
	session.State = StateAwaitingConfigAck
	e.mu.Unlock()

	topic := fmt.Sprintf("%s/%s/%s/%s/config_update", e.projectOwner, e.projectName, service, deviceID)
	body, _ := json.Marshal(map[string]any{key: value, "request_id": token})
	if err := e.bus.Publish(topic, body); err != nil {
		e.reply(chatID, "Couldn't reach that service right now.")
		e.resetToIdle(chatID)
	}
}
