package interaction

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/AlexDuchaine19/SmartChill-sub001/internal/registry"
)

// macPattern accepts a MAC as six hex pairs separated by ':' or '-', or
// with no separators; the Registry itself is the authority on
// normalization.
var macPattern = regexp.MustCompile(`^[0-9A-Fa-f]{2}([:\-]?[0-9A-Fa-f]{2}){5}$`)

// handleMACInput implements the MAC-normalize -> device-lookup ->
// assigned/free branch of the registration flow.
func (e *Engine) handleMACInput(chatID int64, text string) {
	mac := strings.ToUpper(strings.TrimSpace(text))
	if !macPattern.MatchString(mac) {
		e.reply(chatID, "That doesn't look like a MAC address. Try again, or /cancel.")
		return
	}

	device, found := e.lookupDeviceByMAC(mac)
	if !found {
		e.reply(chatID, "I don't recognize that device yet. Make sure it's powered on and has reported at least once, then try again.")
		return
	}

	if device.UserAssigned {
		if user, ok := e.lookupUserByChat(chatID); ok && device.Owner != nil && strings.EqualFold(*device.Owner, user.UserID) {
			e.reply(chatID, "This fridge is already linked to your account. Use /mydevices to manage it.")
		} else {
			e.reply(chatID, "That fridge is already registered to a different user.")
		}
		e.resetToIdle(chatID)
		return
	}

	session := e.session(chatID)
	e.mu.Lock()
	session.PendingDeviceID = device.DeviceID
	e.mu.Unlock()

	if user, ok := e.lookupUserByChat(chatID); ok {
		e.assignAndFinish(chatID, user.UserID, device.DeviceID)
		return
	}

	e.mu.Lock()
	session.State = StateAwaitingUsername
	e.mu.Unlock()
	e.reply(chatID, "Found it. Pick a username to register with.")
}

// lookupDeviceByMAC fetches the Registry's device list and returns the
// device whose MAC matches mac once ':', '-' and '.' separators are
// stripped and case is ignored.
func (e *Engine) lookupDeviceByMAC(mac string) (registry.Device, bool) {
	var devices []registry.Device
	if err := e.httpGetJSON("/devices", &devices); err != nil {
		return registry.Device{}, false
	}
	cleanedMAC := stripSeparators(mac)
	for _, d := range devices {
		if stripSeparators(strings.ToUpper(d.MACAddress)) == cleanedMAC {
			return d, true
		}
	}
	return registry.Device{}, false
}

func stripSeparators(mac string) string {
	return strings.NewReplacer(":", "", "-", "", ".", "").Replace(mac)
}

func (e *Engine) handleUsernameInput(chatID int64, text string) {
	username := strings.TrimSpace(text)
	if username == "" {
		e.reply(chatID, "Username can't be empty. Try again, or /cancel.")
		return
	}

	session := e.session(chatID)
	chatIDStr := fmt.Sprintf("%d", chatID)
	user, err := e.createUser(strings.ToLower(username), username, &chatIDStr)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "conflict") {
			e.reply(chatID, "That username is taken, or this chat is already linked to another account. Try a different username, or /cancel.")
			return
		}
		e.logger.Warn("creating user failed", "error", err)
		e.reply(chatID, "Something went wrong creating your account. Try again later.")
		return
	}

	e.assignAndFinish(chatID, user.UserID, session.PendingDeviceID)
}

func (e *Engine) assignAndFinish(chatID int64, userID, deviceID string) {
	if err := e.assignDevice(userID, deviceID); err != nil {
		e.reply(chatID, "Registered your account, but assigning the device failed. Use /newdevice to retry.")
		e.resetToIdle(chatID)
		return
	}
	e.resetToIdle(chatID)
	e.reply(chatID, "All set. Use /mydevices to manage it.")
}

func (e *Engine) createUser(userID, userName string, chatID *string) (registry.User, error) {
	body, err := json.Marshal(map[string]any{
		"userID":             userID,
		"userName":           userName,
		"telegram_chat_id": chatID,
	})
	if err != nil {
		return registry.User{}, err
	}
	resp, err := e.http.Post(e.registryURL+"/users", "application/json; charset=utf-8", strings.NewReader(string(body)))
	if err != nil {
		return registry.User{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusConflict {
		return registry.User{}, fmt.Errorf("interaction: duplicate user or chat")
	}
	if resp.StatusCode != http.StatusCreated {
		return registry.User{}, fmt.Errorf("interaction: create user returned status %d", resp.StatusCode)
	}
	var user registry.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return registry.User{}, err
	}
	return user, nil
}

func (e *Engine) assignDevice(userID, deviceID string) error {
	body, err := json.Marshal(map[string]any{"device_id": deviceID})
	if err != nil {
		return err
	}
	resp, err := e.http.Post(e.registryURL+"/users/"+userID+"/assign-device", "application/json; charset=utf-8", strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("interaction: assign device returned status %d", resp.StatusCode)
	}
	return nil
}

func (e *Engine) handleRenameInput(chatID int64, text string) {
	name := strings.TrimSpace(text)
	session := e.session(chatID)
	if name == "" || len(name) > 50 {
		e.reply(chatID, "Name must be 1-50 characters. Try again, or /cancel.")
		return
	}
	if err := e.renameDevice(session.PendingDeviceID, name); err != nil {
		e.reply(chatID, "Renaming failed.")
		e.resetToIdle(chatID)
		return
	}
	e.resetToIdle(chatID)
	e.reply(chatID, "Renamed to "+name+".")
}

func (e *Engine) renameDevice(deviceID, name string) error {
	body, err := json.Marshal(map[string]any{"user_device_name": name})
	if err != nil {
		return err
	}
	resp, err := e.http.Post(e.registryURL+"/devices/"+deviceID+"/rename", "application/json; charset=utf-8", strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("interaction: rename device returned status %d", resp.StatusCode)
	}
	return nil
}

func (e *Engine) unassignDevice(deviceID string) error {
	resp, err := e.http.Post(e.registryURL+"/devices/"+deviceID+"/unassign", "application/json; charset=utf-8", strings.NewReader("{}"))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("interaction: unassign device returned status %d", resp.StatusCode)
	}
	return nil
}
