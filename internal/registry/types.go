// Package registry implements the authoritative in-process keyed store for
// SmartChill devices, users, and services: the Registry Store of the
// design (device/model/owner indices, uniqueness and referential
// invariants, and durable JSON snapshots).
package registry

import (
	"encoding/json"
	"time"
)

// Document is the versioned root of the registry's persisted state. One
// Document is the entire snapshot written to and read from disk.
type Document struct {
	SchemaVersion int                    `json:"schemaVersion"`
	ProjectOwner  string                 `json:"projectOwner"`
	ProjectName   string                 `json:"projectName"`
	LastUpdate    time.Time              `json:"lastUpdate"`
	Broker        BrokerInfo             `json:"broker"`
	DeviceModels  map[string]DeviceModel `json:"deviceModels"`
	DevicesList   []Device               `json:"devicesList"`
	UsersList     []User                 `json:"usersList"`
	ServicesList  []Service              `json:"servicesList"`
}

// BrokerInfo identifies the MQTT broker devices connect to, carried in the
// snapshot purely for discovery purposes.
type BrokerInfo struct {
	Address string `json:"address"`
	Port    int    `json:"port"`
}

// DeviceModel describes a supported device model: the sensors it reports
// and a template for its MQTT configuration block.
type DeviceModel struct {
	Sensors     []string       `json:"sensors"`
	MQTTConfig  map[string]any `json:"mqtt_config,omitempty"`
	Description string         `json:"description,omitempty"`
}

// Device is a physical refrigeration unit identified by its MAC address.
//
// Invariant: UserAssigned == (Owner != nil) == (AssignmentTime != nil).
type Device struct {
	DeviceID         string         `json:"deviceID"`
	MACAddress       string         `json:"mac_address"`
	Model            string         `json:"model"`
	FirmwareVersion  string         `json:"firmware_version,omitempty"`
	Sensors          []string       `json:"sensors"`
	MQTTTopics       []string       `json:"mqtt_topics"`
	MQTTConfig       map[string]any `json:"mqtt_config,omitempty"`
	Status           string         `json:"status"`
	UserAssigned     bool           `json:"user_assigned"`
	Owner            *string        `json:"owner"`
	UserDeviceName   *string        `json:"user_device_name"`
	RegistrationTime time.Time      `json:"registration_time"`
	AssignmentTime   *time.Time     `json:"assignment_time"`
	LastSync         time.Time      `json:"last_sync"`
}

// UnmarshalJSON accepts "assigned_user" as a synonym for "owner" on input.
// Some older snapshots and imports use the two interchangeably; this spec
// standardizes on "owner" and never emits "assigned_user".
func (d *Device) UnmarshalJSON(data []byte) error {
	type alias Device
	aux := struct {
		AssignedUser *string `json:"assigned_user"`
		*alias
	}{alias: (*alias)(d)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if d.Owner == nil && aux.AssignedUser != nil {
		d.Owner = aux.AssignedUser
	}
	return nil
}

// DeepCopy returns an independent copy of the Device so that callers of the
// Store can freely mutate the result without racing the Store's cache.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}
	cpy := *d
	if d.Sensors != nil {
		cpy.Sensors = append([]string(nil), d.Sensors...)
	}
	if d.MQTTTopics != nil {
		cpy.MQTTTopics = append([]string(nil), d.MQTTTopics...)
	}
	if d.MQTTConfig != nil {
		cpy.MQTTConfig = make(map[string]any, len(d.MQTTConfig))
		for k, v := range d.MQTTConfig {
			cpy.MQTTConfig[k] = v
		}
	}
	if d.Owner != nil {
		owner := *d.Owner
		cpy.Owner = &owner
	}
	if d.UserDeviceName != nil {
		name := *d.UserDeviceName
		cpy.UserDeviceName = &name
	}
	if d.AssignmentTime != nil {
		at := *d.AssignmentTime
		cpy.AssignmentTime = &at
	}
	return &cpy
}

// UserDeviceEntry is a User's view of one of their devices.
type UserDeviceEntry struct {
	DeviceID   string `json:"deviceID"`
	DeviceName string `json:"deviceName"`
}

// User is an end user of the system, optionally linked to an external chat.
//
// Invariant: for every entry in DevicesList, the referenced Device's Owner
// equals UserID, and vice versa.
type User struct {
	UserID           string            `json:"userID"`
	UserName         string            `json:"userName"`
	TelegramChatID   *string           `json:"telegram_chat_id"`
	DevicesList      []UserDeviceEntry `json:"devicesList"`
	RegistrationTime time.Time         `json:"registration_time"`
}

// DeepCopy returns an independent copy of the User.
func (u *User) DeepCopy() *User {
	if u == nil {
		return nil
	}
	cpy := *u
	if u.TelegramChatID != nil {
		chat := *u.TelegramChatID
		cpy.TelegramChatID = &chat
	}
	if u.DevicesList != nil {
		cpy.DevicesList = append([]UserDeviceEntry(nil), u.DevicesList...)
	}
	return &cpy
}

// Service is a long-running process registered with the Registry: a control
// service or the notification router.
type Service struct {
	ServiceID                string    `json:"serviceID"`
	Name                     string    `json:"name"`
	Description              string    `json:"description,omitempty"`
	Endpoints                []string  `json:"endpoints"`
	Type                     string    `json:"type,omitempty"`
	Version                  string    `json:"version,omitempty"`
	Status                   string    `json:"status"`
	RegistrationIntervalSecs int       `json:"registration_interval_seconds,omitempty"`
	RegistrationTime         time.Time `json:"registration_time"`
	LastUpdate               time.Time `json:"lastUpdate"`
}

// DeepCopy returns an independent copy of the Service.
func (s *Service) DeepCopy() *Service {
	if s == nil {
		return nil
	}
	cpy := *s
	if s.Endpoints != nil {
		cpy.Endpoints = append([]string(nil), s.Endpoints...)
	}
	return &cpy
}
