package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/AlexDuchaine19/SmartChill-sub001/internal/logging"
)

// SnapshotStore persists and restores a Document. It is satisfied by
// internal/persistence.Store without that package needing to import
// registry's Store type, avoiding an import cycle.
type SnapshotStore interface {
	Load() (*Document, error)
	Save(doc *Document) error
}

// EmptyDocument returns the well-defined empty registry document spec §4.1
// describes: schemaVersion 1, a seed admin user, and otherwise-empty lists.
func EmptyDocument(projectOwner, projectName string) *Document {
	now := time.Now().UTC()
	return &Document{
		SchemaVersion: 1,
		ProjectOwner:  projectOwner,
		ProjectName:   projectName,
		LastUpdate:    now,
		DeviceModels:  map[string]DeviceModel{},
		DevicesList:   []Device{},
		UsersList: []User{
			{
				UserID:           "admin",
				UserName:         "admin",
				DevicesList:      []UserDeviceEntry{},
				RegistrationTime: now,
			},
		},
		ServicesList: []Service{},
	}
}

// Store is the in-memory registry: the Document plus O(1) indices by
// deviceID, normalized MAC, userID, chat-id, and serviceID. There is no
// index by model: ListDevicesByModel scans the device list.
//
// All mutating operations execute under a single exclusive critical section
// covering invariant check, mutation, and index fix-up (spec §4.2). The
// snapshot write happens outside that section, against a deep copy taken
// while the lock was held, so readers are never blocked on file I/O.
type Store struct {
	mu  sync.RWMutex
	doc Document

	deviceIdx map[string]int    // deviceID -> index into doc.DevicesList
	macIdx    map[string]string // normalized MAC -> deviceID
	userIdx   map[string]int    // lowercased userID -> index into doc.UsersList
	chatIdx   map[string]string // normalized chat-id -> userID
	serviceIdx map[string]int   // serviceID -> index into doc.ServicesList

	persist SnapshotStore
	logger  logging.Interface
}

// New creates a Store seeded from doc. The caller normally obtains doc from
// persistence.Store.Load().
func New(doc *Document, persist SnapshotStore, logger logging.Interface) *Store {
	if logger == nil {
		logger = logging.NoopLogger{}
	}
	s := &Store{
		doc:     *doc,
		persist: persist,
		logger:  logger,
	}
	s.rebuildIndices()
	return s
}

// SetLogger replaces the Store's logger.
func (s *Store) SetLogger(logger logging.Interface) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// rebuildIndices recomputes every index from doc. Called after
// construction and after any structural slice mutation (insert/delete).
// Caller must hold s.mu for writing.
func (s *Store) rebuildIndices() {
	s.deviceIdx = make(map[string]int, len(s.doc.DevicesList))
	s.macIdx = make(map[string]string, len(s.doc.DevicesList))
	for i, d := range s.doc.DevicesList {
		s.deviceIdx[d.DeviceID] = i
		if norm, err := NormalizeMAC(d.MACAddress); err == nil {
			s.macIdx[norm] = d.DeviceID
		}
	}

	s.userIdx = make(map[string]int, len(s.doc.UsersList))
	s.chatIdx = make(map[string]string, len(s.doc.UsersList))
	for i, u := range s.doc.UsersList {
		s.userIdx[NormalizeUserID(u.UserID)] = i
		if u.TelegramChatID != nil {
			s.chatIdx[NormalizeChatID(*u.TelegramChatID)] = u.UserID
		}
	}

	s.serviceIdx = make(map[string]int, len(s.doc.ServicesList))
	for i, svc := range s.doc.ServicesList {
		s.serviceIdx[svc.ServiceID] = i
	}
}

// snapshotLocked returns a deep copy of the current document for
// persistence, with LastUpdate refreshed. Caller must hold s.mu (read or
// write lock).
func (s *Store) snapshotLocked() *Document {
	cpy := s.doc
	cpy.LastUpdate = time.Now().UTC()
	cpy.DevicesList = make([]Device, len(s.doc.DevicesList))
	for i := range s.doc.DevicesList {
		cpy.DevicesList[i] = *s.doc.DevicesList[i].DeepCopy()
	}
	cpy.UsersList = make([]User, len(s.doc.UsersList))
	for i := range s.doc.UsersList {
		cpy.UsersList[i] = *s.doc.UsersList[i].DeepCopy()
	}
	cpy.ServicesList = make([]Service, len(s.doc.ServicesList))
	for i := range s.doc.ServicesList {
		cpy.ServicesList[i] = *s.doc.ServicesList[i].DeepCopy()
	}
	cpy.DeviceModels = make(map[string]DeviceModel, len(s.doc.DeviceModels))
	for k, v := range s.doc.DeviceModels {
		cpy.DeviceModels[k] = v
	}
	return &cpy
}

// save persists a snapshot without holding the Store's lock. Any error
// is logged and also returned to the caller that triggered the mutation, per
// spec §7's Persistence taxonomy: the in-memory mutation is not rolled back.
func (s *Store) save(snapshot *Document) error {
	if s.persist == nil {
		return nil
	}
	if err := s.persist.Save(snapshot); err != nil {
		s.logger.Error("registry snapshot save failed", "error", err)
		return fmt.Errorf("registry: persisting snapshot: %w", err)
	}
	return nil
}

// SeedModels registers the device model catalog used by register_device,
// typically called once at startup from a models.yaml fixture.
func (s *Store) SeedModels(models map[string]DeviceModel) error {
	s.mu.Lock()
	if s.doc.DeviceModels == nil {
		s.doc.DeviceModels = map[string]DeviceModel{}
	}
	for name, m := range models {
		s.doc.DeviceModels[name] = m
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	return s.save(snapshot)
}

// RegisterDevice implements register_device (spec §3, §4.2). It is
// idempotent by MAC: a second registration of the same MAC returns the
// existing record (first write wins on structure) with LastSync bumped.
func (s *Store) RegisterDevice(mac, model string, sensors []string, firmwareVersion string) (dev *Device, created bool, err error) {
	norm, err := NormalizeMAC(mac)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	if existingID, ok := s.macIdx[norm]; ok {
		idx := s.deviceIdx[existingID]
		s.doc.DevicesList[idx].LastSync = time.Now().UTC()
		result := s.doc.DevicesList[idx].DeepCopy()
		snapshot := s.snapshotLocked()
		s.mu.Unlock()
		saveErr := s.save(snapshot)
		return result, false, saveErr
	}

	if _, ok := s.doc.DeviceModels[model]; !ok {
		s.mu.Unlock()
		return nil, false, fmt.Errorf("%w: %q", ErrUnsupportedModel, model)
	}

	deviceID := DeriveDeviceID(norm)
	now := time.Now().UTC()
	newDevice := Device{
		DeviceID:         deviceID,
		MACAddress:       norm,
		Model:            model,
		FirmwareVersion:  firmwareVersion,
		Sensors:          append([]string(nil), sensors...),
		MQTTTopics:       DeriveTopics(s.doc.ProjectOwner, s.doc.ProjectName, model, deviceID, sensors),
		MQTTConfig:       cloneMQTTConfig(s.doc.DeviceModels[model].MQTTConfig),
		Status:           "active",
		UserAssigned:     false,
		Owner:            nil,
		UserDeviceName:   nil,
		RegistrationTime: now,
		AssignmentTime:   nil,
		LastSync:         now,
	}

	s.doc.DevicesList = append(s.doc.DevicesList, newDevice)
	s.deviceIdx[deviceID] = len(s.doc.DevicesList) - 1
	s.macIdx[norm] = deviceID

	result := newDevice.DeepCopy()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("device registered", "device_id", deviceID, "model", model)
	saveErr := s.save(snapshot)
	return result, true, saveErr
}

func cloneMQTTConfig(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	cpy := make(map[string]any, len(src))
	for k, v := range src {
		cpy[k] = v
	}
	return cpy
}

// RegisterService implements register_service (spec §4.2): upsert by
// serviceID.
func (s *Store) RegisterService(svc Service) (*Service, bool, error) {
	if svc.ServiceID == "" {
		return nil, false, fmt.Errorf("%w: serviceID", ErrMissingField)
	}

	s.mu.Lock()
	now := time.Now().UTC()
	if idx, ok := s.serviceIdx[svc.ServiceID]; ok {
		existing := &s.doc.ServicesList[idx]
		existing.Name = svc.Name
		existing.Description = svc.Description
		existing.Endpoints = append([]string(nil), svc.Endpoints...)
		existing.Type = svc.Type
		existing.Version = svc.Version
		existing.Status = "active"
		existing.RegistrationIntervalSecs = svc.RegistrationIntervalSecs
		existing.LastUpdate = now
		result := existing.DeepCopy()
		snapshot := s.snapshotLocked()
		s.mu.Unlock()
		saveErr := s.save(snapshot)
		return result, false, saveErr
	}

	svc.RegistrationTime = now
	svc.LastUpdate = now
	svc.Status = "active"
	s.doc.ServicesList = append(s.doc.ServicesList, svc)
	s.serviceIdx[svc.ServiceID] = len(s.doc.ServicesList) - 1

	result := svc.DeepCopy()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("service registered", "service_id", svc.ServiceID)
	saveErr := s.save(snapshot)
	return result, true, saveErr
}

// CreateUser implements create_user. userID comparisons are
// case-insensitive on write; the stored userID is lowercased (spec §4.2).
func (s *Store) CreateUser(userID, userName string, chatID *string) (*User, error) {
	norm := NormalizeUserID(userID)
	if err := ValidateUserID(norm); err != nil {
		return nil, err
	}

	s.mu.Lock()

	if _, exists := s.userIdx[norm]; exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrDuplicateUser, norm)
	}
	if chatID != nil {
		normChat := NormalizeChatID(*chatID)
		if _, taken := s.chatIdx[normChat]; taken {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: %q", ErrChatAlreadyLinked, normChat)
		}
	}

	user := User{
		UserID:           norm,
		UserName:         userName,
		DevicesList:      []UserDeviceEntry{},
		RegistrationTime: time.Now().UTC(),
	}
	if chatID != nil {
		normChat := NormalizeChatID(*chatID)
		user.TelegramChatID = &normChat
	}

	s.doc.UsersList = append(s.doc.UsersList, user)
	s.userIdx[norm] = len(s.doc.UsersList) - 1
	if user.TelegramChatID != nil {
		s.chatIdx[*user.TelegramChatID] = norm
	}

	result := user.DeepCopy()
	snapshot := s.snapshotLocked()
	s.logger.Info("user created", "user_id", norm)
	s.mu.Unlock()

	saveErr := s.save(snapshot)
	return result, saveErr
}

// DeleteUser implements delete_user, cascading an unassign of every device
// the user owns before removing the user (spec §3 Lifecycles).
func (s *Store) DeleteUser(userID string) (deleted *User, unassignedDeviceIDs []string, err error) {
	norm := NormalizeUserID(userID)

	s.mu.Lock()

	idx, ok := s.userIdx[norm]
	if !ok {
		s.mu.Unlock()
		return nil, nil, fmt.Errorf("%w: %q", ErrUserNotFound, norm)
	}

	user := s.doc.UsersList[idx]
	for _, entry := range user.DevicesList {
		if dIdx, ok := s.deviceIdx[entry.DeviceID]; ok {
			d := &s.doc.DevicesList[dIdx]
			d.Owner = nil
			d.UserDeviceName = nil
			d.AssignmentTime = nil
			d.UserAssigned = false
			unassignedDeviceIDs = append(unassignedDeviceIDs, entry.DeviceID)
		}
	}

	s.doc.UsersList = append(s.doc.UsersList[:idx], s.doc.UsersList[idx+1:]...)
	s.rebuildIndices()

	deleted = user.DeepCopy()
	snapshot := s.snapshotLocked()
	s.logger.Info("user deleted", "user_id", norm, "unassigned_devices", len(unassignedDeviceIDs))
	s.mu.Unlock()

	saveErr := s.save(snapshot)
	return deleted, unassignedDeviceIDs, saveErr
}

// AssignDeviceToUser implements assign_device_to_user, mutating both Device
// and User atomically within the critical section (spec §3 Lifecycles).
func (s *Store) AssignDeviceToUser(userID, deviceID string, deviceName *string) (*Device, *User, error) {
	norm := NormalizeUserID(userID)

	s.mu.Lock()

	uIdx, ok := s.userIdx[norm]
	if !ok {
		s.mu.Unlock()
		return nil, nil, fmt.Errorf("%w: %q", ErrUserNotFound, norm)
	}
	dIdx, ok := s.deviceIdx[deviceID]
	if !ok {
		s.mu.Unlock()
		return nil, nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, deviceID)
	}

	device := &s.doc.DevicesList[dIdx]
	if device.UserAssigned {
		s.mu.Unlock()
		return nil, nil, fmt.Errorf("%w: %q", ErrDeviceAlreadyAssigned, deviceID)
	}

	name := deviceID
	if deviceName != nil && *deviceName != "" {
		if err := ValidateUserDeviceName(*deviceName); err != nil {
			s.mu.Unlock()
			return nil, nil, err
		}
		name = *deviceName
	}

	now := time.Now().UTC()
	owner := norm
	device.Owner = &owner
	device.UserAssigned = true
	device.AssignmentTime = &now
	device.UserDeviceName = &name

	user := &s.doc.UsersList[uIdx]
	user.DevicesList = append(user.DevicesList, UserDeviceEntry{DeviceID: deviceID, DeviceName: name})

	resultDevice := device.DeepCopy()
	resultUser := user.DeepCopy()
	snapshot := s.snapshotLocked()
	s.logger.Info("device assigned", "device_id", deviceID, "user_id", norm)
	s.mu.Unlock()

	saveErr := s.save(snapshot)
	return resultDevice, resultUser, saveErr
}

// UnassignDevice implements unassign_device. Calling it twice is
// idempotent: the second call returns (true, nil) rather than an error
// (spec §4.2, §8).
func (s *Store) UnassignDevice(deviceID string) (alreadyUnassigned bool, err error) {
	s.mu.Lock()

	dIdx, ok := s.deviceIdx[deviceID]
	if !ok {
		s.mu.Unlock()
		return false, fmt.Errorf("%w: %q", ErrDeviceNotFound, deviceID)
	}

	device := &s.doc.DevicesList[dIdx]
	if !device.UserAssigned {
		s.mu.Unlock()
		return true, nil
	}

	ownerID := *device.Owner
	device.Owner = nil
	device.UserDeviceName = nil
	device.AssignmentTime = nil
	device.UserAssigned = false

	if uIdx, ok := s.userIdx[NormalizeUserID(ownerID)]; ok {
		user := &s.doc.UsersList[uIdx]
		filtered := user.DevicesList[:0]
		for _, entry := range user.DevicesList {
			if entry.DeviceID != deviceID {
				filtered = append(filtered, entry)
			}
		}
		user.DevicesList = filtered
	}

	snapshot := s.snapshotLocked()
	s.logger.Info("device unassigned", "device_id", deviceID)
	s.mu.Unlock()

	saveErr := s.save(snapshot)
	return false, saveErr
}

// RenameDevice implements rename_device: sets user_device_name on the
// Device and mirrors it into the owning User's device entry.
func (s *Store) RenameDevice(deviceID, name string) (*Device, error) {
	if err := ValidateUserDeviceName(name); err != nil {
		return nil, err
	}

	s.mu.Lock()

	dIdx, ok := s.deviceIdx[deviceID]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, deviceID)
	}

	device := &s.doc.DevicesList[dIdx]
	device.UserDeviceName = &name

	if device.Owner != nil {
		if uIdx, ok := s.userIdx[NormalizeUserID(*device.Owner)]; ok {
			user := &s.doc.UsersList[uIdx]
			for i := range user.DevicesList {
				if user.DevicesList[i].DeviceID == deviceID {
					user.DevicesList[i].DeviceName = name
				}
			}
		}
	}

	result := device.DeepCopy()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	saveErr := s.save(snapshot)
	return result, saveErr
}

// LinkTelegram implements link_telegram: associates a chat-id with a user,
// enforcing chat-id uniqueness (spec §3 User invariant).
func (s *Store) LinkTelegram(userID, chatID string) (*User, error) {
	norm := NormalizeUserID(userID)
	normChat := NormalizeChatID(chatID)

	s.mu.Lock()

	uIdx, ok := s.userIdx[norm]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrUserNotFound, norm)
	}

	if existingOwner, taken := s.chatIdx[normChat]; taken && existingOwner != norm {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrChatAlreadyLinked, normChat)
	}

	user := &s.doc.UsersList[uIdx]
	if user.TelegramChatID != nil {
		delete(s.chatIdx, NormalizeChatID(*user.TelegramChatID))
	}
	user.TelegramChatID = &normChat
	s.chatIdx[normChat] = norm

	result := user.DeepCopy()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	saveErr := s.save(snapshot)
	return result, saveErr
}

// ---- Read operations ----

// GetDevice returns a deep copy of the device with the given ID.
func (s *Store) GetDevice(deviceID string) (*Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.deviceIdx[deviceID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, deviceID)
	}
	return s.doc.DevicesList[idx].DeepCopy(), nil
}

// DeviceExists reports whether deviceID is known to the registry.
func (s *Store) DeviceExists(deviceID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.deviceIdx[deviceID]
	return ok
}

// ListDevices returns deep copies of every device, ordered by registration.
func (s *Store) ListDevices() []Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Device, len(s.doc.DevicesList))
	for i := range s.doc.DevicesList {
		out[i] = *s.doc.DevicesList[i].DeepCopy()
	}
	return out
}

// ListUnassignedDevices returns every device with UserAssigned == false.
func (s *Store) ListUnassignedDevices() []Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Device
	for i := range s.doc.DevicesList {
		if !s.doc.DevicesList[i].UserAssigned {
			out = append(out, *s.doc.DevicesList[i].DeepCopy())
		}
	}
	return out
}

// ListDevicesByModel returns every device registered under the given model.
func (s *Store) ListDevicesByModel(model string) []Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Device
	for i := range s.doc.DevicesList {
		if s.doc.DevicesList[i].Model == model {
			out = append(out, *s.doc.DevicesList[i].DeepCopy())
		}
	}
	return out
}

// GetUser returns a deep copy of the user with the given ID.
func (s *Store) GetUser(userID string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.userIdx[NormalizeUserID(userID)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUserNotFound, userID)
	}
	return s.doc.UsersList[idx].DeepCopy(), nil
}

// GetUserByChat resolves a user by their linked chat-id.
func (s *Store) GetUserByChat(chatID string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.chatIdx[NormalizeChatID(chatID)]
	if !ok {
		return nil, fmt.Errorf("%w: chat %q not linked", ErrUserNotFound, chatID)
	}
	idx := s.userIdx[userID]
	return s.doc.UsersList[idx].DeepCopy(), nil
}

// ListUsers returns deep copies of every user.
func (s *Store) ListUsers() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, len(s.doc.UsersList))
	for i := range s.doc.UsersList {
		out[i] = *s.doc.UsersList[i].DeepCopy()
	}
	return out
}

// GetService returns a deep copy of the service with the given ID.
func (s *Store) GetService(serviceID string) (*Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.serviceIdx[serviceID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrServiceNotFound, serviceID)
	}
	return s.doc.ServicesList[idx].DeepCopy(), nil
}

// ListServices returns deep copies of every registered service as stored.
// Staleness (supplemented feature, see SPEC_FULL.md) is a read-time
// aggregate exposed separately via GetStats, not written back onto
// individual records.
func (s *Store) ListServices() []Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Service, len(s.doc.ServicesList))
	for i := range s.doc.ServicesList {
		out[i] = *s.doc.ServicesList[i].DeepCopy()
	}
	return out
}

// GetModel returns the model descriptor for a given model name.
func (s *Store) GetModel(name string) (DeviceModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.doc.DeviceModels[name]
	if !ok {
		return DeviceModel{}, fmt.Errorf("%w: %q", ErrModelNotFound, name)
	}
	return m, nil
}

// ListModels returns every registered device model, keyed by name.
func (s *Store) ListModels() map[string]DeviceModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]DeviceModel, len(s.doc.DeviceModels))
	for k, v := range s.doc.DeviceModels {
		out[k] = v
	}
	return out
}

// MQTTTopicsAll returns every device's derived topics, keyed by deviceID.
func (s *Store) MQTTTopicsAll() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]string, len(s.doc.DevicesList))
	for i := range s.doc.DevicesList {
		d := &s.doc.DevicesList[i]
		out[d.DeviceID] = append([]string(nil), d.MQTTTopics...)
	}
	return out
}

// Stats aggregates registry-wide counters for /health and /info.
type Stats struct {
	DevicesCount       int
	UsersCount         int
	ServicesCount      int
	AssignedDevices    int
	UnassignedDevices  int
	StaleServicesCount int
	SchemaVersion      int
	LastUpdate         time.Time
}

// GetStats computes the aggregate statistics exposed by /health and /info.
// A service is stale once it has gone twice its own registration interval
// without a re-registration (SPEC_FULL.md "Service heartbeat staleness");
// fallbackInterval covers services registered before that field existed.
func (s *Store) GetStats(fallbackInterval time.Duration) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		DevicesCount:  len(s.doc.DevicesList),
		UsersCount:    len(s.doc.UsersList),
		ServicesCount: len(s.doc.ServicesList),
		SchemaVersion: s.doc.SchemaVersion,
		LastUpdate:    s.doc.LastUpdate,
	}
	for i := range s.doc.DevicesList {
		if s.doc.DevicesList[i].UserAssigned {
			stats.AssignedDevices++
		} else {
			stats.UnassignedDevices++
		}
	}
	now := time.Now().UTC()
	for i := range s.doc.ServicesList {
		svc := &s.doc.ServicesList[i]
		interval := fallbackInterval
		if svc.RegistrationIntervalSecs > 0 {
			interval = time.Duration(svc.RegistrationIntervalSecs) * time.Second
		}
		if now.Sub(svc.LastUpdate) > 2*interval {
			stats.StaleServicesCount++
		}
	}
	return stats
}

// SortedDeviceIDs is a small helper used by handlers that need a stable
// ordering over the device index, e.g. for deterministic test output.
func (s *Store) SortedDeviceIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.deviceIdx))
	for id := range s.deviceIdx {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
