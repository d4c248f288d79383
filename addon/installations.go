package addon

import (
	"errors"
	"sync"
	"time"
)

// Installation records one tenant's installation handshake. The shared
// secret signs JWTs exchanged with that tenant; the base URL scopes host
// API calls to the tenant's own site.
type Installation struct {
	ClientKey    string    `json:"clientKey"`
	SharedSecret string    `json:"-"`
	BaseURL      string    `json:"baseUrl"`
	InstalledAt  time.Time `json:"installedAt"`
}

// ErrUnknownTenant is returned when a request names a client key with no
// recorded installation.
var ErrUnknownTenant = errors.New("addon: no installation for client key")

// InstallationStore keeps installations in memory, keyed by client key.
// A production deployment would back this with a database; the host
// re-sends the handshake on every install so losing the map on restart
// only requires a reinstall.
type InstallationStore struct {
	mu            sync.RWMutex
	installations map[string]Installation
}

func NewInstallationStore() *InstallationStore {
	return &InstallationStore{installations: make(map[string]Installation)}
}

// Install records or replaces a tenant's installation.
func (s *InstallationStore) Install(inst Installation) error {
	if inst.ClientKey == "" {
		return errors.New("addon: installation is missing a client key")
	}
	if inst.InstalledAt.IsZero() {
		inst.InstalledAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.installations[inst.ClientKey] = inst
	return nil
}

// Uninstall removes a tenant's installation. Removing an unknown tenant
// is not an error - the host may replay uninstall webhooks.
func (s *InstallationStore) Uninstall(clientKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.installations, clientKey)
}

// Lookup returns the installation for a client key.
func (s *InstallationStore) Lookup(clientKey string) (Installation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, exists := s.installations[clientKey]
	if !exists {
		return Installation{}, ErrUnknownTenant
	}
	return inst, nil
}

// Count returns the number of installed tenants.
func (s *InstallationStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.installations)
}
