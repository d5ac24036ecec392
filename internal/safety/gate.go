// Package safety provides the emergency-stop gate consulted before any chat
// processing.
package safety

import "github.com/wardenhq/warden/internal/store"

// SettingKey is the settings-table key holding the emergency stop flag.
const SettingKey = "emergency_stop"

// Gate reports whether the emergency stop is engaged. The worker reads it
// exactly once per inbound chat event; resume events are never gated, since
// a human already approved the underlying action.
type Gate interface {
	Active() (bool, error)
}

// StoreGate reads the flag from the persistence store so the governance
// surface and every worker process observe the same state.
type StoreGate struct {
	store *store.Store
}

// NewStoreGate creates a gate backed by the settings table.
func NewStoreGate(s *store.Store) *StoreGate {
	return &StoreGate{store: s}
}

// Active returns true when the emergency stop is engaged.
// Fail closed: a read error halts chat processing.
func (g *StoreGate) Active() (bool, error) {
	val, err := g.store.GetSetting(SettingKey)
	if err != nil {
		return true, err
	}
	return val == "true", nil
}

// Engage turns the emergency stop on.
func (g *StoreGate) Engage() error {
	return g.store.SetSetting(SettingKey, "true")
}

// Release turns the emergency stop off.
func (g *StoreGate) Release() error {
	return g.store.SetSetting(SettingKey, "false")
}
