package safety

import (
	"path/filepath"
	"testing"

	"github.com/wardenhq/warden/internal/store"
)

func newGate(t *testing.T) *StoreGate {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewStoreGate(st)
}

func TestGateDefaultsInactive(t *testing.T) {
	gate := newGate(t)
	active, err := gate.Active()
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if active {
		t.Error("gate active on a fresh store")
	}
}

func TestEngageAndRelease(t *testing.T) {
	gate := newGate(t)

	if err := gate.Engage(); err != nil {
		t.Fatalf("engage: %v", err)
	}
	if active, _ := gate.Active(); !active {
		t.Error("gate inactive after engage")
	}

	if err := gate.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if active, _ := gate.Active(); active {
		t.Error("gate active after release")
	}
}

func TestGateFailsClosed(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	gate := NewStoreGate(st)
	st.Close()

	active, err := gate.Active()
	if err == nil {
		t.Fatal("expected error from closed store")
	}
	if !active {
		t.Error("gate reported inactive on read error, must fail closed")
	}
}
