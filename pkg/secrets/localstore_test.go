package secrets

import (
	"encoding/hex"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *LocalSecretStore {
	t.Helper()
	masterKey, err := GenerateMasterKey()
	if err != nil {
		t.Fatalf("Failed to generate master key: %v", err)
	}
	store, err := NewLocalSecretStore(masterKey, filepath.Join(t.TempDir(), "secrets.json"), true)
	if err != nil {
		t.Fatalf("Failed to create LocalSecretStore: %v", err)
	}
	return store
}

func TestNewLocalSecretStore(t *testing.T) {
	masterKey, err := GenerateMasterKey()
	if err != nil {
		t.Fatalf("Failed to generate master key: %v", err)
	}
	filename := filepath.Join(t.TempDir(), "secrets.json")

	if _, err := NewLocalSecretStore(masterKey, filename, false); err == nil {
		t.Fatalf("expected error opening missing store without create")
	}

	store, err := NewLocalSecretStore(masterKey, filename, true)
	if err != nil {
		t.Fatalf("Failed to create LocalSecretStore: %v", err)
	}
	if store.filename != filename {
		t.Errorf("Expected filename %s, got %s", filename, store.filename)
	}
	if hex.EncodeToString(store.masterKey) != masterKey {
		t.Errorf("Expected master key %s, got %s", masterKey, hex.EncodeToString(store.masterKey))
	}

	// the created file must be loadable
	if _, err := NewLocalSecretStore(masterKey, filename, false); err != nil {
		t.Errorf("failed to reopen created store: %v", err)
	}
}

func TestGenerateMasterKey(t *testing.T) {
	key, err := GenerateMasterKey()
	if err != nil {
		t.Fatalf("Failed to generate master key: %v", err)
	}
	if len(key) != 64 {
		t.Errorf("Expected key length 64, got %d", len(key))
	}
}

func TestStoreAndGetSecretByID(t *testing.T) {
	store := newTestStore(t)

	if err := store.StoreSecretByID("rack3-rw", "private"); err != nil {
		t.Fatalf("Failed to store secret: %v", err)
	}
	got, err := store.GetSecretByID("rack3-rw")
	if err != nil {
		t.Fatalf("Failed to get secret: %v", err)
	}
	if got != "private" {
		t.Errorf("Expected secret value %s, got %s", "private", got)
	}

	// values survive a reopen
	reopened, err := NewLocalSecretStore(hex.EncodeToString(store.masterKey), store.filename, false)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	if got, _ := reopened.GetSecretByID("rack3-rw"); got != "private" {
		t.Errorf("Expected persisted secret, got %q", got)
	}
}

func TestListAndRemoveSecrets(t *testing.T) {
	store := newTestStore(t)

	for _, id := range []string{"rack3-rw", "rack4-rw"} {
		if err := store.StoreSecretByID(id, id+"-value"); err != nil {
			t.Fatalf("Failed to store secret: %v", err)
		}
	}

	secrets, err := store.ListSecrets()
	if err != nil {
		t.Fatalf("Failed to list secrets: %v", err)
	}
	if len(secrets) != 2 {
		t.Errorf("Expected 2 secrets, got %d", len(secrets))
	}

	if err := store.RemoveSecretByID("rack3-rw"); err != nil {
		t.Fatalf("Failed to remove secret: %v", err)
	}
	if _, err := store.GetSecretByID("rack3-rw"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after removal, got %v", err)
	}
	if err := store.RemoveSecretByID("rack3-rw"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound removing twice, got %v", err)
	}
}

func TestOpenStoreRequiresMasterKey(t *testing.T) {
	t.Setenv("MASTER_KEY", "")
	if _, err := OpenStore(filepath.Join(t.TempDir(), "secrets.json")); err == nil {
		t.Errorf("expected error without MASTER_KEY")
	}
	if _, err := OpenStore(""); err == nil {
		t.Errorf("expected error without a path")
	}
}
