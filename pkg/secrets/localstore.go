package secrets

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// LocalSecretStore keeps secrets encrypted in a JSON file keyed by ID.
type LocalSecretStore struct {
	mu        sync.RWMutex
	masterKey []byte
	filename  string
	Secrets   map[string]string `json:"secrets"`
}

// NewLocalSecretStore opens filename, creating an empty store when create
// is set and the file does not exist yet.
func NewLocalSecretStore(masterKeyHex, filename string, create bool) (*LocalSecretStore, error) {
	masterKey, err := hex.DecodeString(masterKeyHex)
	if err != nil {
		return nil, fmt.Errorf("unable to decode master key from hex: %w", err)
	}

	store := &LocalSecretStore{
		masterKey: masterKey,
		filename:  filename,
		Secrets:   map[string]string{},
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		if !create {
			return nil, fmt.Errorf("file %s does not exist", filename)
		}
		if err := SaveSecrets(filename, store.Secrets); err != nil {
			return nil, fmt.Errorf("unable to create file %s: %w", filename, err)
		}
		return store, nil
	}

	if store.Secrets, err = loadSecrets(filename); err != nil {
		return nil, fmt.Errorf("unable to load secrets from file: %w", err)
	}
	return store, nil
}

// GenerateMasterKey creates a random 32-byte key, hex encoded.
func GenerateMasterKey() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}

func (l *LocalSecretStore) GetSecretByID(secretID string) (string, error) {
	l.mu.RLock()
	sealed, ok := l.Secrets[secretID]
	l.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, secretID)
	}
	return open(l.masterKey, secretID, sealed)
}

func (l *LocalSecretStore) StoreSecretByID(secretID, secret string) error {
	sealed, err := seal(l.masterKey, secretID, secret)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.Secrets[secretID] = sealed
	return SaveSecrets(l.filename, l.Secrets)
}

// ListSecrets returns a copy of the stored (still encrypted) values.
func (l *LocalSecretStore) ListSecrets() (map[string]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]string, len(l.Secrets))
	for id, v := range l.Secrets {
		out[id] = v
	}
	return out, nil
}

// RemoveSecretByID deletes a secret and rewrites the file.
func (l *LocalSecretStore) RemoveSecretByID(secretID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.Secrets[secretID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, secretID)
	}
	delete(l.Secrets, secretID)
	return SaveSecrets(l.filename, l.Secrets)
}

// OpenStore opens the store at filename with the key from MASTER_KEY.
func OpenStore(filename string) (SecretStore, error) {
	if filename == "" {
		return nil, fmt.Errorf("path to secret store required")
	}

	masterKey := os.Getenv("MASTER_KEY")
	if masterKey == "" {
		return nil, fmt.Errorf("MASTER_KEY environment variable not set")
	}

	store, err := NewLocalSecretStore(masterKey, filename, true)
	if err != nil {
		return nil, fmt.Errorf("failed to open local secret store: %w", err)
	}
	return store, nil
}

// SaveSecrets writes the encrypted secrets to jsonFile.
func SaveSecrets(jsonFile string, store map[string]string) error {
	file, err := os.OpenFile(jsonFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(store)
}

func loadSecrets(jsonFile string) (map[string]string, error) {
	file, err := os.Open(jsonFile)
	if err != nil {
		return nil, fmt.Errorf("unable to open secret file %s: %w", jsonFile, err)
	}
	defer file.Close()

	store := make(map[string]string)
	if err := json.NewDecoder(file).Decode(&store); err != nil {
		return nil, err
	}
	return store, nil
}
