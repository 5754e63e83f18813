package secrets

import (
	"fmt"
	"sync"
)

// StaticStore keeps plaintext secrets in memory, e.g. communities passed
// on the command line. Nothing is persisted.
type StaticStore struct {
	mu      sync.RWMutex
	secrets map[string]string
}

func NewStaticStore(secrets map[string]string) *StaticStore {
	s := &StaticStore{secrets: make(map[string]string, len(secrets))}
	for id, v := range secrets {
		s.secrets[id] = v
	}
	return s
}

func (s *StaticStore) GetSecretByID(secretID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.secrets[secretID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, secretID)
	}
	return v, nil
}

func (s *StaticStore) StoreSecretByID(secretID, secret string) error {
	s.mu.Lock()
	s.secrets[secretID] = secret
	s.mu.Unlock()
	return nil
}

func (s *StaticStore) ListSecrets() (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.secrets))
	for id, v := range s.secrets {
		out[id] = v
	}
	return out, nil
}

func (s *StaticStore) RemoveSecretByID(secretID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.secrets[secretID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, secretID)
	}
	delete(s.secrets, secretID)
	return nil
}
