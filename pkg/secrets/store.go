package secrets

import "errors"

// ErrNotFound is returned when a secret ID has no stored value.
var ErrNotFound = errors.New("secret not found")

// SecretStore holds community strings and other credentials by ID.
type SecretStore interface {
	GetSecretByID(secretID string) (string, error)
	StoreSecretByID(secretID, secret string) error
	ListSecrets() (map[string]string, error)
	RemoveSecretByID(secretID string) error
}
