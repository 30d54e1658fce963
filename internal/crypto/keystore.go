package crypto

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const (
	keystoreService = "dreampipe"
	keystoreUser    = "backend-api-key"
)

// LoadAPIKey retrieves the backend API key from the system keychain.
// Returns an empty string when no key has been stored.
func LoadAPIKey() (string, error) {
	key, err := keyring.Get(keystoreService, keystoreUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return key, nil
}

// StoreAPIKey saves the backend API key in the system keychain
func StoreAPIKey(key string) error {
	return keyring.Set(keystoreService, keystoreUser, key)
}

// DeleteAPIKey removes the backend API key from the keychain
// Useful for testing or reset scenarios
func DeleteAPIKey() error {
	return keyring.Delete(keystoreService, keystoreUser)
}

// IsAPIKeyStored checks if a backend API key exists in the keychain
func IsAPIKeyStored() bool {
	_, err := keyring.Get(keystoreService, keystoreUser)
	return err == nil
}
