package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "cardboard"
	keyringAccess  = "access-token"
	keyringRefresh = "refresh-token"

	fallbackFileName = ".credentials"
)

// ErrNoCredentials is returned when no token has been stored yet.
var ErrNoCredentials = errors.New("not logged in, run `cardboard login` first")

// Credentials is the token pair obtained at login.
type Credentials struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

var (
	// fallbackMode is set on headless systems without a keyring.
	fallbackMode    bool
	fallbackChecked bool
	fallbackModeMu  sync.Mutex
)

// keyringAvailable probes the system keyring once per process.
func keyringAvailable() bool {
	fallbackModeMu.Lock()
	defer fallbackModeMu.Unlock()

	if fallbackChecked {
		return !fallbackMode
	}

	testKey := "cardboard-keyring-test"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		fallbackMode = true
		fallbackChecked = true
		return false
	}

	_ = keyring.Delete(keyringService, testKey)
	fallbackChecked = true
	return true
}

func fallbackPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fallbackFileName), nil
}

// SaveCredentials stores the token pair in the system keyring, or in a
// 0600 file under ~/.cardboard when no keyring is reachable.
func SaveCredentials(c Credentials) error {
	if keyringAvailable() {
		if err := keyring.Set(keyringService, keyringAccess, c.Access); err != nil {
			return fmt.Errorf("failed to store access token in keyring: %w", err)
		}
		if err := keyring.Set(keyringService, keyringRefresh, c.Refresh); err != nil {
			return fmt.Errorf("failed to store refresh token in keyring: %w", err)
		}
		return nil
	}

	path, err := fallbackPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// LoadCredentials returns the stored token pair.
func LoadCredentials() (Credentials, error) {
	if keyringAvailable() {
		access, err := keyring.Get(keyringService, keyringAccess)
		if errors.Is(err, keyring.ErrNotFound) {
			return Credentials{}, ErrNoCredentials
		}
		if err != nil {
			return Credentials{}, fmt.Errorf("failed to read keyring: %w", err)
		}
		refresh, err := keyring.Get(keyringService, keyringRefresh)
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return Credentials{}, fmt.Errorf("failed to read keyring: %w", err)
		}
		return Credentials{Access: access, Refresh: refresh}, nil
	}

	path, err := fallbackPath()
	if err != nil {
		return Credentials{}, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Credentials{}, ErrNoCredentials
	}
	if err != nil {
		return Credentials{}, err
	}
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return Credentials{}, fmt.Errorf("corrupted credentials file %s: %w", path, err)
	}
	return c, nil
}

// ClearCredentials forgets the stored token pair.
func ClearCredentials() error {
	if keyringAvailable() {
		for _, user := range []string{keyringAccess, keyringRefresh} {
			if err := keyring.Delete(keyringService, user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
				return err
			}
		}
		return nil
	}

	path, err := fallbackPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
