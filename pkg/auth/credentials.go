package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

var (
	// ErrSecretNotFound is returned when no backend holds a secret for a client id
	ErrSecretNotFound = errors.New("client secret not found")
	// ErrReadOnly is returned by backends that cannot be written to
	ErrReadOnly = errors.New("secret backend is read only")
)

// Secret is the client secret of one Reddit script app
type Secret struct {
	ClientID string
	Value    string
	Saved    time.Time
	// Source names the backend the secret was read from
	Source string
}

// Backend keeps client secrets keyed by client id
type Backend interface {
	Name() string
	Get(clientID string) (Secret, error)
	Put(secret Secret) error
	Remove(clientID string) error
}

// Lister is implemented by backends that can enumerate what they hold.
// The system keychain cannot, so it does not.
type Lister interface {
	Secrets() ([]Secret, error)
}

// Manager looks secrets up across backends in priority order
type Manager struct {
	backends []Backend
}

// NewManager creates a manager over the system keychain (when reachable),
// the encrypted secrets file in the user config directory and the
// environment.
func NewManager() (*Manager, error) {
	var backends []Backend

	if keychain, err := NewKeyringStore(); err == nil {
		backends = append(backends, keychain)
	}

	dir, err := configDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	file, err := NewEncryptedFileStore(filepath.Join(dir, "secrets.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to open secrets file: %w", err)
	}
	backends = append(backends, file, NewEnvironmentStore())

	return NewManagerWith(backends...), nil
}

// NewManagerWith creates a manager over an explicit list of backends
func NewManagerWith(backends ...Backend) *Manager {
	return &Manager{backends: backends}
}

// Save writes the secret to the first backend that accepts it
func (m *Manager) Save(clientID, value string) error {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return errors.New("client id is required")
	}
	if value == "" {
		return errors.New("client secret is required")
	}

	secret := Secret{ClientID: clientID, Value: value, Saved: time.Now()}
	var errs []error
	for _, b := range m.backends {
		err := b.Put(secret)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrReadOnly) {
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
		}
	}
	if len(errs) == 0 {
		return errors.New("no writable secret backend")
	}
	return fmt.Errorf("failed to save secret: %w", errors.Join(errs...))
}

// Lookup returns the secret for clientID from the first backend holding it
func (m *Manager) Lookup(clientID string) (Secret, error) {
	for _, b := range m.backends {
		secret, err := b.Get(clientID)
		if err != nil {
			continue
		}
		secret.Source = b.Name()
		return secret, nil
	}
	return Secret{}, fmt.Errorf("%w for client id %s", ErrSecretNotFound, clientID)
}

// Secret returns the bare secret value for clientID
func (m *Manager) Secret(clientID string) (string, error) {
	secret, err := m.Lookup(clientID)
	if err != nil {
		return "", err
	}
	return secret.Value, nil
}

// Forget removes clientID from every writable backend
func (m *Manager) Forget(clientID string) error {
	removed := false
	for _, b := range m.backends {
		err := b.Remove(clientID)
		switch {
		case err == nil:
			removed = true
		case errors.Is(err, ErrSecretNotFound), errors.Is(err, ErrReadOnly):
		default:
			return fmt.Errorf("%s: %w", b.Name(), err)
		}
	}
	if !removed {
		return fmt.Errorf("%w for client id %s", ErrSecretNotFound, clientID)
	}
	return nil
}

// Secrets lists what the listable backends hold, one entry per client id.
// The most recently saved copy wins.
func (m *Manager) Secrets() []Secret {
	newest := make(map[string]Secret)
	for _, b := range m.backends {
		lister, ok := b.(Lister)
		if !ok {
			continue
		}
		secrets, err := lister.Secrets()
		if err != nil {
			continue
		}
		for _, s := range secrets {
			s.Source = b.Name()
			if cur, seen := newest[s.ClientID]; !seen || s.Saved.After(cur.Saved) {
				newest[s.ClientID] = s
			}
		}
	}

	out := make([]Secret, 0, len(newest))
	for _, s := range newest {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out
}

// configDir returns the per-user configuration directory for riddle
func configDir() (string, error) {
	var dir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, "Library", "Application Support", "riddle")
	case "windows":
		dir = filepath.Join(os.Getenv("APPDATA"), "riddle")
	default:
		base := os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			base = filepath.Join(home, ".config")
		}
		dir = filepath.Join(base, "riddle")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// MaskString keeps the first and last four characters of s
func MaskString(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
