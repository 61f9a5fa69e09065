package auth

import "sync"

// MemoryStore is an in-process Backend. PutErr, when set, is returned by
// every Put so callers can exercise fallbacks.
type MemoryStore struct {
	PutErr error

	mu      sync.RWMutex
	secrets map[string]Secret
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{secrets: make(map[string]Secret)}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Get(clientID string) (Secret, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.secrets[clientID]
	if !ok {
		return Secret{}, ErrSecretNotFound
	}
	return s, nil
}

func (m *MemoryStore) Put(secret Secret) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[secret.ClientID] = secret
	return nil
}

func (m *MemoryStore) Remove(clientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.secrets[clientID]; !ok {
		return ErrSecretNotFound
	}
	delete(m.secrets, clientID)
	return nil
}

func (m *MemoryStore) Secrets() ([]Secret, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Secret, 0, len(m.secrets))
	for _, s := range m.secrets {
		out = append(out, s)
	}
	return out, nil
}

// Len returns the number of held secrets
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.secrets)
}
