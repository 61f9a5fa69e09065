package auth

import "os"

const (
	EnvClientID     = "RIDDLE_CLIENT_ID"
	EnvClientSecret = "RIDDLE_CLIENT_SECRET"
)

// EnvironmentStore serves RIDDLE_CLIENT_SECRET. When RIDDLE_CLIENT_ID is
// also set the secret only answers for that client id. It is read only.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Name() string { return "environment" }

func (e *EnvironmentStore) Get(clientID string) (Secret, error) {
	value := os.Getenv(EnvClientSecret)
	if value == "" {
		return Secret{}, ErrSecretNotFound
	}
	if id := os.Getenv(EnvClientID); id != "" && id != clientID {
		return Secret{}, ErrSecretNotFound
	}
	return Secret{ClientID: clientID, Value: value}, nil
}

func (e *EnvironmentStore) Put(Secret) error { return ErrReadOnly }

func (e *EnvironmentStore) Remove(string) error { return ErrReadOnly }

// Secrets reports the environment pair when both variables are set
func (e *EnvironmentStore) Secrets() ([]Secret, error) {
	id := os.Getenv(EnvClientID)
	if id == "" {
		return nil, nil
	}
	s, err := e.Get(id)
	if err != nil {
		return nil, nil
	}
	return []Secret{s}, nil
}
