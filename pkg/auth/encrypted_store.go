package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

// EnvPassphrase overrides the generated passphrase of the secrets file
const EnvPassphrase = "RIDDLE_PASSPHRASE"

const (
	passphraseFile = ".passphrase"
	fileVersion    = 2
	saltLen        = 16
	kdfRounds      = 210000
)

// EncryptedFileStore keeps client secrets in a single AES-GCM sealed file.
// The key is derived with PBKDF2 from RIDDLE_PASSPHRASE, or from a random
// passphrase written next to the file on first use.
type EncryptedFileStore struct {
	path       string
	passphrase []byte
	mu         sync.Mutex
}

// secretsFile is the on-disk envelope; Sealed holds the JSON of
// map[clientID]storedSecret
type secretsFile struct {
	Version int    `json:"version"`
	Salt    []byte `json:"salt"`
	Sealed  []byte `json:"sealed"`
}

type storedSecret struct {
	Value string    `json:"value"`
	Saved time.Time `json:"saved"`
}

// NewEncryptedFileStore opens the secrets file at path. The file itself is
// created by the first Put.
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	passphrase, err := loadPassphrase(filepath.Join(dir, passphraseFile))
	if err != nil {
		return nil, err
	}
	return &EncryptedFileStore{path: path, passphrase: passphrase}, nil
}

func (e *EncryptedFileStore) Name() string { return "encrypted file" }

func (e *EncryptedFileStore) Get(clientID string) (Secret, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	secrets, _, err := e.read()
	if err != nil {
		return Secret{}, err
	}
	s, ok := secrets[clientID]
	if !ok {
		return Secret{}, ErrSecretNotFound
	}
	return Secret{ClientID: clientID, Value: s.Value, Saved: s.Saved}, nil
}

func (e *EncryptedFileStore) Put(secret Secret) error {
	return e.update(func(secrets map[string]storedSecret) error {
		secrets[secret.ClientID] = storedSecret{Value: secret.Value, Saved: secret.Saved}
		return nil
	})
}

func (e *EncryptedFileStore) Remove(clientID string) error {
	return e.update(func(secrets map[string]storedSecret) error {
		if _, ok := secrets[clientID]; !ok {
			return ErrSecretNotFound
		}
		delete(secrets, clientID)
		return nil
	})
}

// Secrets lists every entry of the file
func (e *EncryptedFileStore) Secrets() ([]Secret, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	secrets, _, err := e.read()
	if err != nil {
		return nil, err
	}
	out := make([]Secret, 0, len(secrets))
	for id, s := range secrets {
		out = append(out, Secret{ClientID: id, Value: s.Value, Saved: s.Saved})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out, nil
}

// update applies fn to the decrypted contents and writes the result back.
// An emptied file is removed.
func (e *EncryptedFileStore) update(fn func(map[string]storedSecret) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	secrets, salt, err := e.read()
	if err != nil {
		return err
	}
	if err := fn(secrets); err != nil {
		return err
	}
	if len(secrets) == 0 {
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return e.write(secrets, salt)
}

// read returns the decrypted secrets and the file salt. A missing file
// reads as empty with a nil salt.
func (e *EncryptedFileStore) read() (map[string]storedSecret, []byte, error) {
	secrets := make(map[string]storedSecret)

	raw, err := os.ReadFile(e.path)
	if os.IsNotExist(err) {
		return secrets, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var file secretsFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, nil, fmt.Errorf("malformed secrets file %s: %w", e.path, err)
	}
	if file.Version != fileVersion {
		return nil, nil, fmt.Errorf("unsupported secrets file version %d", file.Version)
	}

	gcm, err := e.aead(file.Salt)
	if err != nil {
		return nil, nil, err
	}
	n := gcm.NonceSize()
	if len(file.Sealed) < n {
		return nil, nil, errors.New("secrets file is truncated")
	}
	plain, err := gcm.Open(nil, file.Sealed[:n], file.Sealed[n:], nil)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot decrypt secrets file (wrong passphrase?): %w", err)
	}
	if err := json.Unmarshal(plain, &secrets); err != nil {
		return nil, nil, fmt.Errorf("malformed secrets payload: %w", err)
	}
	return secrets, file.Salt, nil
}

func (e *EncryptedFileStore) write(secrets map[string]storedSecret, salt []byte) error {
	if salt == nil {
		salt = make([]byte, saltLen)
		if _, err := rand.Read(salt); err != nil {
			return err
		}
	}

	plain, err := json.Marshal(secrets)
	if err != nil {
		return err
	}
	gcm, err := e.aead(salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return err
	}

	body, err := json.MarshalIndent(secretsFile{
		Version: fileVersion,
		Salt:    salt,
		Sealed:  gcm.Seal(nonce, nonce, plain, nil),
	}, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(e.path), ".secrets-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), e.path)
}

func (e *EncryptedFileStore) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(e.passphrase, salt, kdfRounds, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// loadPassphrase prefers RIDDLE_PASSPHRASE, then the passphrase file,
// generating the file when absent
func loadPassphrase(path string) ([]byte, error) {
	if env := os.Getenv(EnvPassphrase); env != "" {
		return []byte(env), nil
	}

	if raw, err := os.ReadFile(path); err == nil {
		if p := strings.TrimSpace(string(raw)); p != "" {
			return []byte(p), nil
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	p := hex.EncodeToString(buf)
	if err := os.WriteFile(path, []byte(p+"\n"), 0600); err != nil {
		return nil, fmt.Errorf("failed to save passphrase: %w", err)
	}
	return []byte(p), nil
}
