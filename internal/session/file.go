package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aussiebroadwan/eas/pkg/cryptox"
	"github.com/aussiebroadwan/eas/pkg/slogx"
	"github.com/gorilla/securecookie"
)

// FileStore keeps the session in a single JSON file. Each value is signed
// and encrypted with securecookie, so a copied or edited file cannot be used
// to forge a session.
type FileStore struct {
	path  string
	codec *securecookie.SecureCookie
	mu    sync.Mutex
}

// NewFileStore creates a store at path whose codec keys are derived from
// keyMaterial (see LoadOrCreateKey).
func NewFileStore(path string, keyMaterial []byte) (*FileStore, error) {
	hashKey, err := cryptox.DeriveKey(keyMaterial, "eas session hash", cryptox.KeySize512)
	if err != nil {
		return nil, err
	}
	blockKey, err := cryptox.DeriveKey(keyMaterial, "eas session block", cryptox.KeySize256)
	if err != nil {
		return nil, err
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(0)
	codec.SetSerializer(securecookie.JSONEncoder{})

	return &FileStore{path: path, codec: codec}, nil
}

// Path returns the location of the session file.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Save(_ context.Context, s Session) error {
	values, err := Encode(s)
	if err != nil {
		return err
	}

	sealed := make(map[string]string, len(values))
	for key, value := range values {
		enc, err := f.codec.Encode(key, value)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		sealed[key] = enc
	}

	buf, err := json.MarshalIndent(sealed, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session file: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(buf)
}

func (f *FileStore) Load(ctx context.Context) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	buf, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to read session file: %w", err)
	}

	s, err := f.decode(buf)
	if err != nil {
		slogx.FromContext(ctx).Debug("discarding stored session", "path", f.path, "reason", err)
		if err := f.remove(); err != nil {
			return Session{}, err
		}
		return Session{}, nil
	}

	return s, nil
}

func (f *FileStore) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remove()
}

func (f *FileStore) decode(buf []byte) (Session, error) {
	var sealed map[string]string
	if err := json.Unmarshal(buf, &sealed); err != nil {
		return Session{}, ErrMalformed
	}

	values := make(map[string]string, len(sealed))
	for _, key := range []string{KeyToken, KeyUser} {
		enc, ok := sealed[key]
		if !ok {
			continue
		}

		var value string
		if err := f.codec.Decode(key, enc, &value); err != nil {
			return Session{}, fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
		}
		values[key] = value
	}

	return Decode(values)
}

// write replaces the file atomically so a crash never leaves half a session.
func (f *FileStore) write(buf []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if _, err := tmp.Write(buf); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close session file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

func (f *FileStore) remove() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
