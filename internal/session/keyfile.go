package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aussiebroadwan/eas/pkg/cryptox"
)

// LoadOrCreateKey returns the key material stored at path, generating and
// writing a new random key (mode 0600) when the file does not exist yet.
func LoadOrCreateKey(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		key, err := cryptox.DecodeToken(strings.TrimSpace(string(raw)))
		if err != nil {
			return nil, fmt.Errorf("invalid key file %s: %w", path, err)
		}
		if len(key) < cryptox.KeySize256 {
			return nil, fmt.Errorf("invalid key file %s: key too short", path)
		}
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	token, err := cryptox.GenerateToken(cryptox.KeySize256)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}

	return cryptox.DecodeToken(token)
}
