package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/hkdf"
)

// MasterSecretEnv is consulted when no key file path is configured.
const MasterSecretEnv = "AUTHCORE_MASTER_KEY"

// LoadMasterSecret loads the process-wide master secret from which signing
// keys are derived. Resolution order:
//
//  1. the file at path, if path is non-empty
//  2. the AUTHCORE_MASTER_KEY environment variable
//  3. an ephemeral random secret (development only; tokens do not survive
//     a restart)
func LoadMasterSecret(path string) ([]byte, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read master key file: %w", err)
		}
		return data, nil
	}

	if env := os.Getenv(MasterSecretEnv); env != "" {
		return []byte(env), nil
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate ephemeral master secret: %w", err)
	}
	return secret, nil
}

// DeriveKey derives a size-byte subkey from the master secret for the given
// label via HKDF-SHA256. Distinct labels yield independent keys, so the
// signing key and any future subkeys never share material.
func DeriveKey(master []byte, label string, size int) ([]byte, error) {
	if len(master) == 0 {
		return nil, fmt.Errorf("empty master secret")
	}
	if size <= 0 {
		return nil, fmt.Errorf("key size must be positive, got %d", size)
	}

	r := hkdf.New(sha256.New, master, nil, []byte(label))
	key := make([]byte, size)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("hkdf derive %q: %w", label, err)
	}
	return key, nil
}
