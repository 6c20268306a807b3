package jwtx

import (
	"errors"
	"sync"
)

var ErrNoKey = errors.New("jwtx: key not found")

// KeySet holds verification keys by kid. It's thread-safe so verifiers can
// look keys up while a rotation adds new ones.
type KeySet struct {
	mu  sync.RWMutex
	pub map[string]any // kid -> ed25519.PublicKey | []byte (HMAC secret)
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{pub: make(map[string]any)}
}

// Add registers a verification key under the given kid, replacing any
// previous key for that kid.
func (k *KeySet) Add(kid string, key any) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub[kid] = key
}

// Get returns the verification key for the given kid.
func (k *KeySet) Get(kid string) (any, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if pk, ok := k.pub[kid]; ok {
		return pk, nil
	}
	return nil, ErrNoKey
}

// IsReady returns true if the KeySet has at least one key loaded.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pub) > 0
}
