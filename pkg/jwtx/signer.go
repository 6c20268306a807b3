package jwtx

// Signer is our interface for anything that can sign access tokens.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)
	Validate() error
}

// NewSignerEdDSA creates an EdDSA signer from an Ed25519 private key.
func NewSignerEdDSA(kid string, key []byte) (Signer, error) {
	return newEdDSASigner(kid, key)
}

// NewSignerHS256 creates an HS256 signer from a shared secret.
func NewSignerHS256(kid string, secret []byte) (Signer, error) {
	return newHS256Signer(kid, secret)
}
