package app

import (
	"fmt"

	"github.com/talentboard/authcore/pkg/cryptox"
	"github.com/talentboard/authcore/pkg/jwtx"
)

// signingKID identifies the derived signing key in issued tokens. Bump it
// when the derivation label changes so old tokens fail with unknown kid
// instead of a bad signature.
const signingKID = "authcore-1"

const signingKeyLabel = "access-token-signing"

// initKeys derives the signing key from the master secret and builds the
// signer/verifier pair for the configured algorithm.
func initKeys(cfg Config) (jwtx.Signer, jwtx.Verifier, error) {
	master, err := cryptox.LoadMasterSecret(cfg.MasterKeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load master secret: %w", err)
	}

	key, err := cryptox.DeriveKey(master, signingKeyLabel, 32)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to derive signing key: %w", err)
	}

	keys := jwtx.NewKeySet()

	switch cfg.Algorithm {
	case "HS256":
		signer, err := jwtx.NewSignerHS256(signingKID, key)
		if err != nil {
			return nil, nil, err
		}
		keys.Add(signingKID, key)
		return signer, jwtx.NewVerifierHS256(keys, cfg.Issuer), nil

	case "", "EdDSA":
		signer, err := jwtx.NewSignerEdDSA(signingKID, key)
		if err != nil {
			return nil, nil, err
		}
		eddsa, ok := signer.(*jwtx.EdDSASigner)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected EdDSA signer type %T", signer)
		}
		keys.Add(signingKID, eddsa.PublicKey())
		return signer, jwtx.NewVerifierEdDSA(keys, cfg.Issuer), nil

	default:
		return nil, nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}
}
