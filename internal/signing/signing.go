// Package signing produces detached armored PGP signatures for emitted
// packages, so consumers can check provenance before installing.
package signing

import (
	"fmt"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"

	"github.com/mesosphere/mesos-package-composer/internal/utils/logger"
)

var log = logger.Logger()

// Signer holds the private keyring used for signing.
type Signer struct {
	entity *openpgp.Entity
}

// LoadSigner reads an armored private key from keyPath. The first key in
// the ring that can sign is used.
func LoadSigner(keyPath string) (*Signer, error) {
	f, err := os.Open(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open signing key %s: %w", keyPath, err)
	}
	defer f.Close()

	entities, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signing key %s: %w", keyPath, err)
	}

	for _, e := range entities {
		if e.PrivateKey != nil {
			return &Signer{entity: e}, nil
		}
	}
	return nil, fmt.Errorf("no private key in %s", keyPath)
}

// NewSignerFromEntity wraps an in-memory entity. Used by tests and by
// callers that generate ephemeral keys.
func NewSignerFromEntity(e *openpgp.Entity) *Signer {
	return &Signer{entity: e}
}

// Sign writes a detached armored signature for the file at path, named
// <path>.asc, and returns the signature path.
func (s *Signer) Sign(path string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for signing: %w", path, err)
	}
	defer in.Close()

	sigPath := path + ".asc"
	out, err := os.Create(sigPath)
	if err != nil {
		return "", fmt.Errorf("failed to create signature file %s: %w", sigPath, err)
	}
	defer out.Close()

	if err := openpgp.ArmoredDetachSign(out, s.entity, in, nil); err != nil {
		return "", fmt.Errorf("failed to sign %s: %w", path, err)
	}

	log.Infof("Wrote detached signature %s", sigPath)
	return sigPath, nil
}

// Verify checks a detached armored signature against the file it covers.
func (s *Signer) Verify(path, sigPath string) error {
	data, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer data.Close()

	sig, err := os.Open(sigPath)
	if err != nil {
		return fmt.Errorf("failed to open signature %s: %w", sigPath, err)
	}
	defer sig.Close()

	keyring := openpgp.EntityList{s.entity}
	if _, err := openpgp.CheckArmoredDetachedSignature(keyring, data, sig, nil); err != nil {
		return fmt.Errorf("signature %s does not verify against %s: %w", sigPath, path, err)
	}
	return nil
}
