package certs

import (
	"crypto"
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	"software.sslmate.com/src/go-pkcs12"

	"github.com/reisxd/tizensign/internal/models"
)

// Certificate bundles the key material extracted from a PKCS#12 file: the
// signer certificate, its chain, and the matching private key.
type Certificate struct {
	Leaf         *x509.Certificate
	Certificates []*x509.Certificate
	PrivateKey   crypto.PrivateKey
}

// ParsePKCS12 decodes a PKCS#12 bundle. The emitted certificate list is
// leaf-first followed by the remaining certificates in bag order, which is
// the order the Tizen verifier expects in KeyInfo.
func ParsePKCS12(blob []byte, password string) (*Certificate, error) {
	priv, leaf, chain, err := pkcs12.DecodeChain(blob, password)
	if err != nil {
		return nil, &models.SignError{Type: models.ErrInvalidKeyMaterial, Err: fmt.Errorf("decoding PKCS#12: %w", err)}
	}
	return &Certificate{
		Leaf:         leaf,
		Certificates: append([]*x509.Certificate{leaf}, chain...),
		PrivateKey:   priv,
	}, nil
}

// ParsePKCS12File reads and decodes a PKCS#12 bundle from disk.
func ParsePKCS12File(path, password string) (*Certificate, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.SignError{Type: models.ErrFileOp, Package: path, Err: err}
	}
	cert, err := ParsePKCS12(blob, password)
	if err != nil {
		if serr := new(models.SignError); errors.As(err, &serr) {
			serr.Package = path
		}
		return nil, err
	}
	return cert, nil
}

// RSAKey returns the bundle's private key as RSA, the only key type Tizen
// signatures support.
func (c *Certificate) RSAKey() (*rsa.PrivateKey, error) {
	key, ok := c.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, &models.SignError{Type: models.ErrInvalidKeyMaterial, Err: fmt.Errorf("private key is %T, want RSA", c.PrivateKey)}
	}
	return key, nil
}

// Chain returns the certificates after the leaf.
func (c *Certificate) Chain() []*x509.Certificate {
	if len(c.Certificates) <= 1 {
		return nil
	}
	return c.Certificates[1:]
}

// IsIncorrectPassword reports whether err is a PKCS#12 password mismatch,
// so callers can re-prompt instead of failing.
func IsIncorrectPassword(err error) bool {
	return errors.Is(err, pkcs12.ErrIncorrectPassword)
}
