package certs

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"time"

	"software.sslmate.com/src/go-pkcs12"

	"github.com/reisxd/tizensign/internal/models"
)

// Request describes the subject of a new author certificate.
type Request struct {
	CommonName   string
	Organization string
	Country      string
	Email        string
	ValidYears   int
}

// GenerateAuthorCertificate creates a self-signed RSA-2048 author
// certificate. It replaces the Tizen Studio certificate-manager flow for
// development signing; distributor certificates still come from Samsung.
func GenerateAuthorCertificate(req Request) (*Certificate, error) {
	if req.CommonName == "" {
		return nil, &models.SignError{Type: models.ErrInvalidConfig, Err: fmt.Errorf("common name is required")}
	}
	years := req.ValidYears
	if years <= 0 {
		years = 10
	}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, &models.SignError{Type: models.ErrCrypto, Err: fmt.Errorf("generating RSA key: %w", err)}
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, &models.SignError{Type: models.ErrCrypto, Err: fmt.Errorf("generating serial: %w", err)}
	}

	subject := pkix.Name{CommonName: req.CommonName}
	if req.Organization != "" {
		subject.Organization = []string{req.Organization}
	}
	if req.Country != "" {
		subject.Country = []string{req.Country}
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               subject,
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.AddDate(years, 0, 0),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageCodeSigning},
		BasicConstraintsValid: true,
	}
	if req.Email != "" {
		template.EmailAddresses = []string{req.Email}
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, &models.SignError{Type: models.ErrCrypto, Err: fmt.Errorf("creating certificate: %w", err)}
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, &models.SignError{Type: models.ErrCrypto, Err: fmt.Errorf("parsing generated certificate: %w", err)}
	}

	return &Certificate{
		Leaf:         cert,
		Certificates: []*x509.Certificate{cert},
		PrivateKey:   key,
	}, nil
}

// EncodePKCS12 serializes the bundle as a password-protected PKCS#12 file
// using modern (AES/SHA-256) encryption.
func (c *Certificate) EncodePKCS12(password string) ([]byte, error) {
	blob, err := pkcs12.Modern.Encode(c.PrivateKey, c.Leaf, c.Chain(), password)
	if err != nil {
		return nil, &models.SignError{Type: models.ErrCrypto, Err: fmt.Errorf("encoding PKCS#12: %w", err)}
	}
	return blob, nil
}
