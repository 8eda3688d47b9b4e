// Package signature builds the author and distributor XML signatures
// embedded in Tizen packages: per-file SHA-512 references, the certificate
// chain KeyInfo, exclusive canonicalization of SignedInfo, and the
// RSA-SHA512 signature over its canonical form.
package signature

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/reisxd/tizensign/internal/certs"
	"github.com/reisxd/tizensign/internal/models"
)

// Role selects the widget-digsig signature profile being produced.
type Role string

const (
	RoleAuthor      Role = "AuthorSignature"
	RoleDistributor Role = "DistributorSignature"
)

// Filename returns the archive member name for this role's signature file.
// The names are fixed by the Tizen widget-digsig profile.
func (r Role) Filename() string {
	if r == RoleAuthor {
		return "author-signature.xml"
	}
	return "signature1.xml"
}

func (r Role) profileRole() string {
	if r == RoleAuthor {
		return "author"
	}
	return "distributor"
}

// Signature accumulates the state of one signing operation over an ordered
// file list. Instances are single-use; construct a new one per signature.
// A Signature must not be shared across concurrent Sign calls.
type Signature struct {
	role       Role
	files      []models.FileEntry
	references string
	keyInfo    string
	signedInfo string
	key        *rsa.PrivateKey
}

// New creates a signature builder for the given role over a copy of files.
// The list must not include the signature file itself; it is prepended to
// the returned list after signing.
func New(role Role, files []models.FileEntry) *Signature {
	return &Signature{
		role:  role,
		files: append([]models.FileEntry(nil), files...),
	}
}

// Sign builds the signature document and returns the file list with the
// signature entry prepended. The input list is never mutated; on error no
// partial state is observable. Repeated calls on the same fixed inputs
// produce byte-identical documents.
func (s *Signature) Sign(bundle *certs.Certificate) ([]models.FileEntry, error) {
	s.references, s.keyInfo, s.signedInfo, s.key = "", "", "", nil

	key, err := signingKey(bundle)
	if err != nil {
		return nil, err
	}
	s.key = key

	s.references = buildReferences(s.files, s.role)
	s.keyInfo = buildKeyInfo(bundle.Certificates)
	s.signedInfo = buildSignedInfo(s.references)

	canonical, err := s.canonicalSignedInfo()
	if err != nil {
		s.key = nil
		return nil, err
	}

	sum := sha512.Sum512([]byte(canonical))
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA512, sum[:])
	s.key = nil
	if err != nil {
		return nil, &models.SignError{Type: models.ErrCrypto, Err: fmt.Errorf("rsa-sha512 signing failed: %w", err)}
	}

	doc := s.assemble(sig)

	out := make([]models.FileEntry, 0, len(s.files)+1)
	out = append(out, models.FileEntry{URI: s.role.Filename(), Data: []byte(doc)})
	out = append(out, s.files...)
	return out, nil
}

func signingKey(bundle *certs.Certificate) (*rsa.PrivateKey, error) {
	if bundle == nil || len(bundle.Certificates) == 0 {
		return nil, &models.SignError{Type: models.ErrInvalidKeyMaterial, Err: errors.New("bundle contains no certificate")}
	}
	if bundle.PrivateKey == nil {
		return nil, &models.SignError{Type: models.ErrInvalidKeyMaterial, Err: errors.New("bundle contains no private key")}
	}
	key, ok := bundle.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, &models.SignError{Type: models.ErrInvalidKeyMaterial, Err: fmt.Errorf("private key is %T, want RSA", bundle.PrivateKey)}
	}
	return key, nil
}

func buildSignedInfo(references string) string {
	var sb strings.Builder
	sb.WriteString("<SignedInfo>\n")
	sb.WriteString(`<CanonicalizationMethod Algorithm="` + excC14NAlgorithm + `"></CanonicalizationMethod>` + "\n")
	sb.WriteString(`<SignatureMethod Algorithm="` + signatureAlgorithm + `"></SignatureMethod>` + "\n")
	sb.WriteString(references)
	sb.WriteString("</SignedInfo>")
	return sb.String()
}

// canonicalSignedInfo wraps the SignedInfo text in a throwaway Signature
// root, parses it, and canonicalizes the SignedInfo element. The fallback
// namespace for the ds prefix carries a historical "w3c" typo that must be
// kept for bit-exact compatibility; it is only consulted when a parser
// fails to attach a namespace URI, which the throwaway document never
// triggers.
func (s *Signature) canonicalSignedInfo() (string, error) {
	wrapper := `<Signature xmlns="` + xmldsigNamespace + `">` + s.signedInfo + `</Signature>`
	doc := etree.NewDocument()
	if err := doc.ReadFromString(wrapper); err != nil {
		return "", &models.SignError{Type: models.ErrMalformedXML, Err: fmt.Errorf("signed info does not parse: %w", err)}
	}
	root := doc.Root()
	if root == nil || len(root.ChildElements()) == 0 {
		return "", &models.SignError{Type: models.ErrMalformedXML, Err: errors.New("signed info element missing")}
	}
	return Canonicalize(root.ChildElements()[0], C14NOptions{
		DefaultNamespaceForPrefix: map[string]string{
			"ds": "http://www.w3c.org/2000/09/xmldsig#",
		},
	}), nil
}

func (s *Signature) assemble(sig []byte) string {
	sigValue := wrapBase64(base64.StdEncoding.EncodeToString(sig))

	var sb strings.Builder
	sb.WriteString(`<Signature xmlns="` + xmldsigNamespace + `" Id="` + string(s.role) + `">` + "\n")
	sb.WriteString(s.signedInfo)
	sb.WriteString("\n<SignatureValue>\n" + sigValue + "\n</SignatureValue>\n")
	sb.WriteString(s.keyInfo)
	sb.WriteByte('\n')
	sb.WriteString(propObject(s.role))
	sb.WriteString("\n</Signature>\n")
	return sb.String()
}

// propObject renders the signed property block. It is emitted as a single
// line: the #prop reference digest was precomputed against this exact byte
// sequence.
func propObject(role Role) string {
	r := string(role)
	return `<Object Id="prop">` +
		`<SignatureProperties xmlns:dsp="http://www.w3.org/2009/xmldsig-properties">` +
		`<SignatureProperty Id="profile" Target="#` + r + `">` +
		`<dsp:Profile URI="http://www.w3.org/ns/widgets-digsig#profile"></dsp:Profile>` +
		`</SignatureProperty>` +
		`<SignatureProperty Id="role" Target="#` + r + `">` +
		`<dsp:Role URI="http://www.w3.org/ns/widgets-digsig#role-` + role.profileRole() + `"></dsp:Role>` +
		`</SignatureProperty>` +
		`<SignatureProperty Id="identifier" Target="#` + r + `">` +
		`<dsp:Identifier></dsp:Identifier>` +
		`</SignatureProperty>` +
		`</SignatureProperties>` +
		`</Object>`
}
