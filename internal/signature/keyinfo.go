package signature

import (
	"crypto/x509"
	"encoding/base64"
	"strings"
)

// buildKeyInfo renders the <KeyInfo> block carrying the certificate chain.
// Certificate order must be preserved: the verifier treats the first
// certificate as the signer and the remainder as its chain.
func buildKeyInfo(certs []*x509.Certificate) string {
	var sb strings.Builder
	sb.WriteString("<KeyInfo>\n<X509Data>\n")
	for _, cert := range certs {
		sb.WriteString("<X509Certificate>\n")
		sb.WriteString(wrapBase64(base64.StdEncoding.EncodeToString(cert.Raw)))
		sb.WriteString("\n</X509Certificate>\n")
	}
	sb.WriteString("</X509Data>\n</KeyInfo>")
	return sb.String()
}
