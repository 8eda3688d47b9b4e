package signature

import (
	"crypto/sha512"
	"encoding/base64"
	"strings"

	"github.com/reisxd/tizensign/internal/models"
)

const (
	digestAlgorithm    = "http://www.w3.org/2001/04/xmlenc#sha512"
	c14n11Algorithm    = "http://www.w3.org/2006/12/xml-c14n11"
	excC14NAlgorithm   = "http://www.w3.org/2001/10/xml-exc-c14n#"
	signatureAlgorithm = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha512"
	xmldsigNamespace   = "http://www.w3.org/2000/09/xmldsig#"
)

// Digest of the canonicalized (c14n 1.1) property object for each role. The
// object's contents are constant for a given role, so its digest is too.
var propDigests = map[Role]string{
	RoleAuthor:      "aXbSAVgmAz0GsBUeZ1UmNDRrxkWhDUVGb45dZcNRq429wX3X+x6kaXT3NdNDTSNVTU+ypkysPMGvQY10fG1EWQ==",
	RoleDistributor: "/r5npk2VVA46QFJnejgONBEh4BWtjrtu9x/IFeLksjWyGmB/cMWKSJWQl7aU3YRQRZ3AesG8gF7qGyvKX9Snig==",
}

// buildReferences renders one <Reference> per file entry, in entry order,
// followed by the fixed property reference for the role.
func buildReferences(files []models.FileEntry, role Role) string {
	var sb strings.Builder
	for _, file := range files {
		writeFileReference(&sb, file)
	}
	writePropReference(&sb, role)
	return sb.String()
}

func writeFileReference(sb *strings.Builder, file models.FileEntry) {
	sum := sha512.Sum512(file.Data)
	digest := wrapBase64(base64.StdEncoding.EncodeToString(sum[:]))

	sb.WriteString(`<Reference URI="` + file.URI + `">` + "\n")
	sb.WriteString(`<DigestMethod Algorithm="` + digestAlgorithm + `"></DigestMethod>` + "\n")
	sb.WriteString(`<DigestValue>` + digest + `</DigestValue>` + "\n")
	sb.WriteString("</Reference>\n")
}

func writePropReference(sb *strings.Builder, role Role) {
	sb.WriteString(`<Reference URI="#prop">` + "\n")
	sb.WriteString("<Transforms>\n")
	sb.WriteString(`<Transform Algorithm="` + c14n11Algorithm + `"></Transform>` + "\n")
	sb.WriteString("</Transforms>\n")
	sb.WriteString(`<DigestMethod Algorithm="` + digestAlgorithm + `"></DigestMethod>` + "\n")
	sb.WriteString(`<DigestValue>` + wrapBase64(propDigests[role]) + `</DigestValue>` + "\n")
	sb.WriteString("</Reference>\n")
}

// wrapBase64 inserts a newline after every 76 characters.
func wrapBase64(s string) string {
	if len(s) <= 76 {
		return s
	}
	var sb strings.Builder
	for len(s) > 76 {
		sb.WriteString(s[:76])
		sb.WriteByte('\n')
		s = s[76:]
	}
	sb.WriteString(s)
	return sb.String()
}
