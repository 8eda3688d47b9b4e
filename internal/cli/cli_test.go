package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reisxd/tizensign/internal/archive"
	"github.com/reisxd/tizensign/internal/certs"
	"github.com/reisxd/tizensign/internal/models"
)

const testConfig = `<?xml version="1.0" encoding="UTF-8"?>
<widget xmlns="http://www.w3.org/ns/widgets" xmlns:tizen="http://tizen.org/ns/widgets" id="http://example.org/app" version="1.0.0">
    <tizen:application id="A1b2C3d4E5.App" package="A1b2C3d4E5" required_version="5.0"/>
    <name>App</name>
</widget>
`

// writeBundle generates a fresh self-signed bundle and stores it as a
// PKCS#12 file.
func writeBundle(t *testing.T, path, name, password string) {
	t.Helper()
	bundle, err := certs.GenerateAuthorCertificate(certs.Request{CommonName: name})
	if err != nil {
		t.Fatalf("Failed to generate bundle: %v", err)
	}
	blob, err := bundle.EncodePKCS12(password)
	if err != nil {
		t.Fatalf("Failed to encode bundle: %v", err)
	}
	if err := os.WriteFile(path, blob, 0600); err != nil {
		t.Fatalf("Failed to write bundle: %v", err)
	}
}

func entryURIs(entries []models.FileEntry) []string {
	uris := make([]string, len(entries))
	for i, e := range entries {
		uris[i] = e.URI
	}
	return uris
}

func findEntry(entries []models.FileEntry, uri string) *models.FileEntry {
	for i := range entries {
		if entries[i].URI == uri {
			return &entries[i]
		}
	}
	return nil
}

func TestPackThenResign(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "tizensign-test-e2e-")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	// Step 1: Lay out a widget source directory and the key material
	appDir := filepath.Join(tmpDir, "app")
	os.MkdirAll(filepath.Join(appDir, "js"), 0755)
	os.WriteFile(filepath.Join(appDir, "config.xml"), []byte(testConfig), 0644)
	os.WriteFile(filepath.Join(appDir, "index.html"), []byte("<html></html>"), 0644)
	os.WriteFile(filepath.Join(appDir, "js", "main.js"), []byte("init()"), 0644)

	authorP12 := filepath.Join(tmpDir, "author.p12")
	distP12 := filepath.Join(tmpDir, "distributor.p12")
	writeBundle(t, authorP12, "Test Author", "ap")
	writeBundle(t, distP12, "Test Distributor", "dp")

	// Step 2: Pack and sign the directory
	pkgPath := filepath.Join(tmpDir, "app.wgt")
	packCfg := &models.PackConfig{
		InputDir:       appDir,
		Output:         pkgPath,
		AuthorKeyPath:  authorP12,
		AuthorPassword: "ap",
		DistKeyPath:    distP12,
		DistPassword:   "dp",
	}
	if err := runPack(packCfg); err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	// Step 3: The package carries both signatures plus the content files
	zr, err := archive.ReadPackage(pkgPath)
	if err != nil {
		t.Fatalf("Reading packed output failed: %v", err)
	}
	// ReadPackage drops signature members; check them on the raw zip
	raw, err := os.ReadFile(pkgPath)
	if err != nil {
		t.Fatalf("Reading output failed: %v", err)
	}
	for _, name := range []string{"author-signature.xml", "signature1.xml"} {
		if !strings.Contains(string(raw), name) {
			t.Errorf("Output package lacks %s", name)
		}
	}
	wantContent := []string{"config.xml", "index.html", "js/main.js"}
	if got := entryURIs(zr); len(got) != len(wantContent) {
		t.Fatalf("Content entries = %v, want %v", got, wantContent)
	}

	// Step 4: Re-sign the package with author only
	resigned := filepath.Join(tmpDir, "app-resigned.wgt")
	signCfg := &models.SignConfig{
		Input:          pkgPath,
		Output:         resigned,
		AuthorKeyPath:  authorP12,
		AuthorPassword: "ap",
	}
	if err := validateSignConfig(signCfg); err != nil {
		t.Fatalf("validateSignConfig failed: %v", err)
	}
	if err := runSign(signCfg); err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	raw, err = os.ReadFile(resigned)
	if err != nil {
		t.Fatalf("Reading re-signed output failed: %v", err)
	}
	if !strings.Contains(string(raw), "author-signature.xml") {
		t.Error("Re-signed package lacks author-signature.xml")
	}
	if strings.Contains(string(raw), "signature1.xml") {
		t.Error("Author-only re-sign still carries a distributor signature")
	}
}

func TestSignEntriesCoversAuthorSignature(t *testing.T) {
	author, err := certs.GenerateAuthorCertificate(certs.Request{CommonName: "Author"})
	if err != nil {
		t.Fatalf("Failed to generate author bundle: %v", err)
	}
	dist, err := certs.GenerateAuthorCertificate(certs.Request{CommonName: "Distributor"})
	if err != nil {
		t.Fatalf("Failed to generate distributor bundle: %v", err)
	}

	entries := []models.FileEntry{{URI: "config.xml", Data: []byte(testConfig)}}
	signed, err := signEntries(entries, author, dist)
	if err != nil {
		t.Fatalf("signEntries failed: %v", err)
	}

	want := []string{"signature1.xml", "author-signature.xml", "config.xml"}
	got := entryURIs(signed)
	if len(got) != len(want) {
		t.Fatalf("Entries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Entries = %v, want %v", got, want)
		}
	}

	// The distributor signature must reference the author signature file
	distSig := findEntry(signed, "signature1.xml")
	if !strings.Contains(string(distSig.Data), `<Reference URI="author-signature.xml">`) {
		t.Error("Distributor signature does not cover author-signature.xml")
	}
	// And no signature references itself
	if strings.Contains(string(distSig.Data), `<Reference URI="signature1.xml">`) {
		t.Error("Distributor signature references itself")
	}
	authorSig := findEntry(signed, "author-signature.xml")
	if strings.Contains(string(authorSig.Data), `<Reference URI="author-signature.xml">`) {
		t.Error("Author signature references itself")
	}
}

func TestValidateSignConfig(t *testing.T) {
	if err := validateSignConfig(&models.SignConfig{}); err == nil {
		t.Error("validateSignConfig accepted an empty input")
	}

	cfg := &models.SignConfig{Input: "/pkgs/app.wgt"}
	if err := validateSignConfig(cfg); err != nil {
		t.Fatalf("validateSignConfig failed: %v", err)
	}
	if cfg.Output != "/pkgs/app-signed.wgt" {
		t.Errorf("Default output = %q, want /pkgs/app-signed.wgt", cfg.Output)
	}
}
