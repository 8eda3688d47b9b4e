package tpk

import (
	"testing"

	"github.com/reisxd/tizensign/internal/models"
	"github.com/reisxd/tizensign/internal/scanner"
)

const sampleManifest = `<?xml version="1.0" encoding="utf-8"?>
<manifest xmlns="http://tizen.org/ns/packages" api-version="6.0" package="org.example.hello" version="1.0.2">
    <profile name="common"/>
    <ui-application appid="org.example.hello" exec="hello" type="capp"/>
</manifest>
`

func TestMetadata(t *testing.T) {
	p := NewPackager()
	entries := []models.FileEntry{
		{URI: "tizen-manifest.xml", Data: []byte(sampleManifest)},
		{URI: "bin/hello", Data: []byte{0x7F, 0x45, 0x4C, 0x46}},
	}

	if err := p.Validate(entries); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	info, err := p.Metadata(entries)
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}
	if info.ID != "org.example.hello" {
		t.Errorf("ID = %q, want org.example.hello", info.ID)
	}
	if info.Version != "1.0.2" {
		t.Errorf("Version = %q, want 1.0.2", info.Version)
	}
}

func TestValidateMissingManifest(t *testing.T) {
	p := NewPackager()
	entries := []models.FileEntry{{URI: "bin/hello", Data: []byte("x")}}

	if err := p.Validate(entries); err == nil {
		t.Error("Validate succeeded without tizen-manifest.xml")
	}
}

func TestSupportedType(t *testing.T) {
	p := NewPackager()
	if p.GetSupportedType() != scanner.TypeNative {
		t.Error("Native packager reports the wrong type")
	}
	if p.ManifestName() != scanner.NativeManifest {
		t.Error("Native packager reports the wrong manifest")
	}
}
