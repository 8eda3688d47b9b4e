package tpk

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/reisxd/tizensign/internal/models"
	"github.com/reisxd/tizensign/internal/packager"
	"github.com/reisxd/tizensign/internal/scanner"
)

// Packager implements the packager.Packager interface for native packages
type Packager struct{}

// NewPackager creates a new native-package packager
func NewPackager() packager.Packager {
	return &Packager{}
}

// ManifestName returns the native manifest file name
func (p *Packager) ManifestName() string {
	return scanner.NativeManifest
}

// GetSupportedType returns the native package type
func (p *Packager) GetSupportedType() scanner.PackageType {
	return scanner.TypeNative
}

// Validate checks that a native manifest is present
func (p *Packager) Validate(entries []models.FileEntry) error {
	if packager.FindEntry(entries, scanner.NativeManifest) == nil {
		return &models.SignError{Type: models.ErrPackageParse, Err: fmt.Errorf("package has no %s", scanner.NativeManifest)}
	}
	return nil
}

// Metadata parses tizen-manifest.xml for the package id and version
func (p *Packager) Metadata(entries []models.FileEntry) (*models.AppInfo, error) {
	manifest := packager.FindEntry(entries, scanner.NativeManifest)
	if manifest == nil {
		return nil, &models.SignError{Type: models.ErrPackageParse, Err: fmt.Errorf("package has no %s", scanner.NativeManifest)}
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(manifest.Data); err != nil {
		return nil, &models.SignError{Type: models.ErrPackageParse, Package: scanner.NativeManifest, Err: err}
	}
	root := doc.Root()
	if root == nil || root.Tag != "manifest" {
		return nil, &models.SignError{Type: models.ErrPackageParse, Package: scanner.NativeManifest, Err: fmt.Errorf("root element is not manifest")}
	}

	info := &models.AppInfo{
		ID:      root.SelectAttrValue("package", ""),
		Version: root.SelectAttrValue("version", ""),
	}
	if info.ID == "" {
		return nil, &models.SignError{Type: models.ErrPackageParse, Package: scanner.NativeManifest, Err: fmt.Errorf("manifest has no package id")}
	}
	return info, nil
}
