package wgt

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/reisxd/tizensign/internal/models"
	"github.com/reisxd/tizensign/internal/packager"
	"github.com/reisxd/tizensign/internal/scanner"
)

// Packager implements the packager.Packager interface for web widgets
type Packager struct{}

// NewPackager creates a new widget packager
func NewPackager() packager.Packager {
	return &Packager{}
}

// ManifestName returns the widget manifest file name
func (p *Packager) ManifestName() string {
	return scanner.WidgetManifest
}

// GetSupportedType returns the widget package type
func (p *Packager) GetSupportedType() scanner.PackageType {
	return scanner.TypeWidget
}

// Validate checks that a widget manifest is present
func (p *Packager) Validate(entries []models.FileEntry) error {
	if packager.FindEntry(entries, scanner.WidgetManifest) == nil {
		return &models.SignError{Type: models.ErrPackageParse, Err: fmt.Errorf("widget has no %s", scanner.WidgetManifest)}
	}
	return nil
}

// Metadata parses config.xml for the application id and version. The id is
// taken from the tizen:application element, falling back to the widget id
// attribute for plain W3C widgets.
func (p *Packager) Metadata(entries []models.FileEntry) (*models.AppInfo, error) {
	manifest := packager.FindEntry(entries, scanner.WidgetManifest)
	if manifest == nil {
		return nil, &models.SignError{Type: models.ErrPackageParse, Err: fmt.Errorf("widget has no %s", scanner.WidgetManifest)}
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(manifest.Data); err != nil {
		return nil, &models.SignError{Type: models.ErrPackageParse, Package: scanner.WidgetManifest, Err: err}
	}
	root := doc.Root()
	if root == nil || root.Tag != "widget" {
		return nil, &models.SignError{Type: models.ErrPackageParse, Package: scanner.WidgetManifest, Err: fmt.Errorf("root element is not widget")}
	}

	info := &models.AppInfo{
		ID:      root.SelectAttrValue("id", ""),
		Version: root.SelectAttrValue("version", ""),
	}
	for _, child := range root.ChildElements() {
		if child.Tag == "application" {
			if id := child.SelectAttrValue("id", ""); id != "" {
				info.ID = id
			}
			break
		}
	}
	if info.ID == "" {
		return nil, &models.SignError{Type: models.ErrPackageParse, Package: scanner.WidgetManifest, Err: fmt.Errorf("widget has no application id")}
	}
	return info, nil
}
