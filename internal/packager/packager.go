package packager

import (
	"github.com/reisxd/tizensign/internal/models"
	"github.com/reisxd/tizensign/internal/scanner"
)

// Packager interface for Tizen package types
type Packager interface {
	// ManifestName returns the manifest file identifying this package type
	ManifestName() string

	// Validate checks that the entries form a signable package of this type
	Validate(entries []models.FileEntry) error

	// Metadata parses the manifest and returns the application identity
	Metadata(entries []models.FileEntry) (*models.AppInfo, error)

	// GetSupportedType returns the package type this packager supports
	GetSupportedType() scanner.PackageType
}

// FindEntry returns the entry whose URI equals name, or nil. The name is
// compared with the escaped URI as is; it is not escaped first.
func FindEntry(entries []models.FileEntry, name string) *models.FileEntry {
	for i := range entries {
		if entries[i].URI == name {
			return &entries[i]
		}
	}
	return nil
}
