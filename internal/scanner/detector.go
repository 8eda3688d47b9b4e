package scanner

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// Magic bytes for package detection
var (
	// Tizen packages are zip archives
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}
)

// Manifest names that identify the package type
const (
	WidgetManifest = "config.xml"
	NativeManifest = "tizen-manifest.xml"
)

// DetectPackageType determines the Tizen package type from the archive
// contents, falling back to the file extension for archives without a
// manifest member.
func DetectPackageType(path string) (PackageType, error) {
	f, err := os.Open(path)
	if err != nil {
		return TypeUnknown, err
	}
	header := make([]byte, 4)
	n, err := f.Read(header)
	f.Close()
	if err != nil && n == 0 {
		return TypeUnknown, err
	}
	if !bytes.HasPrefix(header[:n], zipMagic) {
		return TypeUnknown, fmt.Errorf("%s is not a zip archive", path)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return TypeUnknown, err
	}
	defer zr.Close()

	for _, member := range zr.File {
		switch member.Name {
		case WidgetManifest:
			return TypeWidget, nil
		case NativeManifest:
			return TypeNative, nil
		}
	}

	switch filepath.Ext(path) {
	case ".wgt":
		return TypeWidget, nil
	case ".tpk":
		return TypeNative, nil
	}
	return TypeUnknown, fmt.Errorf("%s has neither %s nor %s", path, WidgetManifest, NativeManifest)
}

// DetectDirType determines the package type of an unpacked directory by its
// manifest file.
func DetectDirType(dir string) (PackageType, error) {
	if _, err := os.Stat(filepath.Join(dir, WidgetManifest)); err == nil {
		return TypeWidget, nil
	}
	if _, err := os.Stat(filepath.Join(dir, NativeManifest)); err == nil {
		return TypeNative, nil
	}
	return TypeUnknown, fmt.Errorf("%s has neither %s nor %s", dir, WidgetManifest, NativeManifest)
}
