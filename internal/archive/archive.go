package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/sirupsen/logrus"

	"github.com/reisxd/tizensign/internal/models"
	"github.com/reisxd/tizensign/internal/utils"
)

// Existing signature files are dropped when a package is read for
// re-signing; a signature must never cover itself.
var signatureFile = regexp.MustCompile(`^(author-signature\.xml|signature[0-9]+\.xml)$`)

// IsSignatureFile reports whether name is a widget-digsig signature member.
func IsSignatureFile(name string) bool {
	return signatureFile.MatchString(name)
}

// ReadPackage reads a .wgt/.tpk zip into an ordered entry list. Entry URIs
// are the URL-escaped archive paths; existing signature files are skipped.
func ReadPackage(path string) ([]models.FileEntry, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, &models.SignError{Type: models.ErrPackageParse, Package: path, Err: err}
	}
	defer zr.Close()

	var entries []models.FileEntry
	for _, member := range zr.File {
		if member.FileInfo().IsDir() {
			continue
		}
		if IsSignatureFile(member.Name) {
			logrus.Debugf("Dropping existing signature: %s", member.Name)
			continue
		}
		rc, err := member.Open()
		if err != nil {
			return nil, &models.SignError{Type: models.ErrPackageParse, Package: member.Name, Err: err}
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, &models.SignError{Type: models.ErrPackageParse, Package: member.Name, Err: err}
		}
		entries = append(entries, models.FileEntry{URI: EscapeURI(member.Name), Data: data})
	}
	return entries, nil
}

// ReadDir reads a directory tree into an ordered entry list for packing.
// Entries are sorted by their escaped URI so the result is deterministic.
func ReadDir(dir string) ([]models.FileEntry, error) {
	var entries []models.FileEntry
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if IsSignatureFile(rel) {
			logrus.Debugf("Dropping existing signature: %s", rel)
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		entries = append(entries, models.FileEntry{URI: EscapeURI(rel), Data: data})
		return nil
	})
	if err != nil {
		return nil, &models.SignError{Type: models.ErrFileOp, Package: dir, Err: err}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].URI < entries[j].URI
	})
	return entries, nil
}

// WritePackage writes the entries to a zip archive at path, in order.
// Deflate is provided by klauspost's encoder at best compression.
func WritePackage(path string, entries []models.FileEntry) error {
	buf, err := Build(entries)
	if err != nil {
		return err
	}
	if err := utils.WriteFile(path, buf, 0644); err != nil {
		return &models.SignError{Type: models.ErrFileOp, Package: path, Err: err}
	}
	return nil
}

// Build assembles the entries into an in-memory zip archive.
func Build(entries []models.FileEntry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})
	for _, entry := range entries {
		name, err := UnescapeURI(entry.URI)
		if err != nil {
			return nil, &models.SignError{Type: models.ErrInvalidConfig, Package: entry.URI, Err: err}
		}
		fw, err := zw.Create(name)
		if err != nil {
			return nil, &models.SignError{Type: models.ErrFileOp, Package: name, Err: err}
		}
		if _, err := fw.Write(entry.Data); err != nil {
			return nil, &models.SignError{Type: models.ErrFileOp, Package: name, Err: err}
		}
	}
	if err := zw.Close(); err != nil {
		return nil, &models.SignError{Type: models.ErrFileOp, Err: fmt.Errorf("closing archive: %w", err)}
	}
	return buf.Bytes(), nil
}

// EscapeURI URL-escapes an archive path for use as a reference URI. Path
// separators are kept.
func EscapeURI(path string) string {
	u := url.URL{Path: path}
	return u.EscapedPath()
}

// UnescapeURI reverses EscapeURI.
func UnescapeURI(uri string) (string, error) {
	name, err := url.PathUnescape(uri)
	if err != nil {
		return "", fmt.Errorf("malformed entry URI %q: %w", uri, err)
	}
	if strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("entry URI %q escapes package root", uri)
	}
	for _, segment := range strings.Split(name, "/") {
		if segment == ".." {
			return "", fmt.Errorf("entry URI %q escapes package root", uri)
		}
	}
	return name, nil
}
