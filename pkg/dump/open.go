// Package dump opens BRENDA and taxonomy dump files for streaming, whether
// they are stored plain, gzip compressed, or inside a zip or tar.gz archive.
// Archives are read in place; nothing is extracted to disk.
package dump

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
)

// Open opens a BRENDA dump. For archives it selects the first .txt member.
func Open(filePath string) (io.ReadCloser, error) {
	return OpenMember(filePath, "")
}

// OpenMember opens filePath and, for archives, the member whose base name
// is member. An empty member selects the first .txt member.
func OpenMember(filePath string, member string) (io.ReadCloser, error) {
	lower := strings.ToLower(filePath)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return openZIP(filePath, member)
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return openTarGZ(filePath, member)
	case strings.HasSuffix(lower, ".gz"):
		return openGZ(filePath)
	default:
		file, err := os.Open(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", filePath, err)
		}
		return file, nil
	}
}

func memberMatches(name string, member string) bool {
	if strings.HasSuffix(name, "/") {
		return false
	}
	if member == "" {
		return strings.HasSuffix(strings.ToLower(name), ".txt")
	}
	return path.Base(name) == member
}

func describe(member string) string {
	if member == "" {
		return ".txt member"
	}
	return member
}

// readCloser closes every underlying layer, innermost first.
type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() error {
	var firstErr error
	for _, c := range rc.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func openGZ(filePath string) (io.ReadCloser, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	return &readCloser{Reader: gzipReader, closers: []io.Closer{gzipReader, file}}, nil
}

func openZIP(filePath string, member string) (io.ReadCloser, error) {
	zipReader, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ZIP %s: %w", filePath, err)
	}

	for _, zipEntry := range zipReader.File {
		if zipEntry.FileInfo().IsDir() || !memberMatches(zipEntry.Name, member) {
			continue
		}
		entryReader, err := zipEntry.Open()
		if err != nil {
			zipReader.Close()
			return nil, fmt.Errorf("failed to open ZIP entry %s: %w", zipEntry.Name, err)
		}
		return &readCloser{Reader: entryReader, closers: []io.Closer{entryReader, zipReader}}, nil
	}

	zipReader.Close()
	return nil, fmt.Errorf("ZIP %s has no %s", filePath, describe(member))
}

func openTarGZ(filePath string, member string) (io.ReadCloser, error) {
	gz, err := openGZ(filePath)
	if err != nil {
		return nil, err
	}

	tarReader := tar.NewReader(gz)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			gz.Close()
			return nil, fmt.Errorf("tar read error: %w", err)
		}
		if header.Typeflag != tar.TypeReg || !memberMatches(header.Name, member) {
			continue
		}
		return &readCloser{Reader: tarReader, closers: []io.Closer{gz}}, nil
	}

	gz.Close()
	return nil, fmt.Errorf("archive %s has no %s", filePath, describe(member))
}
