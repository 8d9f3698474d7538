package romloader

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
)

// extractFromZIP extracts the first recognized Genesis ROM file from a ZIP
// archive.
func extractFromZIP(path string) ([]byte, string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || !isGenesisFile(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, "", fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		data, err := limitedRead(rc)
		rc.Close()
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		return finishLoad(data, f.Name)
	}

	return nil, "", ErrNoROMFile
}

// extractFrom7z extracts the first recognized Genesis ROM file from a 7z
// archive.
func extractFrom7z(path string) ([]byte, string, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open 7z: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || !isGenesisFile(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, "", fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		data, err := limitedRead(rc)
		rc.Close()
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		return finishLoad(data, f.Name)
	}

	return nil, "", ErrNoROMFile
}

// extractFromGzip handles both a bare .gz-compressed ROM and a .tar.gz
// archive containing one, since the magic-byte check can't tell them apart
// ahead of time.
func extractFromGzip(path string) ([]byte, string, error) {
	gz, err := openGzip(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open gzip: %w", err)
	}
	defer gz.Close()

	if strings.HasSuffix(strings.ToLower(path), ".tar.gz") || strings.HasSuffix(strings.ToLower(path), ".tgz") {
		tr := tar.NewReader(gz)
		for {
			hdr, err := tr.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, "", fmt.Errorf("failed to read tar entry: %w", err)
			}
			if hdr.Typeflag != tar.TypeReg || !isGenesisFile(hdr.Name) {
				continue
			}
			data, err := limitedRead(tr)
			if err != nil {
				return nil, "", fmt.Errorf("failed to read %s: %w", hdr.Name, err)
			}
			return finishLoad(data, hdr.Name)
		}
		return nil, "", ErrNoROMFile
	}

	data, err := limitedRead(gz)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read gzip content: %w", err)
	}
	return finishLoad(data, strings.TrimSuffix(filepath.Base(path), ".gz"))
}
