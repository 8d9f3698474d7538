// Package romloader handles loading Genesis/Mega Drive ROM images from
// various sources, including compressed archives (ZIP, 7z, gzip, tar.gz,
// RAR) and the interleaved .smd dump format Super Magic Drive-style
// copiers produced.
package romloader

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Magic bytes for format detection
var (
	magicZIP    = []byte{0x50, 0x4B, 0x03, 0x04}
	magicZIPEnd = []byte{0x50, 0x4B, 0x05, 0x06} // empty zip
	magic7z     = []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}
	magicGzip   = []byte{0x1F, 0x8B}
	magicRAR    = []byte{0x52, 0x61, 0x72, 0x21} // "Rar!"
)

// Maximum ROM size: the 68K's 24-bit address space tops out at 16MB, but no
// licensed Genesis cartridge exceeds 5MB (the SSF2 bankswitcher's own
// limit); this leaves generous headroom for homebrew without unbounded
// archive-bomb reads.
const maxROMSize = 8 * 1024 * 1024

// smdBlockSize is the size of each interleaved half Super Magic Drive-format
// dumps split the ROM into: for every 16 KiB block, the file stores 8 KiB of
// odd-address (low) bytes followed by 8 KiB of even-address (high) bytes,
// alternating across the whole file.
const smdBlockSize = 0x2000

// ErrNoROMFile is returned when no recognized ROM file is found in an
// archive.
var ErrNoROMFile = errors.New("no genesis rom file found in archive")

// ErrUnsupportedFormat is returned for unrecognized file formats
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrFileTooLarge is returned when extracted content exceeds size limit
var ErrFileTooLarge = errors.New("file exceeds maximum size limit")

// formatType represents the detected file format
type formatType int

const (
	formatUnknown formatType = iota
	formatRaw
	formatZIP
	format7z
	formatGzip
	formatRAR
)

// LoadROM loads a ROM from a file path. It automatically detects and extracts
// from archives. Returns the ROM data, the filename of the ROM (useful for display),
// and any error encountered.
func LoadROM(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	// Read header for magic byte detection
	header := make([]byte, 16)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return nil, "", fmt.Errorf("failed to read file header: %w", err)
	}
	header = header[:n]

	// Detect format
	format := detectFormat(header, path)

	// Reset file position
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, "", fmt.Errorf("failed to seek file: %w", err)
	}

	switch format {
	case formatRaw:
		data, err := limitedRead(f)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read ROM: %w", err)
		}
		return finishLoad(data, filepath.Base(path))

	case formatZIP:
		return extractFromZIP(path)

	case format7z:
		return extractFrom7z(path)

	case formatGzip:
		return extractFromGzip(path)

	case formatRAR:
		return extractFromRAR(path)

	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// finishLoad applies the .smd deinterleave pass (if the filename has a .smd
// extension) before handing the final ROM image back to the caller.
func finishLoad(data []byte, name string) ([]byte, string, error) {
	if isSMDFile(name) {
		data = deinterleaveSMD(data)
	}
	return data, filepath.Base(name), nil
}

// gzipFile pairs a gzip.Reader with the underlying *os.File so both get
// closed together.
type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	g.Reader.Close()
	return g.f.Close()
}

// openGzip opens path and wraps it in a gzip reader positioned at the start
// of the decompressed stream.
func openGzip(path string) (*gzipFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &gzipFile{Reader: gz, f: f}, nil
}

// detectFormat determines the file format based on magic bytes and extension
func detectFormat(header []byte, path string) formatType {
	ext := strings.ToLower(filepath.Ext(path))

	// Check magic bytes first (more reliable)
	if len(header) >= 4 {
		if bytes.HasPrefix(header, magicZIP) || bytes.HasPrefix(header, magicZIPEnd) {
			return formatZIP
		}
		if bytes.HasPrefix(header, magicRAR) {
			return formatRAR
		}
	}
	if len(header) >= 6 && bytes.HasPrefix(header, magic7z) {
		return format7z
	}
	if len(header) >= 2 && bytes.HasPrefix(header, magicGzip) {
		return formatGzip
	}

	// Fall back to extension
	switch ext {
	case ".bin", ".gen", ".md", ".smd":
		return formatRaw
	case ".zip":
		return formatZIP
	case ".7z":
		return format7z
	case ".gz", ".tgz":
		return formatGzip
	case ".rar":
		return formatRAR
	}

	// Check for .tar.gz
	if strings.HasSuffix(strings.ToLower(path), ".tar.gz") {
		return formatGzip
	}

	return formatUnknown
}

// genesisExtensions lists recognized ROM filenames within an archive; .smd
// entries are deinterleaved after extraction, the rest are loaded as-is.
var genesisExtensions = []string{".bin", ".gen", ".md", ".smd"}

// isGenesisFile checks if a filename has a recognized Genesis ROM extension
// (case-insensitive).
func isGenesisFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range genesisExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// isSMDFile reports whether name indicates the interleaved Super Magic
// Drive dump format rather than a flat .bin/.md/.gen image.
func isSMDFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".smd")
}

// deinterleaveSMD reverses the Super Magic Drive interleave: the file is
// split into blocks of two smdBlockSize halves, the first holding the
// block's odd-address (low) bytes and the second its even-address (high)
// bytes; this weaves them back into the flat byte order the 68K bus
// expects. A 512-byte copier header, if present (file size leaving a
// 512-byte remainder modulo smdBlockSize*2), is skipped.
func deinterleaveSMD(data []byte) []byte {
	if len(data)%(smdBlockSize*2) == 512%(smdBlockSize*2) && len(data) > 512 {
		data = data[512:]
	}
	out := make([]byte, len(data))
	for base := 0; base+smdBlockSize*2 <= len(data); base += smdBlockSize * 2 {
		block := data[base : base+smdBlockSize*2]
		lo := block[:smdBlockSize]
		hi := block[smdBlockSize:]
		dst := out[base : base+smdBlockSize*2]
		for i := 0; i < smdBlockSize; i++ {
			dst[i*2] = hi[i]
			dst[i*2+1] = lo[i]
		}
	}
	return out
}

// limitedRead reads from r up to maxROMSize bytes, returning an error if exceeded
func limitedRead(r io.Reader) ([]byte, error) {
	lr := io.LimitReader(r, maxROMSize+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if len(data) > maxROMSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}
