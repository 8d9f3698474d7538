package romloader

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
)

// createTestBINFile creates a temporary .bin file with test data
func createTestBINFile(t *testing.T, data []byte) string {
	t.Helper()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test.bin")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to create test BIN file: %v", err)
	}
	return path
}

// createTestZipFile creates a temporary .zip file containing a ROM file
func createTestZipFile(t *testing.T, romData []byte, romName string) string {
	t.Helper()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test.zip")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	fw, err := w.Create(romName)
	if err != nil {
		t.Fatalf("Failed to create file in zip: %v", err)
	}
	if _, err := fw.Write(romData); err != nil {
		t.Fatalf("Failed to write to zip: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return path
}

// createTestGzipFile creates a temporary .gz file containing ROM data
func createTestGzipFile(t *testing.T, romData []byte) string {
	t.Helper()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test.bin.gz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create gzip file: %v", err)
	}
	defer f.Close()

	w := gzip.NewWriter(f)
	if _, err := w.Write(romData); err != nil {
		t.Fatalf("Failed to write to gzip: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close gzip: %v", err)
	}
	return path
}

// TestLoader_RawBINLoad tests loading plain .bin files
func TestLoader_RawBINLoad(t *testing.T) {
	testData := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	path := createTestBINFile(t, testData)

	data, name, err := LoadROM(path)
	if err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}

	if !bytes.Equal(data, testData) {
		t.Errorf("Data mismatch: expected %v, got %v", testData, data)
	}

	if name != "test.bin" {
		t.Errorf("Name mismatch: expected test.bin, got %s", name)
	}
}

// TestLoader_ZipLoad tests loading a ROM from a ZIP archive
func TestLoader_ZipLoad(t *testing.T) {
	testData := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	path := createTestZipFile(t, testData, "game.bin")

	data, name, err := LoadROM(path)
	if err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}

	if !bytes.Equal(data, testData) {
		t.Errorf("Data mismatch: expected %v, got %v", testData, data)
	}

	if name != "game.bin" {
		t.Errorf("Name mismatch: expected game.bin, got %s", name)
	}
}

// TestLoader_GzipLoad tests loading a ROM from a gzip file
func TestLoader_GzipLoad(t *testing.T) {
	testData := []byte{0x11, 0x22, 0x33, 0x44, 0x55}
	path := createTestGzipFile(t, testData)

	data, _, err := LoadROM(path)
	if err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}

	if !bytes.Equal(data, testData) {
		t.Errorf("Data mismatch: expected %v, got %v", testData, data)
	}
}

// TestLoader_FormatDetectionMagic tests detection via magic bytes
func TestLoader_FormatDetectionMagic(t *testing.T) {
	testCases := []struct {
		header   []byte
		path     string
		expected formatType
	}{
		{[]byte{0x50, 0x4B, 0x03, 0x04}, "file.dat", formatZIP},
		{[]byte{0x50, 0x4B, 0x05, 0x06}, "file.dat", formatZIP},
		{[]byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}, "file.dat", format7z},
		{[]byte{0x1F, 0x8B}, "file.dat", formatGzip},
		{[]byte{0x52, 0x61, 0x72, 0x21}, "file.dat", formatRAR},
	}

	for _, tc := range testCases {
		result := detectFormat(tc.header, tc.path)
		if result != tc.expected {
			t.Errorf("detectFormat(%v, %s): expected %d, got %d", tc.header, tc.path, tc.expected, result)
		}
	}
}

// TestLoader_FormatDetectionExtension tests fallback to extension
func TestLoader_FormatDetectionExtension(t *testing.T) {
	testCases := []struct {
		path     string
		expected formatType
	}{
		{"game.bin", formatRaw},
		{"game.BIN", formatRaw},
		{"game.gen", formatRaw},
		{"game.md", formatRaw},
		{"game.smd", formatRaw},
		{"game.zip", formatZIP},
		{"game.ZIP", formatZIP},
		{"game.7z", format7z},
		{"game.gz", formatGzip},
		{"game.tgz", formatGzip},
		{"game.tar.gz", formatGzip},
		{"game.rar", formatRAR},
		{"game.unknown", formatUnknown},
	}

	for _, tc := range testCases {
		// Use empty header to force extension-based detection
		result := detectFormat([]byte{}, tc.path)
		if result != tc.expected {
			t.Errorf("detectFormat([], %s): expected %d, got %d", tc.path, tc.expected, result)
		}
	}
}

// TestLoader_NoROMInArchive tests error when no recognized ROM is found
// in an archive
func TestLoader_NoROMInArchive(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test.zip")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create zip: %v", err)
	}

	w := zip.NewWriter(f)
	fw, _ := w.Create("readme.txt")
	fw.Write([]byte("hello"))
	w.Close()
	f.Close()

	_, _, err = LoadROM(path)
	if err == nil {
		t.Error("Expected error when no ROM file in archive")
	}
	if err != ErrNoROMFile {
		t.Errorf("Expected ErrNoROMFile, got %v", err)
	}
}

// TestLoader_FileTooLarge tests rejection of files exceeding size limit
func TestLoader_FileTooLarge(t *testing.T) {
	largeData := make([]byte, maxROMSize+1)

	tmpDir := t.TempDir()
	gzPath := filepath.Join(tmpDir, "large.bin.gz")
	f, err := os.Create(gzPath)
	if err != nil {
		t.Fatalf("Failed to create gzip: %v", err)
	}

	w := gzip.NewWriter(f)
	w.Write(largeData)
	w.Close()
	f.Close()

	_, _, err = LoadROM(gzPath)
	if err == nil {
		t.Error("Expected error for oversized file")
	}
}

// TestLoader_FileNotFound tests error for missing files
func TestLoader_FileNotFound(t *testing.T) {
	_, _, err := LoadROM("/nonexistent/path/game.bin")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

// TestLoader_IsGenesisFile tests the ROM extension check
func TestLoader_IsGenesisFile(t *testing.T) {
	testCases := []struct {
		name     string
		expected bool
	}{
		{"game.bin", true},
		{"game.BIN", true},
		{"game.gen", true},
		{"game.md", true},
		{"game.smd", true},
		{"game.txt", false},
		{"game.bin.bak", false},
		{"game", false},
		{"bin", false},
		{".bin", true},
	}

	for _, tc := range testCases {
		result := isGenesisFile(tc.name)
		if result != tc.expected {
			t.Errorf("isGenesisFile(%q): expected %v, got %v", tc.name, tc.expected, result)
		}
	}
}

// TestLoader_ZipWithSubdirectory tests extracting a ROM from a nested
// directory inside a ZIP archive
func TestLoader_ZipWithSubdirectory(t *testing.T) {
	testData := []byte{0x12, 0x34, 0x56}
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test.zip")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create zip: %v", err)
	}

	w := zip.NewWriter(f)
	fw, _ := w.Create("roms/games/test.bin")
	fw.Write(testData)
	w.Close()
	f.Close()

	data, name, err := LoadROM(path)
	if err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}

	if !bytes.Equal(data, testData) {
		t.Errorf("Data mismatch: expected %v, got %v", testData, data)
	}

	if name != "test.bin" {
		t.Errorf("Name should be just the filename, got %s", name)
	}
}

// TestLoader_EmptyFile tests handling of empty files
func TestLoader_EmptyFile(t *testing.T) {
	path := createTestBINFile(t, []byte{})

	data, _, err := LoadROM(path)
	if err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}

	if len(data) != 0 {
		t.Errorf("Expected empty data, got %d bytes", len(data))
	}
}

// TestLoader_MaxROMSizeConstant tests that the size limit is reasonable
func TestLoader_MaxROMSizeConstant(t *testing.T) {
	// Licensed Genesis carts top out around 5MB (SSF2 bankswitcher)
	if maxROMSize < 5*1024*1024 {
		t.Errorf("maxROMSize too small: %d bytes (should be at least 5MB)", maxROMSize)
	}
	if maxROMSize > 16*1024*1024 {
		t.Errorf("maxROMSize unexpectedly large: %d bytes", maxROMSize)
	}
}

// TestLoader_MagicBytesDefinition tests that magic byte arrays are correct
func TestLoader_MagicBytesDefinition(t *testing.T) {
	if !bytes.Equal(magicZIP, []byte{0x50, 0x4B, 0x03, 0x04}) {
		t.Error("ZIP magic bytes incorrect")
	}
	if !bytes.Equal(magic7z, []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}) {
		t.Error("7z magic bytes incorrect")
	}
	if !bytes.Equal(magicGzip, []byte{0x1F, 0x8B}) {
		t.Error("Gzip magic bytes incorrect")
	}
	if !bytes.Equal(magicRAR, []byte{0x52, 0x61, 0x72, 0x21}) {
		t.Error("RAR magic bytes incorrect")
	}
}

// TestLoader_DeinterleaveSMD tests that the SMD interleave is correctly
// reversed: block N's first half holds the odd-address (low) bytes, second
// half the even-address (high) bytes, as Super Magic Drive dumps store them.
func TestLoader_DeinterleaveSMD(t *testing.T) {
	flat := make([]byte, smdBlockSize*2)
	for i := range flat {
		flat[i] = byte(i)
	}

	interleaved := make([]byte, len(flat))
	for i := 0; i < smdBlockSize; i++ {
		interleaved[i] = flat[i*2+1]
		interleaved[smdBlockSize+i] = flat[i*2]
	}

	out := deinterleaveSMD(interleaved)
	if !bytes.Equal(out, flat) {
		t.Error("deinterleaveSMD did not reverse the interleave correctly")
	}
}

// TestLoader_DeinterleaveSMD_SkipsCopierHeader tests that a 512-byte
// leading copier header is stripped before deinterleaving.
func TestLoader_DeinterleaveSMD_SkipsCopierHeader(t *testing.T) {
	flat := make([]byte, smdBlockSize*2)
	for i := range flat {
		flat[i] = byte(i)
	}
	interleaved := make([]byte, len(flat))
	for i := 0; i < smdBlockSize; i++ {
		interleaved[i] = flat[i*2+1]
		interleaved[smdBlockSize+i] = flat[i*2]
	}

	withHeader := append(make([]byte, 512), interleaved...)
	out := deinterleaveSMD(withHeader)
	if !bytes.Equal(out, flat) {
		t.Error("deinterleaveSMD did not skip the copier header correctly")
	}
}
