package pyqtdeploy

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"lukechampine.com/blake3"
)

// hashFile computes the BLAKE3 checksum of a file.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// verifyChecksum checks a downloaded source archive against its
// "<archive>.b3sum" sidecar file, when one exists next to it or in any
// of the configured source directories. A missing sidecar is not an
// error; a mismatch is.
func verifyChecksum(archivePath string) error {
	sidecar := findChecksumFile(archivePath)
	if sidecar == "" {
		debugf("No checksum file for %s, skipping verification\n", archivePath)
		return nil
	}

	expected, err := readChecksumFile(sidecar, archivePath)
	if err != nil {
		return err
	}
	if expected == "" {
		return nil
	}

	actual, err := hashFile(archivePath)
	if err != nil {
		return fmt.Errorf("failed to hash %s: %w", archivePath, err)
	}

	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", archivePath, expected, actual)
	}

	debugf("Checksum verified for %s\n", archivePath)
	return nil
}

func findChecksumFile(archivePath string) string {
	candidates := []string{archivePath + ".b3sum"}
	base := fileBase(archivePath)
	for _, dir := range sourceDirs() {
		candidates = append(candidates, dir+"/"+base+".b3sum")
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// readChecksumFile parses a b3sum file ("<hash>  <filename>" per line,
// or a bare hash) and returns the hash recorded for the archive.
func readChecksumFile(path, archivePath string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to read checksum file: %w", err)
	}
	defer f.Close()

	base := fileBase(archivePath)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(strings.TrimSpace(scanner.Text()))
		switch {
		case len(fields) == 1:
			return fields[0], nil
		case len(fields) >= 2 && fields[1] == base:
			return fields[0], nil
		}
	}
	return "", scanner.Err()
}

func fileBase(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx != -1 {
		return path[idx+1:]
	}
	return path
}
