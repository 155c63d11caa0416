package pyqtdeploy

import (
	"archive/tar"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
)

func writeTestZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("unable to create %s: %v", path, err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatalf("unable to add %s: %v", name, err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("unable to write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("unable to finish %s: %v", path, err)
	}
}

func writeTestTar(t *testing.T, path string, entries map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("unable to create %s: %v", path, err)
	}
	defer f.Close()

	w := tar.NewWriter(f)
	for name, content := range entries {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}
		if err := w.WriteHeader(hdr); err != nil {
			t.Fatalf("unable to add %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("unable to write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("unable to finish %s: %v", path, err)
	}
}

// The configure script of a source archive must end up directly in the
// build directory, whatever the archive's own top-level directory is
// called.
func TestUnpackZipStripsTopLevelDir(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "pkg-1.0.zip")
	writeTestZip(t, archive, map[string]string{
		"pkg-src-1.0/configure":    "#!/bin/sh\n",
		"pkg-src-1.0/src/main.cpp": "int main() {}\n",
	})

	sysroot := newTestSysroot(t)

	root, err := sysroot.UnpackArchive(archive)
	if err != nil {
		t.Fatalf("UnpackArchive failed: %v", err)
	}
	if root != "pkg-1.0" {
		t.Fatalf("root %q, want %q", root, "pkg-1.0")
	}

	if _, err := os.Stat(filepath.Join(sysroot.WorkDir(), "configure")); err != nil {
		t.Fatalf("configure not at the work directory root: %v", err)
	}
	if _, err := os.Stat(filepath.Join(sysroot.WorkDir(), "src", "main.cpp")); err != nil {
		t.Fatalf("nested file misplaced: %v", err)
	}
}

func TestUnpackZipFlatLayout(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "flat-1.0.zip")
	writeTestZip(t, archive, map[string]string{
		"README":    "hello\n",
		"sub/a.txt": "a\n",
	})

	sysroot := newTestSysroot(t)
	if _, err := sysroot.UnpackArchive(archive); err != nil {
		t.Fatalf("UnpackArchive failed: %v", err)
	}

	// Nothing shared a top-level directory, so nothing may be stripped.
	if _, err := os.Stat(filepath.Join(sysroot.WorkDir(), "README")); err != nil {
		t.Fatalf("root file misplaced: %v", err)
	}
	if _, err := os.Stat(filepath.Join(sysroot.WorkDir(), "sub", "a.txt")); err != nil {
		t.Fatalf("nested file misplaced: %v", err)
	}
}

func TestUnpackTarStripsTopLevelDir(t *testing.T) {
	dir := t.TempDir()

	// The space in the name must not confuse the strip detection.
	archive := filepath.Join(dir, "pkg source-1.0.tar")
	writeTestTar(t, archive, map[string]string{
		"pkg-src-1.0/configure":   "#!/bin/sh\n",
		"pkg-src-1.0/lib/util.py": "pass\n",
	})

	sysroot := newTestSysroot(t)
	if _, err := sysroot.UnpackArchive(archive); err != nil {
		t.Fatalf("UnpackArchive failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(sysroot.WorkDir(), "configure")); err != nil {
		t.Fatalf("configure not at the work directory root: %v", err)
	}
	if _, err := os.Stat(filepath.Join(sysroot.WorkDir(), "lib", "util.py")); err != nil {
		t.Fatalf("nested file misplaced: %v", err)
	}
}
