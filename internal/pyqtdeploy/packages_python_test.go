package pyqtdeploy

import (
	"strings"
	"testing"
)

func TestTargetPythonRejectsInstalledVersion(t *testing.T) {
	sysroot := newTestSysroot(t)

	pkg := &pythonPackage{InstalledVersion: "3.6"}
	err := pkg.Build(sysroot)
	if err == nil {
		t.Fatalf("an existing installation must be rejected for the target Python")
	}
	if !strings.Contains(err.Error(), "not supported") ||
		!strings.Contains(err.Error(), "'source'") {
		t.Fatalf("the error must point at the source option: %v", err)
	}
}

func TestPythonVersionFromArchiveRoot(t *testing.T) {
	version, err := pythonVersionFromArchiveRoot("Python-3.6.4")
	if err != nil || version != "3.6" {
		t.Fatalf("got %q, %v", version, err)
	}

	if _, err := pythonVersionFromArchiveRoot("no-version"); err == nil {
		t.Fatalf("a root without a version must fail")
	}
}
