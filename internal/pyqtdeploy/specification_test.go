package pyqtdeploy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSpec(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("unable to write %s: %v", name, err)
	}
	return path
}

func TestLoadSpecificationDocumentOrder(t *testing.T) {
	path := writeSpec(t, "sysroot.json", `{
    "Description": "A test sysroot.",
    "qt5": {
        "ssl": "openssl-runtime",
        "source": "qt-everywhere-opensource-src-5.9.*.tar.xz"
    },
    "python": {
        "source": "Python-3.6.*.tar.xz"
    },
    "pip": {
        "packages": ["certifi"]
    }
}`)

	spec, err := LoadSpecification(path, nil)
	if err != nil {
		t.Fatalf("LoadSpecification failed: %v", err)
	}

	var names []string
	for _, pkg := range spec.Packages {
		names = append(names, pkg.Name())
	}

	want := []string{"qt5", "python", "pip"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("package order %v, want %v", names, want)
	}

	qt5, ok := spec.FindPackage("qt5").(*qt5Package)
	if !ok {
		t.Fatalf("qt5 package has the wrong type")
	}
	if qt5.SSL != "openssl-runtime" {
		t.Fatalf("qt5 ssl option not bound: %q", qt5.SSL)
	}

	pip, ok := spec.FindPackage("pip").(*pipPackage)
	if !ok {
		t.Fatalf("pip package has the wrong type")
	}
	if len(pip.Packages) != 1 || pip.Packages[0] != "certifi" {
		t.Fatalf("pip packages option not bound: %v", pip.Packages)
	}
}

func TestLoadSpecificationHCL(t *testing.T) {
	path := writeSpec(t, "sysroot.sysroot", `
Description = "Native HCL form."

python = {
    source = "Python-3.6.4.tar.xz"
}
`)

	spec, err := LoadSpecification(path, nil)
	if err != nil {
		t.Fatalf("LoadSpecification failed: %v", err)
	}
	if len(spec.Packages) != 1 || spec.Packages[0].Name() != "python" {
		t.Fatalf("unexpected packages: %v", spec.Packages)
	}
}

func TestLoadSpecificationContribPackages(t *testing.T) {
	path := writeSpec(t, "sysroot.json", `{
    "pyqtchart": {
        "source": "PyQtChart_gpl-5.9.tar.gz"
    },
    "zlib": {
        "source": "zlib-1.2.11.tar.gz",
        "static": true
    }
}`)

	spec, err := LoadSpecification(path, nil)
	if err != nil {
		t.Fatalf("LoadSpecification failed: %v", err)
	}

	chart, ok := spec.FindPackage("pyqtchart").(*pyqtchartPackage)
	if !ok {
		t.Fatalf("pyqtchart package has the wrong type")
	}
	if chart.Source != "PyQtChart_gpl-5.9.tar.gz" {
		t.Fatalf("pyqtchart source option not bound: %q", chart.Source)
	}

	zlib, ok := spec.FindPackage("zlib").(*zlibPackage)
	if !ok {
		t.Fatalf("zlib package has the wrong type")
	}
	if !zlib.Static {
		t.Fatalf("zlib static option not bound")
	}
}

func TestLoadSpecificationUnknownPackage(t *testing.T) {
	path := writeSpec(t, "sysroot.json", `{"nonesuch": {}}`)

	_, err := LoadSpecification(path, nil)
	if err == nil {
		t.Fatalf("expected an error for an unknown package")
	}
	if !strings.Contains(err.Error(), "unable to find a plugin for 'nonesuch'") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadSpecificationUnknownOption(t *testing.T) {
	path := writeSpec(t, "sysroot.json", `{
    "sip": {
        "source": "sip-4.19.tar.gz",
        "bogus": "x",
        "also_bogus": true
    }
}`)

	_, err := LoadSpecification(path, nil)
	if err == nil {
		t.Fatalf("expected an error for unknown options")
	}
	if !strings.Contains(err.Error(), "unknown value(s): also_bogus, bogus") {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), "Package 'sip'") {
		t.Fatalf("error must name the package: %v", err)
	}
}

func TestLoadSpecificationMissingRequiredOption(t *testing.T) {
	path := writeSpec(t, "sysroot.json", `{"sip": {}}`)

	_, err := LoadSpecification(path, nil)
	if err == nil {
		t.Fatalf("expected an error for a missing required option")
	}
	if !strings.Contains(err.Error(), "no 'source' specified") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadSpecificationDescriptionType(t *testing.T) {
	path := writeSpec(t, "sysroot.json", `{"Description": 42}`)

	_, err := LoadSpecification(path, nil)
	if err == nil {
		t.Fatalf("expected an error for a non-string Description")
	}
}

func TestLoadSpecificationScalarPackage(t *testing.T) {
	path := writeSpec(t, "sysroot.json", `{"qt5": "not an object"}`)

	_, err := LoadSpecification(path, nil)
	if err == nil {
		t.Fatalf("expected an error for a scalar package value")
	}
	if !strings.Contains(err.Error(), "unexpected type") {
		t.Fatalf("unexpected error: %v", err)
	}
}
