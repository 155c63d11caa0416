package pyqtdeploy

import "testing"

func TestParseTarget(t *testing.T) {
	target, err := ParseTarget("linux-64")
	if err != nil {
		t.Fatalf("ParseTarget failed: %v", err)
	}
	if target.Platform != "linux" || target.Arch != 64 {
		t.Fatalf("unexpected target: %+v", target)
	}
	if target.Name() != "linux-64" {
		t.Fatalf("unexpected name: %s", target.Name())
	}
	if target.IsWindows() {
		t.Fatalf("linux target reported as Windows")
	}
}

func TestParseTargetHost(t *testing.T) {
	target, err := ParseTarget("")
	if err != nil {
		t.Fatalf("ParseTarget failed for the host target: %v", err)
	}
	if target.Platform == "" || target.Arch == 0 {
		t.Fatalf("host target not derived: %+v", target)
	}
}

func TestParseTargetInvalid(t *testing.T) {
	for _, name := range []string{"linux", "plan9-64", "linux-16", "macos-32"} {
		if _, err := ParseTarget(name); err == nil {
			t.Fatalf("expected an error for %q", name)
		}
	}
}

func TestTargetNames(t *testing.T) {
	names := TargetNames()
	if len(names) != 7 {
		t.Fatalf("unexpected target count: %v", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("target names not sorted: %v", names)
		}
	}
}

func TestExternalLibraryLibs(t *testing.T) {
	ssl := ExternalLibraryMetadata("ssl")
	if ssl == nil {
		t.Fatalf("ssl library metadata missing")
	}

	linux := ssl.GetLibs(&Target{Platform: "linux", Arch: 64})
	if linux != "-L$SYSROOT/lib -lssl -lcrypto" {
		t.Fatalf("unexpected linux libs: %q", linux)
	}

	win := ssl.GetLibs(&Target{Platform: "win", Arch: 32})
	if win != "-L$SYSROOT/lib -lssleay32 -llibeay32" {
		t.Fatalf("unexpected win libs: %q", win)
	}

	if ExternalLibraryMetadata("nonesuch") != nil {
		t.Fatalf("unknown library must return nil")
	}
}
