package pyqtdeploy

import (
	"reflect"
	"testing"
)

// testTable builds a small metadata table that exercises every kind of
// edge the resolver follows.
func testTable() map[string]*ModuleDescriptor {
	modules := []*ModuleDescriptor{
		coreMod("core", "shared"),
		mod("shared"),
		mod("app", "shared", "crypto"),
		sslMod("crypto", true, "ssl"),
		sslMod("fallback", false, ""),
		mod("digest", "crypto", "fallback"),
		libMod("compress", "zlib"),
		mod("packer", "shared").withHidden("compress"),
		mod("loop_a", "loop_b"),
		mod("loop_b", "loop_a"),
	}

	table := make(map[string]*ModuleDescriptor, len(modules))
	for _, m := range modules {
		table[m.Name] = m
	}
	return table
}

func TestResolveCoreAlwaysImplicit(t *testing.T) {
	modules, _ := ResolveStdlib(testTable(), nil, false, false)

	explicit, ok := modules["core"]
	if !ok {
		t.Fatalf("core module missing from result")
	}
	if explicit {
		t.Fatalf("core module must be implicit")
	}
	if modules["shared"] {
		t.Fatalf("dependency of a core module must be implicit")
	}
}

func TestResolveExplicitSelection(t *testing.T) {
	modules, _ := ResolveStdlib(testTable(), map[string]bool{"app": true}, true, false)

	if !modules["app"] {
		t.Fatalf("selected module must be explicit")
	}
	if modules["crypto"] {
		t.Fatalf("dependency must be implicit, got explicit")
	}
}

func TestResolveSSLExclusion(t *testing.T) {
	table := testTable()

	modules, _ := ResolveStdlib(table, map[string]bool{"digest": true}, false, false)

	if _, ok := modules["crypto"]; ok {
		t.Fatalf("SSL-only module included in a no-SSL resolution")
	}
	if _, ok := modules["fallback"]; !ok {
		t.Fatalf("no-SSL fallback module missing")
	}

	// An explicitly selected module stays even when one of its
	// dependencies is excluded.
	if !modules["digest"] {
		t.Fatalf("explicitly selected module was dropped")
	}

	// With SSL enabled the constraint flips.
	modules, _ = ResolveStdlib(table, map[string]bool{"digest": true}, true, false)
	if _, ok := modules["fallback"]; ok {
		t.Fatalf("no-SSL module included in an SSL resolution")
	}
	if _, ok := modules["crypto"]; !ok {
		t.Fatalf("SSL module missing from an SSL resolution")
	}
}

func TestResolveSSLExcludedSelection(t *testing.T) {
	// A selected module whose own constraint does not match is excluded
	// entirely.
	modules, _ := ResolveStdlib(testTable(), map[string]bool{"crypto": true}, false, false)

	if _, ok := modules["crypto"]; ok {
		t.Fatalf("excluded module must not appear even when selected")
	}
}

func TestResolveHiddenDeps(t *testing.T) {
	table := testTable()

	modules, libraries := ResolveStdlib(table, map[string]bool{"packer": true}, false, false)
	if _, ok := modules["compress"]; ok {
		t.Fatalf("hidden dependency included without includeHidden")
	}

	modules, libraries = ResolveStdlib(table, map[string]bool{"packer": true}, false, true)
	if explicit, ok := modules["compress"]; !ok || explicit {
		t.Fatalf("hidden dependency must be an implicit requirement")
	}
	if !libraries["zlib"] {
		t.Fatalf("library of a hidden dependency missing")
	}
}

func TestResolveHiddenDoesNotOverrideExplicit(t *testing.T) {
	selected := map[string]bool{"packer": true, "compress": true}

	modules, _ := ResolveStdlib(testTable(), selected, false, true)
	if !modules["compress"] {
		t.Fatalf("explicit selection downgraded by a hidden dependency")
	}
}

func TestResolveCycleConverges(t *testing.T) {
	modules, _ := ResolveStdlib(testTable(), map[string]bool{"loop_a": true}, false, false)

	if !modules["loop_a"] {
		t.Fatalf("cycle entry module missing or implicit")
	}
	if explicit, ok := modules["loop_b"]; !ok || explicit {
		t.Fatalf("cycle member must be an implicit requirement")
	}
}

func TestResolveIdempotent(t *testing.T) {
	table := testTable()
	selected := map[string]bool{"app": true, "packer": true}

	first, firstLibs := ResolveStdlib(table, selected, true, true)
	second, secondLibs := ResolveStdlib(table, selected, true, true)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated resolution differs: %v vs %v", first, second)
	}
	if !reflect.DeepEqual(firstLibs, secondLibs) {
		t.Fatalf("repeated resolution libraries differ: %v vs %v", firstLibs, secondLibs)
	}
}

func TestStdlibRequirements(t *testing.T) {
	project := &Project{
		PythonTargetVersion: "3.6",
		PythonSSL:           true,
		StandardLibrary:     []string{"ssl", "zipfile"},
	}

	modules, libraries, err := StdlibRequirements(project, true)
	if err != nil {
		t.Fatalf("StdlibRequirements failed: %v", err)
	}

	if !modules["ssl"] || !modules["zipfile"] {
		t.Fatalf("selected modules must be explicit: %v", modules)
	}
	if explicit, ok := modules["socket"]; !ok || explicit {
		t.Fatalf("ssl dependency socket must be implicit")
	}
	if _, ok := modules["_md5"]; ok {
		t.Fatalf("no-SSL hash fallback included in an SSL build")
	}
	if !libraries["zlib"] {
		t.Fatalf("zipfile must pull in the zlib library via its hidden deps")
	}
}

func TestStdlibRequirementsBadVersion(t *testing.T) {
	project := &Project{PythonTargetVersion: "2.7"}

	if _, _, err := StdlibRequirements(project, false); err == nil {
		t.Fatalf("expected an error for an unsupported version")
	}
}
