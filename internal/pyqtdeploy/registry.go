package pyqtdeploy

import (
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"sort"
)

// The built-in package sets. General packages are searched before the
// contributed ones; user plugin directories are searched before either.
// Plugins register through these static tables rather than by scanning
// loaded types.

var generalPackages = map[string]func() Package{
	"host-python": func() Package { return &hostPythonPackage{} },
	"openssl":     func() Package { return &opensslPackage{} },
	"pyqt5":       func() Package { return &pyqt5Package{} },
	"python":      func() Package { return &pythonPackage{} },
	"qt5":         func() Package { return &qt5Package{} },
	"sip":         func() Package { return &sipPackage{} },
}

var contribPackages = map[string]func() Package{
	"pip":       func() Package { return &pipPackage{} },
	"pyqtchart": func() Package { return &pyqtchartPackage{} },
	"zlib":      func() Package { return &zlibPackage{} },
}

// lookupPackage resolves a package name to a factory. User plugin
// directories are tried first, in order: a shared object named after
// the package, built against this module and exporting
//
//	func NewPackage() pyqtdeploy.Package
//
// is loaded with the runtime plugin loader. The built-in sets are the
// fallback.
func lookupPackage(name string, pluginDirs []string) (func() Package, error) {
	for _, dir := range pluginDirs {
		soPath := filepath.Join(dir, name+".so")
		if _, err := os.Stat(soPath); err != nil {
			continue
		}

		factory, err := packageFromPlugin(soPath)
		if err != nil {
			return nil, err
		}
		return factory, nil
	}

	if factory, ok := generalPackages[name]; ok {
		return factory, nil
	}
	if factory, ok := contribPackages[name]; ok {
		return factory, nil
	}

	return nil, fmt.Errorf("unable to find a plugin for '%s'", name)
}

func packageFromPlugin(soPath string) (func() Package, error) {
	p, err := plugin.Open(soPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load plugin %s: %w", soPath, err)
	}

	sym, err := p.Lookup("NewPackage")
	if err != nil {
		return nil, fmt.Errorf("plugin %s does not export NewPackage: %w", soPath, err)
	}

	factory, ok := sym.(func() Package)
	if !ok {
		return nil, fmt.Errorf("plugin %s: NewPackage has the wrong signature", soPath)
	}
	return factory, nil
}

// BuildablePackages returns the names of every built-in package, for
// the options help listing.
func BuildablePackages() []string {
	var names []string
	for name := range generalPackages {
		names = append(names, name)
	}
	for name := range contribPackages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
