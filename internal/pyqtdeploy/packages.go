package pyqtdeploy

import "fmt"

// Package is the contract every buildable package plugin implements.
// Configure is called for every package in specification order before
// any Build runs, so a later package can react to an earlier package's
// resolved configuration while no build side effects exist yet.
type Package interface {
	Name() string
	SetName(name string)

	// Options returns the full option schema for the package. A package
	// composes its schema explicitly: shared base schemas first, then
	// its own options.
	Options() []*Option

	Configure(sysroot *Sysroot) error
	Build(sysroot *Sysroot) error
}

// PackageBase is embedded by every package plugin. It carries the name
// assigned by the specification and provides the default no-op
// Configure.
type PackageBase struct {
	name string
}

func (b *PackageBase) Name() string {
	return b.name
}

func (b *PackageBase) SetName(name string) {
	b.name = name
}

func (b *PackageBase) Options() []*Option {
	return nil
}

func (b *PackageBase) Configure(sysroot *Sysroot) error {
	return nil
}

// Shared option schemas, composed by the individual packages.

// sourceOptions is the schema for a package always built from source.
func sourceOptions() []*Option {
	return []*Option{
		{Name: "source", Type: OptionString, Required: true,
			Help: "The source archive to build the package from."},
	}
}

// optionalSourceOptions is the schema for a package optionally built
// from source.
func optionalSourceOptions() []*Option {
	return []*Option{
		{Name: "source", Type: OptionString,
			Help: "The source archive to build the package from if an existing installation is not to be used."},
	}
}

// debugOptions is the schema for a package that has a debug option.
func debugOptions() []*Option {
	return []*Option{
		{Name: "debug", Type: OptionBool,
			Help: "A debug version of the package is to be used."},
	}
}

// pythonInstallOptions is the schema shared by the host and target
// Python packages.
func pythonInstallOptions() []*Option {
	return append(optionalSourceOptions(),
		&Option{Name: "installed_version", Type: OptionString,
			Help: "The major.minor version number of an existing Python installation to use. If it is not specified then the installation will be built from source."})
}

// validateInstallSourceOptions checks the 'installed_version' and
// 'source' options against each other.
func validateInstallSourceOptions(source, installedVersion string) error {
	if source != "" {
		if installedVersion != "" {
			return fmt.Errorf("the 'installed_version' and 'source' options cannot both be specified")
		}
		return nil
	}

	if installedVersion != "" {
		if len(splitDotted(installedVersion)) != 2 {
			return fmt.Errorf("'installed_version' option must be in the form major.minor and not '%s'", installedVersion)
		}
		return nil
	}

	return fmt.Errorf("either the 'installed_version' or 'source' option must be specified")
}

func splitDotted(s string) []string {
	var parts []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '.' {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return parts
}
