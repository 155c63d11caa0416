package pyqtdeploy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// pyqt5Package builds the static PyQt5 extension modules against the
// sysroot Qt and target Python.
type pyqt5Package struct {
	PackageBase

	DisabledFeatures []string `spec:"disabled_features"`
	Modules          []string `spec:"modules"`
	Source           string   `spec:"source"`
}

func (p *pyqt5Package) Options() []*Option {
	return []*Option{
		{Name: "disabled_features", Type: OptionStringList,
			Help: "The features that are disabled."},
		{Name: "modules", Type: OptionStringList, Required: true,
			Help: "The extension modules to be built."},
		{Name: "source", Type: OptionString, Required: true,
			Help: "The archive containing the PyQt5 source code."},
	}
}

// Configure reacts to the Qt configuration: when Qt is built without
// SSL the corresponding PyQt feature has to be disabled as well.
func (p *pyqt5Package) Configure(sysroot *Sysroot) error {
	if qt5, ok := sysroot.FindPackage("qt5").(*qt5Package); ok && qt5.SSL == "" {
		p.DisabledFeatures = append(p.DisabledFeatures, "PyQt_SSL")
	}
	return nil
}

func (p *pyqt5Package) Build(sysroot *Sysroot) error {
	sysroot.Progress("Building PyQt5")

	hostPython, err := sysroot.HostPython()
	if err != nil {
		return err
	}
	hostQmake, err := sysroot.HostQmake()
	if err != nil {
		return err
	}
	hostSip, err := sysroot.HostSip()
	if err != nil {
		return err
	}

	archive, err := sysroot.FindFile(p.Source)
	if err != nil {
		return err
	}
	if _, err := sysroot.UnpackArchive(archive); err != nil {
		return err
	}

	// A commercial license file may be on the source search path.
	if license, err := sysroot.FindFile("pyqt-commercial.sip"); err == nil {
		data, err := os.ReadFile(license)
		if err != nil {
			return err
		}
		dst := filepath.Join(sysroot.WorkDir(), "sip", filepath.Base(license))
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return err
		}
	}

	cfgName, err := p.writeConfiguration(sysroot)
	if err != nil {
		return err
	}

	args := []string{
		"configure.py", "--static", "--qmake", hostQmake,
		"--sysroot", sysroot.SysrootDir(), "--no-tools", "--no-qsci-api",
		"--no-designer-plugin", "--no-python-dbus", "--no-qml-plugin",
		"--no-stubs", "--configuration", cfgName, "--sip", hostSip,
		"--confirm-license", "-c", "-j2",
	}
	if sysroot.Verbose() {
		args = append(args, "--verbose")
	}

	if err := sysroot.Run(hostPython, args...); err != nil {
		return err
	}
	if err := sysroot.Run(sysroot.Target.HostMake()); err != nil {
		return err
	}
	return sysroot.Run(sysroot.Target.HostMake(), "install")
}

func (p *pyqt5Package) writeConfiguration(sysroot *Sysroot) (string, error) {
	var cfg strings.Builder

	fmt.Fprintf(&cfg, "py_platform = %s\n", targetPyPlatform(sysroot.Target))
	fmt.Fprintf(&cfg, "py_inc_dir = %s\n", sysroot.TargetPyIncludeDir())
	fmt.Fprintf(&cfg, "py_pylib_dir = %s\n", sysroot.TargetLibDir())
	fmt.Fprintf(&cfg, "pyqt_module_dir = %s\n", sysroot.TargetSitePackagesDir())
	fmt.Fprintf(&cfg, "pyqt_sip_dir = %s\n", filepath.Join(sysroot.SysrootDir(), "share", "sip", "PyQt5"))
	fmt.Fprintf(&cfg, "[Qt 5]\n")
	fmt.Fprintf(&cfg, "pyqt_modules = %s\n", strings.Join(p.Modules, " "))

	if len(p.DisabledFeatures) > 0 {
		fmt.Fprintf(&cfg, "pyqt_disabled_features = %s\n", strings.Join(p.DisabledFeatures, " "))
	}

	cfgName := "pyqt5-" + sysroot.Target.Name() + ".cfg"
	cfgPath := filepath.Join(sysroot.WorkDir(), cfgName)

	if err := os.WriteFile(cfgPath, []byte(cfg.String()), 0o644); err != nil {
		return "", err
	}
	return cfgName, nil
}

// targetPyPlatform maps a target to the Python build platform name used
// in PyQt configuration files.
func targetPyPlatform(target *Target) string {
	switch target.Platform {
	case "macos":
		return "darwin"
	case "win":
		return "win32"
	case "ios":
		return "darwin"
	}
	return target.Platform
}
