package pyqtdeploy

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// The contributed packages. They follow the same plugin contract as the
// general ones but cover needs outside the core Qt/Python stack.

// pipPackage installs a list of packages with the host pip into the
// target site-packages directory.
type pipPackage struct {
	PackageBase

	Packages []string `spec:"packages"`
}

func (p *pipPackage) Options() []*Option {
	return []*Option{
		{Name: "packages", Type: OptionStringList, Required: true,
			Help: "The packages to be installed by pip."},
	}
}

func (p *pipPackage) Build(sysroot *Sysroot) error {
	hostPython, err := sysroot.HostPython()
	if err != nil {
		return err
	}

	for _, pkg := range p.Packages {
		sysroot.Progress(fmt.Sprintf("Installing %s", pkg))

		// A local archive on the search path takes precedence; otherwise
		// assume the package is remote and pip will be able to find it.
		target := pkg
		if local, err := sysroot.FindFile(pkg); err == nil {
			target = local
		}

		if err := sysroot.Run(hostPython, "-m", "pip", "install",
			"--target", sysroot.TargetSitePackagesDir(), target); err != nil {
			return err
		}
	}

	return nil
}

// pyqtchartPackage builds the static PyQtChart bindings on top of an
// already-built PyQt5, consuming the published qmake and sip.
type pyqtchartPackage struct {
	PackageBase

	Source string `spec:"source"`
}

func (p *pyqtchartPackage) Options() []*Option {
	return []*Option{
		{Name: "source", Type: OptionString, Required: true,
			Help: "The archive containing the PyQtChart source code."},
	}
}

func (p *pyqtchartPackage) Build(sysroot *Sysroot) error {
	sysroot.Progress("Building PyQtChart")

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

	var cfg strings.Builder
	fmt.Fprintf(&cfg, "py_platform = %s\n", targetPyPlatform(sysroot.Target))
	fmt.Fprintf(&cfg, "py_inc_dir = %s\n", sysroot.TargetPyIncludeDir())
	fmt.Fprintf(&cfg, "py_pylib_dir = %s\n", sysroot.TargetLibDir())
	fmt.Fprintf(&cfg, "py_sip_dir = %s\n", filepath.Join(sysroot.SysrootDir(), "share", "sip"))
	fmt.Fprintf(&cfg, "[PyQt 5]\n")
	fmt.Fprintf(&cfg, "module_dir = %s\n", filepath.Join(sysroot.TargetSitePackagesDir(), "PyQt5"))

	// The bindings must agree with PyQt5 about which features were
	// disabled.
	if pyqt5, ok := sysroot.FindPackage("pyqt5").(*pyqt5Package); ok && len(pyqt5.DisabledFeatures) > 0 {
		fmt.Fprintf(&cfg, "pyqt_disabled_features = %s\n", strings.Join(pyqt5.DisabledFeatures, " "))
	}

	cfgName := "pyqtchart-" + sysroot.Target.Name() + ".cfg"
	if err := os.WriteFile(filepath.Join(sysroot.WorkDir(), cfgName), []byte(cfg.String()), 0o644); err != nil {
		return err
	}

	args := []string{
		"configure.py", "--static", "--qmake", hostQmake,
		"--sysroot", sysroot.SysrootDir(), "--no-qsci-api", "--no-sip-files",
		"--no-stubs", "--configuration", cfgName, "--sip", hostSip, "-c",
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

// zlibPackage builds zlib for the target and installs it into the
// sysroot so that the lzma and zipimport support can link against it.
type zlibPackage struct {
	PackageBase

	Source string `spec:"source"`
	Static bool   `spec:"static"`
}

func (p *zlibPackage) Options() []*Option {
	opts := sourceOptions()
	return append(opts,
		&Option{Name: "static", Type: OptionBool,
			Help: "Set if a static library should be built."})
}

func (p *zlibPackage) Build(sysroot *Sysroot) error {
	sysroot.Progress("Building zlib")

	archive, err := sysroot.FindFile(p.Source)
	if err != nil {
		return err
	}
	if _, err := sysroot.UnpackArchive(archive); err != nil {
		return err
	}

	if runtime.GOOS == "windows" {
		return fmt.Errorf("building zlib on Windows is not supported")
	}

	args := []string{"--prefix=" + sysroot.SysrootDir()}
	if p.Static {
		args = append(args, "--static")
	}

	if err := sysroot.Run("./configure", args...); err != nil {
		return err
	}
	if err := sysroot.Run(sysroot.Target.HostMake()); err != nil {
		return err
	}
	if err := sysroot.Run(sysroot.Target.HostMake(), "install"); err != nil {
		return err
	}

	// Keep a checksum of what was installed for provenance.
	libPath := filepath.Join(sysroot.TargetLibDir(), "libz.a")
	if sum, err := hashFile(libPath); err == nil {
		debugf("installed %s (%s)\n", libPath, sum)
	}

	return nil
}
