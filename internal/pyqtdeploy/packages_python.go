package pyqtdeploy

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// hostPythonPackage provides the Python interpreter that runs the
// configure scripts of the other packages. It either builds one from
// source into the sysroot host area or adopts an existing installation.
type hostPythonPackage struct {
	PackageBase

	Source           string `spec:"source"`
	InstalledVersion string `spec:"installed_version"`
}

func (p *hostPythonPackage) Options() []*Option {
	return pythonInstallOptions()
}

func (p *hostPythonPackage) Build(sysroot *Sysroot) error {
	if err := validateInstallSourceOptions(p.Source, p.InstalledVersion); err != nil {
		return err
	}

	var interpreter, version string
	var err error

	if p.InstalledVersion != "" {
		sysroot.Progress(fmt.Sprintf("Installing the existing Python v%s as the host Python", p.InstalledVersion))

		interpreter, err = exec.LookPath("python" + p.InstalledVersion)
		if err != nil {
			return fmt.Errorf("unable to find the python%s executable", p.InstalledVersion)
		}
		version = p.InstalledVersion
	} else {
		sysroot.Progress("Building the host Python")

		if runtime.GOOS == "windows" {
			return fmt.Errorf("building the host Python from source on Windows is not supported")
		}

		interpreter, version, err = p.buildFromSource(sysroot)
		if err != nil {
			return err
		}
	}

	// Link the interpreter into a standard place in the sysroot so
	// cross-target project files can refer to it.
	link := filepath.Join(sysroot.HostBinDir(), sysroot.Target.HostExe("python"))
	if err := sysroot.MakeSymlink(interpreter, link); err != nil {
		return err
	}

	return sysroot.SetHostPython(interpreter, version)
}

func (p *hostPythonPackage) buildFromSource(sysroot *Sysroot) (string, string, error) {
	archive, err := sysroot.FindFile(p.Source)
	if err != nil {
		return "", "", err
	}

	root, err := sysroot.UnpackArchive(archive)
	if err != nil {
		return "", "", err
	}

	version, err := pythonVersionFromArchiveRoot(root)
	if err != nil {
		return "", "", err
	}

	// ensurepip would install into the host area behind our back.
	configure := []string{"--prefix", sysroot.HostDir(), "--with-ensurepip=no"}

	if err := sysroot.Run("./configure", configure...); err != nil {
		return "", "", err
	}
	if err := sysroot.Run(sysroot.Target.HostMake()); err != nil {
		return "", "", err
	}
	if err := sysroot.Run(sysroot.Target.HostMake(), "install"); err != nil {
		return "", "", err
	}

	return filepath.Join(sysroot.HostBinDir(), "python"+version), version, nil
}

// pythonVersionFromArchiveRoot extracts the major.minor version from an
// archive root name like "Python-3.6.4".
func pythonVersionFromArchiveRoot(root string) (string, error) {
	parts := strings.SplitN(root, "-", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("unable to determine the Python version from '%s'", root)
	}

	dotted := splitDotted(parts[1])
	if len(dotted) < 2 {
		return "", fmt.Errorf("unable to determine the Python version from '%s'", root)
	}

	return dotted[0] + "." + dotted[1], nil
}

// pythonPackage builds the target Python installation: the static
// interpreter library, the headers and the frozen standard library.
type pythonPackage struct {
	PackageBase

	Source           string `spec:"source"`
	InstalledVersion string `spec:"installed_version"`
	Debug            bool   `spec:"debug"`
	DynamicLoading   bool   `spec:"dynamic_loading"`
}

func (p *pythonPackage) Options() []*Option {
	opts := []*Option{
		{Name: "source", Type: OptionString,
			Help: "The archive containing the Python source code. The target Python is always built from source."},
		{Name: "installed_version", Type: OptionString,
			Help: "The major.minor version number of an existing Python installation to use. Only supported when targeting Windows from a Windows host; everywhere else the target Python must be built from source."},
	}
	opts = append(opts, debugOptions()...)
	return append(opts,
		&Option{Name: "dynamic_loading", Type: OptionBool,
			Help: "Set to enable support for the dynamic loading of extension modules when building from source."})
}

// Configure publishes the target Python version before any package
// builds, so that later packages can compute installation paths.
func (p *pythonPackage) Configure(sysroot *Sysroot) error {
	if err := validateInstallSourceOptions(p.Source, p.InstalledVersion); err != nil {
		return err
	}

	if p.InstalledVersion != "" {
		return sysroot.SetPythonVersion(p.InstalledVersion)
	}

	version, err := pythonVersionFromArchiveRoot(archiveRoot(p.Source))
	if err != nil {
		return err
	}
	return sysroot.SetPythonVersion(version)
}

func (p *pythonPackage) Build(sysroot *Sysroot) error {
	if p.InstalledVersion != "" {
		// Adopting an existing installation needs the Windows registry
		// and DLL layout; everywhere else the source build is the only
		// supported path.
		return fmt.Errorf("using an existing Python installation is not supported for the %s target; build it from source with the 'source' option", sysroot.Target.Name())
	}

	sysroot.Progress("Building the target Python")
	return p.buildFromSource(sysroot)
}

func (p *pythonPackage) buildFromSource(sysroot *Sysroot) error {
	archive, err := sysroot.FindFile(p.Source)
	if err != nil {
		return err
	}

	if _, err := sysroot.UnpackArchive(archive); err != nil {
		return err
	}

	configure := []string{"--prefix", sysroot.SysrootDir(), "--with-ensurepip=no"}
	if p.Debug {
		configure = append(configure, "--with-pydebug")
	}
	if !p.DynamicLoading {
		configure = append(configure, "LDFLAGS=-static-libgcc")
	}

	if err := sysroot.Run("./configure", configure...); err != nil {
		return err
	}
	if err := sysroot.Run(sysroot.Target.HostMake()); err != nil {
		return err
	}
	return sysroot.Run(sysroot.Target.HostMake(), "install")
}
