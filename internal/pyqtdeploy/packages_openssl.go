package pyqtdeploy

import (
	"fmt"
	"os/exec"
	"path/filepath"
)

// opensslPackage builds OpenSSL for the target so that Qt and the
// Python _ssl module can link against the sysroot copy.
type opensslPackage struct {
	PackageBase

	PythonSource string `spec:"python_source"`
	Source       string `spec:"source"`
}

func (p *opensslPackage) Options() []*Option {
	return []*Option{
		{Name: "python_source", Type: OptionString,
			Help: "The archive of the Python source code containing patches to build OpenSSL on macOS."},
		{Name: "source", Type: OptionString, Required: true,
			Help: "The archive containing the OpenSSL source code."},
	}
}

func (p *opensslPackage) Build(sysroot *Sysroot) error {
	sysroot.Progress("Building OpenSSL")

	if _, err := exec.LookPath("perl"); err != nil {
		return fmt.Errorf("unable to find the perl executable needed to configure OpenSSL")
	}

	archive, err := sysroot.FindFile(p.Source)
	if err != nil {
		return err
	}
	if _, err := sysroot.UnpackArchive(archive); err != nil {
		return err
	}

	commonOptions := []string{
		"no-krb5", "no-idea", "no-mdc2", "no-rc5", "no-zlib",
		"enable-tlsext", "no-ssl2", "no-ssl3", "no-ssl3-method",
		"--prefix=" + sysroot.SysrootDir(),
	}

	if sysroot.Target.Platform != hostPlatformName() {
		return fmt.Errorf("building OpenSSL for '%s' on '%s' is not supported",
			sysroot.Target.Name(), hostPlatformName())
	}

	switch sysroot.Target.Platform {
	case "linux":
		return p.buildLinux(sysroot, commonOptions)
	case "macos":
		return p.buildMacOS(sysroot, commonOptions)
	}

	return fmt.Errorf("building OpenSSL for '%s' on '%s' is not supported",
		sysroot.Target.Name(), hostPlatformName())
}

func (p *opensslPackage) buildLinux(sysroot *Sysroot, commonOptions []string) error {
	args := append([]string{"Configure", "shared", "linux-x86_64"}, commonOptions...)

	if err := sysroot.Run("perl", args...); err != nil {
		return err
	}
	if err := sysroot.Run(sysroot.Target.HostMake()); err != nil {
		return err
	}
	return sysroot.Run(sysroot.Target.HostMake(), "install_sw")
}

func (p *opensslPackage) buildMacOS(sysroot *Sysroot, commonOptions []string) error {
	if _, err := exec.LookPath("patch"); err != nil {
		return fmt.Errorf("unable to find the patch executable")
	}

	// The Python source tree carries the patch that makes OpenSSL build
	// on macOS.
	if p.PythonSource == "" {
		return fmt.Errorf("the 'python_source' option must be specified")
	}

	pythonArchive, err := sysroot.FindFile(p.PythonSource)
	if err != nil {
		return err
	}

	// Unpack the Python source next to the OpenSSL tree, then restore
	// the working directory to the OpenSSL tree itself.
	opensslDir := sysroot.WorkDir()
	if _, err := sysroot.UnpackArchive(pythonArchive); err != nil {
		return err
	}
	pythonTree := sysroot.WorkDir()
	sysroot.workDir = opensslDir

	patches, err := filepath.Glob(filepath.Join(pythonTree, "Mac", "BuildScript", "openssl*.patch"))
	if err != nil || len(patches) < 1 {
		return fmt.Errorf("unable to find an OpenSSL patch in the Python source tree")
	}
	if len(patches) > 1 {
		return fmt.Errorf("found multiple OpenSSL patches in the Python source tree")
	}

	if err := sysroot.Run("patch", "-p1", "-i", patches[0]); err != nil {
		return err
	}

	args := append([]string{"Configure", "darwin64-x86_64-cc", "enable-ec_nistp_64_gcc_128"}, commonOptions...)

	if err := sysroot.Run("perl", args...); err != nil {
		return err
	}
	if err := sysroot.Run(sysroot.Target.HostMake(), "depend"); err != nil {
		return err
	}
	if err := sysroot.Run(sysroot.Target.HostMake(), "all"); err != nil {
		return err
	}
	return sysroot.Run(sysroot.Target.HostMake(), "install_sw")
}
