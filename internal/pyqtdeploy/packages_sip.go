package pyqtdeploy

import (
	"fmt"
	"os"
	"path/filepath"
)

// sipPackage builds the sip code generator for the host and the static
// sip extension module for the target.
type sipPackage struct {
	PackageBase

	Source string `spec:"source"`
}

func (p *sipPackage) Options() []*Option {
	return []*Option{
		{Name: "source", Type: OptionString, Required: true,
			Help: "The archive containing the SIP source code."},
	}
}

func (p *sipPackage) Build(sysroot *Sysroot) error {
	sysroot.Progress("Building SIP")

	hostPython, err := sysroot.HostPython()
	if err != nil {
		return err
	}

	archive, err := sysroot.FindFile(p.Source)
	if err != nil {
		return err
	}

	if err := p.buildCodeGenerator(sysroot, hostPython, archive); err != nil {
		return err
	}
	return p.buildModule(sysroot, hostPython, archive)
}

// buildCodeGenerator builds the sip code generator for the host and
// publishes it.
func (p *sipPackage) buildCodeGenerator(sysroot *Sysroot, hostPython, archive string) error {
	if _, err := sysroot.UnpackArchive(archive); err != nil {
		return err
	}

	if err := sysroot.Run(hostPython, "configure.py", "--bindir", sysroot.HostBinDir()); err != nil {
		return err
	}

	sysroot.ChdirBuild("sipgen")
	if err := sysroot.Run(sysroot.Target.HostMake()); err != nil {
		return err
	}
	if err := sysroot.Run(sysroot.Target.HostMake(), "install"); err != nil {
		return err
	}

	return sysroot.SetHostSip(filepath.Join(sysroot.HostBinDir(), sysroot.Target.HostExe("sip")))
}

// buildModule builds the static sip module for the target from a fresh
// copy of the source.
func (p *sipPackage) buildModule(sysroot *Sysroot, hostPython, archive string) error {
	if _, err := sysroot.UnpackArchive(archive); err != nil {
		return err
	}

	cfg := fmt.Sprintf("py_inc_dir = %s\npy_pylib_dir = %s\nsip_module_dir = %s\n",
		sysroot.TargetPyIncludeDir(), sysroot.TargetLibDir(),
		sysroot.TargetSitePackagesDir())

	cfgName := "sip-" + sysroot.Target.Name() + ".cfg"
	if err := os.WriteFile(filepath.Join(sysroot.WorkDir(), cfgName), []byte(cfg), 0o644); err != nil {
		return err
	}

	hostQmake, err := sysroot.HostQmake()
	if err != nil {
		return err
	}

	if err := sysroot.Run(hostPython, "configure.py", "--static",
		"--sysroot", sysroot.SysrootDir(), "--no-pyi", "--no-tools",
		"--use-qmake", "--configuration", cfgName); err != nil {
		return err
	}
	if err := sysroot.Run(hostQmake); err != nil {
		return err
	}
	if err := sysroot.Run(sysroot.Target.HostMake()); err != nil {
		return err
	}
	return sysroot.Run(sysroot.Target.HostMake(), "install")
}
