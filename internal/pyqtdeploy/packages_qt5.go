package pyqtdeploy

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// qt5Package provides the Qt installation, either built statically from
// source or adopted from an existing installation. It publishes qmake
// for the bindings packages.
type qt5Package struct {
	PackageBase

	ConfigureOptions  []string `spec:"configure_options"`
	DisabledFeatures  []string `spec:"disabled_features"`
	QtDir             string   `spec:"qt_dir"`
	SSL               string   `spec:"ssl"`
	Skip              []string `spec:"skip"`
	Source            string   `spec:"source"`
	StaticMSVCRuntime bool     `spec:"static_msvc_runtime"`
}

func (p *qt5Package) Options() []*Option {
	return []*Option{
		{Name: "configure_options", Type: OptionStringList,
			Help: "The additional options to be passed to 'configure' when building from source."},
		{Name: "disabled_features", Type: OptionStringList,
			Help: "The features that are disabled when building from source."},
		{Name: "qt_dir", Type: OptionString,
			Help: "The pathname of the directory containing an existing Qt5 installation to use. If it is not specified then the installation will be built from source."},
		{Name: "ssl", Type: OptionString,
			Values: []string{"openssl-linked", "openssl-runtime", "securetransport"},
			Help:   "Enable SSL support."},
		{Name: "skip", Type: OptionStringList,
			Help: "The Qt modules to skip when building from source."},
		{Name: "source", Type: OptionString,
			Help: "The archive containing the Qt5 source code if an existing installation is not to be used."},
		{Name: "static_msvc_runtime", Type: OptionBool,
			Help: "Set if the MSVC runtime should be statically linked."},
	}
}

func (p *qt5Package) Configure(sysroot *Sysroot) error {
	if p.QtDir != "" && p.Source != "" {
		return fmt.Errorf("the 'qt_dir' and 'source' options cannot both be specified")
	}
	if p.QtDir == "" && p.Source == "" {
		return fmt.Errorf("either the 'qt_dir' or 'source' option must be specified")
	}
	return nil
}

func (p *qt5Package) Build(sysroot *Sysroot) error {
	var qtDir string
	var err error

	if p.QtDir != "" {
		sysroot.Progress("Installing an existing Qt5")

		qtDir, err = p.installExisting(sysroot)
	} else {
		sysroot.Progress("Building Qt5 from source")

		// Cross-compiling Qt is not supported; an existing installation
		// must be used instead.
		if sysroot.Target.Platform != hostPlatformName() {
			return fmt.Errorf("cross compiling Qt is not supported - use the 'qt_dir' option to specify an existing Qt5 installation")
		}

		qtDir, err = p.buildFromSource(sysroot)
	}
	if err != nil {
		return err
	}

	// Link qmake into a standard place in the sysroot so that it can be
	// referred to in cross-target build scripts.
	qmake := sysroot.Target.HostExe("qmake")
	qmakePath := filepath.Join(qtDir, "bin", qmake)

	if err := sysroot.MakeSymlink(qmakePath, filepath.Join(sysroot.HostBinDir(), qmake)); err != nil {
		return err
	}

	return sysroot.SetHostQmake(qmakePath)
}

func (p *qt5Package) buildFromSource(sysroot *Sysroot) (string, error) {
	archive, err := sysroot.FindFile(p.Source)
	if err != nil {
		return "", err
	}

	root, err := sysroot.UnpackArchive(archive)
	if err != nil {
		return "", err
	}

	license := "-commercial"
	if strings.Contains(root, "-opensource-") {
		license = "-opensource"
	}

	configure := "./configure"
	if runtime.GOOS == "windows" {
		configure = "configure.bat"
	}

	args := []string{
		"-prefix", sysroot.TargetQtDir(), license, "-confirm-license",
		"-static", "-release", "-nomake", "examples", "-nomake", "tools",
	}

	switch p.SSL {
	case "":
		args = append(args, "-no-ssl")
	case "securetransport":
		args = append(args, "-ssl", "-securetransport")
	case "openssl-linked":
		args = append(args, "-ssl", "-openssl-linked")

		// Point at the sysroot copy when the openssl package provides it.
		if sysroot.FindPackage("openssl") != nil {
			args = append(args,
				"-I", sysroot.TargetIncludeDir(),
				"-L", sysroot.TargetLibDir())
		}
	case "openssl-runtime":
		args = append(args, "-ssl", "-openssl-runtime")
	}

	args = append(args, p.ConfigureOptions...)

	for _, feature := range p.DisabledFeatures {
		args = append(args, "-no-feature-"+feature)
	}

	for _, module := range p.Skip {
		args = append(args, "-skip", module)
	}

	if runtime.GOOS == "linux" {
		args = append(args, "-qt-xcb")
	}

	if err := sysroot.Run(configure, args...); err != nil {
		return "", err
	}
	if err := sysroot.Run(sysroot.Target.HostMake()); err != nil {
		return "", err
	}
	if err := sysroot.Run(sysroot.Target.HostMake(), "install"); err != nil {
		return "", err
	}

	return sysroot.TargetQtDir(), nil
}

func (p *qt5Package) installExisting(sysroot *Sysroot) (string, error) {
	qtDir, err := filepath.Abs(p.QtDir)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(qtDir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("'%s' could not be found", qtDir)
	}

	return qtDir, nil
}

func hostPlatformName() string {
	switch runtime.GOOS {
	case "darwin":
		return "macos"
	case "windows":
		return "win"
	}
	return runtime.GOOS
}
