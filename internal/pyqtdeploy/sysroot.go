package pyqtdeploy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Sysroot is the build context handed to every package plugin. It owns
// the directory layout, the target, the executor and the fields that
// one package publishes for later packages to consume.
//
// Publication is single-writer: the first package to set a tool field
// wins and a second write is an error. Builds are strictly sequential,
// so readers never race a writer; the rule exists to catch two packages
// that both believe they provide the same tool.
type Sysroot struct {
	Target *Target

	cfg      *Config
	executor *Executor
	verbose  bool
	spec     *Specification

	sysrootDir string
	buildDir   string

	// The current build directory of the package being built. Set by
	// UnpackArchive and used as the working directory for Run.
	workDir string

	// Published tool fields.
	hostPython        string
	hostPythonVersion string
	hostQmake         string
	hostSip           string

	// The target Python version, published by the python package.
	pythonVersion string
}

// NewSysroot returns a build context rooted at sysrootDir for the given
// target. The directory layout is created lazily by Build.
func NewSysroot(ctx context.Context, target *Target, sysrootDir string, cfg *Config, verbose bool) (*Sysroot, error) {
	absDir, err := filepath.Abs(sysrootDir)
	if err != nil {
		return nil, err
	}

	return &Sysroot{
		Target:     target,
		cfg:        cfg,
		executor:   NewExecutor(ctx),
		verbose:    verbose,
		sysrootDir: absDir,
		buildDir:   filepath.Join(absDir, "build"),
	}, nil
}

// Directory accessors. Packages install into these rather than
// computing paths themselves so that the layout stays in one place.

func (s *Sysroot) SysrootDir() string       { return s.sysrootDir }
func (s *Sysroot) HostDir() string          { return filepath.Join(s.sysrootDir, "host") }
func (s *Sysroot) HostBinDir() string       { return filepath.Join(s.sysrootDir, "host", "bin") }
func (s *Sysroot) TargetIncludeDir() string { return filepath.Join(s.sysrootDir, "include") }
func (s *Sysroot) TargetLibDir() string     { return filepath.Join(s.sysrootDir, "lib") }
func (s *Sysroot) TargetQtDir() string      { return filepath.Join(s.sysrootDir, "qt") }
func (s *Sysroot) TargetSitePackagesDir() string {
	return filepath.Join(s.sysrootDir, "lib", "python"+s.pythonVersion, "site-packages")
}
func (s *Sysroot) TargetPyIncludeDir() string {
	return filepath.Join(s.sysrootDir, "include", "python"+s.pythonVersion)
}

// Published tool fields.

// SetHostPython publishes the host Python interpreter. version is the
// major.minor version of the interpreter.
func (s *Sysroot) SetHostPython(path, version string) error {
	if s.hostPython != "" {
		return fmt.Errorf("the host Python has already been provided by another package")
	}
	s.hostPython = path
	s.hostPythonVersion = version
	return nil
}

// HostPython returns the published host Python interpreter, or an error
// when no package has provided one yet.
func (s *Sysroot) HostPython() (string, error) {
	if s.hostPython == "" {
		return "", fmt.Errorf("a host Python installation has not been specified")
	}
	return s.hostPython, nil
}

// HostPythonVersion returns the major.minor version of the host Python.
func (s *Sysroot) HostPythonVersion() (string, error) {
	if s.hostPythonVersion == "" {
		return "", fmt.Errorf("a host Python installation has not been specified")
	}
	return s.hostPythonVersion, nil
}

// SetHostQmake publishes the qmake of the Qt installation being used.
func (s *Sysroot) SetHostQmake(path string) error {
	if s.hostQmake != "" {
		return fmt.Errorf("qmake has already been provided by another package")
	}
	s.hostQmake = path
	return nil
}

// HostQmake returns the published qmake, or an error when no package
// has provided one yet.
func (s *Sysroot) HostQmake() (string, error) {
	if s.hostQmake == "" {
		return "", fmt.Errorf("a Qt installation has not been specified")
	}
	return s.hostQmake, nil
}

// SetHostSip publishes the sip code generator.
func (s *Sysroot) SetHostSip(path string) error {
	if s.hostSip != "" {
		return fmt.Errorf("sip has already been provided by another package")
	}
	s.hostSip = path
	return nil
}

// HostSip returns the published sip code generator.
func (s *Sysroot) HostSip() (string, error) {
	if s.hostSip == "" {
		return "", fmt.Errorf("a sip installation has not been specified")
	}
	return s.hostSip, nil
}

// SetPythonVersion publishes the target Python major.minor version.
func (s *Sysroot) SetPythonVersion(version string) error {
	if s.pythonVersion != "" {
		return fmt.Errorf("the target Python version has already been provided by another package")
	}
	s.pythonVersion = version
	return nil
}

// PythonVersion returns the published target Python version.
func (s *Sysroot) PythonVersion() (string, error) {
	if s.pythonVersion == "" {
		return "", fmt.Errorf("a target Python installation has not been specified")
	}
	return s.pythonVersion, nil
}

// FindFile locates a source archive. An absolute name is used as-is,
// otherwise the configured source directories are searched and finally
// the mirrors are tried. The name may be a glob pattern so that a
// specification does not need updating for every micro release.
func (s *Sysroot) FindFile(name string) (string, error) {
	if filepath.IsAbs(name) {
		matched, err := globOne(name)
		if err == nil {
			return matched, nil
		}
		if !errors.Is(err, errFileNotFound) {
			return "", err
		}
		return "", fmt.Errorf("unable to find '%s'", name)
	}

	for _, dir := range sourceDirs() {
		matched, err := globOne(filepath.Join(dir, name))
		if err == nil {
			return matched, nil
		}
		if !errors.Is(err, errFileNotFound) {
			return "", err
		}
	}

	if matched, err := globOne(filepath.Join(SourcesDir, name)); err == nil {
		return matched, nil
	}

	// Glob patterns cannot be fetched; a concrete name can.
	if !strings.ContainsAny(name, "*?[") {
		if fetched, err := fetchSource(name, s.cfg); err == nil {
			return fetched, nil
		}
	}

	return "", fmt.Errorf("unable to find '%s'", name)
}

// globOne resolves a pattern to exactly one existing file.
func globOne(pattern string) (string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return "", errFileNotFound
	}
	if len(matches) > 1 {
		return "", fmt.Errorf("'%s' matches more than one file", pattern)
	}
	if _, err := os.Stat(matches[0]); err != nil {
		return "", errFileNotFound
	}
	return matches[0], nil
}

// UnpackArchive extracts a source archive into a fresh directory under
// the sysroot build area and makes that directory the working directory
// for subsequent Run calls. It returns the name of the archive root.
func (s *Sysroot) UnpackArchive(archive string) (string, error) {
	root := archiveRoot(archive)

	dest := filepath.Join(s.buildDir, root)
	if err := os.RemoveAll(dest); err != nil {
		return "", fmt.Errorf("unable to remove old build directory %s: %w", dest, err)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("unable to create build directory %s: %w", dest, err)
	}

	if err := extractArchive(archive, dest); err != nil {
		return "", fmt.Errorf("unable to unpack %s: %w", archive, err)
	}

	s.workDir = dest
	return root, nil
}

// WorkDir returns the current package build directory.
func (s *Sysroot) WorkDir() string {
	return s.workDir
}

// ChdirBuild moves the working directory to a sub-directory of the
// current build directory.
func (s *Sysroot) ChdirBuild(elem ...string) {
	s.workDir = filepath.Join(append([]string{s.workDir}, elem...)...)
}

// Run executes a build tool in the current working directory. In
// verbose mode the tool's output streams to the console; otherwise it
// is captured and only shown when the tool fails.
func (s *Sysroot) Run(name string, args ...string) error {
	_, err := s.run(name, args, false)
	return err
}

// RunOutput executes a build tool and returns its trimmed standard
// output, e.g. to query a version number.
func (s *Sysroot) RunOutput(name string, args ...string) (string, error) {
	return s.run(name, args, true)
}

func (s *Sysroot) run(name string, args []string, capture bool) (string, error) {
	debugf("Running %s %s in %s\n", name, strings.Join(args, " "), s.workDir)

	cmd := exec.Command(name, args...)
	cmd.Dir = s.workDir

	var stdout, combined bytes.Buffer
	if capture {
		cmd.Stdout = &stdout
		cmd.Stderr = &combined
	} else if s.verbose {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stdout = &combined
		cmd.Stderr = &combined
	}

	if err := s.executor.Run(cmd); err != nil {
		if combined.Len() > 0 {
			fmt.Fprint(os.Stderr, combined.String())
		}
		return "", fmt.Errorf("%s failed: %w", name, err)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// ExpandTemplate copies a file, replacing @TOKEN@ style macros with
// their values.
func (s *Sysroot) ExpandTemplate(src, dst string, macros map[string]string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	pairs := make([]string, 0, len(macros)*2)
	for token, value := range macros {
		pairs = append(pairs, "@"+token+"@", value)
	}
	expanded := strings.NewReplacer(pairs...).Replace(string(data))

	return os.WriteFile(dst, []byte(expanded), 0o644)
}

// MakeSymlink creates a symbolic link dst pointing at src, falling back
// to a copy on hosts without symlink support.
func (s *Sysroot) MakeSymlink(src, dst string) error {
	_ = os.Remove(dst)

	if err := os.Symlink(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// FindPackage returns another package of the specification being
// built, or nil when there is none with the given name. Packages use it
// during Configure to react to each other's options.
func (s *Sysroot) FindPackage(name string) Package {
	if s.spec == nil {
		return nil
	}
	return s.spec.FindPackage(name)
}

// Verbose reports whether build tool output is being streamed.
func (s *Sysroot) Verbose() bool {
	return s.verbose
}

// Progress reports a build milestone to the user.
func (s *Sysroot) Progress(message string) {
	cPrintf(colArrow, "-> ")
	cPrintln(colSuccess, message)
}

// Build configures then builds every package of the specification. All
// Configure calls complete, in specification order, before the first
// Build runs, so that a package can react to the resolved configuration
// of any other package before build side effects exist. The first
// failure aborts the run.
func (s *Sysroot) Build(spec *Specification) error {
	s.spec = spec

	if err := s.createLayout(); err != nil {
		return err
	}

	for _, pkg := range spec.Packages {
		if err := pkg.Configure(s); err != nil {
			return &BuildError{Package: pkg.Name(), Step: "configure", Err: err}
		}
	}

	for _, pkg := range spec.Packages {
		s.Progress(fmt.Sprintf("Building %s", pkg.Name()))
		if err := pkg.Build(s); err != nil {
			return &BuildError{Package: pkg.Name(), Step: "build", Err: err}
		}
	}

	// The build area is only scaffolding once everything has succeeded.
	if err := os.RemoveAll(s.buildDir); err != nil {
		cPrintf(colWarn, "unable to remove build directory %s: %v\n", s.buildDir, err)
	}

	return nil
}

// BuildPackage configures every package but builds only the named one.
// Packages that publish tools during Configure still do, so a partial
// rebuild sees the same context as a full one.
func (s *Sysroot) BuildPackage(spec *Specification, name string) error {
	s.spec = spec

	pkg := spec.FindPackage(name)
	if pkg == nil {
		return fmt.Errorf("the specification does not contain a package named '%s'", name)
	}

	if err := s.createLayout(); err != nil {
		return err
	}

	for _, p := range spec.Packages {
		if err := p.Configure(s); err != nil {
			return &BuildError{Package: p.Name(), Step: "configure", Err: err}
		}
	}

	s.Progress(fmt.Sprintf("Building %s", pkg.Name()))
	if err := pkg.Build(s); err != nil {
		return &BuildError{Package: pkg.Name(), Step: "build", Err: err}
	}

	return nil
}

func (s *Sysroot) createLayout() error {
	for _, dir := range []string{
		s.buildDir,
		s.HostBinDir(),
		s.TargetIncludeDir(),
		s.TargetLibDir(),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("unable to create %s: %w", dir, err)
		}
	}
	return nil
}
