package pyqtdeploy

import "fmt"

// SpecificationError reports a problem with a sysroot specification file:
// a malformed document, an unknown/missing/mistyped option or an
// unresolvable package name. It always carries the file and, when known,
// the package the problem belongs to.
type SpecificationError struct {
	File    string
	Package string
	Message string
}

func (e *SpecificationError) Error() string {
	if e.Package != "" {
		return fmt.Sprintf("%s: Package '%s': %s", e.File, e.Package, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

func specError(file, pkg, format string, args ...any) *SpecificationError {
	return &SpecificationError{File: file, Package: pkg, Message: fmt.Sprintf(format, args...)}
}

// BuildError reports a failed build step for a package. It aborts the
// whole sysroot run; there is no retry and no rollback of filesystem
// side effects already applied.
type BuildError struct {
	Package string
	Step    string
	Err     error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("package %s: %s: %v", e.Package, e.Step, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
