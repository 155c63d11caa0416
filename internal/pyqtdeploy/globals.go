package pyqtdeploy

import (
	"errors"
	"fmt"

	"github.com/gookit/color"
)

// Global variables
var (
	SysrootDir   string
	CacheDir     string
	SourcesDir   string
	sourcePaths  string
	tmpDir       string
	Debug        bool
	Verbose      bool
	ConfigFile   = "/etc/pyqtdeploy.conf"
	SourceMirror string
	version      = "dev"     // default version; overridden at build time
	buildDate    = "unknown" // overridden at build time

	errFileNotFound = errors.New("file not found")
)

// debugf prints diagnostics when PYQTDEPLOY_DEBUG is set.
func debugf(format string, args ...any) {
	if Debug {
		fmt.Printf(format, args...)
	}
}

// color helpers
var (
	colInfo    = color.Info // style provided by gookit/color
	colWarn    = color.Warn
	colError   = color.Error
	colSuccess = color.HEX("#1976D2")
	colArrow   = color.HEX("#FFEB3B")
)

// colorPrinter is the part of gookit/color's styled printers (Theme,
// RGBColor) the output helpers need.
type colorPrinter interface {
	Printf(format string, a ...any)
	Println(a ...any)
}

func cPrintf(p colorPrinter, format string, a ...any) {
	p.Printf(format, a...)
}

func cPrintln(p colorPrinter, a ...any) {
	p.Println(a...)
}
