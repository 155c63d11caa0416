package pyqtdeploy

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Main is the command dispatcher. It returns the process exit code.
func Main(ctx context.Context, args []string) int {
	if len(args) < 2 {
		printUsage()
		return 1
	}

	cfg, err := loadConfig(ConfigFile)
	if err != nil {
		cPrintf(colWarn, "unable to read %s: %v\n", ConfigFile, err)
	}
	initConfig(cfg)

	switch args[1] {
	case "version":
		fmt.Printf("pyqtdeploy %s (built %s)\n", version, buildDate)
		return 0

	case "sysroot":
		return cmdSysroot(ctx, cfg, args[2:])

	case "package":
		// Build a single package of a specification.
		if len(args) < 4 {
			fmt.Println("Usage: pyqtdeploy package <spec> <package> [options...]")
			return 1
		}
		rest := append([]string{args[2], "--package", args[3]}, args[4:]...)
		return cmdSysroot(ctx, cfg, rest)

	case "stdlib":
		return cmdStdlib(args[2:])

	case "targets":
		for _, name := range TargetNames() {
			fmt.Println(name)
		}
		return 0

	case "options":
		return cmdOptions(args[2:])

	case "help", "-h", "--help":
		printUsage()
		return 0
	}

	cPrintf(colError, "unknown command '%s'\n", args[1])
	printUsage()
	return 1
}

func printUsage() {
	fmt.Println("Usage: pyqtdeploy <command> [args...]")
	fmt.Println()

	commands := [][2]string{
		{"sysroot <spec>", "build a sysroot from a specification file"},
		{"package <spec> <name>", "build a single package of a sysroot"},
		{"stdlib <project>", "show the standard library modules a project needs"},
		{"options [package]", "show the options of the buildable packages"},
		{"targets", "list the supported targets"},
		{"version", "show the version"},
	}

	width := 0
	for _, c := range commands {
		if len(c[0]) > width {
			width = len(c[0])
		}
	}
	for _, c := range commands {
		fmt.Printf("  %-*s  %s\n", width, c[0], c[1])
	}
}

// cmdSysroot builds a sysroot, or a single package of one, from a
// specification file.
func cmdSysroot(ctx context.Context, cfg *Config, args []string) int {
	var specFile, targetName, sysrootDir, onlyPackage string
	var pluginDirs []string
	verbose := Verbose

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--target":
			if i++; i >= len(args) {
				cPrintln(colError, "--target needs a value")
				return 1
			}
			targetName = args[i]
		case "--sysroot":
			if i++; i >= len(args) {
				cPrintln(colError, "--sysroot needs a value")
				return 1
			}
			sysrootDir = args[i]
		case "--package":
			if i++; i >= len(args) {
				cPrintln(colError, "--package needs a value")
				return 1
			}
			onlyPackage = args[i]
		case "--plugin-dir":
			if i++; i >= len(args) {
				cPrintln(colError, "--plugin-dir needs a value")
				return 1
			}
			pluginDirs = append(pluginDirs, args[i])
		case "--verbose":
			verbose = true
		default:
			if strings.HasPrefix(args[i], "-") {
				cPrintf(colError, "unknown option '%s'\n", args[i])
				return 1
			}
			if specFile != "" {
				cPrintln(colError, "only one specification file may be given")
				return 1
			}
			specFile = args[i]
		}
	}

	if specFile == "" {
		fmt.Println("Usage: pyqtdeploy sysroot [--target NAME] [--sysroot DIR] [--package NAME] [--plugin-dir DIR] [--verbose] <spec>")
		return 1
	}

	target, err := ParseTarget(targetName)
	if err != nil {
		cPrintf(colError, "Error: %v\n", err)
		return 1
	}

	if sysrootDir == "" {
		sysrootDir = SysrootDir
	}

	spec, err := LoadSpecification(specFile, pluginDirs)
	if err != nil {
		cPrintf(colError, "Error: %v\n", err)
		return 1
	}

	sysroot, err := NewSysroot(ctx, target, sysrootDir, cfg, verbose)
	if err != nil {
		cPrintf(colError, "Error: %v\n", err)
		return 1
	}

	if onlyPackage != "" {
		err = sysroot.BuildPackage(spec, onlyPackage)
	} else {
		err = sysroot.Build(spec)
	}
	if err != nil {
		cPrintf(colError, "Error: %v\n", err)
		return 1
	}

	sysroot.Progress(fmt.Sprintf("The sysroot in %s is ready", sysroot.SysrootDir()))
	return 0
}

// cmdStdlib resolves and lists the standard library modules a project
// needs, marking the ones that were pulled in as dependencies.
func cmdStdlib(args []string) int {
	var projectFile string
	includeHidden := true

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--no-hidden":
			includeHidden = false
		default:
			if strings.HasPrefix(args[i], "-") {
				cPrintf(colError, "unknown option '%s'\n", args[i])
				return 1
			}
			if projectFile != "" {
				cPrintln(colError, "only one project file may be given")
				return 1
			}
			projectFile = args[i]
		}
	}

	if projectFile == "" {
		fmt.Println("Usage: pyqtdeploy stdlib [--no-hidden] <project>")
		return 1
	}

	project, err := LoadProject(projectFile)
	if err != nil {
		cPrintf(colError, "Error: %v\n", err)
		return 1
	}

	required, libraries, err := StdlibRequirements(project, includeHidden)
	if err != nil {
		cPrintf(colError, "Error: %v\n", err)
		return 1
	}

	names := make([]string, 0, len(required))
	for name := range required {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if required[name] {
			fmt.Println(name)
		} else {
			fmt.Printf("%s (dependency)\n", name)
		}
	}

	if len(libraries) > 0 {
		libs := make([]string, 0, len(libraries))
		for lib := range libraries {
			libs = append(libs, lib)
		}
		sort.Strings(libs)

		fmt.Println()
		fmt.Printf("External libraries: %s\n", strings.Join(libs, " "))
	}

	return 0
}

// cmdOptions shows the option schema of one buildable package, or lists
// all of them.
func cmdOptions(args []string) int {
	if len(args) == 0 {
		for _, name := range BuildablePackages() {
			fmt.Println(name)
		}
		return 0
	}

	factory, err := lookupPackage(args[0], nil)
	if err != nil {
		cPrintf(colError, "Error: %v\n", err)
		return 1
	}

	pkg := factory()
	pkg.SetName(args[0])

	opts := pkg.Options()
	if len(opts) == 0 {
		fmt.Printf("'%s' has no options\n", args[0])
		return 0
	}

	for _, opt := range opts {
		attrs := []string{opt.Type.String()}
		if opt.Required {
			attrs = append(attrs, "required")
		}
		if len(opt.Values) > 0 {
			attrs = append(attrs, "one of: "+strings.Join(opt.Values, ", "))
		}

		cPrintf(colSuccess, "%s", opt.Name)
		fmt.Printf(" (%s)\n", strings.Join(attrs, "; "))
		fmt.Printf("    %s\n", opt.HelpText())
	}

	return 0
}
