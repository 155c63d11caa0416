package pyqtdeploy

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// Target identifies a platform/word-size pair a sysroot is built for.
type Target struct {
	Platform string // android, ios, linux, macos, win
	Arch     int    // 32 or 64
}

// The supported targets. Treated as a static lookup table; packages ask
// the sysroot for the target rather than inspecting the host.
var supportedTargets = map[string][]int{
	"android": {32},
	"ios":     {64},
	"linux":   {32, 64},
	"macos":   {64},
	"win":     {32, 64},
}

// Name returns the canonical platform-bits form, e.g. "linux-64".
func (t *Target) Name() string {
	return fmt.Sprintf("%s-%d", t.Platform, t.Arch)
}

// IsWindows reports whether the target runs Windows.
func (t *Target) IsWindows() bool {
	return t.Platform == "win"
}

// HostExe appends the host executable suffix to a tool name.
func (t *Target) HostExe(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// HostMake returns the name of the make tool on the host platform.
func (t *Target) HostMake() string {
	if runtime.GOOS == "windows" {
		return "nmake"
	}
	return "make"
}

// ParseTarget parses a "platform-bits" target name. An empty name means
// the host target.
func ParseTarget(name string) (*Target, error) {
	if name == "" {
		return hostTarget()
	}

	parts := strings.SplitN(name, "-", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid target name '%s'", name)
	}

	archs, ok := supportedTargets[parts[0]]
	if !ok {
		return nil, fmt.Errorf("unsupported target platform '%s'", parts[0])
	}

	var arch int
	switch parts[1] {
	case "32":
		arch = 32
	case "64":
		arch = 64
	default:
		return nil, fmt.Errorf("invalid target architecture '%s'", parts[1])
	}

	for _, a := range archs {
		if a == arch {
			return &Target{Platform: parts[0], Arch: arch}, nil
		}
	}
	return nil, fmt.Errorf("unsupported target '%s'", name)
}

// hostTarget derives the target matching the machine we are running on.
func hostTarget() (*Target, error) {
	var platform string
	switch runtime.GOOS {
	case "linux":
		platform = "linux"
	case "darwin":
		platform = "macos"
	case "windows":
		platform = "win"
	default:
		return nil, fmt.Errorf("unsupported host platform '%s'", runtime.GOOS)
	}

	arch := 64
	if strings.HasSuffix(runtime.GOARCH, "386") || runtime.GOARCH == "arm" {
		arch = 32
	}

	return &Target{Platform: platform, Arch: arch}, nil
}

// TargetNames returns the canonical names of every supported target.
func TargetNames() []string {
	var names []string
	for platform, archs := range supportedTargets {
		for _, arch := range archs {
			names = append(names, fmt.Sprintf("%s-%d", platform, arch))
		}
	}
	sort.Strings(names)
	return names
}
