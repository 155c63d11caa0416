package pyqtdeploy

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Config struct
type Config struct {
	Values map[string]string
}

// Load /etc/pyqtdeploy.conf and apply defaults
func loadConfig(path string) (*Config, error) {
	cfg := &Config{Values: make(map[string]string)}

	// Attempt to read the file
	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			val := strings.TrimSpace(parts[1])
			val = strings.Trim(val, `"'`)
			cfg.Values[key] = val
		}
		if err := scanner.Err(); err != nil {
			return cfg, err
		}
	}

	// Merge PYQTDEPLOY_* env overrides
	mergeEnvOverrides(cfg)

	// Ensure TMPDIR has a default
	if tmp := cfg.Values["TMPDIR"]; tmp == "" {
		cfg.Values["TMPDIR"] = "/tmp"
	}

	return cfg, nil
}

// Merge PYQTDEPLOY_* env overrides
func mergeEnvOverrides(cfg *Config) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "PYQTDEPLOY_") {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 {
				cfg.Values[parts[0]] = parts[1]
			}
		}
	}
}

func initConfig(cfg *Config) {
	home, _ := os.UserHomeDir()

	SysrootDir = cfg.Values["PYQTDEPLOY_SYSROOT"]
	if SysrootDir == "" {
		SysrootDir = "sysroot"
	}

	CacheDir = cfg.Values["PYQTDEPLOY_CACHE_DIR"]
	if CacheDir == "" {
		if home != "" {
			CacheDir = filepath.Join(home, ".cache", "pyqtdeploy")
		} else {
			CacheDir = "/var/cache/pyqtdeploy"
		}
	}

	// Colon separated list of directories searched for source archives
	// before the download mirrors are tried.
	sourcePaths = cfg.Values["PYQTDEPLOY_SOURCES"]

	tmpDir = cfg.Values["TMPDIR"]
	if tmpDir == "" {
		tmpDir = "/tmp"
	}

	Debug = cfg.Values["PYQTDEPLOY_DEBUG"] == "1"

	if mirror, exists := cfg.Values["PYQTDEPLOY_MIRROR"]; exists && mirror != "" {
		SourceMirror = strings.TrimRight(mirror, "/")
		debugf("=> Using source mirror: %s\n", SourceMirror)
	}

	SourcesDir = filepath.Join(CacheDir, "sources")
}

// sourceDirs returns the configured source search path as a list.
func sourceDirs() []string {
	var dirs []string
	for _, p := range strings.Split(sourcePaths, ":") {
		p = strings.TrimSpace(p)
		if p != "" {
			dirs = append(dirs, p)
		}
	}
	return dirs
}
