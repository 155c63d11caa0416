package pyqtdeploy

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

func newHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	// Increase TLS handshake timeout to handle slow mirrors.
	// Default is 10s, we increase it to 30s.
	transport.TLSHandshakeTimeout = 30 * time.Second

	return &http.Client{
		Transport: transport,
		Timeout:   300 * time.Second, // 5 min total timeout for large downloads
	}
}

// downloadFile downloads a URL into the source cache. A lock file
// serialises concurrent invocations (e.g. two builds sharing a cache)
// and the presence of the target is re-checked under the lock.
func downloadFile(url, destFile string) error {
	if err := os.MkdirAll(SourcesDir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", SourcesDir, err)
	}

	absPath := destFile
	if !filepath.IsAbs(destFile) {
		absPath = filepath.Join(SourcesDir, filepath.Base(destFile))
	}
	lockPath := absPath + ".lock"

	lFile, err := os.Create(lockPath)
	if err != nil {
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	defer lFile.Close()

	// Acquire an exclusive lock. This will block if another process is
	// downloading the same archive.
	if err := unix.Flock(int(lFile.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("failed to acquire lock for download: %w", err)
	}
	defer unix.Flock(int(lFile.Fd()), unix.LOCK_UN)

	// DOUBLE CHECK: now that we have the lock, check if the file exists
	// again. Another process might have finished it while we waited.
	if _, err := os.Stat(absPath); err == nil {
		debugf("File %s appeared after acquiring lock, skipping download.\n", absPath)
		_ = os.Remove(lockPath)
		return nil
	}

	defer func() {
		if _, err := os.Stat(absPath); err == nil {
			_ = os.Remove(lockPath)
		}
	}()

	debugf("Downloading %s -> %s\n", url, absPath)

	client := newHTTPClient()
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: %s", url, resp.Status)
	}

	// Download to a partial file first so an interrupted run never
	// leaves a truncated archive in the cache.
	partPath := absPath + ".part"
	out, err := os.Create(partPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", partPath, err)
	}

	bar := newDownloadBar(resp.ContentLength, filepath.Base(absPath))
	_, err = io.Copy(io.MultiWriter(out, bar), resp.Body)
	out.Close()
	if err != nil {
		_ = os.Remove(partPath)
		return fmt.Errorf("failed to download %s: %w", url, err)
	}

	if err := os.Rename(partPath, absPath); err != nil {
		return fmt.Errorf("failed to move downloaded file into place: %w", err)
	}
	return nil
}

// newDownloadBar returns a byte progress bar, or a silent one when
// stdout is not a terminal.
func newDownloadBar(size int64, desc string) *progressbar.ProgressBar {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return progressbar.DefaultBytesSilent(size, desc)
	}
	return progressbar.DefaultBytes(size, desc)
}

// fetchSource tries to obtain a source archive that was not found on the
// local search path: first from the S3 mirror if one is configured, then
// from the plain HTTP mirror. The downloaded archive is verified against
// its checksum sidecar when one is available.
func fetchSource(name string, cfg *Config) (string, error) {
	dest := filepath.Join(SourcesDir, name)

	if _, err := os.Stat(dest); err != nil {
		fetched := false

		if mirrorConfigured(cfg) {
			client, err := newMirrorClient(cfg)
			if err != nil {
				return "", err
			}
			if err := client.FetchSource(name, dest); err == nil {
				fetched = true
			} else {
				debugf("S3 mirror fetch for %s failed: %v\n", name, err)
			}
		}

		if !fetched && SourceMirror != "" {
			if err := downloadFile(SourceMirror+"/"+name, dest); err != nil {
				return "", err
			}
			fetched = true
		}

		if !fetched {
			return "", fmt.Errorf("%s: %w", name, errFileNotFound)
		}
	}

	if err := verifyChecksum(dest); err != nil {
		// A corrupt download must not be reused by the next run.
		_ = os.Remove(dest)
		return "", err
	}
	return dest, nil
}
