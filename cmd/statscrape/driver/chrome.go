package driver

import (
	"os/exec"
	"runtime"

	"github.com/jmylchreest/statscrape/internal/logger"
)

// chromeNames are looked up on PATH on every platform.
var chromeNames = []string{
	"google-chrome-stable",
	"google-chrome",
	"chromium",
	"chromium-browser",
	"chrome",
}

// chromeInstallPaths are well-known install locations keyed by GOOS.
var chromeInstallPaths = map[string][]string{
	"darwin": {
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
	},
	"linux": {
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	},
	"windows": {
		`C:\Program Files\Google\Chrome\Application\chrome.exe`,
		`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
	},
}

// FindChromePath resolves the Chrome binary for local backends. An override
// that resolves wins; otherwise PATH names are tried before install paths for
// the current OS. Returns "" when nothing is found, leaving the backend to
// its own default lookup.
func FindChromePath(override string) string {
	if override != "" {
		if path, err := exec.LookPath(override); err == nil {
			return path
		}
		logger.Warn("configured Chrome binary not found, searching defaults", "path", override)
	}

	candidates := append(append([]string{}, chromeNames...), chromeInstallPaths[runtime.GOOS]...)
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			logger.Debug("found Chrome binary", "candidate", name, "path", path)
			return path
		}
	}
	logger.Warn("no Chrome binary found, local browser backends may not start", "os", runtime.GOOS)
	return ""
}
