package scraper

import (
	"log/slog"
	"os/exec"
)

// Common Chrome/Chromium binary names across different systems
var chromeBinaryNames = []string{
	"google-chrome-stable",
	"google-chrome",
	"chromium",
	"chromium-browser",
	"chrome",
	// macOS paths
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Chromium.app/Contents/MacOS/Chromium",
	// Common Linux paths
	"/snap/bin/chromium",
	// Windows paths
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
}

// FindChromePath searches for a Chrome/Chromium binary on the system.
// Returns empty string if no Chrome binary is found, leaving the lookup to
// chromedp.
func FindChromePath(log *slog.Logger) string {
	for _, name := range chromeBinaryNames {
		if path, err := exec.LookPath(name); err == nil {
			log.Debug("found Chrome binary", "name", name, "path", path)
			return path
		}
	}
	log.Warn("no Chrome binary found - rendering may not work")
	return ""
}
