// Package version reports build information for propcrawl.
//
// Release builds stamp the variables below with ldflags:
//
//	go build -ldflags "-X github.com/jmylchreest/propcrawl/internal/version.Version=1.0.0 ..."
//
// Builds without ldflags fall back to the VCS metadata the Go toolchain
// embeds in the binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	Dirty     = "false"
	BuildDate = "unknown"
)

// Info contains structured version information
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Dirty     bool   `json:"dirty"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

var (
	once sync.Once
	info Info
)

// Get returns the build information, resolved once per process.
func Get() Info {
	once.Do(func() {
		info = resolve(Version, Commit, Dirty, BuildDate, readSettings())
	})
	return info
}

func readSettings() map[string]string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	settings := make(map[string]string, len(bi.Settings))
	for _, s := range bi.Settings {
		settings[s.Key] = s.Value
	}
	if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		settings["module.version"] = bi.Main.Version
	}
	return settings
}

// resolve merges ldflags values with embedded VCS settings; ldflags win.
func resolve(ver, commit, dirty, date string, settings map[string]string) Info {
	if ver == "dev" && settings["module.version"] != "" {
		ver = strings.TrimPrefix(settings["module.version"], "v")
	}
	if commit == "unknown" && settings["vcs.revision"] != "" {
		commit = settings["vcs.revision"]
		if len(commit) > 12 {
			commit = commit[:12]
		}
		if settings["vcs.modified"] == "true" {
			dirty = "true"
		}
	}
	if date == "unknown" && settings["vcs.time"] != "" {
		date = settings["vcs.time"]
	}
	return Info{
		Version:   ver,
		Commit:    commit,
		Dirty:     dirty == "true",
		BuildDate: date,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a single-line version string
func String() string {
	i := Get()
	if i.Dirty {
		return i.Version + "-dirty"
	}
	return i.Version
}

// Full returns a multi-line version string with all details
func Full() string {
	i := Get()
	var sb strings.Builder
	fmt.Fprintf(&sb, "propcrawl %s\n", String())
	fmt.Fprintf(&sb, "  Commit:     %s\n", i.Commit)
	fmt.Fprintf(&sb, "  Built:      %s\n", i.BuildDate)
	fmt.Fprintf(&sb, "  Go version: %s\n", i.GoVersion)
	fmt.Fprintf(&sb, "  OS/Arch:    %s", i.Platform)
	return sb.String()
}
