// Package version provides build version information.
package version

import (
	"fmt"
	"runtime"
)

// Name is the program name reported by the CLI and the API.
const Name = "lnp-scraper"

// Build-time variables (set via ldflags)
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info contains version information.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Get returns the current version info.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String returns the one-line form printed by `lnp-scraper version`.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s, %s %s)", Name, i.Version, i.Commit, i.Date, i.GoVersion, i.Platform)
}
