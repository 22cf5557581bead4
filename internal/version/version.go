// Package version reports what build of elitewave is running. Release
// builds set the variables below with -ldflags -X; other builds fall back
// to the VCS stamp the Go toolchain embeds.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// ApplicationName names the binary, the env prefix and the User-Agent.
const ApplicationName = "elitewave"

// Set by the release build.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Info is the machine readable form printed by `elitewave version --json`.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Date      string `json:"date,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo merges the linker variables with the embedded build settings.
func GetInfo() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == "" {
				info.Date = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// String is the line printed by `elitewave version`.
func String() string {
	info := GetInfo()
	s := fmt.Sprintf("%s version %s", ApplicationName, info.Version)
	if sha := short(info.Commit); sha != "" {
		s += fmt.Sprintf(" (commit: %s", sha)
		if info.Date != "" {
			s += ", built: " + info.Date
		}
		s += ")"
	}
	return fmt.Sprintf("%s %s %s", s, info.GoVersion, info.Platform)
}

// Short is the value cobra prints for --version.
func Short() string {
	if sha := short(Commit); sha != "" {
		return Version + " (" + sha + ")"
	}
	return Version
}

// UserAgent identifies elitewave to Xtream panels.
func UserAgent() string {
	return ApplicationName + "/" + Version
}

func short(commit string) string {
	if len(commit) < 8 {
		return ""
	}
	return commit[:8]
}
