// Package build provides domain entities for build information.
package build

import "runtime/debug"

// Info holds build-time information injected via ldflags.
type Info struct {
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
}

// Contributors returns the list of project contributors.
func Contributors() []string {
	return []string{"bnema"}
}

// RepoURL returns the GitHub repository URL.
func RepoURL() string {
	return "https://github.com/bnema/voce"
}

// FillFromModule completes unset fields from the embedded module build info
// (go install builds carry no ldflags).
func (i Info) FillFromModule() Info {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return i
	}
	if i.Version == "" || i.Version == "dev" {
		if v := bi.Main.Version; v != "" && v != "(devel)" {
			i.Version = v
		}
	}
	if i.GoVersion == "" {
		i.GoVersion = bi.GoVersion
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if i.Commit == "" || i.Commit == "unknown" {
				i.Commit = s.Value
			}
		case "vcs.time":
			if i.BuildDate == "" || i.BuildDate == "unknown" {
				i.BuildDate = s.Value
			}
		}
	}
	return i
}
