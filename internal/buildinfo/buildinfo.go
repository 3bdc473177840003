// Package buildinfo holds build-time metadata injected via -ldflags.
package buildinfo

// Version is the semantic version or tag for this build.
// Inject via: -X github.com/genocem/Edumond-AI-portal/internal/buildinfo.Version=...
var Version = ""

// Commit is the git commit SHA for this build.
// Inject via: -X github.com/genocem/Edumond-AI-portal/internal/buildinfo.Commit=...
var Commit = ""

// BuildDate is the RFC3339 build timestamp.
// Inject via: -X github.com/genocem/Edumond-AI-portal/internal/buildinfo.BuildDate=...
var BuildDate = ""

// Release identifies the build for error tracking: the version when set,
// else the short commit, else "dev".
func Release() string {
	switch {
	case Version != "":
		return Version
	case len(Commit) > 12:
		return Commit[:12]
	case Commit != "":
		return Commit
	default:
		return "dev"
	}
}
