// Package settings provides build metadata, runtime configuration, and
// context helpers shared by the formwin CLI and library packages.
package settings

// CliBinaryName is the canonical binary name for the demo CLI.
const CliBinaryName = "formwin"

// VersionInformation is populated at build time via ldflags and holds the
// commit hash, semantic version, and build timestamp of the running binary.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds metadata about the build.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// Run holds configuration for a single execution of the demo CLI: logging,
// config file location, and rendering behavior.
type Run struct {
	MinLogLevel int8
	ConfigPath  string
	NoColor     bool
	NoBorder    bool
}

// NewCliParams returns Run defaults for CLI usage.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel: 0,
		NoColor:     false,
		NoBorder:    false,
	}
}
