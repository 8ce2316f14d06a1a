// Package version reports build information for the contractabi binary.
//
// The variables are injected at build time:
//
//	-ldflags "-X contractabi/internal/version.version=v1.0.0 -X contractabi/internal/version.commit=abc123 -X contractabi/internal/version.buildTime=2026-01-01T00:00:00Z"
package version

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

//nolint:gochecknoglobals // Required for build-time injection via ldflags.
var (
	version   string
	commit    string
	buildTime string
)

// ApplicationName is the name of the application displayed in version output.
const ApplicationName = "ContractABI CLI"

// Default values used when version information is not available.
const (
	DefaultVersion   = "dev"
	DefaultCommit    = "unknown"
	DefaultBuildTime = "unknown"
)

// VersionInfo encapsulates all version-related information with proper defaults.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// NewVersionInfo reads the build-time variables, substituting defaults for empty ones.
func NewVersionInfo() *VersionInfo {
	return &VersionInfo{
		Version:   withDefault(version, DefaultVersion),
		Commit:    withDefault(commit, DefaultCommit),
		BuildTime: withDefault(buildTime, DefaultBuildTime),
	}
}

func withDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// FormatShort returns only the version number.
func (vi *VersionInfo) FormatShort() string {
	return vi.Version
}

// FormatFull returns the application name followed by one line per field.
func (vi *VersionInfo) FormatFull() string {
	return fmt.Sprintf("%s\nVersion: %s\nCommit: %s\nBuilt: %s\n",
		ApplicationName, vi.Version, vi.Commit, vi.BuildTime)
}

// Write formats the version based on the short flag and writes to the provided writer.
func (vi *VersionInfo) Write(w io.Writer, short bool) error {
	var err error
	if short {
		_, err = fmt.Fprintln(w, vi.FormatShort())
	} else {
		_, err = fmt.Fprint(w, vi.FormatFull())
	}
	return err
}

// WriteJSON writes the version information as a JSON object.
func (vi *VersionInfo) WriteJSON(w io.Writer) error {
	return json.NewEncoder(w).Encode(vi)
}

// UserAgent identifies this build to remote services, e.g. as a NATS connection name.
func (vi *VersionInfo) UserAgent() string {
	return "contractabi/" + vi.Version
}

// IsDevelopment returns true if the version indicates a development build.
func (vi *VersionInfo) IsDevelopment() bool {
	return vi.Version == DefaultVersion
}

// GetBuildTime parses the build time. It returns the zero time when unknown or unparsable.
func (vi *VersionInfo) GetBuildTime() time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, vi.BuildTime); err == nil {
			return t
		}
	}
	return time.Time{}
}

// GetVersion returns the current version information.
func GetVersion() *VersionInfo {
	return NewVersionInfo()
}

// SetBuildVars overrides the build-time variables. Used by tests.
func SetBuildVars(ver, com, bt string) {
	version = ver
	commit = com
	buildTime = bt
}

// ResetBuildVars clears the build-time variables. Used by tests.
func ResetBuildVars() {
	SetBuildVars("", "", "")
}
