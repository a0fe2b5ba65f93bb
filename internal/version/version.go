// Package version carries build identity for the \v and \V prompt
// escapes and the CLI -version flag.
package version

import "strings"

// These variables are populated by the Go linker (LDFLAGS) at build time.
var (
	Version    = "dev"     // Default value if not built with LDFLAGS
	CommitHash = "unknown" // Default value
	BuildDate  = "unknown" // Default value
)

// Short returns MAJOR.MINOR from Version, or Version itself when it
// does not carry two dot-separated components.
func Short() string {
	v := strings.TrimPrefix(Version, "v")
	parts := strings.SplitN(v, ".", 3)
	if len(parts) < 2 {
		return v
	}
	return parts[0] + "." + parts[1]
}

// Full returns the complete version string.
func Full() string {
	return strings.TrimPrefix(Version, "v")
}
