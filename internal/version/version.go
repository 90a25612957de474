package version

import "fmt"

var (
	// Version is the main version number, set at build time.
	Version = "0.1.0"

	// GitCommit is the git commit of the build, set at build time.
	GitCommit string
)

// Full returns the version with the commit appended when known.
func Full() string {
	if GitCommit == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, GitCommit)
}
