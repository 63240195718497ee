package buildinfo

import "fmt"

var (
	// Version will be set via ldflags during build.
	Version = "dev"
	// Commit will be set via ldflags during build.
	Commit = "none"
	// Date will be set via ldflags during build.
	Date = "unknown"
)

// Describe returns the version line printed by "incidence --version".
func Describe() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}
