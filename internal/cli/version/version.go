package version

import "fmt"

// Set at build time via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func Full() string {
	return fmt.Sprintf("%s (%s, built %s)", Version, Commit, Date)
}

func Short() string {
	return Version
}
