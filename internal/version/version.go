package version

// Set at build time with -ldflags "-X wikilinks/internal/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
