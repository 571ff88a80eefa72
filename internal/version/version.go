package version

// Set at build time via -ldflags, e.g.
// go build -ldflags "-X github.com/pysugar/hubspot-property-sync/internal/version.Version=v0.2.0" ./cmd/propsync
var (
	// Version is the semantic version of the service
	Version = "dev"

	// Commit is the git commit hash
	Commit = "none"

	// BuildTime is the timestamp of the build
	BuildTime = "unknown"
)

// Info is the JSON shape served by /api/version.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// Current returns the build metadata of the running binary.
func Current() Info {
	return Info{Version: Version, Commit: Commit, BuildTime: BuildTime}
}
