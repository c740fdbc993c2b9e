package tlcache

// Version information for tlcache.
// Version and the build info below can be overridden at build time:
//
//	go build -ldflags "-X github.com/ZaguanLabs/tlcache.Version=1.0.0"
const (
	// Name is the service name reported by the health endpoint.
	Name = "tlcache"

	// Description is a short description of the service.
	Description = "Translation cache with request-time fallback and background backfill"

	// Repository is the source code repository URL.
	Repository = "https://github.com/ZaguanLabs/tlcache"
)

var (
	// Version is the semantic version of the service.
	Version = "0.1.0"

	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// FullVersion returns the version string with the short commit appended
// when known.
func FullVersion() string {
	v := Version
	if GitCommit != "unknown" && GitCommit != "" {
		short := GitCommit
		if len(short) > 7 {
			short = short[:7]
		}
		v += "+" + short
	}
	return v
}

// UserAgent returns the user agent sent on outgoing HTTP requests.
func UserAgent() string {
	return Name + "/" + Version
}
