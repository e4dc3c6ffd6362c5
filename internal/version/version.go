package version

// Set at build time via -ldflags "-X github.com/govwallet/sidecar/internal/version.Version=..."
var (
	Version = "unreleased"
	Commit  = "unknown"
)

func GetVersion() string {
	return Version
}

func GetCommit() string {
	return Commit
}
