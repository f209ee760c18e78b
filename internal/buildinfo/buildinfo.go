// Package buildinfo holds version metadata injected at link time:
//
//	go build -ldflags "-X github.com/modoterra/logkeep/internal/buildinfo.Version=v0.3.0"
package buildinfo

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the version line printed by both binaries.
func String(binary string) string {
	return binary + " " + Version + " (" + Commit + ") built " + Date
}
