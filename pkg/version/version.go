// Package version holds the arpx release shown in the banner and by
// -version. Release builds override Version with
// -ldflags "-X github.com/projectdiscovery/arpx/pkg/version.Version=...".
package version

var Version = "v0.1.0"

// GetVersion returns the arpx release string.
func GetVersion() string {
	return Version
}
