// Package misc keeps build time information.
package misc

// Set with -ldflags "-X stylo/misc.version=... -X stylo/misc.gitHash=..."
var (
	appName = "stylo"
	version = "dev"
	gitHash = "unknown"
)

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
