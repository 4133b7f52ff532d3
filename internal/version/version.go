package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// These are variables so that they can be set during the build time.
var (
	BuildDate    = "unknown"
	BuildVersion = "0.0.0"
	Commit       = "unknown"
)

// BaseVersion returns the major and minor version of the application,
// for example "v1.7". Versions which cannot be parsed yield "v0.0".
func BaseVersion() string {
	v, err := semver.NewVersion(BuildVersion)
	if err != nil {
		return "v0.0"
	}

	return fmt.Sprintf("v%d.%d", v.Major(), v.Minor())
}

// Generator identifies the application in exported files.
func Generator() string {
	return "deck " + BaseVersion()
}

func String() string {
	return fmt.Sprintf("deck %s (%s) on %s", BuildVersion, Commit, BuildDate)
}
