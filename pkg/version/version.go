package version

import "time"

var (
	version   = "unknown"
	gitSHA    = ""
	buildTime = ""

	build Build
)

// Build holds details about this build of the mbutane binary
type Build struct {
	Version      string
	GitSHA       string
	BuildTime    time.Time
	TimeFallback string `json:"time_fallback,omitempty"`
}

// Init sets up the version info from build args
func Init() {
	build = Build{Version: version}
	if len(gitSHA) >= 7 {
		build.GitSHA = gitSHA[:7]
	}
	var err error
	build.BuildTime, err = time.Parse(time.RFC3339, buildTime)
	if err != nil {
		build.TimeFallback = buildTime
	}
}

func GetBuild() Build {
	return build
}

func Version() string {
	return build.Version
}

func GitSHA() string {
	return build.GitSHA
}

func BuildTime() time.Time {
	return build.BuildTime
}
