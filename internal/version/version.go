// Package version holds build metadata injected via ldflags:
//
//	-X github.com/kailas-cloud/ragchat/internal/version.Version=v1.2.3
package version

import "go.uber.org/zap"

//nolint:revive // set via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Fields returns the build metadata as log fields.
func Fields() []zap.Field {
	return []zap.Field{
		zap.String("version", Version),
		zap.String("commit", Commit),
		zap.String("build_date", Date),
	}
}

// String renders the metadata for -version output.
func String() string {
	return Version + " (" + Commit + ", " + Date + ")"
}
