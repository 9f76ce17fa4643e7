// Package version exposes build metadata stamped in with -ldflags, plus the
// per-process identity attached to every log line and telemetry resource.
package version

import (
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
)

// Stamped at build time, for example:
//
//	go build -ldflags "-X bookmarks/internal/version.Version=v0.4.0 \
//	  -X bookmarks/internal/version.GitCommit=$(git rev-parse --short HEAD) \
//	  -X bookmarks/internal/version.BuildDate=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	Version   = "unknown"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Info describes one running bookmarks process.
type Info struct {
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit"`
	BuildDate  string `json:"build_date"`
	InstanceID string `json:"instance_id"`
	Hostname   string `json:"hostname"`
}

var (
	once sync.Once
	info Info
)

// GetInfo returns the process identity. The instance id is generated on the
// first call and stays fixed for the life of the process.
func GetInfo() Info {
	once.Do(func() {
		info = Info{
			Version:    Version,
			GitCommit:  GitCommit,
			BuildDate:  BuildDate,
			InstanceID: uuid.NewString(),
			Hostname:   getHostname(),
		}
	})
	return info
}

func getHostname() string {
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		return hostname
	}
	return "unknown"
}

// String is the -version output of cmd/bookmarks.
func (i Info) String() string {
	return fmt.Sprintf("bookmarks version %s (commit: %s, built: %s)", i.Version, i.GitCommit, i.BuildDate)
}
