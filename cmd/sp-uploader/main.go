// sp-uploader - SharePoint to Curate transfer service
package main

import (
	"os"

	"github.com/penwern/curate-sharepoint-uploader/internal/cli"
	"github.com/penwern/curate-sharepoint-uploader/internal/version"
)

// Version information - injected via LDFLAGS for release builds.
var (
	Version   = "v1.0.0"
	BuildTime = "2026-08-26"
)

func main() {
	version.Version = Version
	version.BuildTime = BuildTime

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
