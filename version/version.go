// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package version

import (
	"fmt"
	"strings"
	"time"
)

var (
	// BuildDate is the time of the git commit used to build the program,
	// in RFC3339 format. It is filled in by the linker.
	BuildDate string

	// GitCommit is the commit the binary was built from, set by the linker.
	GitCommit string

	// Version is the release this tree will become.
	Version = "0.1.0"

	// VersionPrerelease marks a build that is not a final release, such as
	// "dev" or "rc1". Empty for releases.
	VersionPrerelease = "dev"

	// VersionMetadata is appended after a "+" when set.
	VersionMetadata = ""
)

// VersionInfo describes the running build.
type VersionInfo struct {
	BuildDate         time.Time
	Revision          string
	Version           string
	VersionPrerelease string
	VersionMetadata   string
}

// GetVersion collects the linker-provided build details.
func GetVersion() *VersionInfo {
	// on parse error, will be zero value time.Time{}
	built, _ := time.Parse(time.RFC3339, BuildDate)

	return &VersionInfo{
		BuildDate:         built,
		Revision:          GitCommit,
		Version:           Version,
		VersionPrerelease: VersionPrerelease,
		VersionMetadata:   VersionMetadata,
	}
}

// VersionNumber renders the semver string, e.g. "0.1.0-dev+ent".
func (c *VersionInfo) VersionNumber() string {
	v := c.Version
	if c.VersionPrerelease != "" {
		v += "-" + c.VersionPrerelease
	}
	if c.VersionMetadata != "" {
		v += "+" + c.VersionMetadata
	}
	return v
}

// FullVersionNumber is the banner printed by the version command, with the
// build date and, when rev is set, the revision on their own lines.
func (c *VersionInfo) FullVersionNumber(rev bool) string {
	lines := []string{"Lighthouse v" + c.VersionNumber()}
	if !c.BuildDate.IsZero() {
		lines = append(lines, fmt.Sprintf("BuildDate %s", c.BuildDate.Format(time.RFC3339)))
	}
	if rev && c.Revision != "" {
		lines = append(lines, "Revision "+c.Revision)
	}
	return strings.Join(lines, "\n")
}
