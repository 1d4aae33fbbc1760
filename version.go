// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlitesetup

import (
	"github.com/maloquacious/semver"
)

var (
	version = semver.Version{
		Major: 0,
		Minor: 3,
		Patch: 0,
		Build: semver.Commit(),
	}
)

// Version returns the library version.
func Version() semver.Version {
	return version
}
