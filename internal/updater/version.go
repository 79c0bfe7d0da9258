package updater

import "github.com/Masterminds/semver/v3"

// IsNewer reports whether latest is strictly greater than installed under
// semantic version ordering. A missing installed version is always older.
func IsNewer(installed, latest *semver.Version) bool {
	if latest == nil {
		return false
	}
	if installed == nil {
		return true
	}
	return latest.GreaterThan(installed)
}
