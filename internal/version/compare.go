package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// CheckSchemaCompatibility checks whether data written with schema version
// stored can be read by code expecting schema version current.
// Returns nil if compatible, an ErrCodeInvalidVersion error if not.
//
// Compatibility Rules:
//   - If either version is "main" (development build), the check is skipped
//   - Major versions must match exactly
//   - Minor versions must match exactly
//   - Patch versions can differ (e.g., 1.2.0 reads data written by 1.2.5)
//
// Examples:
//   - Current 1.2.0, Stored 1.2.0 -> OK (exact match)
//   - Current 1.2.1, Stored 1.2.0 -> OK (patch differs)
//   - Current 1.3.0, Stored 1.2.0 -> ERROR (minor differs)
//   - Current 2.0.0, Stored 1.2.0 -> ERROR (major differs)
//   - Current main, Stored 1.2.0 -> OK (dev build, skip check)
func CheckSchemaCompatibility(current, stored string) error {
	current = strings.TrimPrefix(current, "v")
	stored = strings.TrimPrefix(stored, "v")

	if current == "main" || stored == "main" {
		return nil
	}

	currentSemver, err := semver.NewVersion(current)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid current schema version '%s'", current)
	}

	storedSemver, err := semver.NewVersion(stored)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid stored schema version '%s'", stored)
	}

	if currentSemver.Major() != storedSemver.Major() {
		return errors.Newf(errors.ErrCodeInvalidVersion, "major version mismatch: expected %d.x.x but data was written by %d.x.x",
			currentSemver.Major(), storedSemver.Major())
	}

	if currentSemver.Minor() != storedSemver.Minor() {
		return errors.Newf(errors.ErrCodeInvalidVersion, "minor version mismatch: expected %d.%d.x but data was written by %d.%d.x",
			currentSemver.Major(), currentSemver.Minor(),
			storedSemver.Major(), storedSemver.Minor())
	}

	return nil
}
