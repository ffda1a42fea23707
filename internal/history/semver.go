package history

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// InitialVersion is assigned to the first record of every document.
const InitialVersion = "1.0.0"

// CompareVersions compares two version strings using semver.
// Returns -1 if a < b, 0 if equal, 1 if a > b. A leading "v" is tolerated.
func CompareVersions(a, b string) (int, error) {
	av, err := parseSemver(a)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", a, err)
	}
	bv, err := parseSemver(b)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", b, err)
	}
	return av.Compare(bv), nil
}

// NextVersion increments prev by the component named in bump.
func NextVersion(prev string, bump Bump) (string, error) {
	v, err := parseSemver(prev)
	if err != nil {
		return "", fmt.Errorf("parsing version %q: %w", prev, err)
	}
	var next semver.Version
	switch bump {
	case BumpMajor:
		next = v.IncMajor()
	case BumpMinor:
		next = v.IncMinor()
	case BumpPatch:
		next = v.IncPatch()
	default:
		return "", fmt.Errorf("cannot bump %q by %q", prev, bump)
	}
	return next.String(), nil
}

func parseSemver(version string) (*semver.Version, error) {
	version = strings.TrimPrefix(version, "v")
	return semver.StrictNewVersion(version)
}
